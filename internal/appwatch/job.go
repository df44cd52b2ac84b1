package appwatch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/machinaka-dev/congestion-map-services/api/internal/metrics"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/application"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/domain"
)

// Candidate は検出ジョブが見つけた店舗アプリの候補。
type Candidate struct {
	StoreID string
	Name    string
	Type    domain.AppType
	URL     string
}

// Detector は新規アプリの検出ロジックを差し替え可能にするポート。
type Detector interface {
	Detect(ctx context.Context) ([]Candidate, error)
}

// NopDetector は常に候補ゼロを返す既定の実装。
// TODO: 店舗公式サイトのクロールによる検出実装へ差し替える。
type NopDetector struct{}

// Detect implements Detector.
func (NopDetector) Detect(context.Context) ([]Candidate, error) {
	return nil, nil
}

// Notifier は管理者チャネルへの送信を抽象化する。
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// Job は定期的にアプリ候補を検出し、未処理の発見レコードとして保存・通知する。
type Job struct {
	logger      *log.Logger
	detector    Detector
	discoveries application.DiscoveryRepository
	notifier    Notifier
	metrics     *metrics.Metrics
}

// NewJob creates a new app detection job.
func NewJob(logger *log.Logger, detector Detector, discoveries application.DiscoveryRepository, notifier Notifier, m *metrics.Metrics) *Job {
	return &Job{logger: logger, detector: detector, discoveries: discoveries, notifier: notifier, metrics: m}
}

// Run は検出・保存・通知を 1 サイクル実行し、検出した候補数を返す。
// 保存失敗はレコード単位でログに残して継続し、通知失敗はログのみでジョブを失敗させない。
func (j *Job) Run(ctx context.Context) (int, error) {
	j.logger.Printf("アプリ検出処理を開始します")

	candidates, err := j.detector.Detect(ctx)
	if err != nil {
		return 0, fmt.Errorf("アプリ検出に失敗: %w", err)
	}

	for _, candidate := range candidates {
		discovery := &domain.AppDiscovery{
			StoreID:      candidate.StoreID,
			AppName:      candidate.Name,
			AppType:      candidate.Type,
			URL:          candidate.URL,
			DiscoveredAt: time.Now().UTC(),
			Processed:    false,
		}
		if err := j.discoveries.Insert(ctx, discovery); err != nil {
			j.logger.Printf("発見レコードの保存に失敗 storeId=%s app=%s: %v", candidate.StoreID, candidate.Name, err)
		}
	}

	if len(candidates) > 0 {
		if err := j.notifier.Send(ctx, buildAdminMessage(candidates)); err != nil {
			j.logger.Printf("管理者通知の送信に失敗: %v", err)
		}
	}

	if j.metrics != nil {
		j.metrics.DetectionRuns.Inc()
		j.metrics.DetectedApps.Add(float64(len(candidates)))
	}

	j.logger.Printf("アプリ検出処理が完了しました: detected=%d", len(candidates))
	return len(candidates), nil
}

// buildAdminMessage は検出結果を管理者向けの 1 通のサマリへ整形する。
func buildAdminMessage(candidates []Candidate) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("新しいアプリが検出されました (%d件):\n", len(candidates)))
	for _, candidate := range candidates {
		builder.WriteString(fmt.Sprintf("- %s (%s): %s\n", candidate.Name, candidate.Type, candidate.StoreID))
	}
	return strings.TrimRight(builder.String(), "\n")
}
