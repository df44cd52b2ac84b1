package congestion

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/machinaka-dev/congestion-map-services/api/internal/metrics"
	"github.com/machinaka-dev/congestion-map-services/api/internal/places"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/domain"
)

// StoreSource は取り込みジョブが必要とする店舗の列挙と混雑情報の書き込みを提供するポート。
type StoreSource interface {
	FindAll(ctx context.Context) ([]domain.Store, error)
	UpdateCongestion(ctx context.Context, id string, snapshot domain.CongestionSnapshot, openingHours string) error
}

// PlacesClient は placeId から観測値を取得する外部コラボレータ。
type PlacesClient interface {
	Details(ctx context.Context, placeID string) (*places.Details, error)
}

// Result は店舗 1 件分の更新結果。Err が nil なら成功。
type Result struct {
	StoreID string
	Err     error
}

// Ingestor は追跡対象の全店舗について混雑情報を取得・分類し、店舗ドキュメントへマージする。
type Ingestor struct {
	logger  *log.Logger
	stores  StoreSource
	places  PlacesClient
	metrics *metrics.Metrics
}

// NewIngestor creates a new congestion ingestor.
func NewIngestor(logger *log.Logger, stores StoreSource, placesClient PlacesClient, m *metrics.Metrics) *Ingestor {
	return &Ingestor{logger: logger, stores: stores, places: placesClient, metrics: m}
}

// Run は placeId と位置情報を持つ全店舗の混雑情報を更新する。
// 店舗ごとの取得・書き込みは独立に並行実行し、個別の失敗はログに残してバッチを継続する。
// 全店舗分の処理が完了するまで待ち、試行した件数分の結果リストを返す。
func (ing *Ingestor) Run(ctx context.Context) ([]Result, error) {
	stores, err := ing.stores.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("店舗一覧の取得に失敗: %w", err)
	}

	targets := make([]domain.Store, 0, len(stores))
	for _, store := range stores {
		// 位置情報か placeId を欠く店舗は対象外。エラーではなく黙ってスキップする。
		if !store.HasPlace() {
			continue
		}
		targets = append(targets, store)
	}

	results := make([]Result, len(targets))
	var wg sync.WaitGroup
	for i, store := range targets {
		wg.Add(1)
		go func(i int, store domain.Store) {
			defer wg.Done()
			results[i] = Result{StoreID: store.ID, Err: ing.refresh(ctx, store)}
		}(i, store)
	}
	wg.Wait()

	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
			ing.logger.Printf("店舗 %s の混雑情報更新に失敗: %v", result.StoreID, result.Err)
		}
	}

	if ing.metrics != nil {
		ing.metrics.IngestRuns.Inc()
		ing.metrics.IngestStores.WithLabelValues("success").Add(float64(len(results) - failed))
		ing.metrics.IngestStores.WithLabelValues("failure").Add(float64(failed))
		ing.metrics.IngestLastRun.SetToCurrentTime()
	}

	ing.logger.Printf("混雑情報を更新しました: attempted=%d failed=%d", len(results), failed)
	return results, nil
}

// refresh は店舗 1 件分の取得・分類・書き込みを行う。
func (ing *Ingestor) refresh(ctx context.Context, store domain.Store) error {
	details, err := ing.places.Details(ctx, store.PlaceID)
	if err != nil {
		return err
	}

	level, liveData := Classify(details.Popularity)
	snapshot := domain.NewCongestionSnapshot(level, liveData, time.Now().UTC())

	openingHours := ""
	if len(details.WeekdayText) > 0 {
		openingHours = strings.Join(details.WeekdayText, ", ")
	}

	return ing.stores.UpdateCongestion(ctx, store.ID, snapshot, openingHours)
}
