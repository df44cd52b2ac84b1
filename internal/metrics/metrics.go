package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics は定期ジョブと更新系ハンドラの稼働状況を集計する Prometheus コレクタ群。
type Metrics struct {
	IngestRuns         prometheus.Counter
	IngestStores       *prometheus.CounterVec
	IngestLastRun      prometheus.Gauge
	DetectionRuns      prometheus.Counter
	DetectedApps       prometheus.Counter
	AppRegistrations   prometheus.Counter
	StoreDetailUpdates prometheus.Counter
}

// New は Registerer へコレクタを登録した Metrics を生成する。
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		IngestRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "congestion_ingest_runs_total",
			Help: "混雑情報の取り込みジョブの実行回数",
		}),
		IngestStores: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "congestion_ingest_stores_total",
			Help: "取り込みジョブが処理した店舗数（結果別）",
		}, []string{"result"}),
		IngestLastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "congestion_ingest_last_run_timestamp_seconds",
			Help: "取り込みジョブが最後に完了した UNIX 時刻",
		}),
		DetectionRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "app_detection_runs_total",
			Help: "アプリ検出ジョブの実行回数",
		}),
		DetectedApps: factory.NewCounter(prometheus.CounterOpts{
			Name: "app_detection_candidates_total",
			Help: "検出ジョブが見つけたアプリ候補の累計",
		}),
		AppRegistrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "store_app_registrations_total",
			Help: "アプリ登録 API で受け付けた件数",
		}),
		StoreDetailUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "store_detail_updates_total",
			Help: "店舗詳細更新 API で受け付けた件数",
		}),
	}
}
