package admin

import (
	"context"
	"log"

	"github.com/go-chi/chi/v5"
	"github.com/machinaka-dev/congestion-map-services/api/internal/congestion"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/application"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/domain"
)

// IngestionRunner は混雑取り込みジョブの手動実行を抽象化する。
type IngestionRunner interface {
	Run(ctx context.Context) ([]congestion.Result, error)
}

// DetectionRunner はアプリ検出ジョブの手動実行を抽象化する。
type DetectionRunner interface {
	Run(ctx context.Context) (int, error)
}

// DiscoveryLister はレビュー画面向けの発見ログ参照を抽象化する。
type DiscoveryLister interface {
	Find(ctx context.Context, filter application.DiscoveryFilter) ([]domain.AppDiscovery, error)
}

// Handler wires admin HTTP endpoints to the scheduled jobs and discovery log.
type Handler struct {
	logger      *log.Logger
	ingestion   IngestionRunner
	detection   DetectionRunner
	discoveries DiscoveryLister
}

// Config provides dependencies for Handler.
type Config struct {
	Logger      *log.Logger
	Ingestion   IngestionRunner
	Detection   DetectionRunner
	Discoveries DiscoveryLister
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:      cfg.Logger,
		ingestion:   cfg.Ingestion,
		detection:   cfg.Detection,
		discoveries: cfg.Discoveries,
	}
}

// Register mounts admin routes onto router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/jobs/congestion", h.congestionRunHandler())
	r.Post("/jobs/app-detection", h.detectionRunHandler())
	r.Get("/app-updates", h.discoveryListHandler())
}
