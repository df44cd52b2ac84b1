package public

import (
	"log"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/machinaka-dev/congestion-map-services/api/internal/metrics"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/application"
)

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger        *log.Logger
	storeQueries  application.StoreQueryService
	storeCommands application.StoreCommandService
	location      *time.Location
	metrics       *metrics.Metrics
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger        *log.Logger
	StoreQueries  application.StoreQueryService
	StoreCommands application.StoreCommandService
	Location      *time.Location
	Metrics       *metrics.Metrics
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:        cfg.Logger,
		storeQueries:  cfg.StoreQueries,
		storeCommands: cfg.StoreCommands,
		location:      cfg.Location,
		metrics:       cfg.Metrics,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/stores", h.storeListHandler())
	r.Get("/stores/{id}", h.storeDetailHandler())
	r.Post("/stores/details", h.storeUpdateHandler())
	r.Post("/stores/apps", h.appRegisterHandler())
}
