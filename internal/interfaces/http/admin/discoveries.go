package admin

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/machinaka-dev/congestion-map-services/api/internal/interfaces/http/common"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/application"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/domain"
)

type discoveryResponse struct {
	ID           string    `json:"id"`
	StoreID      string    `json:"storeId"`
	AppName      string    `json:"appName"`
	AppType      string    `json:"appType"`
	URL          string    `json:"url"`
	DiscoveredAt time.Time `json:"discoveredAt"`
	Processed    bool      `json:"processed"`
}

// discoveryListHandler は人手レビュー向けに発見ログを新しい順で返す。
func (h *Handler) discoveryListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		query := r.URL.Query()
		filter := application.DiscoveryFilter{
			StoreID: strings.TrimSpace(query.Get("storeId")),
		}
		if raw := strings.TrimSpace(query.Get("processed")); raw != "" {
			if processed, err := strconv.ParseBool(raw); err == nil {
				filter.Processed = &processed
			}
		}
		if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
			if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
				filter.Limit = limit
			}
		}

		discoveries, err := h.discoveries.Find(ctx, filter)
		if err != nil {
			h.logger.Printf("発見ログの取得に失敗: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "発見ログの取得に失敗しました"})
			return
		}

		items := make([]discoveryResponse, 0, len(discoveries))
		for _, discovery := range discoveries {
			items = append(items, buildDiscoveryResponse(discovery))
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{"items": items})
	}
}

func buildDiscoveryResponse(discovery domain.AppDiscovery) discoveryResponse {
	return discoveryResponse{
		ID:           discovery.ID,
		StoreID:      discovery.StoreID,
		AppName:      discovery.AppName,
		AppType:      discovery.AppType.String(),
		URL:          discovery.URL,
		DiscoveredAt: discovery.DiscoveredAt,
		Processed:    discovery.Processed,
	}
}
