package public

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/machinaka-dev/congestion-map-services/api/internal/interfaces/http/common"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/application"
	"go.mongodb.org/mongo-driver/mongo"
)

func (h *Handler) storeListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		query := r.URL.Query()
		filter := application.StoreFilter{
			Type:    strings.TrimSpace(query.Get("type")),
			Keyword: strings.TrimSpace(query.Get("keyword")),
		}

		stores, err := h.storeQueries.List(ctx, filter)
		if err != nil {
			h.logger.Printf("店舗一覧の取得に失敗: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "店舗一覧の取得に失敗しました"})
			return
		}

		items := make([]storeResponse, 0, len(stores))
		for _, store := range stores {
			items = append(items, buildStoreResponse(store, h.location))
		}

		common.WriteJSON(h.logger, w, http.StatusOK, storeListResponse{Items: items, Total: len(items)})
	}
}

func (h *Handler) storeDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		idParam := strings.TrimSpace(chi.URLParam(r, "id"))
		if idParam == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "店舗IDが指定されていません"})
			return
		}

		store, err := h.storeQueries.Detail(ctx, idParam)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				common.WriteJSON(h.logger, w, http.StatusNotFound, map[string]string{"error": "店舗が見つかりません"})
				return
			}
			h.logger.Printf("店舗情報の取得に失敗 id=%q err=%v", idParam, err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "店舗情報の取得に失敗しました"})
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildStoreResponse(*store, h.location))
	}
}
