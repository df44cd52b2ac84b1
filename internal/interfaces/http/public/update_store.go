package public

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/machinaka-dev/congestion-map-services/api/internal/interfaces/http/common"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/application"
)

// storeUpdateHandler は店舗詳細の部分更新を受け付ける。
// 許可リスト外のフィールドはエラーにせず黙って無視する。
func (h *Handler) storeUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateStoreRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, common.MaxRequestBody)).Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
			return
		}

		storeID := strings.TrimSpace(req.StoreID)
		if storeID == "" || req.Data == nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "店舗IDまたは更新内容が指定されていません"})
			return
		}

		cmd := application.UpdateStoreCommand{
			StoreID: storeID,
			Fields: application.StoreFields{
				Name:         req.Data.Name,
				Address:      req.Data.Address,
				Type:         req.Data.Type,
				OpeningHours: req.Data.OpeningHours,
			},
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := h.storeCommands.UpdateDetails(ctx, cmd); err != nil {
			if errors.Is(err, application.ErrNoChanges) {
				common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "更新できる項目がありません"})
				return
			}
			h.logger.Printf("店舗情報の更新に失敗 storeId=%s err=%v", storeID, err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "店舗情報の更新に失敗しました"})
			return
		}

		if h.metrics != nil {
			h.metrics.StoreDetailUpdates.Inc()
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"success": true,
			"message": "店舗情報を更新しました",
		})
	}
}
