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
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/domain"
	"go.mongodb.org/mongo-driver/mongo"
)

// appRegisterHandler は店舗公式アプリの登録・差し替えを受け付ける。
// 検証は「必須項目 → アプリ種別 → 店舗の存在」の順で行い、最初の失敗で打ち切る。
func (h *Handler) appRegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateAppRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, common.MaxRequestBody)).Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
			return
		}

		storeID := strings.TrimSpace(req.StoreID)
		if storeID == "" || req.AppData == nil ||
			strings.TrimSpace(req.AppData.Type) == "" ||
			strings.TrimSpace(req.AppData.URL) == "" ||
			strings.TrimSpace(req.AppData.Name) == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "必須項目が不足しています"})
			return
		}

		appType, err := domain.NewAppType(req.AppData.Type)
		if err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "アプリ種別が不正です"})
			return
		}

		cmd := application.RegisterAppCommand{
			StoreID: storeID,
			App: domain.LinkedApp{
				Type: appType,
				URL:  strings.TrimSpace(req.AppData.URL),
				Name: strings.TrimSpace(req.AppData.Name),
			},
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		apps, err := h.storeCommands.RegisterApp(ctx, cmd)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				common.WriteJSON(h.logger, w, http.StatusNotFound, map[string]string{"error": "店舗が見つかりません"})
				return
			}
			h.logger.Printf("アプリ情報の更新に失敗 storeId=%s err=%v", storeID, err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "アプリ情報の更新に失敗しました"})
			return
		}

		if h.metrics != nil {
			h.metrics.AppRegistrations.Inc()
		}

		payloads := make([]linkedAppPayload, 0, len(apps))
		for _, app := range apps {
			payloads = append(payloads, linkedAppPayload{Type: app.Type.String(), URL: app.URL, Name: app.Name})
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"success":      true,
			"message":      "アプリ情報を更新しました",
			"officialApps": payloads,
		})
	}
}
