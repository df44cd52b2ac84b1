package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/machinaka-dev/congestion-map-services/api/internal/interfaces/http/common"
)

// congestionRunHandler は混雑取り込みジョブを同期実行し、試行・失敗件数を返す。
func (h *Handler) congestionRunHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
		defer cancel()

		results, err := h.ingestion.Run(ctx)
		if err != nil {
			h.logger.Printf("混雑取り込みジョブの手動実行に失敗: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "混雑情報の更新に失敗しました"})
			return
		}

		failed := 0
		for _, result := range results {
			if result.Err != nil {
				failed++
			}
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"attempted": len(results),
			"failed":    failed,
		})
	}
}

// detectionRunHandler はアプリ検出ジョブを同期実行し、検出件数を返す。
func (h *Handler) detectionRunHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
		defer cancel()

		detected, err := h.detection.Run(ctx)
		if err != nil {
			h.logger.Printf("アプリ検出ジョブの手動実行に失敗: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "アプリ検出に失敗しました"})
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{"detected": detected})
	}
}
