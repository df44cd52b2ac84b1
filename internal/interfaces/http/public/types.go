package public

import (
	"time"

	"github.com/machinaka-dev/congestion-map-services/api/internal/store/domain"
)

type coordinatePayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type congestionPayload struct {
	Level       int       `json:"level"`
	LiveData    bool      `json:"liveData"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type linkedAppPayload struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

type storeResponse struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Address      string             `json:"address,omitempty"`
	Type         string             `json:"type,omitempty"`
	PlaceID      string             `json:"placeId,omitempty"`
	Location     *coordinatePayload `json:"location,omitempty"`
	OpeningHours string             `json:"openingHours,omitempty"`
	OfficialApps []linkedAppPayload `json:"officialApps,omitempty"`
	Congestion   *congestionPayload `json:"congestion,omitempty"`
	UpdatedAt    *time.Time         `json:"updatedAt,omitempty"`
}

type storeListResponse struct {
	Items []storeResponse `json:"items"`
	Total int             `json:"total"`
}

type updateStoreRequest struct {
	StoreID string           `json:"storeId"`
	Data    *updateStoreData `json:"data"`
}

// updateStoreData は更新を許可するフィールドのみを持つ。
// ここに無いフィールドはデコード時に黙って捨てられる（許可リストそのもの）。
type updateStoreData struct {
	Name         *string `json:"name"`
	Address      *string `json:"address"`
	Type         *string `json:"type"`
	OpeningHours *string `json:"openingHours"`
}

type updateAppRequest struct {
	StoreID string            `json:"storeId"`
	AppData *linkedAppPayload `json:"appData"`
}

// buildStoreResponse は Store ドメインモデルを地図表示用 DTO に変換する。
func buildStoreResponse(store domain.Store, location *time.Location) storeResponse {
	res := storeResponse{
		ID:           store.ID,
		Name:         store.Name,
		Address:      store.Address,
		Type:         store.Type.String(),
		PlaceID:      store.PlaceID,
		OpeningHours: store.OpeningHours,
	}

	if store.Location != nil {
		res.Location = &coordinatePayload{
			Latitude:  store.Location.Latitude,
			Longitude: store.Location.Longitude,
		}
	}

	for _, app := range store.OfficialApps {
		res.OfficialApps = append(res.OfficialApps, linkedAppPayload{
			Type: app.Type.String(),
			URL:  app.URL,
			Name: app.Name,
		})
	}

	if store.Congestion != nil {
		lastUpdated := store.Congestion.LastUpdated
		if location != nil {
			lastUpdated = lastUpdated.In(location)
		}
		res.Congestion = &congestionPayload{
			Level:       store.Congestion.Level,
			LiveData:    store.Congestion.LiveData,
			LastUpdated: lastUpdated,
		}
	}

	if !store.UpdatedAt.IsZero() {
		updatedAt := store.UpdatedAt
		if location != nil {
			updatedAt = updatedAt.In(location)
		}
		res.UpdatedAt = &updatedAt
	}

	return res
}
