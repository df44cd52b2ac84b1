package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultEndpoint は Google Places Details API の既定エンドポイント。
const DefaultEndpoint = "https://maps.googleapis.com/maps/api/place/details/json"

// Details は Places API から得られる混雑・営業時間の観測値。
// Popularity が nil の場合、このサイクルでは混雑度が観測されなかったことを表す。
type Details struct {
	Name        string
	Popularity  *int
	WeekdayText []string
}

// Client は placeId を指定して店舗の詳細情報を取得する外部 API クライアント。
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewClient は HTTP クライアントとエンドポイント・API キーを束縛した Client を生成する。
func NewClient(httpClient *http.Client, endpoint, apiKey string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = DefaultEndpoint
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   trimmed,
		apiKey:     strings.TrimSpace(apiKey),
	}
}

type detailsResponse struct {
	Result *struct {
		Name                string `json:"name"`
		CurrentPopularity   *int   `json:"current_popularity"`
		CurrentOpeningHours *struct {
			WeekdayText []string `json:"weekday_text"`
		} `json:"current_opening_hours"`
	} `json:"result"`
}

// Details は placeId に対応する店舗の混雑度と営業時間を取得する。
// result が欠けているレスポンスはエラーではなく「観測値なし」として返す。
func (c *Client) Details(ctx context.Context, placeID string) (*Details, error) {
	trimmedID := strings.TrimSpace(placeID)
	if trimmedID == "" {
		return nil, fmt.Errorf("placeId が指定されていません")
	}

	query := url.Values{}
	query.Set("place_id", trimmedID)
	query.Set("fields", "name,current_opening_hours,current_popularity")
	query.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("Places API リクエストの作成に失敗: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Places API リクエストに失敗: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		message, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return nil, fmt.Errorf("Places API がエラーを返却: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(message)))
	}

	var payload detailsResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("Places API レスポンスの解析に失敗: %w", err)
	}

	details := &Details{}
	if payload.Result != nil {
		details.Name = payload.Result.Name
		details.Popularity = payload.Result.CurrentPopularity
		if payload.Result.CurrentOpeningHours != nil {
			details.WeekdayText = append([]string{}, payload.Result.CurrentOpeningHours.WeekdayText...)
		}
	}
	return details, nil
}
