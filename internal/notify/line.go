package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint は LINE Notify API の既定エンドポイント。
const DefaultEndpoint = "https://notify-api.line.me/api/notify"

// Client は管理者チャネルへメッセージを届けるベストエフォートのクライアント。
// トークンが未設定の場合、送信は黙ってスキップされる。
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

// NewClient は HTTP クライアントとエンドポイント・トークンを束縛した Client を生成する。
func NewClient(httpClient *http.Client, endpoint, token string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = DefaultEndpoint
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   trimmed,
		token:      strings.TrimSpace(token),
	}
}

// Send はメッセージを URL エンコードして Bearer 認証付きで POST する。
// レスポンスボディはエラー時のログ用途以外では利用しない。
func (c *Client) Send(ctx context.Context, message string) error {
	if c.token == "" {
		return nil
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("通知メッセージが空です")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	form := url.Values{}
	form.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("通知リクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("通知リクエストに失敗: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return fmt.Errorf("通知送信でエラーが発生: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
