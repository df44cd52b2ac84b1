package config

import (
	"log"
	"os"
	"strings"
	"time"
)

// JWTConfig defines issuer/secret pair for admin auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                string
	MongoURI            string
	MongoDatabase       string
	StoreCollection     string
	AppUpdateCollection string
	Timeout             time.Duration
	Timezone            string
	ServerLog           *log.Logger
	PlacesEndpoint      string
	PlacesAPIKey        string
	PlacesTimeout       time.Duration
	CongestionInterval  time.Duration
	DetectionInterval   time.Duration
	JobTimeout          time.Duration
	NotifyEndpoint      string
	NotifyToken         string
	NotifyTimeout       time.Duration
	JWTConfigs          []JWTConfig
	JWTAudience         string
	AllowedOrigins      []string
}

// Load reads environment variables and returns a fully populated Config.
func Load() Config {
	serverLog := log.New(os.Stdout, "[congestion-map-api] ", log.LstdFlags|log.Lshortfile)

	timeout := 10 * time.Second
	if parsed, ok := parseDuration("MONGO_CONNECT_TIMEOUT"); ok {
		timeout = parsed
	}

	placesTimeout := 10 * time.Second
	if parsed, ok := parseDuration("PLACES_TIMEOUT"); ok {
		placesTimeout = parsed
	}

	placesAPIKey := strings.TrimSpace(os.Getenv("GOOGLE_MAPS_API_KEY"))
	if placesAPIKey == "" {
		serverLog.Printf("GOOGLE_MAPS_API_KEY が未設定です。混雑情報の取得は失敗します。")
	}

	congestionInterval := 15 * time.Minute
	if parsed, ok := parseDuration("CONGESTION_REFRESH_INTERVAL"); ok {
		congestionInterval = parsed
	}

	detectionInterval := 24 * time.Hour
	if parsed, ok := parseDuration("APP_DETECTION_INTERVAL"); ok {
		detectionInterval = parsed
	}

	jobTimeout := 5 * time.Minute
	if parsed, ok := parseDuration("JOB_TIMEOUT"); ok {
		jobTimeout = parsed
	}

	notifyTimeout := 5 * time.Second
	if parsed, ok := parseDuration("LINE_NOTIFY_TIMEOUT"); ok {
		notifyTimeout = parsed
	}

	notifyToken := strings.TrimSpace(os.Getenv("LINE_NOTIFY_TOKEN"))
	if notifyToken == "" {
		serverLog.Printf("LINE_NOTIFY_TOKEN が未設定です。管理者通知は送信されません。")
	}

	var jwtConfigs []JWTConfig
	if secret := strings.TrimSpace(os.Getenv("ADMIN_JWT_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{
			Issuer: envOrDefault("ADMIN_JWT_ISSUER", "congestion-map-auth"),
			Secret: []byte(secret),
		})
	}
	if len(jwtConfigs) == 0 {
		serverLog.Printf("ADMIN_JWT_SECRET が未設定です。管理者向けエンドポイントは無効化されます。")
	}

	cfg := Config{
		Addr:                envOrDefault("HTTP_ADDR", ":8080"),
		MongoURI:            envOrDefault("MONGO_URI", "mongodb://mongo:27017"),
		MongoDatabase:       envOrDefault("MONGO_DB", "congestion-map"),
		StoreCollection:     envOrDefault("STORE_COLLECTION", "stores"),
		AppUpdateCollection: envOrDefault("APP_UPDATE_COLLECTION", "app_updates"),
		Timeout:             timeout,
		Timezone:            envOrDefault("TIMEZONE", "Asia/Tokyo"),
		ServerLog:           serverLog,
		PlacesEndpoint:      envOrDefault("PLACES_ENDPOINT", "https://maps.googleapis.com/maps/api/place/details/json"),
		PlacesAPIKey:        placesAPIKey,
		PlacesTimeout:       placesTimeout,
		CongestionInterval:  congestionInterval,
		DetectionInterval:   detectionInterval,
		JobTimeout:          jobTimeout,
		NotifyEndpoint:      envOrDefault("LINE_NOTIFY_ENDPOINT", "https://notify-api.line.me/api/notify"),
		NotifyToken:         notifyToken,
		NotifyTimeout:       notifyTimeout,
		JWTConfigs:          jwtConfigs,
		JWTAudience:         strings.TrimSpace(os.Getenv("ADMIN_JWT_AUDIENCE")),
		AllowedOrigins:      parseList("API_ALLOWED_ORIGINS", []string{"*"}),
	}

	cfg.ServerLog.Printf("loaded config: congestionInterval=%s detectionInterval=%s placesEndpoint=%q", congestionInterval, detectionInterval, cfg.PlacesEndpoint)

	return cfg
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
