package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/machinaka-dev/congestion-map-services/api/internal/appwatch"
	"github.com/machinaka-dev/congestion-map-services/api/internal/config"
	"github.com/machinaka-dev/congestion-map-services/api/internal/congestion"
	mongodoc "github.com/machinaka-dev/congestion-map-services/api/internal/infrastructure/mongo"
	adminhttp "github.com/machinaka-dev/congestion-map-services/api/internal/interfaces/http/admin"
	commonhttp "github.com/machinaka-dev/congestion-map-services/api/internal/interfaces/http/common"
	publichttp "github.com/machinaka-dev/congestion-map-services/api/internal/interfaces/http/public"
	"github.com/machinaka-dev/congestion-map-services/api/internal/metrics"
	"github.com/machinaka-dev/congestion-map-services/api/internal/notify"
	"github.com/machinaka-dev/congestion-map-services/api/internal/places"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/application"
)

// Server は HTTP サーバーと定期ジョブのライフサイクルを管理するコンポジションルート。
// アプリケーションサービス・ジョブ・リポジトリを組み立て、ルータとスケジューラへ接続する。
type Server struct {
	logger              *log.Logger
	client              *mongo.Client
	database            *mongo.Database
	storeRepo           *mongodoc.StoreRepository
	discoveryRepo       *mongodoc.DiscoveryRepository
	storeQueryService   application.StoreQueryService
	storeCommandService application.StoreCommandService
	ingestor            *congestion.Ingestor
	detectionJob        *appwatch.Job
	location            *time.Location
	jwtConfigs          []config.JWTConfig
	jwtAudience         string
	registry            *prometheus.Registry
	metrics             *metrics.Metrics
	scheduler           *cron.Cron
	congestionInterval  time.Duration
	detectionInterval   time.Duration
	jobTimeout          time.Duration
	addr                string
	allowedOrigins      []string
}

type authenticatedUser = commonhttp.AuthenticatedUser

// New は Config と Mongo クライアントを受け取り、ジョブとハンドラを組み立てた Server を返す。
// 依存解決の起点となるファクトリとして機能する。
func New(cfg config.Config, client *mongo.Client) *Server {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("JST", 9*60*60)
		cfg.ServerLog.Printf("タイムゾーン %s の読み込みに失敗: %v, JST を使用します", cfg.Timezone, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	jobMetrics := metrics.New(registry)

	srv := &Server{
		logger:             cfg.ServerLog,
		client:             client,
		database:           client.Database(cfg.MongoDatabase),
		location:           loc,
		jwtConfigs:         append([]config.JWTConfig(nil), cfg.JWTConfigs...),
		jwtAudience:        cfg.JWTAudience,
		registry:           registry,
		metrics:            jobMetrics,
		congestionInterval: cfg.CongestionInterval,
		detectionInterval:  cfg.DetectionInterval,
		jobTimeout:         cfg.JobTimeout,
		addr:               cfg.Addr,
		allowedOrigins:     append([]string(nil), cfg.AllowedOrigins...),
	}

	srv.storeRepo = mongodoc.NewStoreRepository(srv.database, cfg.StoreCollection)
	srv.discoveryRepo = mongodoc.NewDiscoveryRepository(srv.database, cfg.AppUpdateCollection)
	srv.storeQueryService = application.NewStoreQueryService(srv.storeRepo)
	srv.storeCommandService = application.NewStoreCommandService(srv.storeRepo, srv.discoveryRepo)

	placesClient := places.NewClient(&http.Client{Timeout: cfg.PlacesTimeout}, cfg.PlacesEndpoint, cfg.PlacesAPIKey)
	srv.ingestor = congestion.NewIngestor(cfg.ServerLog, srv.storeRepo, placesClient, jobMetrics)

	notifier := notify.NewClient(&http.Client{Timeout: cfg.NotifyTimeout}, cfg.NotifyEndpoint, cfg.NotifyToken)
	srv.detectionJob = appwatch.NewJob(cfg.ServerLog, appwatch.NopDetector{}, srv.discoveryRepo, notifier, jobMetrics)

	return srv
}

// Run はHTTPサーバーとスケジューラを起動し、ルーティングやミドルウェアを組み立てる。
// インフラ初期化に限定し、ドメインロジックをここに書かないことで層の責務を守る。
func (s *Server) Run() error {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())
	router.Get("/ping", s.pingHandler())
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:        s.logger,
		StoreQueries:  s.storeQueryService,
		StoreCommands: s.storeCommandService,
		Location:      s.location,
		Metrics:       s.metrics,
	})
	publicHandler.Register(router)

	if len(s.jwtConfigs) > 0 {
		adminHandler := adminhttp.NewHandler(adminhttp.Config{
			Logger:      s.logger,
			Ingestion:   s.ingestor,
			Detection:   s.detectionJob,
			Discoveries: s.discoveryRepo,
		})
		router.Route("/admin", func(r chi.Router) {
			r.Use(s.authMiddleware)
			adminHandler.Register(r)
		})
	}

	if err := s.startScheduler(); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP サーバー起動: http://%s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	waitForShutdown(httpServer, errChan, s)
	return nil
}

// startScheduler は混雑取り込みとアプリ検出の定期実行を登録して開始する。
// ジョブのエラーはログへ残すのみで、スケジューラは止めない。
func (s *Server) startScheduler() error {
	scheduler := cron.New()

	if _, err := scheduler.AddFunc(everySpec(s.congestionInterval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		if _, err := s.ingestor.Run(ctx); err != nil {
			s.logger.Printf("混雑情報の定期更新に失敗: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("混雑取り込みジョブの登録に失敗: %w", err)
	}

	if _, err := scheduler.AddFunc(everySpec(s.detectionInterval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		if _, err := s.detectionJob.Run(ctx); err != nil {
			s.logger.Printf("アプリ検出の定期実行に失敗: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("アプリ検出ジョブの登録に失敗: %w", err)
	}

	scheduler.Start()
	s.scheduler = scheduler
	s.logger.Printf("スケジューラ起動: congestion=%s detection=%s", s.congestionInterval, s.detectionInterval)
	return nil
}

func everySpec(interval time.Duration) string {
	return "@every " + interval.String()
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && len(allowed) > 0 && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed は指定された Origin が許可リストに含まれるか判定する。
func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// healthHandler は MongoDB への疎通確認を行い、監視系からのヘルスチェック要求に応える。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

// pingHandler は stores コレクションの件数を返す検証用エンドポイント。
// Seed されているか、アプリが Mongo にアクセスできるかを手軽に確認する用途。
func (s *Server) pingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		count, err := s.storeRepo.CountAll(ctx)
		if err != nil {
			s.logger.Printf("stores コレクションの件数取得に失敗: %v", err)
			s.writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "stores コレクションの件数取得に失敗しました",
			})
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]any{
			"stores": count,
			"time":   time.Now().In(s.location).Format(time.RFC3339),
		})
	}
}

// authMiddleware は Authorization ヘッダーから JWT を検証し、認証済みユーザーをコンテキストへ詰める。
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authorization ヘッダーがありません"})
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Bearer トークンを指定してください"})
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "アクセストークンが空です"})
			return
		}

		claims, err := s.parseAuthToken(tokenString)
		if err != nil {
			s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}

		user := authenticatedUser{
			ID:   claims.Subject,
			Name: claims.Name,
		}

		ctx := commonhttp.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseAuthToken は複数の JWT 設定を順番に試し、署名検証と Issuer/Audience の整合性を確認する。
// いずれの設定にも一致しない場合は認証エラーを返す。
func (s *Server) parseAuthToken(tokenString string) (*authClaims, error) {
	if len(s.jwtConfigs) == 0 {
		return nil, fmt.Errorf("認証設定が構成されていません")
	}

	for _, cfg := range s.jwtConfigs {
		claims := &authClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
			}
			return cfg.Secret, nil
		}, jwt.WithLeeway(30*time.Second))

		if err != nil || !token.Valid {
			continue
		}

		if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
			continue
		}

		now := time.Now()
		if claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Time) {
			continue
		}
		if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
			continue
		}
		if claims.Subject == "" {
			continue
		}
		if s.jwtAudience != "" && !contains(claims.Audience, s.jwtAudience) {
			continue
		}

		return claims, nil
	}

	return nil, fmt.Errorf("アクセストークンが無効です")
}

// contains は Audience 等の検証で利用する単純な包含チェック。
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

type authClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// writeJSON は JSON レスポンスの共通書き込み処理。
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("JSON エンコードに失敗: %v", err)
	}
}

// shutdown はスケジューラを止めたうえで MongoDB クライアントを切断する。
func (s *Server) shutdown(ctx context.Context) {
	if s.scheduler != nil {
		stopCtx := s.scheduler.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(10 * time.Second):
			s.logger.Printf("実行中ジョブの完了待ちがタイムアウトしました")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		s.logger.Printf("MongoDB 切断時にエラー: %v", err)
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.logger.Fatalf("サーバーが異常終了: %v", err)
		}
	case sig := <-sigChan:
		srv.logger.Printf("シグナル %s を受信。サーバー停止処理を開始します。", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Printf("サーバー停止時にエラー: %v", err)
		}
	}

	srv.shutdown(context.Background())
}
