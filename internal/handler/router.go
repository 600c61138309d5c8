package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/mentorlink/internal/metrics"
	"github.com/hitoshi/mentorlink/internal/middleware"
)

// HealthChecker はヘルスチェックエンドポイントが必要とするインターフェース。
// sql.DBがそのまま実装している。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ヘルスチェック
	HealthChecker HealthChecker

	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	BearerVerifier    middleware.BearerVerifier
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ゲート
	AccountFinder AccountFinder

	// プロフィール
	ProfileService ProfileServiceInterface

	// 候補フィード
	FeedService FeedServiceInterface

	// マッチ台帳
	LedgerService LedgerServiceInterface

	// 通知ビュー
	NotificationService NotificationServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → SecurityHeaders → Logging
//	→（認証ルートのみ）Session → CSRF → RateLimit(General)
//
// 認証ルート（/auth/*）、ゲート、ヘルスチェック、メトリクスは
// セッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	var httpMetrics middleware.HTTPMetricsRecorder
	if deps.Metrics != nil {
		httpMetrics = deps.Metrics
	}
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, httpMetrics))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	accountHandler := NewAccountHandler(deps.ProfileService)
	profileHandler := NewProfileHandler(deps.ProfileService)
	candidateHandler := NewCandidateHandler(deps.FeedService)
	requestHandler := NewRequestHandler(deps.LedgerService)
	matchHandler := NewMatchHandler(deps.NotificationService)

	var gateMetrics GateMetricsRecorder
	if deps.Metrics != nil {
		gateMetrics = deps.Metrics
	}
	gateHandler := NewGateHandler(deps.SessionFinder, deps.AccountFinder, deps.ProfileService, gateMetrics)

	// --- 認証不要のルート ---

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// アクセスゲート。未認証の訪問者にもリダイレクト先を返すため
	// セッションミドルウェアの外に置く。
	r.Get("/api/gate", gateHandler.Decide)

	// CSRFトークン取得
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// ヘルスチェック
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheusスクレイプ
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.SetupMetricsRoute(deps.Gatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, deps.BearerVerifier))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// アカウント管理
		r.Route("/api/accounts/me", func(r chi.Router) {
			r.Get("/", accountHandler.Me)
			r.Put("/role", accountHandler.SetRole)
		})

		// ロールプロフィール
		r.Route("/api/profiles", func(r chi.Router) {
			r.Get("/mentor", profileHandler.GetMentorProfile)
			r.Post("/mentor", profileHandler.CreateMentorProfile)
			r.Get("/mentee", profileHandler.GetMenteeProfile)
			r.Post("/mentee", profileHandler.CreateMenteeProfile)
		})

		// 候補メンターフィード
		r.Route("/api/candidates", func(r chi.Router) {
			r.Get("/", candidateHandler.Next)
			r.Post("/reset", candidateHandler.Reset)
		})

		// メンターシップリクエスト
		r.Route("/api/requests", func(r chi.Router) {
			// POST /api/requests - リクエスト作成（作成専用レート制限を追加）
			r.With(deps.RateLimiter.ProposeMiddleware()).Post("/", requestHandler.Propose)

			r.Get("/", requestHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", requestHandler.Get)
				r.Patch("/accept", requestHandler.Accept)
				r.Patch("/decline", requestHandler.Decline)
			})
		})

		// マッチとメッセージ
		r.Get("/api/matches", matchHandler.ListMatches)
		r.Get("/api/messages", matchHandler.ListThreads)
	})

	return r
}
