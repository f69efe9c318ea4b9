package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cinelog/internal/middleware"
	"github.com/hitoshi/cinelog/internal/view"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionManager    middleware.SessionManager
	SessionCookie     middleware.SessionCookieConfig
	CSRFConfig        middleware.CSRFConfig
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	HTTPMetrics       middleware.HTTPMetricsRecorder

	// 監視エンドポイント
	MetricsHandler http.Handler
	DB             DBPinger

	// ビュー
	Renderer view.Renderer

	// サービス
	AuthService    AuthServiceInterface
	AuthGate       AuthGateInterface
	SignupService  SignupServiceInterface
	SignupMetrics  SignupMetricsRecorder
	UserService    UserServiceInterface
	CatalogService CatalogServiceInterface
	CommentService CommentServiceInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Metrics → CORS →
//	  Session → Logging → CSRF → RateLimit(General)
//
// /healthと/metricsはセッションを必要としないため、チェーンの外側に配置する
// （監視系のアクセスで匿名セッション行を量産しない）。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.SignupService, deps.Renderer, deps.SessionCookie, deps.SignupMetrics)
	dashboardHandler := NewDashboardHandler(deps.AuthGate, deps.CatalogService, deps.CommentService, deps.Renderer)
	movieHandler := NewMovieHandler(deps.AuthGate, deps.CatalogService, deps.CommentService, deps.Renderer)
	indexHandler := NewIndexHandler(deps.UserService, deps.DB, deps.Renderer)

	// --- 監視エンドポイント（セッション不要） ---
	r.Get("/health", indexHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- アプリケーションルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionManager, deps.SessionCookie))
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ランディングページ（認証不要）
		r.Get("/", indexHandler.Show)

		// 認証フロー。POSTには認証試行専用のレート制限を追加する
		r.Get("/login", authHandler.ShowLogin)
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
		r.Get("/sign-up", authHandler.ShowSignup)
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/sign-up", authHandler.Signup)
		r.Post("/logout", authHandler.Logout)

		// 保護されたページ。認可判定は各ハンドラーが明示的にゲートを呼ぶ
		r.Get("/dashboard", dashboardHandler.Show)
		r.Route("/movie/{id}", func(r chi.Router) {
			r.Get("/", movieHandler.Show)
			r.Post("/comments", movieHandler.AppendComment)
		})
	})

	return r
}
