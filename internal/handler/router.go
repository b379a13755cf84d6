package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bandmatch/internal/metrics"
	"github.com/hitoshi/bandmatch/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	AdminFinder       middleware.AccountFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Collector         metrics.MetricsCollector
	MetricsGatherer   prometheus.Gatherer

	// サービス
	AuthService    AuthServiceInterface
	AccountService AccountServiceInterface
	MatchService   MatchServiceInterface
	MessageService MessageServiceInterface
	ReportService  ReportServiceInterface
	AdminService   AdminServiceInterface

	// 統計・ヘルスチェック
	StatHandler *StatHandler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → [Auth → RateLimit(General)]
//
// 登録・ログイン・パスワードリセットは認証チェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.AccountService)
	searchHandler := NewSearchHandler(deps.MatchService)
	convHandler := NewConversationHandler(deps.MessageService)
	reportHandler := NewReportHandler(deps.ReportService)
	adminHandler := NewAdminHandler(deps.AdminService)

	// --- 認証不要のルート ---

	r.Get("/", deps.StatHandler.Root)
	r.Post("/ref", deps.StatHandler.Referrer)
	r.Get("/health", deps.StatHandler.Health)
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Route("/auth", func(r chi.Router) {
		// POST /auth/new - アカウント登録（登録専用レート制限を適用）
		r.With(deps.RateLimiter.SignupMiddleware()).Post("/new", authHandler.Signup)
		r.Post("/", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		// パスワード再設定はトークンのみで認証する
		r.Patch("/password/{token}", authHandler.ResetPassword)
	})

	// パスワードリセット申請（未認証）
	r.Patch("/users/password/request", authHandler.RequestPasswordReset)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 資格情報
		r.Patch("/auth/password", authHandler.ChangePassword)

		// プロフィール管理
		r.Route("/users", func(r chi.Router) {
			r.Get("/profile", userHandler.GetProfile)
			r.Patch("/profile", userHandler.UpdateProfile)
			r.Get("/profile/{id}", userHandler.GetOtherProfile)
			r.Get("/confirm/{token}", authHandler.ConfirmEmail)
			r.Get("/download", userHandler.Download)
			r.Delete("/", userHandler.Delete)
		})

		// マッチ検索
		r.Get("/search", searchHandler.Search)

		// ダイレクトメッセージ
		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", convHandler.ListConversations)
			r.Get("/unread", convHandler.UnreadCount)
			r.Get("/{id}", convHandler.GetConversation)
			r.Post("/message", convHandler.SendMessage)
			r.Patch("/read/{id}", convHandler.MarkRead)
			r.Delete("/{id}", convHandler.DeleteConversation)
		})

		// 通報
		r.Post("/reports", reportHandler.Create)

		// 管理画面（非管理者には404を返す）
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.NewAdminMiddleware(deps.AdminFinder))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", adminHandler.SearchAccounts)
				r.Get("/locations", adminHandler.Locations)
				r.Patch("/{id}/promote", adminHandler.Promote)
				r.Patch("/{id}/demote", adminHandler.Demote)
				r.Delete("/{id}", adminHandler.DeleteAccount)
				r.Delete("/{id}/description", adminHandler.ClearDescription)
				r.Delete("/{id}/displayname", adminHandler.ClearDisplayName)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/", adminHandler.ListReports)
				r.Delete("/{id}", adminHandler.DeleteReport)
			})

			r.Route("/analytics", func(r chi.Router) {
				r.Get("/daily", adminHandler.DailyStats)
				r.Get("/period", adminHandler.PeriodStats)
				r.Get("/referrals", adminHandler.Referrals)
			})
		})
	})

	return r
}
