package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/tubuyaki/internal/metrics"
	"github.com/hitoshi/tubuyaki/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	MetricsRecorder metrics.Recorder
	MetricsGatherer prometheus.Gatherer

	// ヘルスチェック用DB接続
	DB *sql.DB

	// サービス
	AuthService    AuthServiceInterface
	UserFinder     UserFinder
	PostService    PostServiceInterface
	CommentService CommentServiceInterface
	GroupService   GroupServiceInterface
	FollowService  FollowServiceInterface

	// ページネーション
	PageSize    int
	PageSizeMax int
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → Metrics → Auth → RateLimit(General)
//
// /health と /metrics はAPIミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 末尾スラッシュ付きのパスも同じルートで受ける
	r.Use(chimiddleware.StripSlashes)
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.UserFinder)
	postHandler := NewPostHandler(deps.PostService, deps.PageSize, deps.PageSizeMax)
	commentHandler := NewCommentHandler(deps.CommentService)
	groupHandler := NewGroupHandler(deps.GroupService)
	followHandler := NewFollowHandler(deps.FollowService)

	// --- 運用エンドポイント（APIミドルウェアチェーンの外）---

	r.Get("/health", newHealthHandler(deps.DB))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))

	// --- APIルート ---

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
		r.Use(metrics.NewHTTPMiddleware(deps.MetricsRecorder))
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		writeLimit := deps.RateLimiter.WriteMiddleware()

		// ユーザー登録とJWT
		r.Route("/users", func(r chi.Router) {
			r.Post("/", authHandler.Signup)
			r.With(middleware.NewRequireAuthMiddleware()).Get("/me", authHandler.Me)
		})
		r.Route("/jwt", func(r chi.Router) {
			r.Post("/create", authHandler.CreateTokenPair)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/verify", authHandler.VerifyToken)
		})

		// 投稿とコメント
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.ListPosts)
			r.With(writeLimit).Post("/", postHandler.CreatePost)

			r.Route("/{post_id}", func(r chi.Router) {
				r.Get("/", postHandler.GetPost)
				r.With(writeLimit).Put("/", postHandler.UpdatePost)
				r.With(writeLimit).Patch("/", postHandler.UpdatePost)
				r.With(writeLimit).Delete("/", postHandler.DeletePost)

				r.Route("/comments", func(r chi.Router) {
					r.Get("/", commentHandler.ListComments)
					r.With(writeLimit).Post("/", commentHandler.CreateComment)

					r.Route("/{comment_id}", func(r chi.Router) {
						r.Get("/", commentHandler.GetComment)
						r.With(writeLimit).Put("/", commentHandler.UpdateComment)
						r.With(writeLimit).Patch("/", commentHandler.UpdateComment)
						r.With(writeLimit).Delete("/", commentHandler.DeleteComment)
					})
				})
			})
		})

		// グループ（読み取り専用）
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", groupHandler.ListGroups)
			r.Get("/{group_id}", groupHandler.GetGroup)
		})

		// フォロー（一覧を含めすべて認証必須）
		r.Route("/follow", func(r chi.Router) {
			r.Use(middleware.NewRequireAuthMiddleware())

			r.Get("/", followHandler.ListFollows)
			r.With(writeLimit).Post("/", followHandler.CreateFollow)
		})
	})

	return r
}

// newHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy"}`))
				return
			}
		}

		w.Write([]byte(`{"status":"ok"}`))
	}
}
