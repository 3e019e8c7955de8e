package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/postboard/internal/auth"
	"github.com/geocoder89/postboard/internal/cache"
	"github.com/geocoder89/postboard/internal/config"
	"github.com/geocoder89/postboard/internal/http/handlers"
	"github.com/geocoder89/postboard/internal/http/middlewares"
	"github.com/geocoder89/postboard/internal/observability"
	"github.com/geocoder89/postboard/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxRequestBody = 1 << 20 // 1 MiB, plenty for a blog post

// NewRouter wires the full HTTP surface. redisClient may be nil (no token
// revocation), promReg may be nil (no /metrics endpoint or HTTP metrics).
func NewRouter(log *slog.Logger, pool *pgxpool.Pool, redisClient *redis.Client, cfg config.Config, promReg *prometheus.Registry) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxRequestBody))
	r.Use(otelgin.Middleware("postboard"))

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	}

	var prom *observability.Prom

	if promReg != nil {
		prom = observability.NewProm(promReg)
		r.Use(prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))
	}

	// health probes
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	postsRepo := postgres.NewPostsRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	var denylist *auth.Denylist

	if redisClient != nil {
		denylist = auth.NewDenylist(redisClient)
	}

	authMw := newAuthMiddleware(jwtManager, denylist)

	authHandler := newAuthHandler(usersRepo, jwtManager, denylist, prom)
	postsHandler := handlers.NewPostsHandler(postsRepo, cache.New(5*time.Second))

	// credential endpoints get an aggressive per-IP window
	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)
	writeLimiter := middlewares.NewRateLimiter(60, time.Minute)

	r.POST("/register", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
	r.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)

	r.GET("/posts", postsHandler.ListPosts)

	protected := r.Group("/")
	protected.Use(authMw.RequireAuth())
	protected.Use(writeLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))

	protected.POST("/posts", postsHandler.CreatePost)
	protected.PUT("/posts/:postId", postsHandler.UpdatePost)
	protected.DELETE("/posts/:postId", postsHandler.DeletePost)
	protected.POST("/logout", authHandler.Logout)

	return r
}

// nil *auth.Denylist must become a nil interface, otherwise the middleware
// would call through it.
func newAuthMiddleware(jwtManager *auth.Manager, denylist *auth.Denylist) *middlewares.AuthMiddleware {
	if denylist == nil {
		return middlewares.NewAuthMiddleware(jwtManager, nil)
	}

	return middlewares.NewAuthMiddleware(jwtManager, denylist)
}

func newAuthHandler(usersRepo *postgres.UsersRepo, jwtManager *auth.Manager, denylist *auth.Denylist, prom *observability.Prom) *handlers.AuthHandler {
	if denylist == nil {
		return handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager, nil, prom)
	}

	return handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager, denylist, prom)
}
