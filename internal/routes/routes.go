package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/leadforte/leadforte_portal/internal/advice"
	"github.com/leadforte/leadforte_portal/internal/auth"
	"github.com/leadforte/leadforte_portal/internal/config"
	"github.com/leadforte/leadforte_portal/internal/docstore"
	"github.com/leadforte/leadforte_portal/internal/identity"
	"github.com/leadforte/leadforte_portal/internal/lifecycle"
	"github.com/leadforte/leadforte_portal/internal/metrics"
	"github.com/leadforte/leadforte_portal/internal/middleware"
	"github.com/leadforte/leadforte_portal/internal/notification"
	"github.com/leadforte/leadforte_portal/internal/profile"
)

// Deps aggregates shared dependencies required to wire routes. Store,
// IdentityRepo, Notifier and AdviceProvider are optional; when nil they are
// derived from DB or fall back to in-memory and logging implementations.
type Deps struct {
	Cfg            config.Config
	DB             *pgxpool.Pool
	Cache          *redis.Client
	Logger         *slog.Logger
	Store          docstore.Store
	IdentityRepo   identity.Repository
	Notifier       notification.Notifier
	AdviceProvider advice.Provider
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil && d.Store == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)
	app.Get("/metrics", metrics.Handler())

	// Services and handlers
	store := d.Store
	if store == nil {
		if d.DB != nil {
			store = docstore.NewPostgresStore(d.DB)
		} else {
			store = docstore.NewInMemory()
		}
	}
	identityRepo := d.IdentityRepo
	if identityRepo == nil {
		if d.DB != nil {
			identityRepo = identity.NewPostgresRepository(d.DB)
		} else {
			identityRepo = identity.NewMemoryRepository()
		}
	}
	notifier := d.Notifier
	if notifier == nil {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	identitySvc := identity.NewService(identityRepo)
	profileSvc := profile.NewService(store)
	authSvc := auth.NewService(d.Cfg, identityRepo)
	lifecycleSvc := lifecycle.NewService(store, notifier, d.Logger)
	gateway := advice.NewGateway(d.AdviceProvider, advice.Options{
		HistoryLimit: d.Cfg.AdviceHistoryLimit,
		Timeout:      d.Cfg.AdviceTimeout,
	}, d.Logger)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterIdentityRoutes(api, identity.NewHandler(identitySvc, profileSvc, d.Cfg.AllowAdminSignup, d.Logger))
	authHandler := auth.NewHandler(identitySvc, authSvc)
	RegisterAuthRoutes(api, authHandler, middleware.RateLimit(d.Cache, "login", d.Cfg.LoginRateLimit, middleware.ByEmail))
	RegisterQuoteRoutes(api)
	RegisterAdviceRoutes(api, advice.NewHandler(gateway), middleware.RateLimit(d.Cache, "advice", d.Cfg.AdviceRateLimit, middleware.ByIP))

	// Protected routes
	protected := api.Group("", middleware.Session(authSvc, profileSvc))
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/me", profile.NewHandler(profileSvc).Me)
	RegisterLifecycleRoutes(protected, lifecycle.NewHandler(lifecycleSvc))

	return nil
}
