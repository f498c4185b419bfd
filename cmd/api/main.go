package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"

	"github.com/leadforte/leadforte_portal/internal/advice"
	"github.com/leadforte/leadforte_portal/internal/config"
	"github.com/leadforte/leadforte_portal/internal/docstore"
	"github.com/leadforte/leadforte_portal/internal/identity"
	"github.com/leadforte/leadforte_portal/internal/infra"
	"github.com/leadforte/leadforte_portal/internal/logging"
	"github.com/leadforte/leadforte_portal/internal/notification"
	"github.com/leadforte/leadforte_portal/internal/routes"
	"github.com/leadforte/leadforte_portal/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.AppName)

	ctx := context.Background()
	deps := routes.Deps{Cfg: cfg, Logger: logger}

	if cfg.DatabaseURL != "" {
		db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		store := docstore.NewPostgresStore(db)
		identityRepo := identity.NewPostgresRepository(db)
		if err := infra.Migrate(ctx, store, identityRepo); err != nil {
			logger.Error("apply schema", "error", err)
			os.Exit(1)
		}
		deps.DB, deps.Store, deps.IdentityRepo = db, store, identityRepo
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
	}

	if cfg.RedisURL != "" {
		cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
		deps.Cache = cache
	} else {
		logger.Warn("REDIS_URL not set, idempotency and rate limiting disabled")
	}

	if len(cfg.KafkaBrokers) > 0 {
		writer, err := infra.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			logger.Error("configure kafka", "error", err)
			os.Exit(1)
		}
		defer closeWriter(writer, logger)
		deps.Notifier = notification.NewKafkaNotifier(writer)
		logger.Info("publishing notifications to kafka", slog.String("topic", cfg.KafkaTopic))
	}

	if cfg.GeminiAPIKey != "" {
		provider, err := advice.NewGenAIProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("configure advice provider", "error", err)
			os.Exit(1)
		}
		deps.AdviceProvider = provider
	} else {
		logger.Warn("GEMINI_API_KEY not set, advice replies will use the fallback message")
	}

	srv, err := server.New(deps)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}

func closeWriter(w *kafka.Writer, logger *slog.Logger) {
	if err := w.Close(); err != nil {
		logger.Warn("close kafka writer", "error", err)
	}
}
