package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/asset-health-service/internal/api/http"
	"github.com/spec-kit/asset-health-service/internal/api/http/handlers"
	"github.com/spec-kit/asset-health-service/internal/auth"
	"github.com/spec-kit/asset-health-service/internal/config"
	"github.com/spec-kit/asset-health-service/internal/events"
	"github.com/spec-kit/asset-health-service/internal/health"
	"github.com/spec-kit/asset-health-service/internal/observability"
	"github.com/spec-kit/asset-health-service/internal/persistence"
	"github.com/spec-kit/asset-health-service/internal/ratelimit"
	"github.com/spec-kit/asset-health-service/internal/repository"
	"github.com/spec-kit/asset-health-service/internal/service"
	"github.com/spec-kit/asset-health-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	assetRepo := repository.NewAssetRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	limiter := ratelimit.NewLimiter(redis.Client, cfg.RateLimit.Window(), cfg.RateLimit.MaxReportsWindow)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	thresholds := health.FromConfig(cfg.Thresholds)

	intakeService := service.NewIntakeService(service.IntakeDependencies{
		AssetRepo:  assetRepo,
		TicketRepo: ticketRepo,
		Limiter:    limiter,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	healthService := service.NewHealthService(service.HealthDependencies{
		AssetRepo:  assetRepo,
		Thresholds: thresholds,
		Workers:    cfg.Sweep.Workers,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Issues:         handlers.NewIssuesHandler(intakeService),
		AssetHealth:    handlers.NewAssetHealthHandler(healthService, intakeService),
		Auth:           handlers.NewAuthHandler(tokenManager, cfg.Auth),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
