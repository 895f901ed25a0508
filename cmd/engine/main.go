package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/zaphub/ticket-lifecycle/internal/api/http"
	"github.com/zaphub/ticket-lifecycle/internal/api/http/handlers"
	"github.com/zaphub/ticket-lifecycle/internal/auth"
	"github.com/zaphub/ticket-lifecycle/internal/config"
	"github.com/zaphub/ticket-lifecycle/internal/events"
	"github.com/zaphub/ticket-lifecycle/internal/lifecycle"
	"github.com/zaphub/ticket-lifecycle/internal/messaging"
	"github.com/zaphub/ticket-lifecycle/internal/observability"
	"github.com/zaphub/ticket-lifecycle/internal/persistence"
	"github.com/zaphub/ticket-lifecycle/internal/repository"
	"github.com/zaphub/ticket-lifecycle/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	sender := messaging.NewKafkaSender(cfg.Kafka)
	defer sender.Close() //nolint:errcheck

	metrics := observability.NewMetrics()
	bus := events.NewRedisBus(redis.Client, logger)

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	trackingRepo := repository.NewTrackingRepository(pool)
	channelRepo := repository.NewChannelRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)

	escalation := lifecycle.NewEscalationScheduler(lifecycle.EscalationDependencies{
		Settings: settingRepo,
		Tickets:  ticketRepo,
		Bus:      bus,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err := escalation.Bootstrap(ctx); err != nil {
		logger.Error("failed to resume escalation timer", zap.Error(err))
	}

	closeJob := lifecycle.NewCloseJob(lifecycle.CloseDependencies{
		Tickets:  ticketRepo,
		Channels: channelRepo,
		Sender:   sender,
		Metrics:  metrics,
		Logger:   logger,
	})
	transferJob := lifecycle.NewTransferJob(lifecycle.TransferDependencies{
		Tickets:   ticketRepo,
		Trackings: trackingRepo,
		Channels:  channelRepo,
		Bus:       bus,
		Metrics:   metrics,
		Logger:    logger,
	})

	orchestrator := lifecycle.NewOrchestrator(closeJob, transferJob, cfg.Lifecycle.SweepInterval(), metrics, logger)
	orchestrator.Start(ctx)

	settingService := service.NewSettingService(service.SettingDependencies{
		Settings:   settingRepo,
		Escalation: escalation,
		Bus:        bus,
		Logger:     logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(cfg.Auth, tokens),
		Settings:       handlers.NewSettingsHandler(settingService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	escalation.Stop()
	orchestrator.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
