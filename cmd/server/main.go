package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/joho/godotenv"

	"github.com/blockelevate/integrations/internal/api"
	"github.com/blockelevate/integrations/internal/auth"
	"github.com/blockelevate/integrations/internal/config"
	"github.com/blockelevate/integrations/internal/database"
	"github.com/blockelevate/integrations/internal/integration"
	"github.com/blockelevate/integrations/internal/logging"
	"github.com/blockelevate/integrations/internal/metrics"
	"github.com/blockelevate/integrations/internal/server"
)

func main() {
	// Local development convenience; production sets real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting integration sync engine")

	ctx := context.Background()

	dbConfig := database.DefaultConfig()
	dbConfig.URL = cfg.Database.URL

	logger.Info("connecting to database")
	db, err := database.Connect(ctx, dbConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	// Non-fatal so the service can still serve status and webhooks if a
	// migration is broken.
	if err := database.RunMigrations(db, "./migrations", logger); err != nil {
		logger.Warn("failed to run migrations, continuing anyway", "error", err)
	}

	// Create repositories
	configRepo := database.NewPlatformConfigRepository(db)
	statusRepo := database.NewSyncStatusRepository(db)
	recordRepo := database.NewPlatformRecordRepository(db)

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	// Wire the sync engine
	registry := integration.NewRegistry(recordRepo)
	dispatcher := integration.NewDispatcher(registry, configRepo, statusRepo, collector, logger)

	schedulerConfig := integration.DefaultSchedulerConfig()
	schedulerConfig.HourlyInterval = cfg.Sync.HourlyInterval
	schedulerConfig.DailyInterval = cfg.Sync.DailyInterval
	scheduler := integration.NewScheduler(dispatcher, configRepo, registry, collector, logger, schedulerConfig)

	webhookRouter := integration.NewWebhookRouter(registry, collector, logger)

	schedulerCtx, cancelScheduler := context.WithCancel(ctx)
	go scheduler.Start(schedulerCtx)

	// Setup HTTP routes
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.HealthCheck(r.Context(), db); err != nil {
			logger.Error("health check failed", "error", err)
			http.Error(w, `{"status":"unhealthy"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"integration-sync-engine","status":"ready","version":"0.1.0"}`))
	})

	mux.Handle("/metrics", collector.Handler())

	authConfig := auth.LoadConfigFromEnv()
	logger.Info("auth configured", "jwt_secret_set", authConfig.JWTSecret != "change-this-secret")

	api.SetupRoutes(mux, configRepo, statusRepo, scheduler, webhookRouter, authConfig, logger)

	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("integration sync engine started", "port", cfg.Server.Port)

	waitForSignal(logger)

	logger.Info("shutting down")
	cancelScheduler()
	scheduler.Stop()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
