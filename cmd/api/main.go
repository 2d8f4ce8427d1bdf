package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/thanmawoo39-creator/agart-pos-sub003/api/routes"
	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/alerts"
	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/creditledger"
	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/sales"
	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/shifts"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/config"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/logger"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/metrics"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/migrate"
	pkgredis "github.com/thanmawoo39-creator/agart-pos-sub003/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	tillMetrics := metrics.NewTillMetrics(registry)

	shiftsRepo := shifts.NewRepository(dbClient.DB())
	salesRepo := sales.NewRepository(dbClient.DB())
	ledgerRepo := creditledger.NewRepository(dbClient.DB())
	alertsRepo := alerts.NewRepository(dbClient.DB())

	alertsService, err := alerts.NewService(alertsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create alerts service", err)
		os.Exit(1)
	}

	shiftsService, err := shifts.NewService(dbClient, shiftsRepo, alertsService, logg, tillMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create shifts service", err)
		os.Exit(1)
	}

	ledgerService, err := creditledger.NewService(dbClient, ledgerRepo, logg, tillMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create credit ledger service", err)
		os.Exit(1)
	}

	salesService, err := sales.NewService(dbClient, salesRepo, shiftsRepo, ledgerService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			redisClient,
			registry,
			shiftsService,
			salesService,
			ledgerService,
			alertsService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}
}
