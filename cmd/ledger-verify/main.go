package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/creditledger"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/config"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/logger"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/metrics"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "ledger-verify"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "ledger-verify",
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

	tillMetrics := metrics.NewTillMetrics(prometheus.DefaultRegisterer)

	ledgerRepo := creditledger.NewRepository(dbClient.DB())
	ledgerService, err := creditledger.NewService(dbClient, ledgerRepo, logg, tillMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create credit ledger service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"batch_size": cfg.Verify.BatchSize,
		"interval":   cfg.Verify.Interval.String(),
		"run_once":   cfg.Verify.RunOnce,
	})
	logg.Info(ctx, "starting ledger verification worker")

	if cfg.Verify.RunOnce {
		if failed := runSweep(ctx, logg, ledgerService, cfg.Verify.BatchSize); failed {
			os.Exit(1)
		}
		return
	}

	ticker := time.NewTicker(cfg.Verify.Interval)
	defer ticker.Stop()

	runSweep(ctx, logg, ledgerService, cfg.Verify.BatchSize)
	for {
		select {
		case <-ctx.Done():
			logg.Info(ctx, "stopping ledger verification worker")
			return
		case <-ticker.C:
			runSweep(ctx, logg, ledgerService, cfg.Verify.BatchSize)
		}
	}
}

func runSweep(ctx context.Context, logg *logger.Logger, svc creditledger.Service, batchSize int) bool {
	started := time.Now()
	report, err := svc.VerifyAll(ctx, batchSize)
	if err != nil {
		logg.Error(ctx, "ledger verification sweep aborted", err)
		return true
	}

	sweepCtx := logg.WithFields(ctx, map[string]any{
		"customers_checked": report.CustomersChecked,
		"customers_failed":  report.CustomersFailed,
		"duration_ms":       time.Since(started).Milliseconds(),
	})
	if report.CustomersFailed > 0 {
		logg.Error(sweepCtx, "ledger verification found inconsistencies", report.Err)
		return true
	}
	logg.Info(sweepCtx, "ledger verification sweep clean")
	return false
}
