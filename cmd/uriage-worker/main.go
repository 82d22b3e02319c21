package main

import (
	"os"
	"time"

	"uriage/internal/amqp"
	"uriage/internal/cli"
	"uriage/internal/services"
	"uriage/internal/store"
	"uriage/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting uriage-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if !cfg.SupabaseEnabled() {
		logger.Error("Supabase is not configured; the worker has nothing to mirror")
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	result := cli.InitStore(ctx, logger, cfg)
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Store cleanup failed", "error", err)
			}
		}()
	}

	remote := store.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseAPIKey, cfg.SupabaseTable)
	reconciler := services.NewReconciler(result.Store, remote, nil)

	// AMQP is optional; without it the worker falls back to the interval.
	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, using interval sync only", "error", err)
			consumer = nil
		} else {
			defer consumer.Close()
			logger.Info("Consuming change notifications",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	syncWorker := worker.NewSyncWorker(reconciler, consumer, cfg.SyncInterval)
	syncWorker.HealthAddr = ":" + cfg.WorkerHealthPort

	if err := syncWorker.Run(ctx); err != nil {
		logger.Error("Sync worker failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
