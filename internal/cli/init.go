// Package cli holds the startup plumbing shared by the uriage binaries.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"uriage/internal/backend"
	"uriage/internal/config"
	applog "uriage/internal/log"
)

// SetupLogger builds the process-wide text logger and installs it as the
// slog default.
func SetupLogger() *slog.Logger {
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentApp})
	slog.SetDefault(logger.Logger)
	return logger.Logger
}

// LoadEnvFile reads .env when present. Production deployments configure
// through real environment variables, so a missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads the environment config, exiting the process
// when validation fails.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitStore builds the configured record store backend, exiting the process
// when it cannot be opened.
func InitStore(ctx context.Context, logger *slog.Logger, cfg *config.Config) *backend.Result {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize record store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// GracefulShutdown cancels the returned context on SIGINT/SIGTERM, runs the
// optional cleanup, and closes done once shutdown has settled or the timeout
// elapsed.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer close(done)

		sig := <-sigs
		logger.Info("Shutdown signal received", "signal", sig.String())

		if cleanup != nil {
			cleanup()
		}
		cancel()

		// Give in-flight work a moment to observe the cancellation.
		grace := 2 * time.Second
		if timeout < grace {
			grace = timeout
		}
		time.Sleep(grace)
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the shutdown sequence has finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
