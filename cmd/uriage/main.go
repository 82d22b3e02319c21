package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uriage/internal/amqp"
	"uriage/internal/cli"
	"uriage/internal/core"
	"uriage/internal/freee"
	apphttp "uriage/internal/http"
	"uriage/internal/services"
	gsheet "uriage/internal/sheets/google"
	"uriage/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := cli.InitStore(ctx, logger, cfg)
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Store cleanup failed", "error", err)
			}
		}()
	}

	// Change notifications are optional; without AMQP mutations stay local.
	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without notifications", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	ledger := services.NewLedgerService(result.Store, publisher, cfg.RecurringMarkers)

	// Generate this month's instances of recurring projects before serving.
	processor := services.NewRecurringProcessor(result.Store, cfg.RecurringMarkers)
	if created, err := processor.EnsureCurrentMonth(ctx, time.Now()); err != nil {
		logger.Error("Recurring scan failed", "error", err)
	} else if created > 0 {
		logger.Info("Recurring projects generated", "count", created)
	}

	var remote store.RemoteStore
	if cfg.SupabaseEnabled() {
		remote = store.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseAPIKey, cfg.SupabaseTable)
		logger.Info("Supabase mirror configured", "table", cfg.SupabaseTable)
	}
	reconciler := services.NewReconciler(result.Store, remote, publisher)

	opts := apphttp.Options{
		Reconciler: reconciler,
		Goal:       core.Yen(cfg.MonthlyGoalYen),
		PDFDir:     cfg.PDFDir,
	}

	if cfg.FreeeEnabled() {
		oauthCfg := freee.NewOAuthConfig(cfg.FreeeClientID, cfg.FreeeClientSecret, cfg.FreeeRedirectURL)
		tokens := freee.OpenTokenStore(cfg.FreeeTokenFile)
		opts.Freee = freee.NewClient(freee.DefaultBaseURL, oauthCfg, tokens, cfg.FreeeCompanyID)
		logger.Info("freee client configured", "company_id", cfg.FreeeCompanyID)
	}

	if cfg.GoogleSpreadsheetID != "" {
		reporter, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Warn("Failed to initialize report exporter, continuing without it", "error", err)
		} else {
			opts.Reporter = reporter
			logger.Info("Report exporter configured", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, result.Store, ledger, opts)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting uriage server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
