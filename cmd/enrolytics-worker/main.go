package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"enrolytics/internal/amqp"
	"enrolytics/internal/cli"
	"enrolytics/internal/dataset"
	applog "enrolytics/internal/log"
	"enrolytics/internal/report"
	gsheet "enrolytics/internal/report/google"
	"enrolytics/internal/services"
	"enrolytics/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting enrolytics-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	store := cli.InitSnapshotStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	// Google Sheets report export is optional.
	var reportWriter report.Writer
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		reportWriter = sheetsClient
		logger.Info("Google Sheets report export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets report export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	loader := dataset.New(cfg.DatasetDir)
	loader.Glob = cfg.DatasetGlob
	service := services.NewDatasetService(loader, store, nil)

	refreshWorker := worker.NewRefreshWorker(service, reportWriter, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Consume refresh requests from the queue.
	go func() {
		if err := amqpClient.ConsumeRefresh(ctx, refreshWorker.HandleRefresh); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", applog.FieldError, err)
			}
			cancel()
		}
	}()

	// Periodic refresh keeps snapshots fresh even with no requests on
	// the queue.
	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				msg := amqp.NewRefreshMessage(cfg.DatasetDir, "periodic")
				if err := refreshWorker.HandleRefresh(ctx, msg); err != nil {
					logger.Error("Periodic refresh failed", applog.FieldError, err)
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("Shutting down worker...")
	cancel()

	select {
	case <-shutdownCtx.Done():
		logger.Warn("Shutdown timeout reached")
	case <-time.After(5 * time.Second):
		logger.Info("Worker shutdown complete")
	}
}
