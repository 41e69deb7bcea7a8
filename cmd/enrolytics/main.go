package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"enrolytics/internal/cli"
	"enrolytics/internal/dataset"
	apphttp "enrolytics/internal/http"
	applog "enrolytics/internal/log"
	"enrolytics/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	// Choose data backend (default: csv). The snapshot backend serves
	// the latest import from SQLite and needs the worker or the import
	// command to have run at least once.
	var source apphttp.Source
	switch cfg.DataBackend {
	case "snapshot":
		store := cli.InitSnapshotStore(logger, cfg.SQLiteDBPath)
		defer store.Close()
		source = services.NewSnapshotSource(store, logger)
		logger.Info("Initialized snapshot backend", "backend", cfg.DataBackend, "path", cfg.SQLiteDBPath)
	default:
		loader := dataset.New(cfg.DatasetDir)
		loader.Glob = cfg.DatasetGlob
		source = services.NewCSVSource(loader, logger)
		logger.Info("Initialized csv backend", "backend", cfg.DataBackend, applog.FieldDatasetDir, cfg.DatasetDir)
	}

	// Refuse to start without servable data.
	if _, err := source.Dataset(context.Background()); err != nil {
		logger.Error("Dataset unavailable at startup", applog.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, source, apphttp.Options{
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Starting enrolytics server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
