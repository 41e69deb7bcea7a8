package main

import (
	"context"
	"os"
	"time"

	"enrolytics/internal/amqp"
	"enrolytics/internal/cli"
	"enrolytics/internal/dataset"
	applog "enrolytics/internal/log"
	"enrolytics/internal/services"
)

// enrolytics-import loads the CSV directory into a new snapshot and,
// when AMQP is configured, asks the worker to rebuild downstream
// reports. Meant for one-shot runs from cron or by hand.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitSnapshotStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	loader := dataset.New(cfg.DatasetDir)
	loader.Glob = cfg.DatasetGlob

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	}

	service := services.NewDatasetService(loader, store, amqpClient)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	table, meta, err := service.Import(ctx)
	if err != nil {
		logger.Error("Import failed", applog.FieldError, err, applog.FieldDatasetDir, cfg.DatasetDir)
		os.Exit(1)
	}
	logger.Info("Snapshot imported",
		applog.FieldSnapshot, meta.ID,
		applog.FieldRows, table.Len(),
		applog.FieldDatasetDir, cfg.DatasetDir)

	if err := service.RequestRefresh(ctx, "import"); err != nil {
		logger.Error("Refresh request failed", applog.FieldError, err)
		os.Exit(1)
	}
}
