// Package worker rebuilds dataset snapshots in response to refresh
// messages and exports summary reports after each rebuild.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"enrolytics/internal/amqp"
	"enrolytics/internal/core"
	"enrolytics/internal/report"
	"enrolytics/internal/services"
	"enrolytics/internal/storage"
)

// keepSnapshots bounds how much snapshot history the worker retains.
const keepSnapshots = 5

type pruner interface {
	PruneOlderThan(ctx context.Context, keep int) (int64, error)
}

// RefreshWorker reimports the datasets when asked and publishes the
// resulting state summary.
type RefreshWorker struct {
	service *services.DatasetService
	writer  report.Writer
	store   pruner
}

func NewRefreshWorker(service *services.DatasetService, writer report.Writer, store pruner) *RefreshWorker {
	return &RefreshWorker{
		service: service,
		writer:  writer,
		store:   store,
	}
}

// HandleRefresh processes one refresh message: reload the CSVs, write
// a new snapshot, export the report and prune old snapshots. Export
// and prune failures are logged, not retried; the snapshot itself is
// already durable.
func (w *RefreshWorker) HandleRefresh(ctx context.Context, msg *amqp.RefreshMessage) error {
	slog.InfoContext(ctx, "Processing refresh request",
		"component", "worker",
		"source", msg.Source,
		"requested_by", msg.RequestedBy)

	table, meta, err := w.service.Import(ctx)
	if err != nil {
		return fmt.Errorf("import datasets: %w", err)
	}

	if err := w.exportSummary(ctx, table, meta); err != nil {
		slog.ErrorContext(ctx, "Report export failed",
			"component", "worker",
			"snapshot_id", meta.ID,
			"error", err)
	}

	if w.store != nil {
		if removed, err := w.store.PruneOlderThan(ctx, keepSnapshots); err != nil {
			slog.WarnContext(ctx, "Snapshot prune failed", "component", "worker", "error", err)
		} else if removed > 0 {
			slog.InfoContext(ctx, "Pruned old snapshots", "component", "worker", "removed", removed)
		}
	}

	slog.InfoContext(ctx, "Refresh complete",
		"component", "worker",
		"snapshot_id", meta.ID,
		"rows", meta.RowCount)
	return nil
}

func (w *RefreshWorker) exportSummary(ctx context.Context, table *core.Table, meta storage.SnapshotMeta) error {
	if w.writer == nil {
		slog.InfoContext(ctx, "No report writer configured, skipping export",
			"component", "worker",
			"snapshot_id", meta.ID)
		return nil
	}
	summary, err := services.BuildStateSummary(table, meta)
	if err != nil {
		return fmt.Errorf("build state summary: %w", err)
	}
	if err := w.writer.WriteSummary(ctx, summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
