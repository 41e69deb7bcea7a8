// Package services orchestrates the dataset lifecycle: loading CSVs,
// persisting snapshots and requesting refreshes over AMQP.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"enrolytics/internal/amqp"
	"enrolytics/internal/core"
	"enrolytics/internal/dataset"
	"enrolytics/internal/report"
	"enrolytics/internal/storage"
)

// DatasetService couples the CSV loader with the snapshot store and
// the refresh message bus.
type DatasetService struct {
	loader     *dataset.Loader
	store      *storage.SnapshotStore
	amqpClient *amqp.Client
}

func NewDatasetService(loader *dataset.Loader, store *storage.SnapshotStore, amqpClient *amqp.Client) *DatasetService {
	return &DatasetService{
		loader:     loader,
		store:      store,
		amqpClient: amqpClient,
	}
}

// Import loads and cleans the CSVs, persists them as a new snapshot
// and returns both the table and the snapshot metadata.
func (s *DatasetService) Import(ctx context.Context) (*core.Table, storage.SnapshotMeta, error) {
	table, err := s.loader.Load(ctx)
	if err != nil {
		return nil, storage.SnapshotMeta{}, fmt.Errorf("load datasets: %w", err)
	}

	meta, err := s.store.SaveSnapshot(ctx, s.loader.Dir, table)
	if err != nil {
		return nil, storage.SnapshotMeta{}, fmt.Errorf("save snapshot: %w", err)
	}

	return table, meta, nil
}

// RequestRefresh publishes a refresh request for the worker. A missing
// AMQP client degrades to a warning; the local snapshot is already the
// source of truth.
func (s *DatasetService) RequestRefresh(ctx context.Context, requestedBy string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping refresh request",
			"component", "dataset",
			"requested_by", requestedBy)
		return nil
	}
	return s.amqpClient.PublishRefresh(ctx, amqp.NewRefreshMessage(s.loader.Dir, requestedBy))
}

// Latest returns the most recent snapshot as an in-memory table.
func (s *DatasetService) Latest(ctx context.Context) (*core.Table, storage.SnapshotMeta, error) {
	return s.store.LoadLatest(ctx)
}

// Close releases the store and the AMQP connection.
func (s *DatasetService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close dataset service: %v", errs)
	}
	return nil
}

// BuildStateSummary aggregates a snapshot table into the per-state
// report rows, sorted by total registrations, largest state first.
func BuildStateSummary(table *core.Table, meta storage.SnapshotMeta) (report.Summary, error) {
	byState, err := core.SumColumns(table, core.NewFilterSpec(core.LevelNational), []string{core.ColState}, core.AgeColumns)
	if err != nil {
		return report.Summary{}, fmt.Errorf("aggregate by state: %w", err)
	}
	withTotals, err := core.AddRowSums(byState, core.AgeColumns, "registrations")
	if err != nil {
		return report.Summary{}, fmt.Errorf("sum age columns: %w", err)
	}
	sorted, err := core.SortByNumericDesc(withTotals, "registrations")
	if err != nil {
		return report.Summary{}, fmt.Errorf("sort summary: %w", err)
	}

	summary := report.Summary{
		GeneratedAt: time.Now().UTC(),
		SnapshotID:  meta.ID,
		States:      make([]report.StateSummary, 0, sorted.Len()),
	}
	sorted.Rows(func(_ int, r core.Row) bool {
		state, _ := r[core.ColState].(string)
		summary.States = append(summary.States, report.StateSummary{
			State:         state,
			Registrations: int64(numeric(r["registrations"])),
			Age0to5:       int64(numeric(r[core.ColAge0to5])),
			Age5to17:      int64(numeric(r[core.ColAge5to17])),
			Age18Plus:     int64(numeric(r[core.ColAge18Plus])),
		})
		return true
	})
	return summary, nil
}

func numeric(v core.Value) float64 {
	n, _ := core.NumericValue("", v)
	return n
}
