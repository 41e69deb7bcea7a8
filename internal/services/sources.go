package services

import (
	"context"
	"fmt"
	"sync"

	"enrolytics/internal/core"
	"enrolytics/internal/dataset"
	applog "enrolytics/internal/log"
	"enrolytics/internal/storage"
)

// CSVSource serves the dashboard straight from the CSV directory. The
// table is loaded once on first use and kept for the life of the
// process; Reload swaps it for a fresh load.
type CSVSource struct {
	loader *dataset.Loader
	logger *applog.Logger

	mu    sync.RWMutex
	table *core.Table
}

func NewCSVSource(loader *dataset.Loader, logger *applog.Logger) *CSVSource {
	return &CSVSource{
		loader: loader,
		logger: logger.WithComponent(applog.ComponentDataset),
	}
}

// Dataset returns the loaded table, loading it on first call.
func (s *CSVSource) Dataset(ctx context.Context) (*core.Table, error) {
	s.mu.RLock()
	t := s.table
	s.mu.RUnlock()
	if t != nil {
		return t, nil
	}
	return s.Reload(ctx)
}

// Reload re-reads the CSV directory and replaces the cached table.
func (s *CSVSource) Reload(ctx context.Context) (*core.Table, error) {
	t, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("reloading csv dataset: %w", err)
	}

	s.mu.Lock()
	s.table = t
	s.mu.Unlock()

	s.logger.Info("dataset loaded from csv", applog.FieldRows, t.Len())
	return t, nil
}

// SnapshotSource serves the dashboard from the latest SQLite snapshot.
// Snapshots are immutable, so the loaded table is cached until a newer
// snapshot id shows up.
type SnapshotSource struct {
	store  *storage.SnapshotStore
	logger *applog.Logger

	mu     sync.RWMutex
	loaded int64
	table  *core.Table
}

func NewSnapshotSource(store *storage.SnapshotStore, logger *applog.Logger) *SnapshotSource {
	return &SnapshotSource{
		store:  store,
		logger: logger.WithComponent(applog.ComponentStorage),
	}
}

// Dataset returns the table for the newest snapshot, reusing the cached
// load when the latest snapshot id is unchanged.
func (s *SnapshotSource) Dataset(ctx context.Context) (*core.Table, error) {
	meta, err := s.store.LatestMeta(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	if s.table != nil && s.loaded == meta.ID {
		t := s.table
		s.mu.RUnlock()
		return t, nil
	}
	s.mu.RUnlock()

	t, _, err := s.store.LoadLatest(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.table = t
	s.loaded = meta.ID
	s.mu.Unlock()

	s.logger.Info("dataset loaded from snapshot",
		applog.FieldSnapshot, meta.ID, applog.FieldRows, t.Len())
	return t, nil
}
