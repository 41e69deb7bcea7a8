package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"enrolytics/internal/core"
)

func newTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	store, err := NewSnapshotStore(filepath.Join(t.TempDir(), "snap.db"))
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleTable(t *testing.T) *core.Table {
	t.Helper()
	columns := append([]string{core.ColState, core.ColDistrict, core.ColPincode, core.ColDate, core.ColMonth}, core.AgeColumns...)
	tbl := core.NewTable(columns)
	tbl.MustAppend(core.Row{
		core.ColState:     "Kerala",
		core.ColDistrict:  "Ernakulam",
		core.ColPincode:   "682001",
		core.ColDate:      time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		core.ColMonth:     "2025-01",
		core.ColAge0to5:   int64(5),
		core.ColAge5to17:  int64(10),
		core.ColAge18Plus: int64(15),
	})
	tbl.MustAppend(core.Row{
		core.ColState:     "Bihar",
		core.ColDistrict:  "Patna",
		core.ColPincode:   "800001",
		core.ColDate:      time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		core.ColMonth:     "2025-02",
		core.ColAge0to5:   int64(1),
		core.ColAge5to17:  int64(2),
		core.ColAge18Plus: int64(3),
	})
	return tbl
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	meta, err := store.SaveSnapshot(ctx, "/srv/datasets", sampleTable(t))
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if meta.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", meta.RowCount)
	}

	table, loaded, err := store.LoadLatest(ctx)
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if loaded.ID != meta.ID {
		t.Errorf("loaded snapshot %d, want %d", loaded.ID, meta.ID)
	}
	if table.Len() != 2 {
		t.Fatalf("rows = %d, want 2", table.Len())
	}
	// Insertion order preserved.
	first := table.Row(0)
	if first[core.ColState] != "Kerala" || first[core.ColAge18Plus] != int64(15) {
		t.Errorf("row 0 = %v", first)
	}
	if first[core.ColMonth] != "2025-01" {
		t.Errorf("month = %v, want 2025-01", first[core.ColMonth])
	}
}

func TestLoadLatestPicksNewest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.SaveSnapshot(ctx, "old", sampleTable(t)); err != nil {
		t.Fatal(err)
	}
	second, err := store.SaveSnapshot(ctx, "new", sampleTable(t))
	if err != nil {
		t.Fatal(err)
	}

	_, meta, err := store.LoadLatest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if meta.ID != second.ID || meta.Source != "new" {
		t.Errorf("latest = %+v, want snapshot %d (new)", meta, second.ID)
	}
}

func TestLoadLatestNoSnapshot(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.LoadLatest(context.Background())
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot", err)
	}
}

func TestPruneOlderThan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.SaveSnapshot(ctx, "s", sampleTable(t)); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := store.PruneOlderThan(ctx, 1)
	if err != nil {
		t.Fatalf("PruneOlderThan: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	// Newest snapshot still loads intact.
	table, _, err := store.LoadLatest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 2 {
		t.Errorf("rows after prune = %d, want 2", table.Len())
	}
}
