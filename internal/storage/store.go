// Package storage persists cleaned dataset snapshots in SQLite. A
// snapshot is written once by the importer or refresh worker and read
// back whole by the dashboard at startup; rows are never updated in
// place.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"enrolytics/internal/core"

	_ "modernc.org/sqlite"
)

var ErrNoSnapshot = errors.New("no snapshot available")

// SnapshotMeta describes one stored snapshot.
type SnapshotMeta struct {
	ID        int64
	Source    string
	RowCount  int64
	CreatedAt time.Time
}

type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(dbPath string) (*SnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

func (s *SnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSnapshot writes the table as a new snapshot in one transaction
// and returns its metadata. Older snapshots stay untouched; within a
// session readers keep the snapshot they started with.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, source string, t *core.Table) (SnapshotMeta, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SnapshotMeta{}, fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (source, row_count) VALUES (?, ?)`,
		source, t.Len())
	if err != nil {
		return SnapshotMeta{}, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return SnapshotMeta{}, fmt.Errorf("snapshot id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO enrolment_rows
		 (snapshot_id, state, district, pincode, date, month, age_0_5, age_5_17, age_18_greater)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return SnapshotMeta{}, fmt.Errorf("prepare row insert: %w", err)
	}
	defer stmt.Close()

	var insertErr error
	t.Rows(func(i int, r core.Row) bool {
		date, _ := r[core.ColDate].(time.Time)
		_, insertErr = stmt.ExecContext(ctx,
			id,
			stringCell(r, core.ColState),
			stringCell(r, core.ColDistrict),
			stringCell(r, core.ColPincode),
			date,
			stringCell(r, core.ColMonth),
			intCell(r, core.ColAge0to5),
			intCell(r, core.ColAge5to17),
			intCell(r, core.ColAge18Plus),
		)
		if insertErr != nil {
			insertErr = fmt.Errorf("insert row %d: %w", i, insertErr)
			return false
		}
		return true
	})
	if insertErr != nil {
		return SnapshotMeta{}, insertErr
	}

	if err := tx.Commit(); err != nil {
		return SnapshotMeta{}, fmt.Errorf("commit snapshot: %w", err)
	}

	meta := SnapshotMeta{ID: id, Source: source, RowCount: int64(t.Len()), CreatedAt: time.Now()}
	slog.InfoContext(ctx, "Snapshot saved",
		"component", "storage",
		"snapshot_id", meta.ID,
		"source", source,
		"rows", meta.RowCount)
	return meta, nil
}

// LatestMeta returns metadata for the newest snapshot.
func (s *SnapshotStore) LatestMeta(ctx context.Context) (SnapshotMeta, error) {
	var meta SnapshotMeta
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, row_count, created_at FROM snapshots ORDER BY id DESC LIMIT 1`).
		Scan(&meta.ID, &meta.Source, &meta.RowCount, &meta.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotMeta{}, ErrNoSnapshot
	}
	if err != nil {
		return SnapshotMeta{}, fmt.Errorf("query latest snapshot: %w", err)
	}
	return meta, nil
}

// LoadLatest reads the newest snapshot back into an in-memory table,
// in insertion order.
func (s *SnapshotStore) LoadLatest(ctx context.Context) (*core.Table, SnapshotMeta, error) {
	meta, err := s.LatestMeta(ctx)
	if err != nil {
		return nil, SnapshotMeta{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT state, district, pincode, date, month, age_0_5, age_5_17, age_18_greater
		 FROM enrolment_rows WHERE snapshot_id = ? ORDER BY id`, meta.ID)
	if err != nil {
		return nil, SnapshotMeta{}, fmt.Errorf("query snapshot rows: %w", err)
	}
	defer rows.Close()

	columns := append([]string{core.ColState, core.ColDistrict, core.ColPincode, core.ColDate, core.ColMonth}, core.AgeColumns...)
	table := core.NewTable(columns)

	for rows.Next() {
		var (
			state, district, pincode, month string
			date                            time.Time
			a05, a517, a18                  int64
		)
		if err := rows.Scan(&state, &district, &pincode, &date, &month, &a05, &a517, &a18); err != nil {
			return nil, SnapshotMeta{}, fmt.Errorf("scan snapshot row: %w", err)
		}
		table.MustAppend(core.Row{
			core.ColState:     state,
			core.ColDistrict:  district,
			core.ColPincode:   pincode,
			core.ColDate:      date,
			core.ColMonth:     month,
			core.ColAge0to5:   a05,
			core.ColAge5to17:  a517,
			core.ColAge18Plus: a18,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, SnapshotMeta{}, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot loaded",
		"component", "storage",
		"snapshot_id", meta.ID,
		"rows", table.Len())
	return table, meta, nil
}

// PruneOlderThan deletes every snapshot except the newest keep ones.
// Old snapshots only accumulate for audit; sessions never read them.
func (s *SnapshotStore) PruneOlderThan(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN
		 (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		// Cascade does not fire on bare DELETE without FK enforcement.
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM enrolment_rows WHERE snapshot_id NOT IN (SELECT id FROM snapshots)`); err != nil {
			return n, fmt.Errorf("prune snapshot rows: %w", err)
		}
	}
	return n, nil
}

func stringCell(r core.Row, col string) string {
	s, _ := r[col].(string)
	return s
}

func intCell(r core.Row, col string) int64 {
	switch n := r[col].(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}
