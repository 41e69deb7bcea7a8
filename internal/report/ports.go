// Package report defines the outbound port for publishing aggregated
// summaries outside the dashboard.
package report

import (
	"context"
	"time"
)

// StateSummary is one row of the exported per-state report.
type StateSummary struct {
	State         string
	Registrations int64
	Age0to5       int64
	Age5to17      int64
	Age18Plus     int64
}

// Summary is a complete report: one snapshot's per-state totals.
type Summary struct {
	GeneratedAt time.Time
	SnapshotID  int64
	States      []StateSummary
}

// Writer publishes a summary to an external destination.
type Writer interface {
	WriteSummary(ctx context.Context, s Summary) error
}
