// Package memory is an in-process report.Writer used in tests and
// when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"enrolytics/internal/report"
)

type Writer struct {
	mu        sync.Mutex
	summaries []report.Summary
}

var _ report.Writer = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

func (w *Writer) WriteSummary(_ context.Context, s report.Summary) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.summaries = append(w.summaries, s)
	return nil
}

// Summaries returns a copy of everything written so far.
func (w *Writer) Summaries() []report.Summary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]report.Summary(nil), w.summaries...)
}
