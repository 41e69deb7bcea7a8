// Package dataset loads and cleans the raw enrolment CSV files into an
// in-memory core.Table. Loading happens once per session; the produced
// table is immutable and shared by every dashboard request.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"enrolytics/internal/core"
)

// DefaultGlob matches the enrolment dataset files as published.
const DefaultGlob = "DF_ENROLMENT_*.csv"

var ErrNoFiles = errors.New("no dataset files found")

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	time.RFC3339,
}

// Loader reads every matching CSV under Dir and concatenates them.
type Loader struct {
	Dir  string
	Glob string
}

// New returns a loader for dir using the default file pattern.
func New(dir string) *Loader {
	return &Loader{Dir: dir, Glob: DefaultGlob}
}

type fileResult struct {
	path    string
	rows    []core.Row
	dropped int
}

// Load reads all matching files concurrently, parses and cleans their
// rows and returns one table in file order. Rows with unparseable
// dates are dropped and counted, matching the source data's cleaning
// rules; a file that cannot be read at all fails the whole load.
func (l *Loader) Load(ctx context.Context) (*core.Table, error) {
	pattern := l.Glob
	if pattern == "" {
		pattern = DefaultGlob
	}
	paths, err := filepath.Glob(filepath.Join(l.Dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob dataset files: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s (pattern %s)", ErrNoFiles, l.Dir, pattern)
	}
	sort.Strings(paths)

	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			res, err := loadFile(gctx, path)
			if err != nil {
				return fmt.Errorf("load %s: %w", filepath.Base(path), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	columns := append([]string{core.ColState, core.ColDistrict, core.ColPincode, core.ColDate, core.ColMonth}, core.AgeColumns...)
	table := core.NewTable(columns)
	var dropped int
	for _, res := range results {
		for _, r := range res.rows {
			if err := table.Append(r); err != nil {
				return nil, fmt.Errorf("append row from %s: %w", filepath.Base(res.path), err)
			}
		}
		dropped += res.dropped
		slog.Info("Loaded dataset file",
			"component", "dataset",
			"file", filepath.Base(res.path),
			"rows", len(res.rows),
			"dropped", res.dropped)
	}

	if table.Len() == 0 {
		return nil, fmt.Errorf("%w after cleaning (%d rows dropped)", core.ErrEmptyTable, dropped)
	}
	slog.Info("Dataset loaded",
		"component", "dataset",
		"files", len(paths),
		"rows", table.Len(),
		"dropped", dropped)
	return table, nil
}

func loadFile(ctx context.Context, path string) (fileResult, error) {
	res := fileResult{path: path}

	f, err := os.Open(path)
	if err != nil {
		return res, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return res, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{core.ColState, core.ColDistrict, core.ColDate} {
		if _, ok := cols[required]; !ok {
			return res, fmt.Errorf("missing column %q", required)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read record: %w", err)
		}

		row, ok := buildRow(cols, record)
		if !ok {
			res.dropped++
			continue
		}
		res.rows = append(res.rows, row)
	}
	return res, nil
}

// buildRow converts one CSV record into a table row. A missing or
// unparseable date invalidates the row.
func buildRow(cols map[string]int, record []string) (core.Row, bool) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, ok := parseDate(field(core.ColDate))
	if !ok {
		return nil, false
	}

	row := core.Row{
		core.ColState:    field(core.ColState),
		core.ColDistrict: field(core.ColDistrict),
		core.ColPincode:  field(core.ColPincode),
		core.ColDate:     date,
		core.ColMonth:    date.Format("2006-01"),
	}
	for _, age := range core.AgeColumns {
		row[age] = parseCount(field(age))
	}
	return row, true
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseCount reads an enrolment count. Blank or malformed cells become
// zero; the counts are already cleaned upstream and zero is the
// published convention for "no enrolments".
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int64(f)
		}
		return 0
	}
	return n
}
