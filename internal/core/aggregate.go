package core

import (
	"sort"
	"strings"
)

// AggOp selects how a group is reduced to a number.
type AggOp string

const (
	OpSum   AggOp = "sum"
	OpCount AggOp = "count"
)

// CountColumn is the output column name used by OpCount results.
const CountColumn = "count"

// Aggregate filters t by spec, partitions the surviving rows by the
// tuple of groupBy values (nil equals nil) and reduces each group with
// op over the metric column.
//
// Groups appear in first-seen order of their key tuple in the filtered
// table; no implicit sort is applied. An empty groupBy collapses the
// whole filtered table into a single group. A filter matching nothing
// yields a zero-row result, not an error.
//
// OpSum requires every metric value in scope to be numeric; a
// non-numeric cell is reported as a SchemaError rather than coerced.
// OpCount ignores metric entirely and may be called with metric == "".
func Aggregate(t *Table, spec FilterSpec, groupBy []string, metric string, op AggOp) (*Table, error) {
	for _, col := range groupBy {
		if !t.HasColumn(col) {
			return nil, &SchemaError{Column: col, Reason: "not in table schema"}
		}
	}
	outCol := CountColumn
	if op == OpSum {
		if !t.HasColumn(metric) {
			return nil, &SchemaError{Column: metric, Reason: "not in table schema"}
		}
		outCol = metric
	}

	filtered, err := Filter(t, spec)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		key   Row
		sum   float64
		count int64
	}

	order := make([]string, 0)
	buckets := make(map[string]*bucket)

	for _, r := range filtered.rows {
		var kb strings.Builder
		for _, col := range groupBy {
			kb.WriteString(keyString(r[col]))
			kb.WriteByte(0x1f)
		}
		k := kb.String()

		b, ok := buckets[k]
		if !ok {
			key := make(Row, len(groupBy))
			for _, col := range groupBy {
				key[col] = r[col]
			}
			b = &bucket{key: key}
			buckets[k] = b
			order = append(order, k)
		}

		b.count++
		if op == OpSum {
			n, err := NumericValue(metric, r[metric])
			if err != nil {
				return nil, err
			}
			b.sum += n
		}
	}

	out := NewTable(append(append([]string(nil), groupBy...), outCol))
	for _, k := range order {
		b := buckets[k]
		row := make(Row, len(groupBy)+1)
		for col, v := range b.key {
			row[col] = v
		}
		if op == OpSum {
			row[outCol] = b.sum
		} else {
			row[outCol] = b.count
		}
		out.rows = append(out.rows, row)
	}
	return out, nil
}

// SumColumns is Aggregate with several Sum metrics at once: each group
// row carries one summed cell per metric column. The dashboard uses it
// for the per-age-group views.
func SumColumns(t *Table, spec FilterSpec, groupBy []string, metrics []string) (*Table, error) {
	for _, col := range groupBy {
		if !t.HasColumn(col) {
			return nil, &SchemaError{Column: col, Reason: "not in table schema"}
		}
	}
	for _, col := range metrics {
		if !t.HasColumn(col) {
			return nil, &SchemaError{Column: col, Reason: "not in table schema"}
		}
	}

	filtered, err := Filter(t, spec)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		key  Row
		sums map[string]float64
	}

	order := make([]string, 0)
	buckets := make(map[string]*bucket)

	for _, r := range filtered.rows {
		var kb strings.Builder
		for _, col := range groupBy {
			kb.WriteString(keyString(r[col]))
			kb.WriteByte(0x1f)
		}
		k := kb.String()

		b, ok := buckets[k]
		if !ok {
			key := make(Row, len(groupBy))
			for _, col := range groupBy {
				key[col] = r[col]
			}
			b = &bucket{key: key, sums: make(map[string]float64, len(metrics))}
			buckets[k] = b
			order = append(order, k)
		}

		for _, col := range metrics {
			n, err := NumericValue(col, r[col])
			if err != nil {
				return nil, err
			}
			b.sums[col] += n
		}
	}

	out := NewTable(append(append([]string(nil), groupBy...), metrics...))
	for _, k := range order {
		b := buckets[k]
		row := make(Row, len(groupBy)+len(metrics))
		for col, v := range b.key {
			row[col] = v
		}
		for _, col := range metrics {
			row[col] = b.sums[col]
		}
		out.rows = append(out.rows, row)
	}
	return out, nil
}

// Total sums the given columns across every row of t. Used for the
// headline total where no grouping applies.
func Total(t *Table, columns []string) (float64, error) {
	for _, col := range columns {
		if !t.HasColumn(col) {
			return 0, &SchemaError{Column: col, Reason: "not in table schema"}
		}
	}
	var total float64
	for _, r := range t.rows {
		for _, col := range columns {
			n, err := NumericValue(col, r[col])
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	return total, nil
}

// AddRowSums appends a column holding the row-wise sum of the given
// columns. The input table is left untouched.
func AddRowSums(t *Table, columns []string, outCol string) (*Table, error) {
	for _, col := range columns {
		if !t.HasColumn(col) {
			return nil, &SchemaError{Column: col, Reason: "not in table schema"}
		}
	}
	out := NewTable(append(t.Columns(), outCol))
	for _, r := range t.rows {
		row := make(Row, len(r)+1)
		var sum float64
		for col, v := range r {
			row[col] = v
		}
		for _, col := range columns {
			n, err := NumericValue(col, r[col])
			if err != nil {
				return nil, err
			}
			sum += n
		}
		row[outCol] = sum
		out.rows = append(out.rows, row)
	}
	return out, nil
}

// Cumulative appends a running total of valueCol, in row order.
func Cumulative(t *Table, valueCol, outCol string) (*Table, error) {
	if !t.HasColumn(valueCol) {
		return nil, &SchemaError{Column: valueCol, Reason: "not in table schema"}
	}
	out := NewTable(append(t.Columns(), outCol))
	var running float64
	for _, r := range t.rows {
		n, err := NumericValue(valueCol, r[valueCol])
		if err != nil {
			return nil, err
		}
		running += n
		row := make(Row, len(r)+1)
		for col, v := range r {
			row[col] = v
		}
		row[outCol] = running
		out.rows = append(out.rows, row)
	}
	return out, nil
}

// PercentShare rescales the given columns so each row's cells become
// percentages of that row's total across those columns. Rows whose
// total is zero keep zero shares.
func PercentShare(t *Table, columns []string) (*Table, error) {
	for _, col := range columns {
		if !t.HasColumn(col) {
			return nil, &SchemaError{Column: col, Reason: "not in table schema"}
		}
	}
	out := NewTable(t.Columns())
	for _, r := range t.rows {
		var total float64
		for _, col := range columns {
			n, err := NumericValue(col, r[col])
			if err != nil {
				return nil, err
			}
			total += n
		}
		row := make(Row, len(r))
		for col, v := range r {
			row[col] = v
		}
		if total > 0 {
			for _, col := range columns {
				n, _ := NumericValue(col, r[col])
				row[col] = n / total * 100
			}
		}
		out.rows = append(out.rows, row)
	}
	return out, nil
}

// SortByNumericDesc returns a copy of t sorted by a numeric column,
// largest first. The sort is stable so equal values keep their
// first-seen order.
func SortByNumericDesc(t *Table, column string) (*Table, error) {
	if !t.HasColumn(column) {
		return nil, &SchemaError{Column: column, Reason: "not in table schema"}
	}
	out := NewTable(t.columns)
	out.rows = append([]Row(nil), t.rows...)
	var sortErr error
	sort.SliceStable(out.rows, func(i, j int) bool {
		a, err := NumericValue(column, out.rows[i][column])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		b, err := NumericValue(column, out.rows[j][column])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return a > b
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return out, nil
}

// SortByStringAsc returns a copy of t sorted lexicographically by a
// string column, for stable month/date axes.
func SortByStringAsc(t *Table, column string) (*Table, error) {
	if !t.HasColumn(column) {
		return nil, &SchemaError{Column: column, Reason: "not in table schema"}
	}
	out := NewTable(t.columns)
	out.rows = append([]Row(nil), t.rows...)
	sort.SliceStable(out.rows, func(i, j int) bool {
		return keyString(out.rows[i][column]) < keyString(out.rows[j][column])
	})
	return out, nil
}
