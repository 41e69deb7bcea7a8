package core

import (
	"errors"
	"fmt"
	"time"
)

// Well-known dataset columns. Every enrolment snapshot carries these.
const (
	ColState    = "state"
	ColDistrict = "district"
	ColPincode  = "pincode"
	ColDate     = "date"
	ColMonth    = "month"

	ColAge0to5   = "age_0_5"
	ColAge5to17  = "age_5_17"
	ColAge18Plus = "age_18_greater"
)

// AgeColumns lists the numeric enrolment-count columns in display order.
var AgeColumns = []string{ColAge0to5, ColAge5to17, ColAge18Plus}

var (
	ErrInvalidNumber = errors.New("invalid number")
	ErrEmptyTable    = errors.New("table has no rows")
)

// SchemaError reports a reference to a column the table does not have,
// or a value that does not match the column's expected type.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error on column %q: %s", e.Column, e.Reason)
}

// Value is a single cell: string, int64, float64, time.Time or nil.
type Value any

// Row maps column names to cell values.
type Row map[string]Value

// Table is an ordered sequence of rows sharing one named-column schema.
// Tables are built once and treated as read-only afterwards; every
// operation in this package returns a new Table and never mutates its
// input, so concurrent readers need no locking.
type Table struct {
	columns []string
	index   map[string]struct{}
	rows    []Row
}

// NewTable creates an empty table with the given column schema.
func NewTable(columns []string) *Table {
	idx := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		idx[c] = struct{}{}
	}
	return &Table{
		columns: append([]string(nil), columns...),
		index:   idx,
	}
}

// Columns returns the schema in declaration order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether the schema contains the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns the i-th row. The returned map must not be modified.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Rows iterates rows in order, stopping when fn returns false.
func (t *Table) Rows(fn func(i int, r Row) bool) {
	for i, r := range t.rows {
		if !fn(i, r) {
			return
		}
	}
}

// Append adds a row. Cells for columns outside the schema are rejected
// so that all rows keep sharing the same schema.
func (t *Table) Append(r Row) error {
	for col := range r {
		if !t.HasColumn(col) {
			return &SchemaError{Column: col, Reason: "not in table schema"}
		}
	}
	t.rows = append(t.rows, r)
	return nil
}

// MustAppend is Append for rows already known to match the schema,
// used by builders and tests.
func (t *Table) MustAppend(r Row) {
	if err := t.Append(r); err != nil {
		panic(err)
	}
}

// DistinctStrings returns the distinct non-empty string values of a
// column, in first-seen row order.
func (t *Table) DistinctStrings(column string) ([]string, error) {
	if !t.HasColumn(column) {
		return nil, &SchemaError{Column: column, Reason: "not in table schema"}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.rows {
		s, ok := r[column].(string)
		if !ok || s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// NumericValue converts a cell to float64. Integers widen, nil counts
// as an explicit data error rather than zero.
func NumericValue(column string, v Value) (float64, error) {
	switch n := v.(type) {
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, &SchemaError{Column: column, Reason: fmt.Sprintf("value %v is not numeric", v)}
	}
}

// keyString renders a cell for use inside a group-key tuple. Distinct
// types never collide because the type is part of the rendering.
func keyString(v Value) string {
	switch x := v.(type) {
	case nil:
		return "\x00nil"
	case string:
		return "s:" + x
	case int64:
		return fmt.Sprintf("i:%d", x)
	case float64:
		return fmt.Sprintf("f:%g", x)
	case time.Time:
		return "t:" + x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("v:%v", x)
	}
}
