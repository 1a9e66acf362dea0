// Package model defines the tabular result set consumed by the insight
// generators. A Table is a fully materialized aggregate produced by the
// datasource layer; generators never reach back into the database.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// Value is a single cell. Exactly one of the typed fields is meaningful,
// selected by Kind.
type Value struct {
	Kind  ValueKind
	Str   string
	Int   int64
	Float float64
}

// ValueKind discriminates the cell types a Table can hold.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindFloat
)

// String wraps a string cell.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Int wraps an integer cell.
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Float wraps a float cell.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// AsFloat coerces numeric cells to float64. String cells coerce to 0.
func (v Value) AsFloat() float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.Int)
	case KindFloat:
		return v.Float
	default:
		return 0
	}
}

// AsString renders the cell for narrative text.
func (v Value) AsString() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	default:
		return fmt.Sprintf("%g", v.Float)
	}
}

// Row maps column name to cell value. Column names are case-sensitive here;
// alias resolution happens in the analysis layer.
type Row map[string]Value

// Table is an ordered sequence of rows sharing a column set. Rows have no
// identity beyond position.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates a table with the given column order.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds a row at the end of the table.
func (t *Table) Append(r Row) {
	t.Rows = append(t.Rows, r)
}

// Len returns the row count. Safe on a nil table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// IsEmpty reports whether the table is nil or has no rows.
func (t *Table) IsEmpty() bool {
	return t.Len() == 0
}

// HasColumn reports whether the table declares the column (exact match).
func (t *Table) HasColumn(col string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Column extracts a column as float64 values, coercing integer cells.
func (t *Table) Column(col string) []float64 {
	if t == nil {
		return nil
	}
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[col].AsFloat()
	}
	return out
}

// SortedByDesc returns a copy of the table with rows sorted by the column in
// descending numeric order. The sort is stable: ties keep their original
// relative order.
func (t *Table) SortedByDesc(col string) *Table {
	return t.sorted(col, true)
}

// SortedByAsc returns a copy sorted ascending. Stable, like SortedByDesc.
func (t *Table) SortedByAsc(col string) *Table {
	return t.sorted(col, false)
}

func (t *Table) sorted(col string, desc bool) *Table {
	if t == nil {
		return nil
	}
	rows := make([]Row, len(t.Rows))
	copy(rows, t.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][col].AsFloat(), rows[j][col].AsFloat()
		if desc {
			return a > b
		}
		return a < b
	})
	return &Table{Columns: t.Columns, Rows: rows}
}

// Head returns a copy limited to the first n rows. A non-positive n or an n
// beyond the row count returns the whole table, so truncating twice with the
// same limit is a no-op.
func (t *Table) Head(n int) *Table {
	if t == nil {
		return nil
	}
	if n <= 0 || n >= len(t.Rows) {
		n = len(t.Rows)
	}
	rows := make([]Row, n)
	copy(rows, t.Rows[:n])
	return &Table{Columns: t.Columns, Rows: rows}
}

// FindColumn returns the first declared column satisfying match, or "".
func (t *Table) FindColumn(match func(string) bool) string {
	if t == nil {
		return ""
	}
	for _, c := range t.Columns {
		if match(c) {
			return c
		}
	}
	return ""
}

// FindColumnFold returns the declared column equal to name under Unicode
// case folding, or "".
func (t *Table) FindColumnFold(name string) string {
	return t.FindColumn(func(c string) bool {
		return strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(name))
	})
}
