package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ColumnKind is the inferred type of a loaded column
type ColumnKind string

const (
	KindNumeric  ColumnKind = "numeric"
	KindText     ColumnKind = "text"
	KindTemporal ColumnKind = "temporal"
)

// Column is a named, typed, row-aligned column of a Table.
//
// Raw always holds the original cell text. Numbers is populated for numeric
// columns (NaN marks a missing cell) and Times for temporal columns (the zero
// time marks a missing cell). Columns reachable from a cached Table are shared
// and must be treated as read-only.
type Column struct {
	Name    string
	Kind    ColumnKind
	Raw     []string
	Numbers []float64
	Times   []time.Time
}

// NewTextColumn creates a text column over raw cell values
func NewTextColumn(name string, raw []string) *Column {
	return &Column{Name: name, Kind: KindText, Raw: raw}
}

// NewNumericColumn creates a numeric column. numbers must be row-aligned with raw.
func NewNumericColumn(name string, raw []string, numbers []float64) *Column {
	return &Column{Name: name, Kind: KindNumeric, Raw: raw, Numbers: numbers}
}

// NewTemporalColumn creates a temporal column. times must be row-aligned with raw.
func NewTemporalColumn(name string, raw []string, times []time.Time) *Column {
	return &Column{Name: name, Kind: KindTemporal, Raw: raw, Times: times}
}

// Len returns the number of rows in the column
func (c *Column) Len() int {
	return len(c.Raw)
}

// IsNull reports whether row i holds a missing value
func (c *Column) IsNull(i int) bool {
	switch c.Kind {
	case KindNumeric:
		return math.IsNaN(c.Numbers[i])
	case KindTemporal:
		return c.Times[i].IsZero()
	default:
		return strings.TrimSpace(c.Raw[i]) == ""
	}
}

// NullCount returns the number of missing cells
func (c *Column) NullCount() int {
	n := 0
	for i := range c.Raw {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// Value returns the typed value of row i: float64, time.Time, string, or nil when missing.
func (c *Column) Value(i int) any {
	if c.IsNull(i) {
		return nil
	}
	switch c.Kind {
	case KindNumeric:
		return c.Numbers[i]
	case KindTemporal:
		return c.Times[i]
	default:
		return c.Raw[i]
	}
}

// Floats returns the non-missing numeric values in row order.
// It returns nil for non-numeric columns.
func (c *Column) Floats() []float64 {
	if c.Kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.Numbers))
	for _, v := range c.Numbers {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Take returns a new column holding the given rows in the given order
func (c *Column) Take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Raw: make([]string, len(rows))}
	if c.Numbers != nil {
		out.Numbers = make([]float64, len(rows))
	}
	if c.Times != nil {
		out.Times = make([]time.Time, len(rows))
	}
	for i, r := range rows {
		out.Raw[i] = c.Raw[r]
		if c.Numbers != nil {
			out.Numbers[i] = c.Numbers[r]
		}
		if c.Times != nil {
			out.Times[i] = c.Times[r]
		}
	}
	return out
}

// Clone returns a deep copy of the column
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Raw: append([]string(nil), c.Raw...)}
	if c.Numbers != nil {
		out.Numbers = append([]float64(nil), c.Numbers...)
	}
	if c.Times != nil {
		out.Times = append([]time.Time(nil), c.Times...)
	}
	return out
}

// Table is an in-memory columnar dataset. Its shape is fixed at construction;
// every transformation returns a new Table.
type Table struct {
	Name    string
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable builds a table from row-aligned columns.
// rows is used only when cols is empty, so a projection onto no columns keeps its row count.
func NewTable(name string, rows int, cols []*Column) (*Table, error) {
	t := &Table{Name: name, rows: rows, index: make(map[string]int, len(cols))}
	for i, col := range cols {
		if i == 0 {
			t.rows = col.Len()
		}
		if col.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), t.rows)
		}
		if _, dup := t.index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", col.Name)
		}
		t.index[col.Name] = i
	}
	t.columns = cols
	return t, nil
}

// MustTable is NewTable for callers that already guarantee alignment
func MustTable(name string, rows int, cols []*Column) *Table {
	t, err := NewTable(name, rows, cols)
	if err != nil {
		panic(err)
	}
	return t
}

// Rows returns the row count
func (t *Table) Rows() int {
	return t.rows
}

// Width returns the column count
func (t *Table) Width() int {
	return len(t.columns)
}

// Columns returns the table's columns in order
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.columns...)
}

// ColumnNames returns column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by exact name
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// HasColumn reports whether the table has a column with the given name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Take returns a new table with the given rows in the given order
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Take(rows)
	}
	return MustTable(t.Name, len(rows), cols)
}

// Head returns the first n rows, or the whole table when n <= 0 or n >= Rows.
func (t *Table) Head(n int) *Table {
	if n <= 0 || n >= t.rows {
		return t
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return t.Take(rows)
}

// Select projects the table onto the named columns, skipping unknown names.
// The projected table shares column storage with t.
func (t *Table) Select(names []string) *Table {
	cols := make([]*Column, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if c, ok := t.Column(name); ok && !seen[name] {
			cols = append(cols, c)
			seen[name] = true
		}
	}
	return MustTable(t.Name, t.rows, cols)
}

// WithColumn returns a new table where col replaces the column of the same
// name, or is appended when no such column exists.
func (t *Table) WithColumn(col *Column) (*Table, error) {
	cols := t.Columns()
	if i, ok := t.index[col.Name]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return NewTable(t.Name, t.rows, cols)
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Clone()
	}
	return MustTable(t.Name, t.rows, cols)
}

// Records returns header plus raw string rows, for display and CSV export.
func (t *Table) Records() (header []string, rows [][]string) {
	header = t.ColumnNames()
	rows = make([][]string, t.rows)
	for r := 0; r < t.rows; r++ {
		row := make([]string, len(t.columns))
		for i, c := range t.columns {
			row[i] = c.Raw[r]
		}
		rows[r] = row
	}
	return header, rows
}

// RowMaps returns each row as a column name -> typed value map
func (t *Table) RowMaps() []map[string]any {
	out := make([]map[string]any, t.rows)
	for r := 0; r < t.rows; r++ {
		row := make(map[string]any, len(t.columns))
		for _, c := range t.columns {
			row[c.Name] = c.Value(r)
		}
		out[r] = row
	}
	return out
}
