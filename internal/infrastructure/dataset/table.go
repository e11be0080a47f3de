package dataset

import (
	"strings"
)

// Table is an ordered-column tabular record set with raw string cells, the
// engine's input representation. Column lookup is case-insensitive; cell
// values are untouched.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewTable creates an empty table with the given column order.
func NewTable(columns []string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, name := range columns {
		key := canonical(name)
		if _, exists := t.index[key]; !exists {
			t.index[key] = i
		}
	}
	return t
}

func canonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Columns returns the column names in input order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether a column exists (case-insensitive).
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[canonical(name)]
	return ok
}

// AppendRow adds a row. Short rows are padded with empty cells; long rows are
// truncated to the column count.
func (t *Table) AppendRow(cells []string) {
	row := make([]string, len(t.columns))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Cell returns the trimmed value at (row, column) and whether the column
// exists. A missing column and a blank cell are distinct conditions.
func (t *Table) Cell(row int, column string) (string, bool) {
	idx, ok := t.index[canonical(column)]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(t.rows[row][idx]), true
}

// FirstColumn resolves the first present column among the given names,
// returning its canonical match and whether any was found.
func (t *Table) FirstColumn(names ...string) (string, bool) {
	for _, name := range names {
		if t.HasColumn(name) {
			return name, true
		}
	}
	return "", false
}
