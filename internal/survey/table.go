package survey

import (
	"fmt"
	"slices"
)

// Table is a column-major table of raw string cells.
// All columns have the same length; the zero value is an empty table.
type Table struct {
	names []string
	cols  map[string][]string
	rows  int
}

// NewTable builds a table from a header and row-major records.
// Short records are padded with empty cells, long ones are truncated.
func NewTable(header []string, records [][]string) (*Table, error) {
	t := &Table{cols: make(map[string][]string, len(header)), rows: len(records)}
	for i, name := range header {
		if _, dup := t.cols[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		col := make([]string, len(records))
		for r, rec := range records {
			if i < len(rec) {
				col[r] = rec[i]
			}
		}
		t.names = append(t.names, name)
		t.cols[name] = col
	}
	return t, nil
}

// Len returns the number of rows
func (t *Table) Len() int { return t.rows }

// Columns returns the column names in order
func (t *Table) Columns() []string { return slices.Clone(t.names) }

// Has reports whether the column exists
func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the cells of a column, or nil when it does not exist.
// The returned slice is shared with the table.
func (t *Table) Column(name string) []string {
	return t.cols[name]
}

// Set adds a column at the end or replaces an existing one in place
func (t *Table) Set(name string, values []string) error {
	if t.cols == nil {
		t.cols = make(map[string][]string)
	}
	if len(t.names) == 0 {
		t.rows = len(values)
	}
	if len(values) != t.rows {
		return fmt.Errorf("%w: column %q has %d values, table has %d rows", ErrLengthMismatch, name, len(values), t.rows)
	}
	if _, ok := t.cols[name]; !ok {
		t.names = append(t.names, name)
	}
	t.cols[name] = values
	return nil
}

// Drop removes the named columns, missing names are ignored
func (t *Table) Drop(names ...string) {
	for _, name := range names {
		if _, ok := t.cols[name]; !ok {
			continue
		}
		delete(t.cols, name)
		t.names = slices.DeleteFunc(t.names, func(n string) bool { return n == name })
	}
}

// Rename applies old->new renames. Renaming onto an existing column is an error.
func (t *Table) Rename(mapping map[string]string) error {
	for i, name := range t.names {
		target, ok := mapping[name]
		if !ok || target == name {
			continue
		}
		if _, exists := t.cols[target]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, target)
		}
		t.cols[target] = t.cols[name]
		delete(t.cols, name)
		t.names[i] = target
	}
	return nil
}

// DropDuplicateColumns drops every column whose key collides with the key of
// an earlier column and returns the dropped names. A nil key compares the
// names themselves.
func (t *Table) DropDuplicateColumns(key func(string) string) []string {
	if key == nil {
		key = func(s string) string { return s }
	}
	seen := make(map[string]bool, len(t.names))
	var dropped []string
	for _, name := range t.names {
		k := key(name)
		if seen[k] {
			dropped = append(dropped, name)
			continue
		}
		seen[k] = true
	}
	t.Drop(dropped...)
	return dropped
}

// RenameAll maps every column name through fn. Two columns mapping to the
// same name is an error and leaves the table unchanged.
func (t *Table) RenameAll(fn func(string) string) error {
	names := make([]string, len(t.names))
	cols := make(map[string][]string, len(t.cols))
	for i, name := range t.names {
		target := fn(name)
		if _, dup := cols[target]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, target)
		}
		names[i] = target
		cols[target] = t.cols[name]
	}
	t.names = names
	t.cols = cols
	return nil
}

// Records returns the table row-major, in column order
func (t *Table) Records() [][]string {
	out := make([][]string, t.rows)
	for r := 0; r < t.rows; r++ {
		row := make([]string, len(t.names))
		for c, name := range t.names {
			row[c] = t.cols[name][r]
		}
		out[r] = row
	}
	return out
}

// MissingCounts returns the number of empty cells per column
func (t *Table) MissingCounts() map[string]int {
	out := make(map[string]int, len(t.names))
	for _, name := range t.names {
		n := 0
		for _, v := range t.cols[name] {
			if IsMissing(v) {
				n++
			}
		}
		out[name] = n
	}
	return out
}
