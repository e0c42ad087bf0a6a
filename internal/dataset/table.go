package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Table is a column-oriented, in-memory dataset. Every column holds exactly
// Len() cells and columns keep the order in which they were first seen.
type Table struct {
	names []string
	index map[string]int
	cols  [][]Value
	rows  int
}

// NewTable returns an empty table with the given number of rows
func NewTable(rows int) *Table {
	return &Table{
		index: make(map[string]int),
		rows:  rows,
	}
}

// Len returns the number of rows
func (t *Table) Len() int { return t.rows }

// Columns returns the column names in order
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Has reports whether the column exists
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the cells of a column. The slice is shared with the table.
func (t *Table) Column(name string) ([]Value, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Cell returns a single cell, or a null cell when the column is missing
func (t *Table) Cell(name string, row int) Value {
	col, ok := t.Column(name)
	if !ok || row < 0 || row >= len(col) {
		return Null()
	}
	return col[row]
}

// SetColumn adds a column at the end or replaces an existing one in place
func (t *Table) SetColumn(name string, values []Value) error {
	if len(values) != t.rows {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), t.rows)
	}
	if i, ok := t.index[name]; ok {
		t.cols[i] = values
		return nil
	}
	t.index[name] = len(t.names)
	t.names = append(t.names, name)
	t.cols = append(t.cols, values)
	return nil
}

// Drop removes a column. It reports whether the column existed.
func (t *Table) Drop(name string) bool {
	i, ok := t.index[name]
	if !ok {
		return false
	}
	t.names = append(t.names[:i], t.names[i+1:]...)
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	delete(t.index, name)
	for j := i; j < len(t.names); j++ {
		t.index[t.names[j]] = j
	}
	return true
}

// Rename changes a column name keeping its position
func (t *Table) Rename(oldName, newName string) error {
	i, ok := t.index[oldName]
	if !ok {
		return fmt.Errorf("column %q does not exist", oldName)
	}
	if oldName == newName {
		return nil
	}
	if t.Has(newName) {
		return fmt.Errorf("column %q already exists", newName)
	}
	t.names[i] = newName
	delete(t.index, oldName)
	t.index[newName] = i
	return nil
}

// Row returns the cells of a row keyed by column name
func (t *Table) Row(row int) map[string]Value {
	out := make(map[string]Value, len(t.names))
	for i, name := range t.names {
		out[name] = t.cols[i][row]
	}
	return out
}

// WriteJSON writes the table as a JSON array of records, keys in column order
func (t *Table) WriteJSON(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("[")
	for row := 0; row < t.rows; row++ {
		if row > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  {")
		for i, name := range t.names {
			if i > 0 {
				buf.WriteString(", ")
			}
			key, _ := json.Marshal(name)
			val, err := json.Marshal(t.cols[i][row].Interface())
			if err != nil {
				return fmt.Errorf("encode column %q row %d: %w", name, row, err)
			}
			buf.Write(key)
			buf.WriteString(": ")
			buf.Write(val)
		}
		buf.WriteString("}")
	}
	if t.rows > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")

	_, err := w.Write(buf.Bytes())
	return err
}
