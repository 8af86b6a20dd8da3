// Package frame provides a small column-oriented table whose cells may hold
// any value. Provider responses are decoded into a Frame without forcing
// types, so that validation happens in one place downstream.
//
// Column names are not required to be unique; Lookup returns every column
// sharing a name, which is how a table-shaped selection is detected.
package frame

import (
	"fmt"
)

// Column is a named sequence of cells.
type Column struct {
	Name   string
	Values []interface{}
}

// Frame is an ordered set of equal-length columns.
type Frame struct {
	cols []Column
	rows int
}

// New creates an empty frame with the given column names.
func New(names ...string) *Frame {
	f := &Frame{cols: make([]Column, len(names))}
	for i, name := range names {
		f.cols[i] = Column{Name: name}
	}
	return f
}

// FromColumns builds a frame from pre-filled columns of equal length.
func FromColumns(cols ...Column) (*Frame, error) {
	f := &Frame{}
	for _, c := range cols {
		if err := f.AddColumn(c.Name, c.Values); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return f.rows
}

// Empty reports whether the frame has no rows.
func (f *Frame) Empty() bool {
	return f.Len() == 0
}

// Columns returns the column names in order, duplicates included.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// Append adds one row. The number of values must match the column count.
func (f *Frame) Append(values ...interface{}) error {
	if len(values) != len(f.cols) {
		return fmt.Errorf("frame: row has %d values, frame has %d columns", len(values), len(f.cols))
	}
	for i, v := range values {
		f.cols[i].Values = append(f.cols[i].Values, v)
	}
	f.rows++
	return nil
}

// AddColumn appends a column. On a non-empty frame its length must match.
func (f *Frame) AddColumn(name string, values []interface{}) error {
	if len(f.cols) > 0 && len(values) != f.rows {
		return fmt.Errorf("frame: column %q has %d values, frame has %d rows", name, len(values), f.rows)
	}
	cp := make([]interface{}, len(values))
	copy(cp, values)
	f.cols = append(f.cols, Column{Name: name, Values: cp})
	f.rows = len(values)
	return nil
}

// Has reports whether at least one column carries name.
func (f *Frame) Has(name string) bool {
	for _, c := range f.cols {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Lookup returns every column named name, in frame order.
func (f *Frame) Lookup(name string) []Column {
	var out []Column
	for _, c := range f.cols {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Column returns the first column named name.
func (f *Frame) Column(name string) (Column, bool) {
	for _, c := range f.cols {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Select returns a copy holding the named columns in the requested order.
// A name that matches several columns brings all of them along.
func (f *Frame) Select(names ...string) (*Frame, error) {
	out := &Frame{rows: f.rows}
	for _, name := range names {
		matches := f.Lookup(name)
		if len(matches) == 0 {
			return nil, fmt.Errorf("frame: no column %q", name)
		}
		for _, c := range matches {
			cp := make([]interface{}, len(c.Values))
			copy(cp, c.Values)
			out.cols = append(out.cols, Column{Name: c.Name, Values: cp})
		}
	}
	return out, nil
}

// Rename returns a copy with columns renamed according to mapping.
func (f *Frame) Rename(mapping map[string]string) *Frame {
	out := f.Clone()
	for i := range out.cols {
		if to, ok := mapping[out.cols[i].Name]; ok {
			out.cols[i].Name = to
		}
	}
	return out
}

// Clone returns a deep copy of the frame structure. Cell values are copied
// by assignment.
func (f *Frame) Clone() *Frame {
	out := &Frame{rows: f.rows, cols: make([]Column, len(f.cols))}
	for i, c := range f.cols {
		cp := make([]interface{}, len(c.Values))
		copy(cp, c.Values)
		out.cols[i] = Column{Name: c.Name, Values: cp}
	}
	return out
}

// Slice returns rows [from, to) as a new frame.
func (f *Frame) Slice(from, to int) *Frame {
	if from < 0 {
		from = 0
	}
	if to > f.rows {
		to = f.rows
	}
	if from > to {
		from = to
	}
	out := &Frame{rows: to - from, cols: make([]Column, len(f.cols))}
	for i, c := range f.cols {
		cp := make([]interface{}, to-from)
		copy(cp, c.Values[from:to])
		out.cols[i] = Column{Name: c.Name, Values: cp}
	}
	return out
}

// Tail returns the last n rows.
func (f *Frame) Tail(n int) *Frame {
	if n < 0 {
		n = 0
	}
	return f.Slice(f.rows-n, f.rows)
}

// Row returns the cells of row i in column order.
func (f *Frame) Row(i int) []interface{} {
	row := make([]interface{}, len(f.cols))
	for j, c := range f.cols {
		row[j] = c.Values[i]
	}
	return row
}

// Records returns every row as a name-to-value map. With duplicate column
// names the last column wins.
func (f *Frame) Records() []map[string]interface{} {
	out := make([]map[string]interface{}, f.rows)
	for i := 0; i < f.rows; i++ {
		rec := make(map[string]interface{}, len(f.cols))
		for _, c := range f.cols {
			rec[c.Name] = c.Values[i]
		}
		out[i] = rec
	}
	return out
}
