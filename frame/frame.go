// Package frame implements the in-memory tabular frame that flows through
// the bronze and silver transforms. A frame is column-major; cells are
// nullable, with nil meaning null. Cell values are restricted to string,
// int64, float64, bool and []string.
package frame

import (
	"github.com/pkg/errors"
)

// Column is a named column of nullable cells.
type Column struct {
	Name string
	Data []interface{}
}

// Frame is an ordered collection of equal-length columns with unique names.
type Frame struct {
	cols  []Column
	index map[string]int
}

// New builds a frame from columns. It errors on duplicate column names or
// mismatched column lengths. Duplicate names typically mean two source
// columns normalized to the same slug; we fail fast rather than letting
// one silently overwrite the other.
func New(cols ...Column) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(cols))}
	n := -1
	for _, col := range cols {
		if _, dup := f.index[col.Name]; dup {
			return nil, errors.Errorf("duplicate column name %q", col.Name)
		}
		if n >= 0 && len(col.Data) != n {
			return nil, errors.Errorf("column %q has %d rows, want %d", col.Name, len(col.Data), n)
		}
		n = len(col.Data)
		f.index[col.Name] = len(f.cols)
		f.cols = append(f.cols, col)
	}
	return f, nil
}

// NumRows returns the row count. An empty frame has zero rows.
func (f *Frame) NumRows() int {
	if len(f.cols) == 0 {
		return 0
	}
	return len(f.cols[0].Data)
}

func (f *Frame) NumCols() int {
	return len(f.cols)
}

// Names returns the column names in frame order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, col := range f.cols {
		names[i] = col.Name
	}
	return names
}

func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the named column.
func (f *Frame) Column(name string) (Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return Column{}, false
	}
	return f.cols[i], true
}

// Columns returns the columns in frame order.
func (f *Frame) Columns() []Column {
	return f.cols
}

// SetColumn replaces the named column's data, or appends a new column if
// the name is not present.
func (f *Frame) SetColumn(name string, data []interface{}) error {
	if f.NumCols() > 0 && len(data) != f.NumRows() {
		return errors.Errorf("column %q has %d rows, want %d", name, len(data), f.NumRows())
	}
	if i, ok := f.index[name]; ok {
		f.cols[i].Data = data
		return nil
	}
	f.index[name] = len(f.cols)
	f.cols = append(f.cols, Column{Name: name, Data: data})
	return nil
}

// AppendConst appends a column holding the same value in every row.
func (f *Frame) AppendConst(name string, v interface{}) error {
	data := make([]interface{}, f.NumRows())
	for i := range data {
		data[i] = v
	}
	return f.SetColumn(name, data)
}

// Rename renames a column, but only when the target name is not already
// taken. It reports whether the rename happened.
func (f *Frame) Rename(from, to string) bool {
	i, ok := f.index[from]
	if !ok {
		return false
	}
	if _, taken := f.index[to]; taken {
		return false
	}
	delete(f.index, from)
	f.index[to] = i
	f.cols[i].Name = to
	return true
}

// Drop removes the named column if present.
func (f *Frame) Drop(name string) {
	i, ok := f.index[name]
	if !ok {
		return
	}
	f.cols = append(f.cols[:i], f.cols[i+1:]...)
	delete(f.index, name)
	for name, j := range f.index {
		if j > i {
			f.index[name] = j - 1
		}
	}
}

// Select returns a new frame containing the given rows, in the given
// order. Row indices must be valid.
func (f *Frame) Select(rows []int) *Frame {
	out := &Frame{index: make(map[string]int, len(f.cols))}
	for _, col := range f.cols {
		data := make([]interface{}, len(rows))
		for i, r := range rows {
			data[i] = col.Data[r]
		}
		out.index[col.Name] = len(out.cols)
		out.cols = append(out.cols, Column{Name: col.Name, Data: data})
	}
	return out
}

// Concat concatenates frames row-wise, taking the union of their columns
// in first-seen order and filling missing cells with null. Concatenating
// zero frames yields an empty frame.
func Concat(frames ...*Frame) *Frame {
	out := &Frame{index: make(map[string]int)}
	total := 0
	for _, f := range frames {
		for _, col := range f.cols {
			if _, ok := out.index[col.Name]; !ok {
				out.index[col.Name] = len(out.cols)
				out.cols = append(out.cols, Column{Name: col.Name})
			}
		}
		total += f.NumRows()
	}
	for i := range out.cols {
		out.cols[i].Data = make([]interface{}, 0, total)
	}
	for _, f := range frames {
		n := f.NumRows()
		for i := range out.cols {
			if col, ok := f.Column(out.cols[i].Name); ok {
				out.cols[i].Data = append(out.cols[i].Data, col.Data...)
			} else {
				out.cols[i].Data = append(out.cols[i].Data, make([]interface{}, n)...)
			}
		}
	}
	return out
}
