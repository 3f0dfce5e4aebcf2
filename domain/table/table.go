// Package table holds the column-typed in-memory table the pipeline threads
// from stage to stage. Tables are value-semantic: every transforming
// operation returns a new table and leaves its receiver untouched, and every
// row carries the record's own identifier so downstream stages never depend
// on positional alignment with an upstream table.
package table

import (
	"fmt"

	"schoolscope/domain/core"
)

// Table is an ordered collection of equally sized typed columns plus the
// record identity of every row.
type Table struct {
	ids   []core.RecordID
	cols  []*Column
	index map[string]int
}

// New creates an empty table over the given record ids
func New(ids []core.RecordID) *Table {
	return &Table{
		ids:   append([]core.RecordID(nil), ids...),
		index: make(map[string]int),
	}
}

// AddColumn appends a column; its length must match the table's row count
func (t *Table) AddColumn(c *Column) error {
	if c.Len() != len(t.ids) {
		return fmt.Errorf("column %s has %d rows, table has %d", c.Name, c.Len(), len(t.ids))
	}
	if _, dup := t.index[c.Name]; dup {
		return fmt.Errorf("duplicate column %s", c.Name)
	}
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// Rows returns the number of records
func (t *Table) Rows() int {
	return len(t.ids)
}

// IDs returns the record identifier of every row, in row order
func (t *Table) IDs() []core.RecordID {
	return t.ids
}

// ID returns the record identifier of row i
func (t *Table) ID(i int) core.RecordID {
	return t.ids[i]
}

// ColumnNames returns the column names in declaration order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether the named column exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column, or an error if absent
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, core.NewColumnMissingError(name)
	}
	return t.cols[i], nil
}

// Numeric returns the named column's float values, failing on absent or
// non-numeric columns
func (t *Table) Numeric(name string) ([]float64, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != KindNumeric {
		return nil, fmt.Errorf("%w: %s is %s", core.ErrColumnType, name, c.Kind)
	}
	return c.Floats(), nil
}

// Categorical returns the named column's string values, failing on absent or
// non-categorical columns
func (t *Table) Categorical(name string) ([]string, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != KindCategorical {
		return nil, fmt.Errorf("%w: %s is %s", core.ErrColumnType, name, c.Kind)
	}
	return c.Strings(), nil
}

// Clone deep-copies the table
func (t *Table) Clone() *Table {
	out := New(t.ids)
	for _, c := range t.cols {
		// lengths already validated on the source table
		_ = out.AddColumn(c.clone())
	}
	return out
}

// WithNumeric returns a copy of the table with the named numeric column
// replaced (or added) with the given values
func (t *Table) WithNumeric(name string, values []float64) (*Table, error) {
	if len(values) != t.Rows() {
		return nil, fmt.Errorf("column %s has %d rows, table has %d", name, len(values), t.Rows())
	}
	out := t.Clone()
	vals := append([]float64(nil), values...)
	if i, ok := out.index[name]; ok {
		out.cols[i] = NumericColumn(name, vals)
		return out, nil
	}
	_ = out.AddColumn(NumericColumn(name, vals))
	return out, nil
}

// WithCategorical returns a copy of the table with the named categorical
// column replaced (or added) with the given values
func (t *Table) WithCategorical(name string, values []string) (*Table, error) {
	if len(values) != t.Rows() {
		return nil, fmt.Errorf("column %s has %d rows, table has %d", name, len(values), t.Rows())
	}
	out := t.Clone()
	vals := append([]string(nil), values...)
	if i, ok := out.index[name]; ok {
		out.cols[i] = CategoricalColumn(name, vals)
		return out, nil
	}
	_ = out.AddColumn(CategoricalColumn(name, vals))
	return out, nil
}

// DropColumns returns a copy of the table without the named columns.
// Names absent from the table are ignored.
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := New(t.ids)
	for _, c := range t.cols {
		if drop[c.Name] {
			continue
		}
		_ = out.AddColumn(c.clone())
	}
	return out
}

// Filter returns a copy of the table keeping only rows where keep[i] is true
func (t *Table) Filter(keep []bool) *Table {
	ids := make([]core.RecordID, 0, len(t.ids))
	for i, id := range t.ids {
		if keep[i] {
			ids = append(ids, id)
		}
	}
	out := New(ids)
	for _, c := range t.cols {
		_ = out.AddColumn(c.filter(keep))
	}
	return out
}

// Complete reports, for the given feature columns, which rows have no
// missing value in any of them (the listwise-deletion mask).
func (t *Table) Complete(features []string) ([]bool, error) {
	keep := make([]bool, t.Rows())
	for i := range keep {
		keep[i] = true
	}
	for _, name := range features {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		for i := 0; i < c.Len(); i++ {
			if c.IsMissing(i) {
				keep[i] = false
			}
		}
	}
	return keep, nil
}
