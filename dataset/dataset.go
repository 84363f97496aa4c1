package dataset

import (
	"fmt"
)

// ============================================================================
// DATASET — In-Memory Tabular Value
// ============================================================================
// A Dataset is an ordered sequence of named columns sharing one row count.
// Cell values are nil (null), string, int64, float64, bool, or time.Time.
//
// Datasets are treated as immutable by consumers: the transform package
// clones before touching anything, so a caller always keeps the original
// for retry or preview. Concurrent reads need no synchronization.
// ============================================================================

// Column is a single named column with its cell values.
type Column struct {
	Name  string
	Cells []any
}

// Dataset is an ordered collection of equal-length, uniquely-named columns.
type Dataset struct {
	Columns []Column
}

// New builds a Dataset and verifies its structural invariants.
func New(columns ...Column) (*Dataset, error) {
	ds := &Dataset{Columns: columns}
	if err := ds.CheckInvariants(); err != nil {
		return nil, err
	}
	return ds, nil
}

// CheckInvariants verifies unique column names and equal column lengths.
func (d *Dataset) CheckInvariants() error {
	if len(d.Columns) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(d.Columns))
	for _, c := range d.Columns {
		if seen[c.Name] {
			return fmt.Errorf("duplicate column name: %q", c.Name)
		}
		seen[c.Name] = true
	}
	for _, c := range d.Columns[1:] {
		if len(c.Cells) != len(d.Columns[0].Cells) {
			return fmt.Errorf("column %q has %d cells, expected %d",
				c.Name, len(c.Cells), len(d.Columns[0].Cells))
		}
	}
	return nil
}

// RowCount returns the number of rows.
func (d *Dataset) RowCount() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Cells)
}

// ColumnCount returns the number of columns.
func (d *Dataset) ColumnCount() int { return len(d.Columns) }

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of a column, or -1 when absent.
func (d *Dataset) Index(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether a column exists.
func (d *Dataset) HasColumn(name string) bool { return d.Index(name) >= 0 }

// Column returns a column by name, or nil when absent.
func (d *Dataset) Column(name string) *Column {
	if i := d.Index(name); i >= 0 {
		return &d.Columns[i]
	}
	return nil
}

// Row returns one row as a name → value map.
func (d *Dataset) Row(i int) map[string]any {
	row := make(map[string]any, len(d.Columns))
	for _, c := range d.Columns {
		if i >= 0 && i < len(c.Cells) {
			row[c.Name] = c.Cells[i]
		}
	}
	return row
}

// Clone returns a deep copy. Cell values themselves are scalars, so
// copying the cell slices is enough.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{Columns: make([]Column, len(d.Columns))}
	for i, c := range d.Columns {
		cells := make([]any, len(c.Cells))
		copy(cells, c.Cells)
		out.Columns[i] = Column{Name: c.Name, Cells: cells}
	}
	return out
}
