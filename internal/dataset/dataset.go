// Package dataset provides the in-memory tabular structure the report
// engine consumes. Any provider that can enumerate rows with named
// columns can materialize one; CSV and database/sql readers are included.
package dataset

import (
	"fmt"
	"sort"
)

// Row maps column name to cell value. Cells are float64, string, or nil.
type Row map[string]any

// Dataset is a bounded in-memory table with named columns. Row order is
// preserved exactly as appended; FirstValue aggregation depends on it.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// New creates an empty dataset with the given column set.
func New(columns []string) *Dataset {
	d := &Dataset{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		d.index[c] = i
	}
	return d
}

// FromRecords builds a dataset from row maps. The column set is the union
// of all keys, ordered by first appearance across rows.
func FromRecords(records []map[string]any) *Dataset {
	var columns []string
	seen := make(map[string]bool)
	for _, rec := range records {
		for _, c := range OrderedKeys(rec) {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}
	d := New(columns)
	for _, rec := range records {
		d.Append(Row(rec))
	}
	return d
}

// Append adds one row. Unknown keys are ignored; missing keys read as nil.
func (d *Dataset) Append(row Row) {
	r := make(Row, len(d.columns))
	for _, c := range d.columns {
		if v, ok := row[c]; ok {
			r[c] = v
		}
	}
	d.rows = append(d.rows, r)
}

// Columns returns the column names in declaration order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Row returns the i-th row in original order.
func (d *Dataset) Row(i int) Row { return d.rows[i] }

// Slice returns a new dataset containing the rows for which keep returns
// true, preserving order. The rows are shared, not copied; datasets are
// read-only once built.
func (d *Dataset) Slice(keep func(Row) bool) *Dataset {
	out := New(d.columns)
	for _, r := range d.rows {
		if keep(r) {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// Float reads the named cell of row i as a float64. Non-numeric and
// missing values return (0, false).
func (d *Dataset) Float(i int, column string) (float64, bool) {
	return AsFloat(d.rows[i][column])
}

// AsFloat coerces a cell value to float64. Strings are not parsed here;
// providers are responsible for typing their columns.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// String renders a short description, handy in test failures.
func (d *Dataset) String() string {
	return fmt.Sprintf("dataset(%d columns, %d rows)", len(d.columns), len(d.rows))
}

// OrderedKeys returns map keys in a stable order. Go map iteration is
// randomized, so ordering within one record falls back to sorted order.
func OrderedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
