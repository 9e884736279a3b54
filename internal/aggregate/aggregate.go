// Package aggregate computes grouped aggregates over a dataset with
// heterogeneous per-column strategies: sum, mean, distinct count, row
// count, and first value. All strategies are associative over row order
// (first-value per the original order), so results are independent of
// how an upstream engine chunked the data.
package aggregate

import (
	"fmt"
	"strings"

	"millreport/internal/dataset"
	"millreport/internal/domain"
)

// Plan describes one grouped aggregation: the group-by key columns and
// the value columns per strategy. Columns absent from the dataset are
// skipped, mirroring partial sites that do not record every metric.
type Plan struct {
	GroupBy  []string
	Sum      []string
	Avg      []string
	Distinct []string
	Count    []string
	First    []string
}

// Validate rejects plans where a group-by column doubles as a value
// column; a key cannot also be aggregated.
func (p Plan) Validate() error {
	keys := make(map[string]bool, len(p.GroupBy))
	for _, c := range p.GroupBy {
		keys[c] = true
	}
	for _, set := range [][]string{p.Sum, p.Avg, p.Distinct, p.Count, p.First} {
		for _, c := range set {
			if keys[c] {
				return domain.ErrConfiguration("column %q is both a grouping key and a value column", c)
			}
		}
	}
	return nil
}

// GroupRow is one aggregated output row: the group's key values plus the
// computed value per column.
type GroupRow struct {
	// Key holds the group-by column values in Plan.GroupBy order.
	Key []any
	// Values maps column key to computed value, including the key columns.
	Values map[string]any
}

// KeyString renders the group key for error context and tie-breaking.
func (g GroupRow) KeyString() string {
	parts := make([]string, len(g.Key))
	for i, v := range g.Key {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, "/")
}

// accumulator carries the running state for one group.
type accumulator struct {
	key      []any
	rows     int
	sums     map[string]float64
	avgSums  map[string]float64
	avgN     map[string]int
	distinct map[string]map[string]bool
	counts   map[string]int
	firsts   map[string]any
}

// Group computes one GroupRow per distinct combination of group-by key
// values. Output order is the order in which each group's first row
// appears in the dataset; display sorting is the caller's concern.
// An empty GroupBy collapses the whole dataset into a single row, which
// is how per-level summaries are computed.
func Group(ds *dataset.Dataset, plan Plan) ([]GroupRow, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	groupBy := presentColumns(ds, plan.GroupBy)
	sums := presentColumns(ds, plan.Sum)
	avgs := presentColumns(ds, plan.Avg)
	distincts := presentColumns(ds, plan.Distinct)
	counts := presentColumns(ds, plan.Count)
	firsts := presentColumns(ds, plan.First)

	accs := make(map[string]*accumulator)
	var order []string

	for i := 0; i < ds.Len(); i++ {
		row := ds.Row(i)

		key := make([]any, len(groupBy))
		for j, col := range groupBy {
			key[j] = row[col]
		}
		id := keyID(key)

		acc, ok := accs[id]
		if !ok {
			acc = &accumulator{
				key:      key,
				sums:     make(map[string]float64),
				avgSums:  make(map[string]float64),
				avgN:     make(map[string]int),
				distinct: make(map[string]map[string]bool),
				counts:   make(map[string]int),
				firsts:   make(map[string]any),
			}
			accs[id] = acc
			order = append(order, id)

			for _, col := range firsts {
				acc.firsts[col] = row[col]
			}
		}
		acc.rows++

		for _, col := range sums {
			if v, ok := dataset.AsFloat(row[col]); ok {
				acc.sums[col] += v
			}
		}
		for _, col := range avgs {
			if v, ok := dataset.AsFloat(row[col]); ok {
				acc.avgSums[col] += v
				acc.avgN[col]++
			}
		}
		for _, col := range distincts {
			if row[col] == nil {
				continue
			}
			set := acc.distinct[col]
			if set == nil {
				set = make(map[string]bool)
				acc.distinct[col] = set
			}
			set[fmt.Sprintf("%v", row[col])] = true
		}
		for _, col := range counts {
			acc.counts[col]++
		}
	}

	out := make([]GroupRow, 0, len(order))
	for _, id := range order {
		acc := accs[id]
		values := make(map[string]any)
		for j, col := range groupBy {
			values[col] = acc.key[j]
		}
		for _, col := range sums {
			values[col] = acc.sums[col]
		}
		for _, col := range avgs {
			if n := acc.avgN[col]; n > 0 {
				values[col] = acc.avgSums[col] / float64(n)
			} else {
				// Empty group average is defined as 0, not an error.
				values[col] = 0.0
			}
		}
		for _, col := range distincts {
			values[col] = float64(len(acc.distinct[col]))
		}
		for _, col := range counts {
			values[col] = float64(acc.counts[col])
		}
		for _, col := range firsts {
			values[col] = acc.firsts[col]
		}
		out = append(out, GroupRow{Key: acc.key, Values: values})
	}
	return out, nil
}

// Summarize collapses the whole dataset into one aggregated row using the
// plan's value strategies. A zero-row dataset yields a row of zero values
// rather than an error; callers validate non-emptiness before building.
func Summarize(ds *dataset.Dataset, plan Plan) (GroupRow, error) {
	plan.GroupBy = nil
	rows, err := Group(ds, plan)
	if err != nil {
		return GroupRow{}, err
	}
	if len(rows) == 0 {
		values := make(map[string]any)
		for _, set := range [][]string{plan.Sum, plan.Avg, plan.Distinct, plan.Count} {
			for _, col := range presentColumns(ds, set) {
				values[col] = 0.0
			}
		}
		return GroupRow{Values: values}, nil
	}
	return rows[0], nil
}

// keyID produces a collision-safe map key for a group key tuple.
func keyID(key []any) string {
	var b strings.Builder
	for _, v := range key {
		fmt.Fprintf(&b, "%v\x1f", v)
	}
	return b.String()
}

func presentColumns(ds *dataset.Dataset, cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if ds.HasColumn(c) {
			out = append(out, c)
		}
	}
	return out
}
