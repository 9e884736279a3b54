// Package report assembles grouped, formula-enriched report structures
// from a dataset, a resolved configuration, and a filter. Report types
// are pluggable builder strategies resolved through a registry.
package report

import (
	"sort"
	"time"

	"millreport/internal/aggregate"
	"millreport/internal/dataset"
	"millreport/internal/domain"
	"millreport/internal/formula"
	"millreport/internal/reportcfg"
)

// FormulaPolicy decides what happens when a formula fails for a group.
type FormulaPolicy int

const (
	// FailFast aborts the whole report on the first formula failure.
	FailFast FormulaPolicy = iota
	// Substitute records the sentinel value for the failed formula and
	// continues. The failure is still counted and logged by the service.
	Substitute
)

// Options tune report generation per request.
type Options struct {
	Policy   FormulaPolicy
	Sentinel float64
}

// Pipeline carries everything a builder needs to turn dataset slices into
// records and summaries: the derived aggregation plan, formula order,
// display headers, and the rounding/sorting rules. Builders call Records
// and Summary per slice; the pipeline guarantees both go through the same
// aggregation, formula, rounding, and formatting steps in that order.
type Pipeline struct {
	Data    *dataset.Dataset
	Config  *reportcfg.Config
	Filter  domain.Filter
	Options Options

	dept    reportcfg.DepartmentSpec
	plan    aggregate.Plan
	headers map[string]domain.ColumnHeader
}

func newPipeline(ds *dataset.Dataset, cfg *reportcfg.Config, f domain.Filter, opts Options) (*Pipeline, error) {
	dept, err := cfg.Department(f.DepartmentID)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		Data:    ds,
		Config:  cfg,
		Filter:  f,
		Options: opts,
		dept:    dept,
	}
	if err := p.buildPlan(); err != nil {
		return nil, err
	}
	p.buildHeaders()
	return p, nil
}

// buildPlan derives the aggregation plan from the per-column grouping
// behaviors, the department's grouping defaults, and the category. The
// category decides whether machine and product columns act as grouping
// keys or as distinct-counted values.
func (p *Pipeline) buildPlan() error {
	cfg := p.Config

	plan := aggregate.Plan{
		Sum:      cfg.ColumnsByBehavior(reportcfg.BehaviorAggregate),
		Avg:      cfg.ColumnsByBehavior(reportcfg.BehaviorAverage),
		Distinct: cfg.ColumnsByBehavior(reportcfg.BehaviorCountDistinct),
		Count:    cfg.ColumnsByBehavior(reportcfg.BehaviorCountRows),
		First:    cfg.ColumnsByBehavior(reportcfg.BehaviorFirstValue),
	}

	group := newStringSet(p.dept.DefaultGroupingColumns...)
	if p.dept.ProductColumn != "" {
		group.add(p.dept.ProductColumn)
	}
	// Time bucketing is the builder's concern, not a record grouping key.
	group.remove(reportcfg.ColDate)

	machineCols := []string{reportcfg.ColAssetID, reportcfg.ColMachineName}

	switch p.Filter.Category {
	case domain.CategoryCountwise, domain.CategoryHankwise:
		// Per product count: machines collapse into a distinct count.
		plan.Distinct = appendMissing(plan.Distinct, machineCols...)
		group.remove(machineCols...)
	case domain.CategoryLotwise:
		// Per lot: machines and products both collapse.
		plan.Distinct = appendMissing(plan.Distinct, machineCols...)
		if p.dept.ProductColumn != "" {
			plan.Distinct = appendMissing(plan.Distinct, p.dept.ProductColumn)
			group.remove(p.dept.ProductColumn)
		}
		group.remove(machineCols...)
	case domain.CategoryMachinewise:
		// Machines stay as grouping keys.
	case "":
		// No category: the department defaults stand.
	default:
		return domain.ErrConfiguration("unknown report category %q", p.Filter.Category)
	}

	if p.Filter.ReportType == domain.ReportShiftwise || p.Filter.ReportType == domain.ReportInstantaneous {
		group.add(reportcfg.ColShiftID, reportcfg.ColPlatformShiftID)
	}

	plan.GroupBy = group.ordered()
	if err := plan.Validate(); err != nil {
		return err
	}
	p.plan = plan
	return nil
}

// buildHeaders assembles the column-header mapping, applying the
// category-specific display overrides for the product, lot, and machine
// columns.
func (p *Pipeline) buildHeaders() {
	cfg := p.Config
	headers := make(map[string]domain.ColumnHeader, len(cfg.Columns))
	for key, col := range cfg.Columns {
		headers[key] = domain.ColumnHeader{Name: col.Name, Unit: col.Unit, SortOrder: col.SortOrder}
	}

	product := p.dept.ProductColumn
	productSpec, hasProduct := cfg.Columns[product]

	switch p.Filter.Category {
	case domain.CategoryCountwise:
		if hasProduct {
			headers[product] = domain.ColumnHeader{Name: productSpec.Name, Unit: productSpec.Unit, SortOrder: -3}
		}
		headers[reportcfg.ColLotNumber] = domain.ColumnHeader{Name: "Lot name", SortOrder: -2}
		headers[reportcfg.ColMachineName] = domain.ColumnHeader{Name: "No. of M/C", SortOrder: -1}
	case domain.CategoryLotwise:
		headers[reportcfg.ColLotNumber] = domain.ColumnHeader{Name: "Lot name", SortOrder: -3}
		if hasProduct {
			headers[product] = domain.ColumnHeader{Name: "No. of " + productSpec.Name, Unit: productSpec.Unit, SortOrder: -2}
		}
		headers[reportcfg.ColMachineName] = domain.ColumnHeader{Name: "No. of M/C", SortOrder: -1}
	case domain.CategoryMachinewise:
		headers[reportcfg.ColMachineName] = domain.ColumnHeader{Name: "M/C Name", SortOrder: -3}
		if hasProduct {
			headers[product] = domain.ColumnHeader{Name: productSpec.Name, Unit: productSpec.Unit, SortOrder: -2}
		}
		headers[reportcfg.ColLotNumber] = domain.ColumnHeader{Name: "Lot name", SortOrder: -1}
	}

	p.headers = headers
}

// Headers returns the column-header mapping for the report.
func (p *Pipeline) Headers() map[string]domain.ColumnHeader {
	out := make(map[string]domain.ColumnHeader, len(p.headers))
	for k, v := range p.headers {
		out[k] = v
	}
	return out
}

// Records aggregates a slice into sorted, rounded display records filtered
// to the configured columns.
func (p *Pipeline) Records(slice *dataset.Dataset) ([]map[string]any, error) {
	rows, err := aggregate.Group(slice, p.plan)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := p.applyFormulas(row.Values, row.KeyString()); err != nil {
			return nil, err
		}
	}
	p.sortRows(rows)

	records := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		p.roundValues(row.Values)
		p.formatTimes(row.Values)
		records = append(records, p.filterRecord(row.Values))
	}
	return records, nil
}

// Summary collapses a slice into one aggregated row, evaluates formulas
// on it, and rounds. Summaries are recomputed per level from raw rows:
// averages and distinct counts do not compose from child summaries.
func (p *Pipeline) Summary(slice *dataset.Dataset) (map[string]any, error) {
	valuePlan := p.plan
	valuePlan.GroupBy = nil
	valuePlan.First = nil

	row, err := aggregate.Summarize(slice, valuePlan)
	if err != nil {
		return nil, err
	}
	if err := p.applyFormulas(row.Values, "summary"); err != nil {
		return nil, err
	}
	p.roundValues(row.Values)
	p.formatTimes(row.Values)
	return row.Values, nil
}

// applyFormulas evaluates every configured formula against the aggregated
// row in dependency order, so chained formulas see upstream results.
// Failures follow the configured policy; the engine never substitutes on
// its own.
func (p *Pipeline) applyFormulas(values map[string]any, group string) error {
	cfg := p.Config
	for _, key := range cfg.FormulaOrder() {
		spec := cfg.Formulas[key]

		env := make(map[string]float64, len(spec.Parameters)+len(spec.ConstParams))
		var ferr *domain.FormulaCalculationError
		for param, col := range spec.Parameters {
			v, ok := dataset.AsFloat(values[col])
			if !ok {
				ferr = domain.ErrFormula(key, group, "parameter %q has no numeric value for column %q", param, col)
				break
			}
			env[param] = v
		}
		if ferr == nil {
			for param, constKey := range spec.ConstParams {
				env[param] = cfg.Constants[constKey]
			}
			result, err := formula.Eval(cfg.ParsedFormula(key), env)
			if err != nil {
				ferr = domain.ErrFormula(key, group, "%s", err)
			} else {
				values[key] = result
				continue
			}
		}

		if p.Options.Policy == Substitute {
			values[key] = p.Options.Sentinel
			continue
		}
		return ferr
	}
	return nil
}

// roundValues rounds every numeric value to its configured precision.
// Runs after formulas so they always see full-precision inputs.
func (p *Pipeline) roundValues(values map[string]any) {
	for key, v := range values {
		if f, ok := v.(float64); ok {
			values[key] = aggregate.RoundHalfEven(f, p.Config.ColumnPrecision(key))
		}
	}
}

// formatTimes reformats configured time-of-day columns for display.
// Unparseable values pass through untouched.
func (p *Pipeline) formatTimes(values map[string]any) {
	for col, tf := range p.Config.TimeFormats {
		s, ok := values[col].(string)
		if !ok {
			continue
		}
		parsed, err := time.Parse(tf.Input, s)
		if err != nil {
			continue
		}
		values[col] = parsed.Format(tf.Output)
	}
}

// sortRows orders records by the grouping columns' declared sort order
// ascending, ties broken by the full group key tuple.
func (p *Pipeline) sortRows(rows []aggregate.GroupRow) {
	sortCols := append([]string(nil), p.plan.GroupBy...)
	sort.SliceStable(sortCols, func(i, j int) bool {
		a := p.Config.Columns[sortCols[i]].SortOrder
		b := p.Config.Columns[sortCols[j]].SortOrder
		if a != b {
			return a < b
		}
		return sortCols[i] < sortCols[j]
	})

	sort.SliceStable(rows, func(i, j int) bool {
		for _, col := range sortCols {
			c := compareValues(rows[i].Values[col], rows[j].Values[col])
			if c != 0 {
				return c < 0
			}
		}
		return rows[i].KeyString() < rows[j].KeyString()
	})
}

// filterRecord keeps only columns with a display header, plus the asset
// id, which downstream consumers rely on for drill-down links.
func (p *Pipeline) filterRecord(values map[string]any) map[string]any {
	out := make(map[string]any)
	for key, v := range values {
		if _, ok := p.headers[key]; ok {
			out[key] = v
		}
	}
	if v, ok := values[reportcfg.ColAssetID]; ok {
		out[reportcfg.ColAssetID] = v
	} else {
		out[reportcfg.ColAssetID] = nil
	}
	return out
}

// compareValues orders two cell values: numbers before strings, nil last.
func compareValues(a, b any) int {
	af, aok := dataset.AsFloat(a)
	bf, bok := dataset.AsFloat(b)
	switch {
	case aok && bok:
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	case aok:
		return -1
	case bok:
		return 1
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	switch {
	case aok && bok:
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	case aok:
		return -1
	case bok:
		return 1
	default:
		return 0
	}
}

// === small ordered set helper ===

type stringSet struct {
	order []string
	seen  map[string]bool
}

func newStringSet(items ...string) *stringSet {
	s := &stringSet{seen: make(map[string]bool)}
	s.add(items...)
	return s
}

func (s *stringSet) add(items ...string) {
	for _, it := range items {
		if it != "" && !s.seen[it] {
			s.seen[it] = true
			s.order = append(s.order, it)
		}
	}
}

func (s *stringSet) remove(items ...string) {
	for _, it := range items {
		if s.seen[it] {
			delete(s.seen, it)
			for i, o := range s.order {
				if o == it {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		}
	}
}

func (s *stringSet) ordered() []string {
	return append([]string(nil), s.order...)
}

func appendMissing(dst []string, items ...string) []string {
	for _, it := range items {
		found := false
		for _, d := range dst {
			if d == it {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, it)
		}
	}
	return dst
}
