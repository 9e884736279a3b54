// Package reportcfg holds the typed report configuration model: column
// definitions, department rules, formulas, constants, and shift labels,
// composed from layered sources by deep merge and frozen by Resolve.
package reportcfg

import (
	"sort"

	"github.com/google/uuid"

	"millreport/internal/domain"
	"millreport/internal/formula"
)

// DefaultPrecision is the rounding precision applied when neither the
// column spec nor the precision overrides name one.
const DefaultPrecision = 2

// ColumnSpec describes one data column the system knows how to handle.
type ColumnSpec struct {
	Key       string           `yaml:"-" json:"-" toml:"-"`
	Name      string           `yaml:"name" json:"name" toml:"name"`
	Unit      string           `yaml:"unit,omitempty" json:"unit,omitempty" toml:"unit,omitempty"`
	Precision *int             `yaml:"precision,omitempty" json:"precision,omitempty" toml:"precision,omitempty"`
	Behavior  GroupingBehavior `yaml:"behavior,omitempty" json:"behavior,omitempty" toml:"behavior,omitempty"`
	SortOrder int              `yaml:"sort_order" json:"sort_order" toml:"sort_order"`
}

// FormulaSpec describes one derived metric. Parameters maps parameter
// names used in the expression to source column keys (which may name an
// earlier formula, enabling chaining); ConstParams maps parameter names
// to entries in the constants table.
type FormulaSpec struct {
	Key         string            `yaml:"-" json:"-" toml:"-"`
	Expr        string            `yaml:"formula" json:"formula" toml:"formula"`
	Parameters  map[string]string `yaml:"parameters" json:"parameters" toml:"parameters"`
	ConstParams map[string]string `yaml:"constants,omitempty" json:"constants,omitempty" toml:"constants,omitempty"`
}

// DepartmentSpec describes a configured production area.
type DepartmentSpec struct {
	ID                     string   `yaml:"-" json:"-" toml:"-"`
	ProductColumn          string   `yaml:"product_column" json:"product_column" toml:"product_column"`
	MandatoryColumns       []string `yaml:"mandatory_columns" json:"mandatory_columns" toml:"mandatory_columns"`
	DefaultGroupingColumns []string `yaml:"default_grouping_columns" json:"default_grouping_columns" toml:"default_grouping_columns"`
}

// TimeFormat reformats a time-of-day column for display.
type TimeFormat struct {
	Input  string `yaml:"input_format" json:"input_format" toml:"input_format"`
	Output string `yaml:"output_format" json:"output_format" toml:"output_format"`
}

// Config is the aggregate configuration root. A Config built by hand or
// by the loader is mutable until Resolve, which validates it, assigns an
// identity, and returns a frozen copy. Resolved configs are safe for
// concurrent report generation; a new merge always produces a new value.
type Config struct {
	Departments map[string]DepartmentSpec `yaml:"departments" json:"departments" toml:"departments"`
	Columns     map[string]ColumnSpec     `yaml:"column_definitions" json:"column_definitions" toml:"column_definitions"`
	Formulas    map[string]FormulaSpec    `yaml:"formulas" json:"formulas" toml:"formulas"`
	Constants   map[string]float64        `yaml:"constants" json:"constants" toml:"constants"`
	ShiftLabels map[string]string         `yaml:"shift_mappings" json:"shift_mappings" toml:"shift_mappings"`
	Precision   map[string]int            `yaml:"precision_defaults" json:"precision_defaults" toml:"precision_defaults"`
	TimeFormats map[string]TimeFormat     `yaml:"time_formats,omitempty" json:"time_formats,omitempty" toml:"time_formats,omitempty"`

	id     string                  // set by Resolve; empty on unresolved configs
	order  []string                // formula evaluation order
	parsed map[string]formula.Expr // parsed expression per formula key
}

// New returns an empty, unresolved Config with all maps allocated.
func New() *Config {
	return &Config{
		Departments: map[string]DepartmentSpec{},
		Columns:     map[string]ColumnSpec{},
		Formulas:    map[string]FormulaSpec{},
		Constants:   map[string]float64{},
		ShiftLabels: map[string]string{},
		Precision:   map[string]int{},
		TimeFormats: map[string]TimeFormat{},
	}
}

// ID returns the identity assigned at Resolve, or "" if unresolved.
func (c *Config) ID() string { return c.id }

// Resolved reports whether the config has been resolved.
func (c *Config) Resolved() bool { return c.id != "" }

// Merge deep-merges override onto base and returns a new, unresolved
// Config. Map entries merge key-wise: a key present only in base is
// retained, a key present in both is replaced by override's entry
// wholesale (no partial field merge, and list-valued fields inside an
// entry are replaced, never unioned). Neither input is mutated.
func Merge(base, override *Config) *Config {
	out := base.clone()
	for k, v := range override.Departments {
		v.ID = ""
		out.Departments[k] = cloneDepartment(v)
	}
	for k, v := range override.Columns {
		v.Key = ""
		out.Columns[k] = cloneColumn(v)
	}
	for k, v := range override.Formulas {
		v.Key = ""
		out.Formulas[k] = cloneFormula(v)
	}
	for k, v := range override.Constants {
		out.Constants[k] = v
	}
	for k, v := range override.ShiftLabels {
		out.ShiftLabels[k] = v
	}
	for k, v := range override.Precision {
		out.Precision[k] = v
	}
	for k, v := range override.TimeFormats {
		out.TimeFormats[k] = v
	}
	return out
}

// MergeAll merges layers left to right, later layers taking precedence.
func MergeAll(layers ...*Config) *Config {
	out := New()
	for _, l := range layers {
		out = Merge(out, l)
	}
	return out
}

// Resolve validates the config and returns a frozen copy carrying a fresh
// identity. All configuration errors surface here rather than per-row:
// unknown grouping behaviors, formula references without a declared
// parameter or constant binding, constant bindings missing from the
// constants table, and formula dependency cycles.
func (c *Config) Resolve() (*Config, error) {
	out := c.clone()

	for key, col := range out.Columns {
		behavior, err := ParseBehavior(string(col.Behavior))
		if err != nil {
			return nil, domain.ErrConfiguration("column %q: %s", key, err)
		}
		col.Key = key
		col.Behavior = behavior
		out.Columns[key] = col
	}

	for id, dept := range out.Departments {
		dept.ID = id
		out.Departments[id] = dept
	}

	parsed := make(map[string]formula.Expr, len(out.Formulas))
	deps := make(map[string][]string, len(out.Formulas))
	for key, f := range out.Formulas {
		f.Key = key
		out.Formulas[key] = f

		expr, err := formula.Parse(f.Expr)
		if err != nil {
			return nil, domain.ErrConfiguration("formula %q: %s", key, err)
		}
		parsed[key] = expr

		for _, name := range formula.Names(expr) {
			_, isParam := f.Parameters[name]
			constKey, isConst := f.ConstParams[name]
			if !isParam && !isConst {
				return nil, domain.ErrConfiguration(
					"formula %q references %q, which is not a declared parameter or constant", key, name)
			}
			if isConst {
				if _, ok := out.Constants[constKey]; !ok {
					return nil, domain.ErrConfiguration(
						"formula %q: constant %q resolves to %q, not present in constants table", key, name, constKey)
				}
			}
		}

		var sources []string
		for _, col := range f.Parameters {
			sources = append(sources, col)
		}
		deps[key] = sources
	}

	order, err := formula.Order(deps)
	if err != nil {
		return nil, domain.ErrConfiguration("%s", err)
	}

	out.id = uuid.NewString()
	out.order = order
	out.parsed = parsed
	return out, nil
}

// Formula returns the spec for the given key, or a ConfigurationError if
// absent. On resolved configs the expression is guaranteed parseable and
// fully bound.
func (c *Config) Formula(key string) (FormulaSpec, error) {
	f, ok := c.Formulas[key]
	if !ok {
		return FormulaSpec{}, domain.ErrConfiguration("formula %q not configured", key)
	}
	return f, nil
}

// FormulaOrder returns the formula keys in dependency evaluation order.
// Only available on resolved configs.
func (c *Config) FormulaOrder() []string {
	return append([]string(nil), c.order...)
}

// ParsedFormula returns the parsed expression for a formula key on a
// resolved config, or nil if absent.
func (c *Config) ParsedFormula(key string) formula.Expr {
	return c.parsed[key]
}

// ColumnsByBehavior returns the keys of all columns with the given
// behavior, ordered by declared sort order with ties broken by key, so
// output column ordering is deterministic.
func (c *Config) ColumnsByBehavior(behavior GroupingBehavior) []string {
	var keys []string
	for key, col := range c.Columns {
		b := col.Behavior
		if b == "" {
			b = BehaviorGroupBy
		}
		if b == behavior {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := c.Columns[keys[i]], c.Columns[keys[j]]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return keys[i] < keys[j]
	})
	return keys
}

// ColumnPrecision returns the rounding precision for a column: the column
// spec's own precision, then the precision overrides table, then the
// package default.
func (c *Config) ColumnPrecision(key string) int {
	if col, ok := c.Columns[key]; ok && col.Precision != nil {
		return *col.Precision
	}
	if p, ok := c.Precision[key]; ok {
		return p
	}
	return DefaultPrecision
}

// ShiftLabel resolves a shift code to its display label, falling back to
// the raw code for unmapped shifts.
func (c *Config) ShiftLabel(code string) string {
	if label, ok := c.ShiftLabels[code]; ok {
		return label
	}
	return code
}

// === deep copy helpers ===

func (c *Config) clone() *Config {
	out := New()
	for k, v := range c.Departments {
		out.Departments[k] = cloneDepartment(v)
	}
	for k, v := range c.Columns {
		out.Columns[k] = cloneColumn(v)
	}
	for k, v := range c.Formulas {
		out.Formulas[k] = cloneFormula(v)
	}
	for k, v := range c.Constants {
		out.Constants[k] = v
	}
	for k, v := range c.ShiftLabels {
		out.ShiftLabels[k] = v
	}
	for k, v := range c.Precision {
		out.Precision[k] = v
	}
	for k, v := range c.TimeFormats {
		out.TimeFormats[k] = v
	}
	return out
}

func cloneDepartment(d DepartmentSpec) DepartmentSpec {
	d.MandatoryColumns = append([]string(nil), d.MandatoryColumns...)
	d.DefaultGroupingColumns = append([]string(nil), d.DefaultGroupingColumns...)
	return d
}

func cloneColumn(c ColumnSpec) ColumnSpec {
	if c.Precision != nil {
		p := *c.Precision
		c.Precision = &p
	}
	return c
}

func cloneFormula(f FormulaSpec) FormulaSpec {
	params := make(map[string]string, len(f.Parameters))
	for k, v := range f.Parameters {
		params[k] = v
	}
	f.Parameters = params
	consts := make(map[string]string, len(f.ConstParams))
	for k, v := range f.ConstParams {
		consts[k] = v
	}
	f.ConstParams = consts
	return f
}
