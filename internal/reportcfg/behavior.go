package reportcfg

import "millreport/internal/domain"

// GroupingBehavior is the per-column aggregation strategy.
type GroupingBehavior string

const (
	// BehaviorAggregate sums numeric values in the group; non-numeric
	// and missing values are treated as 0.
	BehaviorAggregate GroupingBehavior = "aggregate"
	// BehaviorAverage takes the arithmetic mean; an empty group yields 0.
	BehaviorAverage GroupingBehavior = "average"
	// BehaviorCountDistinct counts distinct non-null values.
	BehaviorCountDistinct GroupingBehavior = "count_distinct"
	// BehaviorCountRows counts rows including duplicates and nulls.
	BehaviorCountRows GroupingBehavior = "count_rows"
	// BehaviorFirstValue takes the value from the group's first row in
	// original row order, independent of any later display sort.
	BehaviorFirstValue GroupingBehavior = "first_value"
	// BehaviorGroupBy marks a column as a grouping key, never a value.
	BehaviorGroupBy GroupingBehavior = "group_by"
)

// ParseBehavior validates a behavior string from configuration. The empty
// string defaults to BehaviorGroupBy so display-only columns (product
// identifiers, labels) can omit it.
func ParseBehavior(s string) (GroupingBehavior, error) {
	switch GroupingBehavior(s) {
	case "":
		return BehaviorGroupBy, nil
	case BehaviorAggregate, BehaviorAverage, BehaviorCountDistinct,
		BehaviorCountRows, BehaviorFirstValue, BehaviorGroupBy:
		return GroupingBehavior(s), nil
	default:
		return "", domain.ErrConfiguration("unknown grouping behavior %q", s)
	}
}
