package domain

// Report types supported by the built-in builders. Callers may register
// additional types through the builder registry.
const (
	ReportHourwise      = "hourwise"
	ReportDaywise       = "daywise"
	ReportWeekwise      = "weekwise"
	ReportMonthwise     = "monthwise"
	ReportShiftwise     = "shiftwise"
	ReportInstantaneous = "instantaneous"
)

// Report categories. The category selects which department-specific
// product or grouping column participates as an implicit group-by key
// under the report type's own keys.
const (
	CategoryCountwise   = "countwise"
	CategoryHankwise    = "hankwise"
	CategoryLotwise     = "lotwise"
	CategoryMachinewise = "machinewise"
)

// Filter carries the report-time request parameters. It is a pure value,
// constructed fresh per request.
type Filter struct {
	DepartmentID  string `json:"department_id"`
	ReportType    string `json:"report_type"`
	Category      string `json:"category"`
	MetricsType   string `json:"metrics_type,omitempty"`
	Instantaneous bool   `json:"is_instantaneous,omitempty"`
}

// ColumnHeader is the display metadata emitted for each report column.
type ColumnHeader struct {
	Name      string `json:"name"`
	Unit      string `json:"unit,omitempty"`
	SortOrder int    `json:"sort_order"`
}

// Subsection is a nested report node: for shiftwise reports one shift
// within a day, otherwise an anonymous record container.
type Subsection struct {
	Title        string           `json:"title,omitempty"`
	ShiftID      string           `json:"shift_id,omitempty"`
	Records      []map[string]any `json:"records"`
	SummaryLabel string           `json:"summary_label,omitempty"`
	Summary      map[string]any   `json:"summary,omitempty"`
}

// Section is a top-level report node corresponding to one time bucket
// (day, ISO week, or month). Instantaneous reports emit a single
// untitled section.
type Section struct {
	Title        string         `json:"title,omitempty"`
	Date         string         `json:"date,omitempty"`
	Year         int            `json:"year,omitempty"`
	Week         int            `json:"week,omitempty"`
	YearMonth    string         `json:"year_month,omitempty"`
	Subsections  []Subsection   `json:"subsections"`
	SummaryLabel string         `json:"summary_label,omitempty"`
	Summary      map[string]any `json:"summary,omitempty"`
}

// Report is the assembled output value: entirely derived, suitable for
// direct JSON serialization, discarded after being returned.
type Report struct {
	ReportType    string                  `json:"report_type"`
	Sections      []Section               `json:"sections"`
	SummaryLabel  string                  `json:"summary_label"`
	Summary       map[string]any          `json:"summary"`
	ColumnHeaders map[string]ColumnHeader `json:"column_header_mapping"`
}
