package report

import (
	"fmt"

	"millreport/internal/domain"
)

// buildWeekwise emits one section per ISO week (Monday through Sunday),
// ordered ascending.
func buildWeekwise(p *Pipeline) (*domain.Report, error) {
	overall, err := p.Summary(p.Data)
	if err != nil {
		return nil, err
	}

	buckets, err := splitRows(p.Data, byISOWeek)
	if err != nil {
		return nil, err
	}
	sortBucketsByKey(buckets)

	sections := make([]domain.Section, 0, len(buckets))
	for _, b := range buckets {
		records, err := p.Records(b.data)
		if err != nil {
			return nil, err
		}
		summary, err := p.Summary(b.data)
		if err != nil {
			return nil, err
		}

		var year, week int
		fmt.Sscanf(b.key, "%04d-W%02d", &year, &week)
		title := weekTitle(year, week)

		sections = append(sections, domain.Section{
			Title:        title,
			Year:         year,
			Week:         week,
			Subsections:  []domain.Subsection{{Records: records}},
			SummaryLabel: title + " summary",
			Summary:      summary,
		})
	}

	return &domain.Report{
		ReportType:    domain.ReportWeekwise,
		Sections:      sections,
		SummaryLabel:  overallSummaryLabel,
		Summary:       overall,
		ColumnHeaders: p.Headers(),
	}, nil
}

// weekTitle renders "Week 32 (04 Aug - 10 Aug 2025)".
func weekTitle(year, week int) string {
	start := mondayOfISOWeek(year, week)
	end := start.AddDate(0, 0, 6)
	return fmt.Sprintf("Week %d (%s - %s)", week, start.Format("02 Jan"), end.Format("02 Jan 2006"))
}
