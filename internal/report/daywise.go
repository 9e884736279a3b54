package report

import (
	"time"

	"millreport/internal/domain"
)

const overallSummaryLabel = "overall summary"

// buildDaywise emits one section per calendar date, ordered ascending,
// with flat records per day.
func buildDaywise(p *Pipeline) (*domain.Report, error) {
	overall, err := p.Summary(p.Data)
	if err != nil {
		return nil, err
	}

	buckets, err := splitRows(p.Data, byDay)
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

		day, _ := time.Parse(dateLayout, b.key)
		title := day.Format("02 Jan 2006")
		sections = append(sections, domain.Section{
			Title:        title,
			Date:         b.key,
			Subsections:  []domain.Subsection{{Records: records}},
			SummaryLabel: title + " summary",
			Summary:      summary,
		})
	}

	return &domain.Report{
		ReportType:    domain.ReportDaywise,
		Sections:      sections,
		SummaryLabel:  overallSummaryLabel,
		Summary:       overall,
		ColumnHeaders: p.Headers(),
	}, nil
}
