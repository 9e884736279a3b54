package report

import (
	"time"

	"millreport/internal/domain"
)

// buildMonthwise emits one section per calendar month, ordered ascending.
func buildMonthwise(p *Pipeline) (*domain.Report, error) {
	overall, err := p.Summary(p.Data)
	if err != nil {
		return nil, err
	}

	buckets, err := splitRows(p.Data, byMonth)
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

		month, _ := time.Parse("2006-01", b.key)
		title := month.Format("January 2006")
		sections = append(sections, domain.Section{
			Title:        title,
			YearMonth:    b.key,
			Subsections:  []domain.Subsection{{Records: records}},
			SummaryLabel: title + " summary",
			Summary:      summary,
		})
	}

	return &domain.Report{
		ReportType:    domain.ReportMonthwise,
		Sections:      sections,
		SummaryLabel:  overallSummaryLabel,
		Summary:       overall,
		ColumnHeaders: p.Headers(),
	}, nil
}
