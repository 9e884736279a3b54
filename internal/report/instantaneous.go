package report

import "millreport/internal/domain"

// buildInstantaneous makes a single pass over the supplied data with no
// time sections. Recency filtering is the data provider's concern; this
// builder reports whatever slice it is handed.
func buildInstantaneous(p *Pipeline) (*domain.Report, error) {
	return buildFlat(p, domain.ReportInstantaneous)
}

// buildHourwise is the intra-day variant of the flat report. Its value
// over instantaneous is the configured time-format mapping, which trims
// end-time columns for display.
func buildHourwise(p *Pipeline) (*domain.Report, error) {
	return buildFlat(p, domain.ReportHourwise)
}

func buildFlat(p *Pipeline, reportType string) (*domain.Report, error) {
	overall, err := p.Summary(p.Data)
	if err != nil {
		return nil, err
	}
	records, err := p.Records(p.Data)
	if err != nil {
		return nil, err
	}

	return &domain.Report{
		ReportType: reportType,
		Sections: []domain.Section{
			{Subsections: []domain.Subsection{{Records: records}}},
		},
		SummaryLabel:  overallSummaryLabel,
		Summary:       overall,
		ColumnHeaders: p.Headers(),
	}, nil
}
