package report

import (
	"fmt"
	"sort"
	"time"

	"millreport/internal/dataset"
	"millreport/internal/domain"
	"millreport/internal/reportcfg"
)

// buildShiftwise emits one section per calendar date with one subsection
// per shift. Subsection titles come from the configured shift label
// mapping; unmapped shift codes fall back to the raw code.
func buildShiftwise(p *Pipeline) (*domain.Report, error) {
	overall, err := p.Summary(p.Data)
	if err != nil {
		return nil, err
	}

	days, err := splitRows(p.Data, byDay)
	if err != nil {
		return nil, err
	}
	sortBucketsByKey(days)

	sections := make([]domain.Section, 0, len(days))
	for _, day := range days {
		daySummary, err := p.Summary(day.data)
		if err != nil {
			return nil, err
		}

		shifts, err := splitRows(day.data, byShift)
		if err != nil {
			return nil, err
		}

		subsections := make([]domain.Subsection, 0, len(shifts))
		for _, sh := range shifts {
			records, err := p.Records(sh.data)
			if err != nil {
				return nil, err
			}
			summary, err := p.Summary(sh.data)
			if err != nil {
				return nil, err
			}

			shiftID, platformID := shiftIdentity(sh.data)
			title := p.Config.ShiftLabel(platformID)
			subsections = append(subsections, domain.Subsection{
				Title:        title,
				ShiftID:      shiftID,
				Records:      records,
				SummaryLabel: title + " summary",
				Summary:      summary,
			})
		}
		sort.Slice(subsections, func(i, j int) bool {
			return subsections[i].ShiftID < subsections[j].ShiftID
		})

		date, _ := time.Parse(dateLayout, day.key)
		title := date.Format("02 Jan 2006")
		sections = append(sections, domain.Section{
			Title:        title,
			Date:         day.key,
			Subsections:  subsections,
			SummaryLabel: title + " summary",
			Summary:      daySummary,
		})
	}

	return &domain.Report{
		ReportType:    domain.ReportShiftwise,
		Sections:      sections,
		SummaryLabel:  overallSummaryLabel,
		Summary:       overall,
		ColumnHeaders: p.Headers(),
	}, nil
}

func byShift(row dataset.Row) (string, error) {
	return fmt.Sprintf("%v\x1f%v", row[reportcfg.ColShiftID], row[reportcfg.ColPlatformShiftID]), nil
}

// shiftIdentity reads the shift and platform-shift codes from the first
// row of a shift slice; both are constant within the slice.
func shiftIdentity(ds *dataset.Dataset) (shiftID, platformID string) {
	if ds.Len() == 0 {
		return "", ""
	}
	row := ds.Row(0)
	if v := row[reportcfg.ColShiftID]; v != nil {
		shiftID = fmt.Sprintf("%v", v)
	}
	if v := row[reportcfg.ColPlatformShiftID]; v != nil {
		platformID = fmt.Sprintf("%v", v)
	}
	return shiftID, platformID
}
