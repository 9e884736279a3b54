package report

import (
	"fmt"
	"sort"
	"time"

	"millreport/internal/dataset"
	"millreport/internal/domain"
	"millreport/internal/reportcfg"
)

const dateLayout = "2006-01-02"

// bucket is one time slice of the dataset plus the key it was split on.
type bucket struct {
	key  string
	data *dataset.Dataset
}

// splitRows partitions the dataset by the classifier's key, preserving
// original row order within each bucket and first-seen bucket order.
func splitRows(ds *dataset.Dataset, classify func(dataset.Row) (string, error)) ([]bucket, error) {
	index := make(map[string]int)
	var buckets []bucket

	for i := 0; i < ds.Len(); i++ {
		row := ds.Row(i)
		key, err := classify(row)
		if err != nil {
			return nil, err
		}
		pos, ok := index[key]
		if !ok {
			pos = len(buckets)
			index[key] = pos
			buckets = append(buckets, bucket{key: key, data: dataset.New(ds.Columns())})
		}
		buckets[pos].data.Append(row)
	}
	return buckets, nil
}

// sortBucketsByKey orders buckets by key ascending. The builders choose
// keys that sort chronologically (ISO dates, zero-padded week numbers).
func sortBucketsByKey(buckets []bucket) {
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].key < buckets[j].key })
}

// rowDate parses the row's date column. A missing or malformed date is a
// DataValidationError: time-bucketed reports cannot place the row.
func rowDate(row dataset.Row) (time.Time, error) {
	s, ok := row[reportcfg.ColDate].(string)
	if !ok {
		return time.Time{}, domain.ErrDataValidation("row has no date value")
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, domain.ErrDataValidation("invalid date %q: expected %s", s, dateLayout)
	}
	return t, nil
}

func byDay(row dataset.Row) (string, error) {
	t, err := rowDate(row)
	if err != nil {
		return "", err
	}
	return t.Format(dateLayout), nil
}

func byISOWeek(row dataset.Row) (string, error) {
	t, err := rowDate(row)
	if err != nil {
		return "", err
	}
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week), nil
}

func byMonth(row dataset.Row) (string, error) {
	t, err := rowDate(row)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01"), nil
}

// mondayOfISOWeek returns the Monday starting the given ISO week.
// January 4th is always in week 1.
func mondayOfISOWeek(year, week int) time.Time {
	t := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	return monday.AddDate(0, 0, (week-1)*7)
}
