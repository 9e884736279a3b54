package dataset

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadSQL materializes a dataset from a database query. Integer and float
// columns become float64, []byte becomes string, NULL becomes nil. The
// column set follows the query's projection order.
func ReadSQL(ctx context.Context, db *sql.DB, query string, args ...any) (*Dataset, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dataset columns: %w", err)
	}

	d := New(cols)
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan dataset row: %w", err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeSQLValue(vals[i])
		}
		d.Append(row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read dataset rows: %w", err)
	}
	return d, nil
}

func normalizeSQLValue(v any) any {
	switch n := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		return fmt.Sprintf("%v", n)
	}
}
