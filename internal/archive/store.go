package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"millreport/internal/domain"
)

// ErrNotFound is returned when no archived report matches the query.
var ErrNotFound = errors.New("archived report not found")

// Entry is one archived report with its generation metadata.
type Entry struct {
	ID           string         `json:"id"`
	DepartmentID string         `json:"department_id"`
	ReportType   string         `json:"report_type"`
	Category     string         `json:"category,omitempty"`
	ConfigID     string         `json:"config_id"`
	GeneratedAt  time.Time      `json:"generated_at"`
	Report       *domain.Report `json:"report,omitempty"`
}

// ListFilter narrows List results. Zero fields match everything.
type ListFilter struct {
	DepartmentID string
	ReportType   string
	Limit        int
}

// Store reads and writes archived reports. Writes go through writeDB,
// queries through readDB; both may be the same pool.
type Store struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewStore creates a Store over an open write/read pool pair.
func NewStore(writeDB, readDB *sql.DB) *Store {
	return &Store{writeDB: writeDB, readDB: readDB}
}

// Save archives a generated report and returns its assigned id.
func (s *Store) Save(ctx context.Context, departmentID, category, configID string, rpt *domain.Report) (string, error) {
	payload, err := json.Marshal(rpt)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	id := uuid.NewString()
	_, err = s.writeDB.ExecContext(ctx,
		`INSERT INTO reports (id, department_id, report_type, category, config_id, generated_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, departmentID, rpt.ReportType, category, configID, time.Now().UTC(), string(payload))
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

// Get fetches one archived report by id, payload included.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.readDB.QueryRowContext(ctx,
		`SELECT id, department_id, report_type, category, config_id, generated_at, payload
		 FROM reports WHERE id = ?`, id)

	var e Entry
	var payload string
	err := row.Scan(&e.ID, &e.DepartmentID, &e.ReportType, &e.Category, &e.ConfigID, &e.GeneratedAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query report: %w", err)
	}

	e.Report = &domain.Report{}
	if err := json.Unmarshal([]byte(payload), e.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", id, err)
	}
	return &e, nil
}

// List returns archive metadata newest-first, without payloads.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Entry, error) {
	query := `SELECT id, department_id, report_type, category, config_id, generated_at
	          FROM reports WHERE 1=1`
	var args []any
	if f.DepartmentID != "" {
		query += " AND department_id = ?"
		args = append(args, f.DepartmentID)
	}
	if f.ReportType != "" {
		query += " AND report_type = ?"
		args = append(args, f.ReportType)
	}
	query += " ORDER BY generated_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.DepartmentID, &e.ReportType, &e.Category, &e.ConfigID, &e.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PurgeBefore deletes archived reports generated before the cutoff and
// returns the number removed.
func (s *Store) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.writeDB.ExecContext(ctx, `DELETE FROM reports WHERE generated_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge reports: %w", err)
	}
	return res.RowsAffected()
}
