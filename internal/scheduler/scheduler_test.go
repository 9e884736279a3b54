package scheduler

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"millreport/internal/archive"
	"millreport/internal/report"
	"millreport/internal/reportcfg"
)

func testConfig(t *testing.T) *reportcfg.Config {
	t.Helper()

	cfg := reportcfg.New()
	cfg.Departments["ringframe"] = reportcfg.DepartmentSpec{
		ProductColumn:          "count_ne",
		MandatoryColumns:       []string{"date", "shift_id", "platform_shift_id", "lot_number", "asset_id"},
		DefaultGroupingColumns: []string{"date", "lot_number", "asset_id"},
	}
	cfg.Columns["count_ne"] = reportcfg.ColumnSpec{Name: "Count", SortOrder: -3}
	cfg.Columns["lot_number"] = reportcfg.ColumnSpec{Name: "Lot name", SortOrder: -2}
	cfg.Columns["production_kg"] = reportcfg.ColumnSpec{Name: "Production", Unit: "Kg", Behavior: reportcfg.BehaviorAggregate, SortOrder: 1}

	resolved, err := cfg.Resolve()
	require.NoError(t, err)
	return resolved
}

// writeDataDB creates a production database with rows for two departments.
func writeDataDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "production.sqlite")
	db, err := archive.OpenSQLite(path, "write", 0)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	_, err = db.Exec(`CREATE TABLE production_data (
		department_id TEXT, date TEXT, shift_id TEXT, platform_shift_id TEXT,
		lot_number TEXT, asset_id TEXT, count_ne REAL, production_kg REAL
	)`)
	require.NoError(t, err)

	rows := [][]any{
		{"ringframe", "2024-03-01", "1", "SFA", "L1", "A1", 30.0, 100.0},
		{"ringframe", "2024-03-01", "2", "SFB", "L1", "A1", 30.0, 150.0},
		{"speedframe", "2024-03-01", "1", "SFA", "L9", "A9", 12.0, 40.0},
	}
	for _, r := range rows {
		_, err = db.Exec(`INSERT INTO production_data VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, r...)
		require.NoError(t, err)
	}
	return path
}

func TestRunOnce_GeneratesAndArchives(t *testing.T) {
	writeDB, readDB := archive.OpenTestSQLite(t)
	store := archive.NewStore(writeDB, readDB)
	cfg := testConfig(t)

	s := &Scheduler{
		Service:     report.NewService(slog.Default()),
		Config:      cfg,
		Store:       store,
		DataDBPath:  writeDataDB(t),
		Departments: []string{"ringframe"},
		ReportTypes: []string{"daywise", "monthwise"},
		Logger:      slog.Default(),
	}
	require.NoError(t, s.RunOnce(context.Background()))

	entries, err := store.List(context.Background(), archive.ListFilter{DepartmentID: "ringframe"})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	types := map[string]bool{}
	for _, e := range entries {
		types[e.ReportType] = true
		assert.Equal(t, cfg.ID(), e.ConfigID)
	}
	assert.True(t, types["daywise"])
	assert.True(t, types["monthwise"])

	got, err := store.Get(context.Background(), entries[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got.Report)
	assert.Equal(t, 250.0, got.Report.Summary["production_kg"])
}

func TestRunOnce_SkipsDepartmentWithoutRows(t *testing.T) {
	writeDB, readDB := archive.OpenTestSQLite(t)
	store := archive.NewStore(writeDB, readDB)

	s := &Scheduler{
		Service:     report.NewService(nil),
		Config:      testConfig(t),
		Store:       store,
		DataDBPath:  writeDataDB(t),
		Departments: []string{"winding"},
		ReportTypes: []string{"daywise"},
		Logger:      slog.Default(),
	}
	require.NoError(t, s.RunOnce(context.Background()))

	entries, err := store.List(context.Background(), archive.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunOnce_UnknownReportTypeSurfaces(t *testing.T) {
	writeDB, readDB := archive.OpenTestSQLite(t)

	s := &Scheduler{
		Service:     report.NewService(nil),
		Config:      testConfig(t),
		Store:       archive.NewStore(writeDB, readDB),
		DataDBPath:  writeDataDB(t),
		Departments: []string{"ringframe"},
		ReportTypes: []string{"quarterly"},
		Logger:      slog.Default(),
	}
	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quarterly")
}

func TestStart_InvalidSpec(t *testing.T) {
	s := &Scheduler{Logger: slog.Default()}
	err := s.Start("not a cron spec")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule")
}
