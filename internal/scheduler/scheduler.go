// Package scheduler runs background report generation on a cron
// schedule and archives the results.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"millreport/internal/archive"
	"millreport/internal/dataset"
	"millreport/internal/domain"
	"millreport/internal/report"
	"millreport/internal/reportcfg"
)

// datasetQuery selects one department's rows from the production
// database. Providers load the table; the scheduler only reads it.
const datasetQuery = `SELECT * FROM production_data WHERE department_id = ?`

// Scheduler generates a set of reports per department on a cron spec.
type Scheduler struct {
	Service     *report.Service
	Config      *reportcfg.Config
	Store       *archive.Store
	DataDBPath  string
	Departments []string
	ReportTypes []string
	Options     report.Options
	Logger      *slog.Logger

	cron *cron.Cron
}

// Start registers the cron entry and launches the scheduler goroutine.
func (s *Scheduler) Start(spec string) error {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := s.RunOnce(ctx); err != nil {
			s.Logger.Error("scheduled report run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.Logger.Info("report scheduler started", "spec", spec,
		"departments", s.Departments, "report_types", s.ReportTypes)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish or the
// context to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce generates and archives every department/report-type pair once.
// Report types for one department run concurrently; a department with no
// rows is skipped with a warning rather than failing the whole run.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	db, err := archive.OpenSQLite(s.DataDBPath, "read", 0)
	if err != nil {
		return fmt.Errorf("open production database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	start := time.Now()
	var generated int
	for _, dept := range s.Departments {
		ds, err := dataset.ReadSQL(ctx, db, datasetQuery, dept)
		if err != nil {
			return fmt.Errorf("read dataset for %s: %w", dept, err)
		}
		if ds.Len() == 0 {
			s.Logger.Warn("no production rows, skipping department", "department", dept)
			continue
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, rt := range s.ReportTypes {
			rt := rt
			g.Go(func() error {
				rpt, err := s.Service.Generate(ds, s.Config, domain.Filter{
					DepartmentID: dept,
					ReportType:   rt,
				}, s.Options)
				if err != nil {
					return fmt.Errorf("%s/%s: %w", dept, rt, err)
				}
				if _, err := s.Store.Save(gctx, dept, "", s.Config.ID(), rpt); err != nil {
					return fmt.Errorf("archive %s/%s: %w", dept, rt, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		generated += len(s.ReportTypes)
	}

	s.Logger.Info("scheduled report run complete",
		"reports", generated, "duration", time.Since(start))
	return nil
}
