package report

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"millreport/internal/dataset"
	"millreport/internal/domain"
	"millreport/internal/reportcfg"
)

// Builder turns a prepared pipeline into a report. The five built-in
// report types are ordinary registry entries; callers may register
// replacements or additional types under their own keys.
type Builder interface {
	Build(p *Pipeline) (*domain.Report, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(p *Pipeline) (*domain.Report, error)

// Build calls f.
func (f BuilderFunc) Build(p *Pipeline) (*domain.Report, error) { return f(p) }

// Registry maps report-type keys to builder strategies. Safe for
// concurrent use; registration and lookup may interleave.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register binds a builder to a report-type key, replacing any existing
// binding.
func (r *Registry) Register(reportType string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[reportType] = b
}

// Builder resolves the builder for a report type.
func (r *Registry) Builder(reportType string) (Builder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[reportType]
	if !ok {
		return nil, &domain.BuilderNotFoundError{ReportType: reportType}
	}
	return b, nil
}

// Types returns the registered report-type keys, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.builders))
	for t := range r.builders {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Service is the report generation entry point shared by the HTTP API,
// the CLI, and the scheduler. One Service may serve concurrent requests
// against a shared resolved config.
type Service struct {
	registry *Registry
	logger   *slog.Logger
}

// NewService creates a Service with the built-in builders registered.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{registry: NewRegistry(), logger: logger}
	s.registry.Register(domain.ReportDaywise, BuilderFunc(buildDaywise))
	s.registry.Register(domain.ReportWeekwise, BuilderFunc(buildWeekwise))
	s.registry.Register(domain.ReportMonthwise, BuilderFunc(buildMonthwise))
	s.registry.Register(domain.ReportShiftwise, BuilderFunc(buildShiftwise))
	s.registry.Register(domain.ReportInstantaneous, BuilderFunc(buildInstantaneous))
	s.registry.Register(domain.ReportHourwise, BuilderFunc(buildHourwise))
	return s
}

// Register adds or replaces a builder strategy for a report type.
func (s *Service) Register(reportType string, b Builder) {
	s.registry.Register(reportType, b)
}

// Types returns the registered report types.
func (s *Service) Types() []string { return s.registry.Types() }

// Generate validates the inputs and builds the requested report. The
// config must be resolved; generation is deterministic for identical
// inputs.
func (s *Service) Generate(ds *dataset.Dataset, cfg *reportcfg.Config, f domain.Filter, opts Options) (*domain.Report, error) {
	if !cfg.Resolved() {
		return nil, domain.ErrConfiguration("config must be resolved before report generation")
	}

	builder, err := s.registry.Builder(f.ReportType)
	if err != nil {
		return nil, err
	}

	if err := Validate(ds, cfg, f); err != nil {
		return nil, err
	}

	p, err := newPipeline(ds, cfg, f, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rpt, err := builder.Build(p)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("report generated",
		"department", f.DepartmentID,
		"report_type", f.ReportType,
		"category", f.Category,
		"rows", ds.Len(),
		"sections", len(rpt.Sections),
		"duration", time.Since(start))
	return rpt, nil
}
