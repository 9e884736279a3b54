// Package api provides the HTTP handlers for the report engine REST API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"millreport/internal/archive"
	"millreport/internal/cache"
	"millreport/internal/dataset"
	"millreport/internal/domain"
	"millreport/internal/report"
	"millreport/internal/reportcfg"
)

// Handler serves report generation and archive requests. Store and Cache
// are optional; without them archiving and caching are skipped.
type Handler struct {
	Reports *report.Service
	Config  *reportcfg.Config
	Store   *archive.Store
	Cache   *cache.ReportCache
	Options report.Options
	Logger  *slog.Logger
}

type generateRequest struct {
	DepartmentID string           `json:"department_id"`
	ReportType   string           `json:"report_type"`
	Category     string           `json:"category,omitempty"`
	MetricsType  string           `json:"metrics_type,omitempty"`
	Records      []map[string]any `json:"records"`
	Archive      bool             `json:"archive,omitempty"`
}

type generateResponse struct {
	ArchiveID string         `json:"archive_id,omitempty"`
	Cached    bool           `json:"cached"`
	Report    *domain.Report `json:"report"`
}

// Generate handles POST /api/v1/reports: records in, report out.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	filter := domain.Filter{
		DepartmentID: req.DepartmentID,
		ReportType:   req.ReportType,
		Category:     req.Category,
		MetricsType:  req.MetricsType,
	}
	ds := dataset.FromRecords(req.Records)

	var key string
	if h.Cache != nil {
		key = cache.Key(h.Config.ID(), filter, cache.DatasetDigest(ds))
		rpt, hit, err := h.Cache.Get(r.Context(), key)
		if err != nil {
			h.Logger.Warn("report cache read failed", "error", err)
		} else if hit {
			writeJSON(w, http.StatusOK, generateResponse{Cached: true, Report: rpt})
			return
		}
	}

	rpt, err := h.Reports.Generate(ds, h.Config, filter, h.Options)
	if err != nil {
		writeError(w, httpStatusFromDomainError(err), err.Error())
		return
	}

	if h.Cache != nil {
		if err := h.Cache.Put(r.Context(), key, rpt); err != nil {
			h.Logger.Warn("report cache write failed", "error", err)
		}
	}

	resp := generateResponse{Report: rpt}
	if req.Archive && h.Store != nil {
		id, err := h.Store.Save(r.Context(), req.DepartmentID, req.Category, h.Config.ID(), rpt)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "archive report: "+err.Error())
			return
		}
		resp.ArchiveID = id
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReportTypes handles GET /api/v1/report-types.
func (h *Handler) ReportTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"report_types": h.Reports.Types()})
}

// Departments handles GET /api/v1/departments.
func (h *Handler) Departments(w http.ResponseWriter, r *http.Request) {
	ids := make([]string, 0, len(h.Config.Departments))
	for id := range h.Config.Departments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, map[string]any{
		"config_id":   h.Config.ID(),
		"departments": ids,
	})
}

// ArchiveList handles GET /api/v1/archive.
func (h *Handler) ArchiveList(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotImplemented, "report archive is not configured")
		return
	}

	f := archive.ListFilter{
		DepartmentID: r.URL.Query().Get("department_id"),
		ReportType:   r.URL.Query().Get("report_type"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = n
	}

	entries, err := h.Store.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []archive.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": entries})
}

// ArchiveGet handles GET /api/v1/archive/{id}.
func (h *Handler) ArchiveGet(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotImplemented, "report archive is not configured")
		return
	}

	entry, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, httpStatusFromDomainError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Cache != nil {
		if err := h.Cache.Health(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "cache unreachable: "+err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"code": status, "message": message})
}
