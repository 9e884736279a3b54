package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"millreport/internal/archive"
	"millreport/internal/cache"
	"millreport/internal/report"
	"millreport/internal/reportcfg"
)

func testHandlerConfig(t *testing.T) *reportcfg.Config {
	t.Helper()

	cfg := reportcfg.New()
	cfg.Departments["ringframe"] = reportcfg.DepartmentSpec{
		ProductColumn:          "count_ne",
		MandatoryColumns:       []string{"date", "shift_id", "platform_shift_id", "lot_number", "asset_id"},
		DefaultGroupingColumns: []string{"date", "lot_number", "asset_id", "machine_name"},
	}
	cfg.Columns["count_ne"] = reportcfg.ColumnSpec{Name: "Count", SortOrder: -3}
	cfg.Columns["lot_number"] = reportcfg.ColumnSpec{Name: "Lot name", SortOrder: -2}
	cfg.Columns["machine_name"] = reportcfg.ColumnSpec{Name: "Machine", SortOrder: -1}
	cfg.Columns["production_kg"] = reportcfg.ColumnSpec{Name: "Production", Unit: "Kg", Behavior: reportcfg.BehaviorAggregate, SortOrder: 1}

	resolved, err := cfg.Resolve()
	require.NoError(t, err)
	return resolved
}

func newTestServer(t *testing.T, h *Handler) *httptest.Server {
	t.Helper()
	if h.Logger == nil {
		h.Logger = slog.Default()
	}
	srv := httptest.NewServer(NewRouter(h, RouterConfig{CORSAllowedOrigins: []string{"*"}}))
	t.Cleanup(srv.Close)
	return srv
}

func generateBody(reportType string) []byte {
	body := map[string]any{
		"department_id": "ringframe",
		"report_type":   reportType,
		"records": []map[string]any{
			{
				"date": "2024-03-01", "shift_id": "1", "platform_shift_id": "SFA",
				"lot_number": "L1", "asset_id": "A1", "machine_name": "RF-01",
				"count_ne": 30.0, "production_kg": 100.0,
			},
			{
				"date": "2024-03-01", "shift_id": "2", "platform_shift_id": "SFB",
				"lot_number": "L1", "asset_id": "A1", "machine_name": "RF-01",
				"count_ne": 30.0, "production_kg": 150.0,
			},
		},
	}
	data, _ := json.Marshal(body)
	return data
}

func postReports(t *testing.T, srv *httptest.Server, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/v1/reports", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestGenerateEndpoint_Daywise(t *testing.T) {
	h := &Handler{Reports: report.NewService(nil), Config: testHandlerConfig(t)}
	srv := newTestServer(t, h)

	resp := postReports(t, srv, generateBody("daywise"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out generateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotNil(t, out.Report)
	assert.False(t, out.Cached)
	assert.Equal(t, "daywise", out.Report.ReportType)
	require.Len(t, out.Report.Sections, 1)
	assert.Equal(t, 250.0, out.Report.Summary["production_kg"])
}

func TestGenerateEndpoint_ValidationFailure(t *testing.T) {
	h := &Handler{Reports: report.NewService(nil), Config: testHandlerConfig(t)}
	srv := newTestServer(t, h)

	body, _ := json.Marshal(map[string]any{
		"department_id": "ringframe",
		"report_type":   "daywise",
		"records":       []map[string]any{},
	})
	resp := postReports(t, srv, body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestGenerateEndpoint_UnknownReportType(t *testing.T) {
	h := &Handler{Reports: report.NewService(nil), Config: testHandlerConfig(t)}
	srv := newTestServer(t, h)

	resp := postReports(t, srv, generateBody("quarterly"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerateEndpoint_UnknownDepartment(t *testing.T) {
	h := &Handler{Reports: report.NewService(nil), Config: testHandlerConfig(t)}
	srv := newTestServer(t, h)

	body, _ := json.Marshal(map[string]any{
		"department_id": "weaving",
		"report_type":   "daywise",
		"records":       []map[string]any{{"date": "2024-03-01"}},
	})
	resp := postReports(t, srv, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateEndpoint_MalformedBody(t *testing.T) {
	h := &Handler{Reports: report.NewService(nil), Config: testHandlerConfig(t)}
	srv := newTestServer(t, h)

	resp := postReports(t, srv, []byte(`{"department_id": "ringframe", "bogus_field": 1}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateEndpoint_CacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := cache.New(mr.Addr(), "", 0, time.Minute, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	h := &Handler{Reports: report.NewService(nil), Config: testHandlerConfig(t), Cache: c}
	srv := newTestServer(t, h)

	resp := postReports(t, srv, generateBody("daywise"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var first generateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&first))
	assert.False(t, first.Cached)

	resp = postReports(t, srv, generateBody("daywise"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second generateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&second))
	assert.True(t, second.Cached)
	assert.Equal(t, first.Report.Summary, second.Report.Summary)

	// A different report type misses the cache.
	resp = postReports(t, srv, generateBody("shiftwise"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var third generateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&third))
	assert.False(t, third.Cached)
}

func TestArchiveEndpoints(t *testing.T) {
	writeDB, readDB := archive.OpenTestSQLite(t)
	store := archive.NewStore(writeDB, readDB)

	h := &Handler{Reports: report.NewService(nil), Config: testHandlerConfig(t), Store: store}
	srv := newTestServer(t, h)

	body := generateBody("daywise")
	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))
	req["archive"] = true
	body, _ = json.Marshal(req)

	resp := postReports(t, srv, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out generateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.ArchiveID)

	// List
	listResp, err := http.Get(srv.URL + "/api/v1/archive?department_id=ringframe")
	require.NoError(t, err)
	defer listResp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var list struct {
		Reports []archive.Entry `json:"reports"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	require.Len(t, list.Reports, 1)
	assert.Equal(t, out.ArchiveID, list.Reports[0].ID)

	// Get
	getResp, err := http.Get(fmt.Sprintf("%s/api/v1/archive/%s", srv.URL, out.ArchiveID))
	require.NoError(t, err)
	defer getResp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var entry archive.Entry
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&entry))
	require.NotNil(t, entry.Report)
	assert.Equal(t, "daywise", entry.Report.ReportType)

	// Missing id
	missResp, err := http.Get(srv.URL + "/api/v1/archive/no-such-id")
	require.NoError(t, err)
	defer missResp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusNotFound, missResp.StatusCode)
}

func TestArchiveEndpoints_NotConfigured(t *testing.T) {
	h := &Handler{Reports: report.NewService(nil), Config: testHandlerConfig(t)}
	srv := newTestServer(t, h)

	resp, err := http.Get(srv.URL + "/api/v1/archive")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestMetadataEndpoints(t *testing.T) {
	h := &Handler{Reports: report.NewService(nil), Config: testHandlerConfig(t)}
	srv := newTestServer(t, h)

	resp, err := http.Get(srv.URL + "/api/v1/report-types")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var types struct {
		ReportTypes []string `json:"report_types"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&types))
	assert.Contains(t, types.ReportTypes, "daywise")
	assert.Contains(t, types.ReportTypes, "shiftwise")

	resp, err = http.Get(srv.URL + "/api/v1/departments")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var depts struct {
		ConfigID    string   `json:"config_id"`
		Departments []string `json:"departments"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&depts))
	assert.NotEmpty(t, depts.ConfigID)
	assert.Equal(t, []string{"ringframe"}, depts.Departments)

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
