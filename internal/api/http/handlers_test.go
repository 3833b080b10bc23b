package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hourly-profiles/internal/audit"
	"hourly-profiles/internal/auth"
	"hourly-profiles/internal/profiles/application"
	profiles "hourly-profiles/internal/profiles/domain"
	"hourly-profiles/internal/profiles/infrastructure/memory"
)

type stubTrigger struct {
	summary *application.RunSummary
	err     error
}

func (s stubTrigger) Trigger(context.Context) (*application.RunSummary, error) {
	return s.summary, s.err
}

func seededStore(t *testing.T) *memory.ProfileStore {
	t.Helper()
	store := memory.NewProfileStore()
	require.NoError(t, store.Write(context.Background(), &application.Result{
		RunID:      "run-http",
		FinishedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Parameters: profiles.DefaultParameters(),
		Rows: []profiles.MergedRow{
			{Key: "2013010101", Demand: 100, Solar: 1000, Wind: 833},
			{Key: "2013010102", Demand: 110, Solar: 1000, Wind: 1000},
			{Key: "2013010103", Demand: 120, Solar: 900, Wind: 700},
		},
	}))
	return store
}

func get(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestProfilesHandler(t *testing.T) {
	handler := NewProfilesHandler(seededStore(t))

	resp := get(t, handler, "/api/v1/profiles?from=2013010102")
	require.Equal(t, http.StatusOK, resp.Code)
	var body profilesResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "run-http", body.RunID)
	assert.Equal(t, []profiles.MergedRow{
		{Key: "2013010102", Demand: 110, Solar: 1000, Wind: 1000},
		{Key: "2013010103", Demand: 120, Solar: 900, Wind: 700},
	}, body.Rows)

	resp = get(t, handler, "/api/v1/profiles?from=2013-01-01T01:00:00Z&to=2013-01-01T02:00:00Z")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, profiles.DatehourKey("2013010101"), body.Rows[0].Key)
}

func TestProfilesHandler_BadRequests(t *testing.T) {
	handler := NewProfilesHandler(seededStore(t))

	assert.Equal(t, http.StatusBadRequest, get(t, handler, "/api/v1/profiles?from=yesterday").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, handler, "/api/v1/profiles?from=2013010103&to=2013010101").Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/profiles", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)

	assert.Equal(t, http.StatusNotFound, get(t, NewProfilesHandler(memory.NewProfileStore()), "/api/v1/profiles").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, NewProfilesHandler(nil), "/api/v1/profiles").Code)
}

func TestExportCSVHandler(t *testing.T) {
	resp := get(t, NewExportCSVHandler(seededStore(t), nil), "/api/v1/exports/profiles.csv?to=2013010103")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "profiles-run-http.csv")
	assert.Equal(t, "DATEHOUR,DEMAND,SOLAR,WIND\n2013010101,100,1000,833\n2013010102,110,1000,1000\n", resp.Body.String())
}

func TestExportXLSXAndPDFHandlers(t *testing.T) {
	store := seededStore(t)

	resp := get(t, NewExportXLSXHandler(store, nil), "/api/v1/exports/profiles.xlsx")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("PK")))

	resp = get(t, NewReportPDFHandler(store, nil), "/api/v1/reports/latest.pdf")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")))

	assert.Equal(t, http.StatusNotFound, get(t, NewReportPDFHandler(memory.NewProfileStore(), nil), "/api/v1/reports/latest.pdf").Code)
}

func TestRunsHandler(t *testing.T) {
	store := seededStore(t)

	resp := get(t, NewRunsHandler(store, nil, nil, nil), "/api/v1/runs")
	require.Equal(t, http.StatusOK, resp.Code)
	var summary application.RunSummary
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &summary))
	assert.Equal(t, "run-http", summary.RunID)
	assert.Equal(t, 3, summary.Rows)

	post := func(handler http.Handler) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusServiceUnavailable, post(NewRunsHandler(store, nil, nil, nil)))
	assert.Equal(t, http.StatusCreated, post(NewRunsHandler(store, stubTrigger{summary: &application.RunSummary{RunID: "new"}}, nil, nil)))
	assert.Equal(t, http.StatusConflict, post(NewRunsHandler(store, stubTrigger{err: application.ErrRunInProgress}, nil, nil)))
	assert.Equal(t, http.StatusUnprocessableEntity, post(NewRunsHandler(store, stubTrigger{err: profiles.ErrCutoverNotFound}, nil, nil)))
	assert.Equal(t, http.StatusBadGateway, post(NewRunsHandler(store, stubTrigger{
		summary: &application.RunSummary{RunID: "partial"},
		err:     errors.New("postgres: down"),
	}, nil, nil)))
}

func TestRunsAndExports_WriteAuditTrail(t *testing.T) {
	store := seededStore(t)
	trail := audit.NewMemoryLog(10)
	withIdentity := func(req *http.Request) *http.Request {
		return req.WithContext(auth.WithIdentity(req.Context(), auth.RoleAdmin, "ops-1"))
	}

	runs := NewRunsHandler(store, stubTrigger{summary: &application.RunSummary{RunID: "run-new", Rows: 3}}, trail, nil)
	rec := httptest.NewRecorder()
	runs.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	NewExportCSVHandler(store, trail).ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/exports/profiles.csv", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := get(t, NewAuditHandler(trail), "/api/v1/audit?limit=5")
	require.Equal(t, http.StatusOK, resp.Code)
	var entries []audit.Entry
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionExport, entries[0].Action)
	assert.Equal(t, "run-http", entries[0].ResourceID)
	assert.Equal(t, audit.ActionRunTrigger, entries[1].Action)
	assert.Equal(t, "run-new", entries[1].ResourceID)
	assert.Equal(t, "ops-1", entries[1].Actor)
	assert.Equal(t, "admin", entries[1].Role)

	resp = get(t, NewAuditHandler(trail), "/api/v1/audit?action="+audit.ActionRunTrigger)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &entries))
	require.Len(t, entries, 1)

	assert.Equal(t, http.StatusBadRequest, get(t, NewAuditHandler(trail), "/api/v1/audit?limit=zero").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, NewAuditHandler(nil), "/api/v1/audit").Code)
}
