package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"hourly-profiles/internal/audit"
	"hourly-profiles/internal/observability/metrics"
	"hourly-profiles/internal/profiles/application"
	profiles "hourly-profiles/internal/profiles/domain"
	"hourly-profiles/internal/profiles/infrastructure/csvfile"
	"hourly-profiles/internal/profiles/interfaces"
)

// AuditLister reads the audit trail.
type AuditLister interface {
	List(ctx context.Context, action string, limit int) ([]audit.Entry, error)
}

type profilesResponse struct {
	RunID string               `json:"run_id"`
	From  profiles.DatehourKey `json:"from,omitempty"`
	To    profiles.DatehourKey `json:"to,omitempty"`
	Rows  []profiles.MergedRow `json:"rows"`
}

// ProfilesHandler serves merged hourly rows of the latest run.
type ProfilesHandler struct {
	reader application.ProfileReader
}

// NewProfilesHandler constructs a ProfilesHandler.
func NewProfilesHandler(reader application.ProfileReader) *ProfilesHandler {
	return &ProfilesHandler{reader: reader}
}

// ServeHTTP handles GET /api/v1/profiles.
func (h *ProfilesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.reader == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	from, to, ok := parseRange(w, r)
	if !ok {
		return
	}
	run, err := h.reader.LatestRun(r.Context())
	if err != nil {
		writeReadError(w, err)
		return
	}
	rows, err := h.reader.ListRows(r.Context(), from, to)
	if err != nil {
		writeReadError(w, err)
		return
	}
	if rows == nil {
		rows = []profiles.MergedRow{}
	}

	writeJSON(w, http.StatusOK, profilesResponse{RunID: run.RunID, From: from, To: to, Rows: rows})
}

// RunsHandler serves the latest run summary and triggers new runs.
type RunsHandler struct {
	reader      application.ProfileReader
	trigger     application.RunTrigger
	auditLogger audit.Logger
	logger      *log.Logger
}

// NewRunsHandler constructs a RunsHandler. A nil trigger disables POST.
func NewRunsHandler(reader application.ProfileReader, trigger application.RunTrigger, auditLogger audit.Logger, logger *log.Logger) *RunsHandler {
	return &RunsHandler{reader: reader, trigger: trigger, auditLogger: auditLogger, logger: logger}
}

// ServeHTTP handles GET and POST /api/v1/runs.
func (h *RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.reader == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	switch r.Method {
	case http.MethodGet:
		run, err := h.reader.LatestRun(r.Context())
		if err != nil {
			writeReadError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
	case http.MethodPost:
		if h.trigger == nil {
			http.Error(w, "runs are disabled", http.StatusServiceUnavailable)
			return
		}
		summary, err := h.trigger.Trigger(r.Context())
		h.logAudit(r, summary, err)
		if err != nil {
			if h.logger != nil {
				h.logger.Printf("api: run trigger failed: %v", err)
			}
			switch {
			case errors.Is(err, application.ErrRunInProgress):
				http.Error(w, err.Error(), http.StatusConflict)
			case summary != nil:
				http.Error(w, fmt.Sprintf("run %s published with errors: %v", summary.RunID, err), http.StatusBadGateway)
			default:
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			}
			return
		}
		writeJSON(w, http.StatusCreated, summary)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *RunsHandler) logAudit(r *http.Request, summary *application.RunSummary, runErr error) {
	if h.auditLogger == nil {
		return
	}
	meta := map[string]any{}
	resourceID := ""
	if summary != nil {
		resourceID = summary.RunID
		meta["rows"] = summary.Rows
	}
	if runErr != nil {
		meta["error"] = runErr.Error()
	}
	if err := h.auditLogger.Log(r.Context(), audit.FromRequest(r, audit.ActionRunTrigger, "profile_run", resourceID, meta)); err != nil && h.logger != nil {
		h.logger.Printf("api: audit log failed: %v", err)
	}
}

// ExportHandler serves the latest run as a CSV, XLSX or PDF download.
type ExportHandler struct {
	reader      application.ProfileReader
	format      string
	auditLogger audit.Logger
}

// NewExportCSVHandler serves GET /api/v1/exports/profiles.csv.
func NewExportCSVHandler(reader application.ProfileReader, auditLogger audit.Logger) *ExportHandler {
	return &ExportHandler{reader: reader, format: "csv", auditLogger: auditLogger}
}

// NewExportXLSXHandler serves GET /api/v1/exports/profiles.xlsx.
func NewExportXLSXHandler(reader application.ProfileReader, auditLogger audit.Logger) *ExportHandler {
	return &ExportHandler{reader: reader, format: "xlsx", auditLogger: auditLogger}
}

// NewReportPDFHandler serves GET /api/v1/reports/latest.pdf.
func NewReportPDFHandler(reader application.ProfileReader, auditLogger audit.Logger) *ExportHandler {
	return &ExportHandler{reader: reader, format: "pdf", auditLogger: auditLogger}
}

// ServeHTTP writes the export.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.reader == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport(h.format, result, time.Since(start))
	}()

	from, to, ok := parseRange(w, r)
	if !ok {
		result = metrics.ResultError
		return
	}
	run, err := h.reader.LatestRun(r.Context())
	if err != nil {
		result = metrics.ResultError
		writeReadError(w, err)
		return
	}
	if h.auditLogger != nil {
		meta := map[string]any{"format": h.format, "from": string(from), "to": string(to)}
		_ = h.auditLogger.Log(r.Context(), audit.FromRequest(r, audit.ActionExport, "profile_run", run.RunID, meta))
	}

	switch h.format {
	case "csv":
		rows, err := h.reader.ListRows(r.Context(), from, to)
		if err != nil {
			result = metrics.ResultError
			writeReadError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", attachment(run.RunID, "csv"))
		if err := csvfile.WriteRows(w, rows); err != nil {
			result = metrics.ResultError
		}
	case "xlsx":
		rows, err := h.reader.ListRows(r.Context(), from, to)
		if err != nil {
			result = metrics.ResultError
			writeReadError(w, err)
			return
		}
		data, err := interfaces.BuildProfilesXLSX(run, rows)
		if err != nil {
			result = metrics.ResultError
			http.Error(w, "export error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", attachment(run.RunID, "xlsx"))
		_, _ = w.Write(data)
	case "pdf":
		data, err := interfaces.BuildRunReportPDF(run)
		if err != nil {
			result = metrics.ResultError
			http.Error(w, "export error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", attachment(run.RunID, "pdf"))
		_, _ = w.Write(data)
	default:
		result = metrics.ResultError
		http.Error(w, "unsupported format", http.StatusNotFound)
	}
}

// AuditHandler lists recent audit entries.
type AuditHandler struct {
	lister AuditLister
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(lister AuditLister) *AuditHandler {
	return &AuditHandler{lister: lister}
}

// ServeHTTP handles GET /api/v1/audit?action=&limit=.
func (h *AuditHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.lister == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	limit := 0
	if value := r.URL.Query().Get("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	entries, err := h.lister.List(r.Context(), r.URL.Query().Get("action"), limit)
	if err != nil {
		http.Error(w, "query audit error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func attachment(runID, ext string) string {
	return fmt.Sprintf("attachment; filename=\"profiles-%s.%s\"", runID, ext)
}

func parseRange(w http.ResponseWriter, r *http.Request) (profiles.DatehourKey, profiles.DatehourKey, bool) {
	from, err := parseKeyQuery(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", "", false
	}
	to, err := parseKeyQuery(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", "", false
	}
	if from != "" && to != "" && to <= from {
		http.Error(w, "to must be after from", http.StatusBadRequest)
		return "", "", false
	}
	return from, to, true
}

// parseKeyQuery accepts either a YYYYMMDDHH key or an RFC3339 timestamp.
func parseKeyQuery(r *http.Request, key string) (profiles.DatehourKey, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return "", nil
	}
	if candidate := profiles.DatehourKey(value); candidate.Validate() == nil {
		return candidate, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return "", fmt.Errorf("%s must be YYYYMMDDHH or RFC3339", key)
	}
	parsed = parsed.UTC()
	return profiles.NewDatehourKey(parsed.Year(), parsed.Month(), parsed.Day(), parsed.Hour()), nil
}

func writeReadError(w http.ResponseWriter, err error) {
	if errors.Is(err, application.ErrNoRun) {
		http.Error(w, "no run recorded", http.StatusNotFound)
		return
	}
	http.Error(w, "query profiles error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
