package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/summary"
	"github.com/okian/rollcall/internal/domain/types"
)

// ReportDependencies defines the interface for read-side views.
type ReportDependencies interface {
	Attendance(ctx context.Context) (summary.Report, error)
	Snapshot(ctx context.Context) ([]model.Entry, error)
	ExportCSV(ctx context.Context, w io.Writer) (string, error)
	Today() time.Time
}

// ReportHandler serves the dashboard, the raw ledger and the CSV export.
type ReportHandler struct {
	deps ReportDependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleDashboard handles GET /dashboard requests.
func (h *ReportHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.Attendance(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromReport(h.deps.Today(), report))
}

// HandleLedger handles GET /ledger requests.
func (h *ReportHandler) HandleLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.Snapshot(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromEntries(entries))
}

// HandleDownload handles GET /download_report requests.
func (h *ReportHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := h.deps.ExportCSV(r.Context(), &buf)
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
