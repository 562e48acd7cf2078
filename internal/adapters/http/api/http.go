// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/types"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	MarkDependencies
	ScanDependencies
	ReportDependencies
}

// Server wires HTTP routes for the attendance API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	markHandler   *MarkHandler
	scanHandler   *ScanHandler
	reportHandler *ReportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		markHandler:   NewMarkHandler(deps),
		scanHandler:   NewScanHandler(deps),
		reportHandler: NewReportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /mark/{id}", MetricsMiddleware(s.markHandler.HandleMarkPresent, "mark"))
	mux.HandleFunc("POST /mark_absent/{id}", MetricsMiddleware(s.markHandler.HandleMarkAbsent, "mark_absent"))

	mux.HandleFunc("POST /scan_qr", MetricsMiddleware(s.scanHandler.HandleScanQR, "scan_qr"))
	mux.HandleFunc("POST /voice_attendance", MetricsMiddleware(s.scanHandler.HandleVoice, "voice_attendance"))
	mux.HandleFunc("POST /scan_faces", MetricsMiddleware(s.scanHandler.HandleScanFaces, "scan_faces"))

	mux.HandleFunc("GET /dashboard", MetricsMiddleware(s.reportHandler.HandleDashboard, "dashboard"))
	mux.HandleFunc("GET /ledger", MetricsMiddleware(s.reportHandler.HandleLedger, "ledger"))
	mux.HandleFunc("GET /download_report", MetricsMiddleware(s.reportHandler.HandleDownload, "download_report"))
}

// Handler returns a mux with every route registered, wrapped with the
// request id middleware.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	s.Register(ctx, mux)
	return RequestIDMiddleware(mux)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, errorResponse(status, code, err))
}

func errorResponse(status int, code string, err error) types.ErrorResponse {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	return types.ErrorResponse{Code: code, Message: msg}
}

// writeFailure translates service errors into HTTP responses.
func writeFailure(w http.ResponseWriter, err error) {
	status, resp := failureOf(err)
	writeJSON(w, status, resp)
}

func failureOf(err error) (int, types.ErrorResponse) {
	var rej *model.Rejection
	switch {
	case errors.As(err, &rej):
		code := "input_rejected"
		if errors.Is(err, model.ErrAmbiguousCommand) {
			code = "ambiguous_command"
		}
		return http.StatusUnprocessableEntity, types.ErrorResponse{Code: code, Message: rej.Message, Raw: rej.Raw}
	case errors.Is(err, model.ErrInputRejected):
		return http.StatusUnprocessableEntity, errorResponse(http.StatusUnprocessableEntity, "input_rejected", err)
	case errors.Is(err, model.ErrPersistence):
		return http.StatusServiceUnavailable, errorResponse(http.StatusServiceUnavailable, "persistence_failure", err)
	case errors.Is(err, model.ErrUnavailable):
		return http.StatusServiceUnavailable, errorResponse(http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, errorResponse(http.StatusNotFound, "not_found", err)
	default:
		return http.StatusInternalServerError, errorResponse(http.StatusInternalServerError, "internal_error", err)
	}
}
