package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/types"
)

// ScanDependencies defines the interface for the automated producers.
type ScanDependencies interface {
	ApplyDecoded(ctx context.Context, payload string) (model.Outcome, error)
	ApplyTranscript(ctx context.Context, transcript string) (model.Outcome, error)
	ApplyMatches(ctx context.Context, detections []model.Detection) ([]model.Outcome, error)
}

// ScanHandler handles QR, voice and face submissions.
type ScanHandler struct {
	deps ScanDependencies
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(deps ScanDependencies) *ScanHandler {
	return &ScanHandler{deps: deps}
}

// HandleScanQR handles POST /scan_qr requests.
func (h *ScanHandler) HandleScanQR(w http.ResponseWriter, r *http.Request) {
	var req types.ScanQRRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	o, err := h.deps.ApplyDecoded(r.Context(), req.Data)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromOutcome(o, fmt.Sprintf("QR: %s marked %s", o.SubjectID, o.Status)))
}

// HandleVoice handles POST /voice_attendance requests.
func (h *ScanHandler) HandleVoice(w http.ResponseWriter, r *http.Request) {
	var req types.VoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	o, err := h.deps.ApplyTranscript(r.Context(), req.Transcript)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromOutcome(o, fmt.Sprintf("Voice: %s marked %s", o.SubjectID, o.Status)))
}

// HandleScanFaces handles POST /scan_faces requests.
func (h *ScanHandler) HandleScanFaces(w http.ResponseWriter, r *http.Request) {
	var req types.ScanFacesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	outcomes, err := h.deps.ApplyMatches(r.Context(), req.ModelDetections())
	marked := make([]types.MarkResponse, 0, len(outcomes))
	for _, o := range outcomes {
		marked = append(marked, types.FromOutcome(o, o.SubjectID+" marked Present"))
	}
	if err != nil {
		// Subjects committed before the failure stay marked; report them.
		status, resp := failureOf(err)
		resp.Marked = marked
		writeJSON(w, status, resp)
		return
	}
	resp := types.ScanFacesResponse{Success: true, Marked: marked}
	resp.Message = fmt.Sprintf("marked %d subject(s) present", len(outcomes))
	writeJSON(w, http.StatusOK, resp)
}
