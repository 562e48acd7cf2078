package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/types"
)

// MarkDependencies defines the interface for manual marks.
type MarkDependencies interface {
	Mark(ctx context.Context, id string, status model.Status) (model.Outcome, error)
}

// MarkHandler handles manual mark requests.
type MarkHandler struct {
	deps MarkDependencies
}

// NewMarkHandler creates a new mark handler.
func NewMarkHandler(deps MarkDependencies) *MarkHandler {
	return &MarkHandler{deps: deps}
}

// HandleMarkPresent handles POST /mark/{id} requests.
func (h *MarkHandler) HandleMarkPresent(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, model.StatusPresent)
}

// HandleMarkAbsent handles POST /mark_absent/{id} requests.
func (h *MarkHandler) HandleMarkAbsent(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, model.StatusAbsent)
}

func (h *MarkHandler) mark(w http.ResponseWriter, r *http.Request, status model.Status) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	o, err := h.deps.Mark(r.Context(), id, status)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromOutcome(o, fmt.Sprintf("%s marked %s", o.SubjectID, o.Status)))
}
