package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/kozaktomas/photo-migrate/internal/executor"
)

// ApplyUnclusteredHandler serves POST /apply/unclustered (AssignUnclusteredFaces).
type ApplyUnclusteredHandler struct {
	app *App
}

// NewApplyUnclusteredHandler returns an ApplyUnclusteredHandler bound to app.
func NewApplyUnclusteredHandler(app *App) *ApplyUnclusteredHandler {
	return &ApplyUnclusteredHandler{app: app}
}

type assignItemRequest struct {
	SourcePersonID   string   `json:"src_person_id"`
	SourcePersonName string   `json:"src_person_name"`
	FaceIDs          []string `json:"face_ids"`
}

type applyUnclusteredRequest struct {
	Items  []assignItemRequest `json:"items"`
	DryRun bool                `json:"dry_run"`
}

// Apply handles POST /apply/unclustered: assigns each selected unclustered
// face to its chosen source person, creating the person if absent.
func (h *ApplyUnclusteredHandler) Apply(w http.ResponseWriter, r *http.Request) {
	exec := h.app.Executor()
	if exec == nil {
		respondError(w, http.StatusServiceUnavailable, "target API is not configured")
		return
	}

	var req applyUnclusteredRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	items := make([]executor.AssignItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = executor.AssignItem{SourcePersonName: it.SourcePersonName, FaceIDs: it.FaceIDs}
	}

	result := exec.AssignUnclusteredFaces(r.Context(), uuid.NewString(), executor.NewProgress(), items, req.DryRun)
	respondJSON(w, http.StatusOK, result)
}
