package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/kozaktomas/photo-migrate/internal/executor"
)

// ApplyHandler serves POST /apply (RenameClusters).
type ApplyHandler struct {
	app *App
}

// NewApplyHandler returns an ApplyHandler bound to app.
func NewApplyHandler(app *App) *ApplyHandler {
	return &ApplyHandler{app: app}
}

type renameMatchRequest struct {
	SourcePersonID   string `json:"src_person_id"`
	SourcePersonName string `json:"src_person_name"`
	ClusterID        string `json:"cluster_id"`
}

type applyRequest struct {
	Matches []renameMatchRequest `json:"matches"`
	DryRun  bool                 `json:"dry_run"`
}

// Apply handles POST /apply: renames each selected cluster to its chosen
// source person's name.
func (h *ApplyHandler) Apply(w http.ResponseWriter, r *http.Request) {
	exec := h.app.Executor()
	if exec == nil {
		respondError(w, http.StatusServiceUnavailable, "target API is not configured")
		return
	}

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	items := make([]executor.RenameItem, len(req.Matches))
	for i, m := range req.Matches {
		items[i] = executor.RenameItem{SourcePersonName: m.SourcePersonName, ClusterID: m.ClusterID}
	}

	result := exec.RenameClusters(r.Context(), uuid.NewString(), executor.NewProgress(), items, req.DryRun)
	respondJSON(w, http.StatusOK, result)
}
