package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/kozaktomas/photo-migrate/internal/executor"
)

// CreateFacesApplyHandler serves POST /create-faces/apply.
type CreateFacesApplyHandler struct {
	app *App
}

// NewCreateFacesApplyHandler returns a CreateFacesApplyHandler bound to app.
func NewCreateFacesApplyHandler(app *App) *CreateFacesApplyHandler {
	return &CreateFacesApplyHandler{app: app}
}

type createFaceItemRequest struct {
	AssetID     string  `json:"asset_id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	ImageWidth  int     `json:"image_width"`
	ImageHeight int     `json:"image_height"`
}

type createFacesApplyRequest struct {
	SourcePersonID   string                  `json:"src_person_id"`
	SourcePersonName string                  `json:"src_person_name"`
	Faces            []createFaceItemRequest `json:"faces"`
	DryRun           bool                    `json:"dry_run"`
}

// Apply handles POST /create-faces/apply: creates a new target face for
// each selected source face, one call per item, reusing or creating the
// target person named once up front.
func (h *CreateFacesApplyHandler) Apply(w http.ResponseWriter, r *http.Request) {
	exec := h.app.Executor()
	if exec == nil {
		respondError(w, http.StatusServiceUnavailable, "target API is not configured")
		return
	}

	var req createFacesApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	items := make([]executor.CreateFaceItem, len(req.Faces))
	for i, f := range req.Faces {
		items[i] = executor.CreateFaceItem{
			SourcePersonName: req.SourcePersonName,
			AssetID:          f.AssetID,
			X:                f.X,
			Y:                f.Y,
			Width:            f.Width,
			Height:           f.Height,
			ImageWidth:       f.ImageWidth,
			ImageHeight:      f.ImageHeight,
		}
	}

	result := exec.CreateFaces(r.Context(), uuid.NewString(), executor.NewProgress(), items, req.DryRun)
	respondJSON(w, http.StatusOK, result)
}
