package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kozaktomas/photo-migrate/internal/model"
)

// AlgorithmHandler serves POST /algorithm/run.
type AlgorithmHandler struct {
	app *App
}

// NewAlgorithmHandler returns an AlgorithmHandler bound to app.
func NewAlgorithmHandler(app *App) *AlgorithmHandler {
	return &AlgorithmHandler{app: app}
}

type algorithmRunRequest struct {
	MinIoU         *float64 `json:"min_iou,omitempty"`
	MaxCenterDist  *float64 `json:"max_center_dist,omitempty"`
}

// Run handles POST /algorithm/run: runs the full pipeline at the request's
// thresholds, or the configured defaults if omitted.
func (h *AlgorithmHandler) Run(w http.ResponseWriter, r *http.Request) {
	c := h.app.Coordinator()
	if c == nil {
		respondError(w, http.StatusServiceUnavailable, "source and target stores are not both configured")
		return
	}

	var req algorithmRunRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
	}

	thresholds := model.DefaultThresholds()
	thresholds.MinIoU = h.app.Config().Matching.MinOverlapScore
	if req.MinIoU != nil {
		thresholds.MinIoU = *req.MinIoU
	}
	if req.MaxCenterDist != nil {
		thresholds.MaxCenterDist = *req.MaxCenterDist
	}

	bundle, err := c.RunFullAnalysis(r.Context(), thresholds)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, bundle)
}
