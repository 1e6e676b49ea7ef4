package handlers

import "net/http"

// StatusHandler serves GET /status.
type StatusHandler struct {
	app *App
}

// NewStatusHandler returns a StatusHandler bound to app.
func NewStatusHandler(app *App) *StatusHandler {
	return &StatusHandler{app: app}
}

// StatusResponse is the GET /status payload.
type StatusResponse struct {
	SourceDB  StoreStatus `json:"source_db"`
	TargetDB  StoreStatus `json:"target_db"`
	TargetAPI StoreStatus `json:"target_api"`
}

// Get handles GET /status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	source, targetDB, targetAPI := h.app.Status(r.Context())
	respondJSON(w, http.StatusOK, StatusResponse{
		SourceDB:  source,
		TargetDB:  targetDB,
		TargetAPI: targetAPI,
	})
}
