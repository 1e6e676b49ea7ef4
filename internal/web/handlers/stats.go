package handlers

import "net/http"

// StatsHandler serves GET /stats.
type StatsHandler struct {
	app *App
}

// NewStatsHandler returns a StatsHandler bound to app.
func NewStatsHandler(app *App) *StatsHandler {
	return &StatsHandler{app: app}
}

// StatsResponse is the GET /stats payload: per-store totals.
type StatsResponse struct {
	SourcePersons   int `json:"source_persons"`
	SourceFaces     int `json:"source_faces"`
	SourceOrphans   int `json:"source_orphans"`
	SourceMalformed int `json:"source_malformed"`

	TargetClusters  int `json:"target_clusters"`
	TargetFaces     int `json:"target_faces"`
	TargetMalformed int `json:"target_malformed"`
}

// Get handles GET /stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	c := h.app.Coordinator()
	if c == nil {
		respondError(w, http.StatusServiceUnavailable, "source and target stores are not both configured")
		return
	}

	source, err := c.SourceInventory(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	target, err := c.TargetInventory(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	orphans, faces := 0, 0
	for _, p := range source.Persons {
		faces += len(p.Faces)
		if p.IsOrphan() {
			orphans++
		}
	}

	respondJSON(w, http.StatusOK, StatsResponse{
		SourcePersons:   len(source.Persons),
		SourceFaces:     faces,
		SourceOrphans:   orphans,
		SourceMalformed: source.Malformed,
		TargetClusters:  len(target.Clusters),
		TargetFaces:     target.TotalFaces,
		TargetMalformed: target.Malformed,
	})
}
