package handlers

import (
	"encoding/json"
	"net/http"
)

// ConfigHandler serves GET /config and the POST /config/* hot-swap
// endpoints.
type ConfigHandler struct {
	app *App
}

// NewConfigHandler returns a ConfigHandler bound to app.
func NewConfigHandler(app *App) *ConfigHandler {
	return &ConfigHandler{app: app}
}

// ConfigResponse is the GET /config payload. Secrets are never echoed; a
// boolean *_set flag indicates presence.
type ConfigResponse struct {
	SourceDBPath        string            `json:"source_db_path"`
	TargetAPIURL        string            `json:"target_api_url"`
	TargetAPIKeySet     bool              `json:"target_api_key_set"`
	TargetDBHost        string            `json:"target_db_host"`
	TargetDBPort        string            `json:"target_db_port"`
	TargetDBName        string            `json:"target_db_name"`
	TargetDBUser        string            `json:"target_db_user"`
	TargetDBPasswordSet bool              `json:"target_db_password_set"`
	MinOverlapScore     float64           `json:"min_overlap_score"`
	MinPhotosInCluster  int               `json:"min_photos_in_cluster"`
	PathMappings        map[string]string `json:"path_mappings,omitempty"`
}

// Get handles GET /config.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg := h.app.Config()
	respondJSON(w, http.StatusOK, ConfigResponse{
		SourceDBPath:        cfg.SourceDB.Path,
		TargetAPIURL:        cfg.TargetAPI.URL,
		TargetAPIKeySet:     cfg.TargetAPI.APIKey != "",
		TargetDBHost:        cfg.TargetDB.Host,
		TargetDBPort:        cfg.TargetDB.Port,
		TargetDBName:        cfg.TargetDB.Name,
		TargetDBUser:        cfg.TargetDB.User,
		TargetDBPasswordSet: cfg.TargetDB.Password != "",
		MinOverlapScore:     cfg.Matching.MinOverlapScore,
		MinPhotosInCluster:  cfg.Matching.MinPhotosInCluster,
		PathMappings:        cfg.Matching.PathMappings,
	})
}

type sourceDBRequest struct {
	Path string `json:"path"`
}

// SetSourceDB handles POST /config/source-db: validate, hot-swap, test
// connection, return new status.
func (h *ConfigHandler) SetSourceDB(w http.ResponseWriter, r *http.Request) {
	var req sourceDBRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Path == "" {
		respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	if err := h.app.SetSourceDBPath(req.Path); err != nil {
		respondJSON(w, http.StatusOK, StoreStatus{Connected: false, Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, StoreStatus{Connected: true})
}

type targetAPIRequest struct {
	URL    string `json:"url"`
	APIKey string `json:"api_key"`
}

// SetTargetAPI handles POST /config/target-api.
func (h *ConfigHandler) SetTargetAPI(w http.ResponseWriter, r *http.Request) {
	var req targetAPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := h.app.SetTargetAPI(req.URL, req.APIKey); err != nil {
		respondJSON(w, http.StatusOK, StoreStatus{Connected: false, Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, StoreStatus{Connected: true})
}

type targetDBRequest struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Name     string `json:"name"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// SetTargetDB handles POST /config/target-db.
func (h *ConfigHandler) SetTargetDB(w http.ResponseWriter, r *http.Request) {
	var req targetDBRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := h.app.SetTargetDB(req.Host, req.Port, req.Name, req.User, req.Password); err != nil {
		respondJSON(w, http.StatusOK, StoreStatus{Connected: false, Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, StoreStatus{Connected: true})
}
