package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/photo-migrate/internal/config"
)

func TestConfigHandler_Get_OmitsSecrets(t *testing.T) {
	app := &App{cfg: &config.Config{
		SourceDB:  config.SourceDBConfig{Path: "/data/photos.db"},
		TargetAPI: config.TargetAPIConfig{URL: "https://immich.example.com", APIKey: "secret"},
		TargetDB:  config.TargetDBConfig{Host: "db", Name: "immich", Password: "hunter2"},
		Matching:  config.MatchingConfig{MinOverlapScore: 0.3, MinPhotosInCluster: 1},
	}}
	h := NewConfigHandler(app)

	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp ConfigResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.TargetAPIKeySet || !resp.TargetDBPasswordSet {
		t.Errorf("expected *_set flags true, got %+v", resp)
	}
	if bytes.Contains(rr.Body.Bytes(), []byte("secret")) || bytes.Contains(rr.Body.Bytes(), []byte("hunter2")) {
		t.Errorf("secret values leaked into response body: %s", rr.Body.String())
	}
}

func TestConfigHandler_SetSourceDB_RejectsEmptyPath(t *testing.T) {
	app := &App{cfg: &config.Config{}}
	h := NewConfigHandler(app)

	req := httptest.NewRequest(http.MethodPost, "/config/source-db", bytes.NewBufferString(`{"path":""}`))
	rr := httptest.NewRecorder()
	h.SetSourceDB(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestConfigHandler_SetSourceDB_RejectsMalformedJSON(t *testing.T) {
	app := &App{cfg: &config.Config{}}
	h := NewConfigHandler(app)

	req := httptest.NewRequest(http.MethodPost, "/config/source-db", bytes.NewBufferString(`not json`))
	rr := httptest.NewRecorder()
	h.SetSourceDB(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestConfigHandler_SetSourceDB_NonexistentPathReportsDisconnected(t *testing.T) {
	app := &App{cfg: &config.Config{}}
	h := NewConfigHandler(app)

	req := httptest.NewRequest(http.MethodPost, "/config/source-db", bytes.NewBufferString(`{"path":"/nonexistent/photos.db"}`))
	rr := httptest.NewRecorder()
	h.SetSourceDB(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 (status reported in body, not HTTP error), got %d", rr.Code)
	}
	var status StoreStatus
	if err := json.NewDecoder(rr.Body).Decode(&status); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if status.Connected {
		t.Errorf("expected Connected=false for a path with no underlying database, got %+v", status)
	}
}

func TestConfigHandler_SetTargetAPI_PartialUpdatePreservesExistingFields(t *testing.T) {
	app := &App{cfg: &config.Config{TargetAPI: config.TargetAPIConfig{URL: "https://old.example.com", APIKey: "old-key"}}}
	h := NewConfigHandler(app)

	req := httptest.NewRequest(http.MethodPost, "/config/target-api", bytes.NewBufferString(`{"api_key":"new-key"}`))
	rr := httptest.NewRecorder()
	h.SetTargetAPI(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if app.cfg.TargetAPI.URL != "https://old.example.com" {
		t.Errorf("expected URL to be preserved, got %q", app.cfg.TargetAPI.URL)
	}
	if app.cfg.TargetAPI.APIKey != "new-key" {
		t.Errorf("expected API key to be updated, got %q", app.cfg.TargetAPI.APIKey)
	}
}

func TestConfigHandler_SetTargetDB_RejectsMalformedJSON(t *testing.T) {
	app := &App{cfg: &config.Config{}}
	h := NewConfigHandler(app)

	req := httptest.NewRequest(http.MethodPost, "/config/target-db", bytes.NewBufferString(`{`))
	rr := httptest.NewRecorder()
	h.SetTargetDB(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
