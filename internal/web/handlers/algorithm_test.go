package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/photo-migrate/internal/model"
)

func TestAlgorithmHandler_Run_ServiceUnavailableWithoutCoordinator(t *testing.T) {
	app := newTestApp(nil, nil)
	h := NewAlgorithmHandler(app)

	req := httptest.NewRequest(http.MethodPost, "/algorithm/run", nil)
	rr := httptest.NewRecorder()
	h.Run(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestAlgorithmHandler_Run_EmptyBodyUsesConfiguredDefaults(t *testing.T) {
	source, target := scenarioReaders()
	app := newTestApp(source, target)
	h := NewAlgorithmHandler(app)

	req := httptest.NewRequest(http.MethodPost, "/algorithm/run", nil)
	rr := httptest.NewRecorder()
	h.Run(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var bundle model.AnalysisBundle
	if err := json.NewDecoder(rr.Body).Decode(&bundle); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(bundle.RenameApplicable) != 1 {
		t.Fatalf("expected 1 rename-applicable match from the overlapping-rect fixture, got %+v", bundle.RenameApplicable)
	}
}

func TestAlgorithmHandler_Run_OverridesThresholdsFromRequestBody(t *testing.T) {
	source, target := scenarioReaders()
	app := newTestApp(source, target)
	h := NewAlgorithmHandler(app)

	// An unreasonably strict max_center_dist override.
	body := `{"max_center_dist": 0.0001}`
	req := httptest.NewRequest(http.MethodPost, "/algorithm/run", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h.Run(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var bundle model.AnalysisBundle
	if err := json.NewDecoder(rr.Body).Decode(&bundle); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	// Rects in the fixture are identical, so center distance is 0 and the
	// match still passes; the echoed thresholds confirm the override was
	// actually read rather than silently ignored.
	if bundle.Thresholds.MaxCenterDist != 0.0001 {
		t.Fatalf("expected MaxCenterDist override 0.0001 in the bundle, got %v", bundle.Thresholds.MaxCenterDist)
	}
	if bundle.RawMatches == nil {
		t.Fatalf("expected RawMatches to be populated")
	}
}

func TestAlgorithmHandler_Run_RejectsMalformedJSON(t *testing.T) {
	source, target := scenarioReaders()
	app := newTestApp(source, target)
	h := NewAlgorithmHandler(app)

	req := httptest.NewRequest(http.MethodPost, "/algorithm/run", bytes.NewBufferString(`{not json`))
	rr := httptest.NewRecorder()
	h.Run(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
