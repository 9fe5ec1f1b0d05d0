package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"aquamind/internal/analyzer"
	"aquamind/internal/config"
	"aquamind/internal/models"
	"aquamind/internal/profile"
	"aquamind/internal/sensor"
)

const testRegistry = `default: "JABALPUR"
profiles:
  JABALPUR:
    zone: "central"
    thresholds:
      tds_safe: 300
      tds_danger: 1000
      turbidity_safe: 1.0
      turbidity_danger: 10.0
    weights:
      tds: 0.25
      ph: 0.20
      turbidity: 0.20
      dissolved_oxygen: 0.15
      stability: 0.20
`

func testAnalyzer(t *testing.T, cooldownSeconds int) *analyzer.Analyzer {
	t.Helper()

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte(testRegistry), 0o644); err != nil {
		t.Fatalf("Failed to write registry file: %v", err)
	}
	registry, err := profile.LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}

	cfg := &config.Config{}
	cfg.Device.CooldownSeconds = cooldownSeconds
	cfg.Sampling = config.SamplingConfig{Bursts: 2, SamplesPerBurst: 3, StabilityScale: 5, TrendWindow: 5}
	cfg.Scoring = config.ScoringConfig{
		PHOptimal: 7.2, PHSafeLow: 6.5, PHSafeHigh: 8.5,
		LowStability: 70, VeryLowStability: 50,
		LowPenaltyFactor: 0.9, HarshPenaltyFactor: 0.8,
	}
	cfg.Safety = config.SafetyConfig{
		PHMin: 4, PHMax: 10, TDSCeiling: 800, TurbidityCeiling: 8,
		StabilityFloor: 40, ScoreCap: 30,
	}

	sources := map[models.Parameter]sensor.Source{}
	values := map[models.Parameter]float64{
		models.ParamTDS:             150,
		models.ParamPH:              7.2,
		models.ParamTurbidity:       0.5,
		models.ParamTemperature:     25,
		models.ParamDissolvedOxygen: 7.5,
	}
	for param, value := range values {
		v := value
		sources[param] = sensor.SourceFunc{Param: param, Fn: func() float64 { return v }}
	}

	return analyzer.New(cfg, sensor.NewManager(sources), registry, nil, nil)
}

func TestHandleHealth(t *testing.T) {
	s := NewServer(testAnalyzer(t, 0), nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %v", body["status"])
	}
}

func TestHandleAnalyze(t *testing.T) {
	s := NewServer(testAnalyzer(t, 0), nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if result.Verdict != models.VerdictSafe {
		t.Errorf("Expected SAFE verdict, got %s", result.Verdict)
	}
	if result.ID == "" {
		t.Error("Expected non-empty analysis id")
	}
}

func TestHandleAnalyzeMethodNotAllowed(t *testing.T) {
	s := NewServer(testAnalyzer(t, 0), nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}

func TestHandleAnalyzeCooldown(t *testing.T) {
	s := NewServer(testAnalyzer(t, 60), nil, nil, nil)

	first := httptest.NewRecorder()
	s.Handler().ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/analyze", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("Expected first trigger to succeed, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	s.Handler().ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/analyze", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429 during cooldown, got %d", second.Code)
	}
}

func TestHandleLastResult(t *testing.T) {
	s := NewServer(testAnalyzer(t, 0), nil, nil, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/last-result", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 before first analysis, got %d", rec.Code)
	}

	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/analyze", nil))

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/last-result", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 after analysis, got %d", rec.Code)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if len(result.Readings) != 5 {
		t.Errorf("Expected 5 readings, got %d", len(result.Readings))
	}
}

func TestHandleProfiles(t *testing.T) {
	s := NewServer(testAnalyzer(t, 0), nil, nil, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profiles", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var body struct {
		Default  string   `json:"default"`
		Profiles []string `json:"profiles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Default != "JABALPUR" {
		t.Errorf("Expected default JABALPUR, got %s", body.Default)
	}
	if len(body.Profiles) != 1 {
		t.Errorf("Expected 1 profile, got %v", body.Profiles)
	}
}

type fakeHistory struct {
	analyses []models.AnalysisResult
	err      error
}

func (f *fakeHistory) GetRecentAnalyses(limit int) ([]models.AnalysisResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.analyses) {
		return f.analyses[:limit], nil
	}
	return f.analyses, nil
}

func TestHandleHistory(t *testing.T) {
	history := &fakeHistory{analyses: []models.AnalysisResult{
		{ID: "a", JalScore: 90, Verdict: models.VerdictSafe},
		{ID: "b", JalScore: 55, Verdict: models.VerdictCaution},
	}}
	s := NewServer(testAnalyzer(t, 0), nil, nil, history)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history?limit=1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var body struct {
		Count    int                     `json:"count"`
		Analyses []models.AnalysisResult `json:"analyses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("Expected count 1 with limit=1, got %d", body.Count)
	}
}

func TestHandleHistoryUnconfigured(t *testing.T) {
	s := NewServer(testAnalyzer(t, 0), nil, nil, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without a history store, got %d", rec.Code)
	}
}
