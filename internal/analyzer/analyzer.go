// Package analyzer orchestrates one complete analysis cycle: burst
// sampling every parameter, resolving the geo/season context, scoring,
// applying the safety override and assembling the immutable result.
package analyzer

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"aquamind/internal/api"
	"aquamind/internal/config"
	"aquamind/internal/metrics"
	"aquamind/internal/models"
	"aquamind/internal/profile"
	"aquamind/internal/safety"
	"aquamind/internal/scoring"
	"aquamind/internal/sensor"
	"aquamind/internal/trust"
)

var (
	// ErrBusy is returned when an analysis is already in progress.
	ErrBusy = errors.New("analysis already in progress")
	// ErrCoolingDown is returned when a trigger arrives inside the
	// cooldown window after the previous analysis.
	ErrCoolingDown = errors.New("analyzer is cooling down")
)

// WeatherProvider supplies best-effort current weather for a coordinate.
type WeatherProvider interface {
	GetCurrentWeather(latitude, longitude float64) (*api.CurrentWeather, error)
}

// LocationProvider supplies a best-effort position fix.
type LocationProvider interface {
	Locate() (*api.DetectedLocation, error)
}

// Status is a read-only snapshot of the analyzer session.
type Status struct {
	Busy           bool                   `json:"busy"`
	AnalysisCount  int                    `json:"analysis_count"`
	LastResult     *models.AnalysisResult `json:"last_result,omitempty"`
	HasCredentials bool                   `json:"has_credentials"`
}

// Analyzer owns the session state for one virtual device. All mutable
// state lives here rather than in package globals so multiple analyzers
// can run in one process (and one test binary).
type Analyzer struct {
	cfg      *config.Config
	sources  *sensor.Manager
	sampler  *trust.TriCheck
	registry *profile.Registry
	engine   *scoring.Engine
	override *safety.Override
	tracker  *trust.Tracker
	weather  WeatherProvider
	locator  LocationProvider

	mu          sync.Mutex
	busy        bool
	lastFinish  time.Time
	lastResult  *models.AnalysisResult
	count       int
	credentials string
}

// New builds an analyzer. Weather and location providers may be nil, in
// which case the session runs fully offline and falls back to the default
// profile and a weather-free season context.
func New(cfg *config.Config, sources *sensor.Manager, registry *profile.Registry, weather WeatherProvider, locator LocationProvider) *Analyzer {
	if cfg.Profiles.Default != "" {
		if err := registry.SetDefault(cfg.Profiles.Default); err != nil {
			log.Printf("configured default profile not usable, keeping registry default: %v", err)
		}
	}

	return &Analyzer{
		cfg:      cfg,
		sources:  sources,
		sampler:  trust.NewTriCheck(cfg.Sampling),
		registry: registry,
		engine:   scoring.NewEngine(cfg.Scoring),
		override: safety.NewOverride(cfg.Safety),
		tracker:  trust.NewTracker(cfg.Sampling.TrendWindow),
		weather:  weather,
		locator:  locator,
	}
}

// Analyze runs one complete analysis cycle. At most one analysis runs at a
// time; concurrent triggers are rejected with ErrBusy and triggers inside
// the cooldown window with ErrCoolingDown. A started cycle always runs to
// completion and always produces a result.
func (a *Analyzer) Analyze() (*models.AnalysisResult, error) {
	if err := a.acquire(); err != nil {
		metrics.AnalysesRejected.Inc()
		return nil, err
	}
	defer a.release()

	start := time.Now()

	session := a.resolveSession(start)

	bursts, err := a.sampleAll()
	if err != nil {
		return nil, err
	}

	inputs, stability := buildInputs(bursts)
	breakdown := a.engine.Score(inputs, session.Profile)
	outcome := a.override.Apply(breakdown.JalScore, inputs)

	for _, rule := range outcome.Triggered {
		metrics.RecordOverride(rule)
	}

	driftAlerts := a.recordTrends(bursts)

	result := assembleResult(session, bursts, stability, outcome, driftAlerts)

	a.mu.Lock()
	a.lastResult = result
	a.count++
	a.mu.Unlock()

	metrics.RecordAnalysis(string(result.Verdict), result.ProfileName, result.JalScore, result.Stability, time.Since(start))
	log.Printf("analysis #%d complete: score=%d verdict=%s stability=%.1f%% profile=%s",
		a.Count(), result.JalScore, result.Verdict, result.Stability, result.ProfileName)

	return result, nil
}

func (a *Analyzer) acquire() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.busy {
		return ErrBusy
	}

	cooldown := time.Duration(a.cfg.Device.CooldownSeconds) * time.Second
	if !a.lastFinish.IsZero() && time.Since(a.lastFinish) < cooldown {
		return ErrCoolingDown
	}

	a.busy = true
	return nil
}

func (a *Analyzer) release() {
	a.mu.Lock()
	a.busy = false
	a.lastFinish = time.Now()
	a.mu.Unlock()
}

// sampleAll runs the Tri-Checks for every parameter sequentially. Each
// sensor is exclusively owned for the duration of its run, and all
// readings used in one result are captured within one bounded window.
func (a *Analyzer) sampleAll() (map[models.Parameter]models.BurstResult, error) {
	bursts := make(map[models.Parameter]models.BurstResult, len(sensor.AnalysisParameters))

	for _, param := range sensor.AnalysisParameters {
		src, err := a.sources.Source(param)
		if err != nil {
			return nil, err
		}
		bursts[param] = a.sampler.Sample(src)
	}

	return bursts, nil
}

// recordTrends feeds this cycle's burst means into the drift tracker and
// reports any parameter whose recent history is moving the wrong way.
func (a *Analyzer) recordTrends(bursts map[models.Parameter]models.BurstResult) []string {
	var alerts []string
	for _, param := range sensor.AnalysisParameters {
		a.tracker.Add(param, bursts[param].Mean)

		trend := a.tracker.Trend(param)
		if trend.Direction == "rising" && !trend.Stable {
			switch param {
			case models.ParamTDS, models.ParamTurbidity:
				alerts = append(alerts, fmt.Sprintf("%s trending upward across recent analyses - check the water source", param))
			}
		}
	}
	return alerts
}

// buildInputs extracts the scoring inputs and the aggregate stability.
// Temperature is sampled and reported but carries no weight in the score,
// so its stability does not enter the aggregate.
func buildInputs(bursts map[models.Parameter]models.BurstResult) (scoring.Inputs, float64) {
	weighted := []models.Parameter{
		models.ParamTDS,
		models.ParamPH,
		models.ParamTurbidity,
		models.ParamDissolvedOxygen,
	}

	sum := 0.0
	for _, p := range weighted {
		sum += bursts[p].Stability
	}
	stability := sum / float64(len(weighted))

	return scoring.Inputs{
		TDS:             bursts[models.ParamTDS].Mean,
		PH:              bursts[models.ParamPH].Mean,
		Turbidity:       bursts[models.ParamTurbidity].Mean,
		DissolvedOxygen: bursts[models.ParamDissolvedOxygen].Mean,
		Stability:       stability,
	}, stability
}

// Status returns a snapshot of the session. The returned last result is
// immutable; readers must never mutate it.
func (a *Analyzer) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Status{
		Busy:           a.busy,
		AnalysisCount:  a.count,
		LastResult:     a.lastResult,
		HasCredentials: a.credentials != "",
	}
}

// LastResult returns the most recent analysis, or nil before the first.
func (a *Analyzer) LastResult() *models.AnalysisResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastResult
}

// Count returns the number of completed analyses this session.
func (a *Analyzer) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

// SetNetworkCredentials stores an updated opaque network credential. The
// value is never logged.
func (a *Analyzer) SetNetworkCredentials(value string) {
	a.mu.Lock()
	a.credentials = value
	a.mu.Unlock()
	log.Printf("network credentials updated (%d bytes)", len(value))
}

// Registry exposes the profile registry for listing endpoints.
func (a *Analyzer) Registry() *profile.Registry {
	return a.registry
}
