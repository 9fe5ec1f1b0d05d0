package sensor

import (
	"fmt"
	"math/rand"
	"sync"

	"aquamind/internal/models"
)

// ErrUnknownScenario is returned when a simulation scenario name is not in
// the scenario table.
var ErrUnknownScenario = fmt.Errorf("unknown simulation scenario")

// channelParams describe the simulated signal for one parameter: a base
// value plus gaussian noise. The scenario stability factor adds drift on
// top of the base noise, so unstable scenarios wander between samples.
type channelParams struct {
	Base  float64
	Noise float64
}

// Scenario is a named set of simulated water conditions.
type Scenario struct {
	Channels  map[models.Parameter]channelParams
	Stability float64 // 0-1, lower means noisier drift
}

// Scenarios is the table of named simulation conditions.
var Scenarios = map[string]Scenario{
	"clean_water": {
		Channels: map[models.Parameter]channelParams{
			models.ParamTDS:             {Base: 150, Noise: 10},
			models.ParamPH:              {Base: 7.2, Noise: 0.05},
			models.ParamTurbidity:       {Base: 0.5, Noise: 0.2},
			models.ParamTemperature:     {Base: 25, Noise: 0.5},
			models.ParamDissolvedOxygen: {Base: 7.5, Noise: 0.2},
		},
		Stability: 0.95,
	},
	"tap_water": {
		Channels: map[models.Parameter]channelParams{
			models.ParamTDS:             {Base: 350, Noise: 25},
			models.ParamPH:              {Base: 7.4, Noise: 0.1},
			models.ParamTurbidity:       {Base: 1.5, Noise: 0.5},
			models.ParamTemperature:     {Base: 28, Noise: 1},
			models.ParamDissolvedOxygen: {Base: 6.8, Noise: 0.3},
		},
		Stability: 0.85,
	},
	"dirty_water": {
		Channels: map[models.Parameter]channelParams{
			models.ParamTDS:             {Base: 650, Noise: 50},
			models.ParamPH:              {Base: 6.4, Noise: 0.2},
			models.ParamTurbidity:       {Base: 8, Noise: 2},
			models.ParamTemperature:     {Base: 30, Noise: 2},
			models.ParamDissolvedOxygen: {Base: 5.0, Noise: 0.5},
		},
		Stability: 0.70,
	},
	"contaminated": {
		Channels: map[models.Parameter]channelParams{
			models.ParamTDS:             {Base: 900, Noise: 100},
			models.ParamPH:              {Base: 5.2, Noise: 0.4},
			models.ParamTurbidity:       {Base: 15, Noise: 5},
			models.ParamTemperature:     {Base: 32, Noise: 3},
			models.ParamDissolvedOxygen: {Base: 3.0, Noise: 0.8},
		},
		Stability: 0.50,
	},
	"sensor_error": {
		Channels: map[models.Parameter]channelParams{
			models.ParamTDS:             {Base: 500, Noise: 200},
			models.ParamPH:              {Base: 7.0, Noise: 1.5},
			models.ParamTurbidity:       {Base: 5, Noise: 4},
			models.ParamTemperature:     {Base: 25, Noise: 10},
			models.ParamDissolvedOxygen: {Base: 6.0, Noise: 2.5},
		},
		Stability: 0.20,
	},
}

// ScenarioNames lists the available scenario names.
func ScenarioNames() []string {
	names := make([]string, 0, len(Scenarios))
	for name := range Scenarios {
		names = append(names, name)
	}
	return names
}

// SimulatedSource generates noisy readings for one parameter. Raw readings
// may go non-physical (negative) on noisy scenarios; the burst sampler is
// responsible for clamping.
type SimulatedSource struct {
	param  models.Parameter
	params channelParams
	drift  float64 // noise stddev scaled by scenario instability
	offset float64 // calibration offset added to every reading

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedSource builds a source for one parameter of a scenario.
// A non-zero seed makes the source deterministic.
func NewSimulatedSource(param models.Parameter, scenario Scenario, seed int64) (*SimulatedSource, error) {
	cp, ok := scenario.Channels[param]
	if !ok {
		return nil, fmt.Errorf("scenario has no channel for parameter %s", param)
	}

	src := rand.NewSource(seed)
	if seed == 0 {
		src = rand.NewSource(rand.Int63())
	}

	return &SimulatedSource{
		param:  param,
		params: cp,
		drift:  cp.Noise * (1 - scenario.Stability),
		rng:    rand.New(src),
	}, nil
}

func (s *SimulatedSource) Parameter() models.Parameter { return s.param }

func (s *SimulatedSource) Read() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Base + s.rng.NormFloat64()*s.params.Noise + s.rng.NormFloat64()*s.drift + s.offset
}

// SetOffset applies a calibration offset to future readings.
func (s *SimulatedSource) SetOffset(offset float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = offset
}

// Manager owns the per-parameter source set for one device.
type Manager struct {
	sources map[models.Parameter]Source
}

// AnalysisParameters lists the parameters sampled in one analysis cycle,
// in wire order.
var AnalysisParameters = []models.Parameter{
	models.ParamTDS,
	models.ParamPH,
	models.ParamTurbidity,
	models.ParamTemperature,
	models.ParamDissolvedOxygen,
}

// NewSimulatedManager builds a full simulated source set for a named
// scenario. Each parameter gets its own generator so concurrent Tri-Checks
// on different parameters stay independent.
func NewSimulatedManager(scenarioName string, seed int64) (*Manager, error) {
	scenario, ok := Scenarios[scenarioName]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownScenario, scenarioName, ScenarioNames())
	}

	sources := make(map[models.Parameter]Source, len(AnalysisParameters))
	for i, param := range AnalysisParameters {
		childSeed := seed
		if seed != 0 {
			childSeed = seed + int64(i)
		}
		src, err := NewSimulatedSource(param, scenario, childSeed)
		if err != nil {
			return nil, err
		}
		sources[param] = src
	}

	return &Manager{sources: sources}, nil
}

// NewManager wraps an explicit source set, e.g. real hardware channels.
func NewManager(sources map[models.Parameter]Source) *Manager {
	return &Manager{sources: sources}
}

// Source returns the source for a parameter.
func (m *Manager) Source(param models.Parameter) (Source, error) {
	src, ok := m.sources[param]
	if !ok {
		return nil, fmt.Errorf("no source configured for parameter %s", param)
	}
	return src, nil
}
