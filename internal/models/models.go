package models

import (
	"fmt"
	"time"
)

// Parameter identifies one measured water quality parameter.
type Parameter string

const (
	ParamTDS             Parameter = "tds"
	ParamPH              Parameter = "ph"
	ParamTurbidity       Parameter = "turbidity"
	ParamTemperature     Parameter = "temperature"
	ParamDissolvedOxygen Parameter = "dissolved_oxygen"
)

// Unit returns the physical unit a parameter is measured in.
func (p Parameter) Unit() string {
	switch p {
	case ParamTDS:
		return "ppm"
	case ParamPH:
		return "pH"
	case ParamTurbidity:
		return "NTU"
	case ParamTemperature:
		return "°C"
	case ParamDissolvedOxygen:
		return "mg/L"
	}
	return ""
}

// Verdict classifies the final water safety outcome.
type Verdict string

const (
	VerdictSafe       Verdict = "SAFE"
	VerdictAcceptable Verdict = "ACCEPTABLE"
	VerdictCaution    Verdict = "CAUTION"
	VerdictUnsafe     Verdict = "UNSAFE"
)

// Severity orders verdicts from best (0) to worst (3).
func (v Verdict) Severity() int {
	switch v {
	case VerdictSafe:
		return 0
	case VerdictAcceptable:
		return 1
	case VerdictCaution:
		return 2
	case VerdictUnsafe:
		return 3
	}
	return 3
}

// Worse returns the more severe of two verdicts.
func (v Verdict) Worse(other Verdict) Verdict {
	if other.Severity() > v.Severity() {
		return other
	}
	return v
}

// Escalate moves a verdict one severity level toward UNSAFE.
func (v Verdict) Escalate() Verdict {
	switch v {
	case VerdictSafe:
		return VerdictAcceptable
	case VerdictAcceptable:
		return VerdictCaution
	default:
		return VerdictUnsafe
	}
}

// Season is the active time-of-year context for an analysis session.
type Season string

const (
	SeasonWinter  Season = "winter"
	SeasonSummer  Season = "summer"
	SeasonMonsoon Season = "monsoon"
	SeasonNormal  Season = "normal"
)

// ParameterReading is a single averaged reading for one parameter.
type ParameterReading struct {
	Parameter Parameter `json:"parameter"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
}

// BurstResult is the output of one Tri-Check burst sampling run.
// BurstMeans are diagnostic only; Mean and Stability feed scoring.
type BurstResult struct {
	Parameter  Parameter `json:"parameter"`
	Mean       float64   `json:"mean"`
	Stability  float64   `json:"stability"` // 0-100
	BurstMeans []float64 `json:"burst_means"`
}

// Reading converts a burst result into its immutable parameter reading.
func (b BurstResult) Reading() ParameterReading {
	return ParameterReading{
		Parameter: b.Parameter,
		Value:     b.Mean,
		Unit:      b.Parameter.Unit(),
	}
}

// Thresholds are the region specific safe/danger bounds for the linearly
// scored parameters.
type Thresholds struct {
	TDSSafe         float64 `yaml:"tds_safe" json:"tds_safe"`
	TDSDanger       float64 `yaml:"tds_danger" json:"tds_danger"`
	TurbiditySafe   float64 `yaml:"turbidity_safe" json:"turbidity_safe"`
	TurbidityDanger float64 `yaml:"turbidity_danger" json:"turbidity_danger"`
}

// Weights are the per-parameter contributions to the Jal-Score. They must
// sum to 1.0 including the stability weight.
type Weights struct {
	TDS             float64 `yaml:"tds" json:"tds"`
	PH              float64 `yaml:"ph" json:"ph"`
	Turbidity       float64 `yaml:"turbidity" json:"turbidity"`
	DissolvedOxygen float64 `yaml:"dissolved_oxygen" json:"dissolved_oxygen"`
	Stability       float64 `yaml:"stability" json:"stability"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.TDS + w.PH + w.Turbidity + w.DissolvedOxygen + w.Stability
}

// Coordinate is a geographic reference point.
type Coordinate struct {
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
}

// GeoProfile holds region specific thresholds and weights. Profiles are
// read-only during scoring; selection happens once per analysis session.
type GeoProfile struct {
	Name           string            `yaml:"name" json:"name"`
	Zone           string            `yaml:"zone" json:"zone"`
	Location       *Coordinate       `yaml:"location" json:"location,omitempty"`
	Thresholds     Thresholds        `yaml:"thresholds" json:"thresholds"`
	Weights        Weights           `yaml:"weights" json:"weights"`
	SeasonalAlerts map[Season]string `yaml:"seasonal_alerts" json:"seasonal_alerts,omitempty"`
}

// SeasonContext is the weather/time-of-year context derived once per
// analysis session.
type SeasonContext struct {
	Season             Season  `json:"season"`
	AmbientTemperature float64 `json:"ambient_temperature"`
	IsRaining          bool    `json:"is_raining"`
	WeatherCode        int     `json:"weather_code"`
}

// AnalysisResult is the immutable output of one complete analysis cycle.
type AnalysisResult struct {
	ID          string             `json:"id"`
	JalScore    int                `json:"jal_score"` // 0-100
	Verdict     Verdict            `json:"verdict"`
	Readings    []ParameterReading `json:"readings"`
	Stability   float64            `json:"stability"` // 0-100
	ProfileName string             `json:"profile"`
	City        string             `json:"city,omitempty"`
	Season      Season             `json:"season"`
	Alerts      []string           `json:"alerts,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}

// ReadingValue returns the value recorded for a parameter, or 0 if the
// parameter was not part of this analysis.
func (r *AnalysisResult) ReadingValue(p Parameter) float64 {
	for _, reading := range r.Readings {
		if reading.Parameter == p {
			return reading.Value
		}
	}
	return 0
}

// WireRecord flattens a result into the key-value record handed to the
// transport layer.
func (r *AnalysisResult) WireRecord() map[string]interface{} {
	return map[string]interface{}{
		"analysis_id": r.ID,
		"tds":         fmt.Sprintf("%.1f", r.ReadingValue(ParamTDS)),
		"ph":          fmt.Sprintf("%.2f", r.ReadingValue(ParamPH)),
		"turbidity":   fmt.Sprintf("%.2f", r.ReadingValue(ParamTurbidity)),
		"temperature": fmt.Sprintf("%.1f", r.ReadingValue(ParamTemperature)),
		"do":          fmt.Sprintf("%.2f", r.ReadingValue(ParamDissolvedOxygen)),
		"stability":   fmt.Sprintf("%.1f", r.Stability),
		"jal_score":   r.JalScore,
		"verdict":     string(r.Verdict),
		"profile":     r.ProfileName,
		"city":        r.City,
		"season":      string(r.Season),
		"timestamp":   r.Timestamp.UTC().Format(time.RFC3339),
	}
}
