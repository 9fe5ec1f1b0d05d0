// Package scoring computes the Jal-Score: a trust-weighted 0-100 composite
// of per-parameter sub-scores and sensor stability, classified into a
// categorical verdict.
package scoring

import (
	"math"

	"aquamind/internal/config"
	"aquamind/internal/models"
)

// Verdict thresholds are fixed and non-configurable; only the sub-score
// shapes and penalty constants are tunable policy.
const (
	safeThreshold       = 80
	acceptableThreshold = 60
	cautionThreshold    = 40
)

// pH penalty slopes, per unit of distance from optimal. The slope steepens
// once the value leaves the safe band.
const (
	phInsideSlope  = 25.0
	phOutsideSlope = 50.0
)

// Inputs are the burst means and aggregate stability feeding one score.
type Inputs struct {
	TDS             float64
	PH              float64
	Turbidity       float64
	DissolvedOxygen float64
	Stability       float64 // 0-100 aggregate of the per-parameter stabilities
}

// Breakdown records how a Jal-Score was assembled, for diagnostics and
// transport.
type Breakdown struct {
	TDSScore        float64 `json:"tds_score"`
	PHScore         float64 `json:"ph_score"`
	TurbidityScore  float64 `json:"turbidity_score"`
	DOScore         float64 `json:"do_score"`
	WeightedScore   float64 `json:"weighted_score"`
	StabilityFactor float64 `json:"stability_factor"`
	JalScore        int     `json:"jal_score"`
}

// Engine scores readings against a profile's thresholds and weights.
type Engine struct {
	cfg config.ScoringConfig
}

// NewEngine builds a scoring engine from the scoring policy.
func NewEngine(cfg config.ScoringConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Score computes the weighted Jal-Score for one set of burst means under
// the active profile. The stability term is counted twice on purpose: once
// inside the weighted sum and again as a multiplicative penalty when the
// aggregate falls below the trust thresholds, so an unreliable reading is
// penalized both in its contribution and in the overall confidence.
func (e *Engine) Score(in Inputs, p *models.GeoProfile) Breakdown {
	b := Breakdown{
		TDSScore:       TDSScore(in.TDS, p.Thresholds),
		PHScore:        e.PHScore(in.PH),
		TurbidityScore: TurbidityScore(in.Turbidity, p.Thresholds),
		DOScore:        DissolvedOxygenScore(in.DissolvedOxygen),
	}

	w := p.Weights
	b.WeightedScore = b.TDSScore*w.TDS +
		b.PHScore*w.PH +
		b.TurbidityScore*w.Turbidity +
		b.DOScore*w.DissolvedOxygen +
		clamp(in.Stability)*w.Stability

	b.StabilityFactor = e.stabilityFactor(in.Stability)
	b.JalScore = int(math.Round(clamp(b.WeightedScore * b.StabilityFactor)))

	return b
}

func (e *Engine) stabilityFactor(stability float64) float64 {
	switch {
	case stability < e.cfg.VeryLowStability:
		return e.cfg.HarshPenaltyFactor
	case stability < e.cfg.LowStability:
		return e.cfg.LowPenaltyFactor
	default:
		return 1.0
	}
}

// TDSScore is 100 at or below the safe threshold, decreasing linearly to 0
// at the danger threshold.
func TDSScore(ppm float64, t models.Thresholds) float64 {
	return rampDown(ppm, t.TDSSafe, t.TDSDanger)
}

// TurbidityScore mirrors TDS: 100 at or below safe, linear to 0 at danger.
func TurbidityScore(ntu float64, t models.Thresholds) float64 {
	return rampDown(ntu, t.TurbiditySafe, t.TurbidityDanger)
}

// PHScore peaks at the configured optimal pH with a linear penalty per unit
// of distance inside the safe band and a steeper penalty outside it.
func (e *Engine) PHScore(ph float64) float64 {
	dist := math.Abs(ph - e.cfg.PHOptimal)

	if ph >= e.cfg.PHSafeLow && ph <= e.cfg.PHSafeHigh {
		return clamp(100 - dist*phInsideSlope)
	}

	var edge float64
	if ph < e.cfg.PHSafeLow {
		edge = e.cfg.PHSafeLow
	} else {
		edge = e.cfg.PHSafeHigh
	}

	edgeScore := clamp(100 - math.Abs(edge-e.cfg.PHOptimal)*phInsideSlope)
	outside := math.Abs(ph - edge)
	return clamp(edgeScore - outside*phOutsideSlope)
}

// DissolvedOxygenScore uses banded ranges rather than a linear ramp: both
// too-low and too-high DO indicate different failure modes (hypoxia vs.
// supersaturation from algal activity).
func DissolvedOxygenScore(mgL float64) float64 {
	switch {
	case mgL < 3:
		return 10 // hypoxic
	case mgL < 5:
		return 40
	case mgL < 6.5:
		return 70
	case mgL <= 8:
		return 100 // optimal band
	case mgL <= 10:
		return 80
	default:
		return 50 // supersaturated
	}
}

// VerdictForScore maps a final score to its verdict. Verdict is a pure
// function of the score; it is never set independently.
func VerdictForScore(score int) models.Verdict {
	switch {
	case score >= safeThreshold:
		return models.VerdictSafe
	case score >= acceptableThreshold:
		return models.VerdictAcceptable
	case score >= cautionThreshold:
		return models.VerdictCaution
	default:
		return models.VerdictUnsafe
	}
}

// rampDown scores 100 at or below safe, 0 at or beyond danger, linear in
// between.
func rampDown(value, safe, danger float64) float64 {
	if value <= safe {
		return 100
	}
	if value >= danger {
		return 0
	}
	return clamp(100 * (danger - value) / (danger - safe))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
