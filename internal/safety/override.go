// Package safety post-processes the weighted score against absolute danger
// thresholds. The weighted formula is an average and can mask a single
// catastrophic parameter when the others look good; the override guarantees
// a minimum safety floor independent of any profile's weighting policy.
package safety

import (
	"fmt"

	"aquamind/internal/config"
	"aquamind/internal/models"
	"aquamind/internal/scoring"
)

// Rule identifiers reported in outcomes and metrics.
const (
	RulePHExtreme     = "PH_EXTREME"
	RuleTDSCeiling    = "TDS_CEILING"
	RuleTurbidity     = "TURBIDITY_CEILING"
	RuleStabilityFail = "STABILITY_LOW"
)

// Outcome is the final (score, verdict) after override, plus the rules
// that fired and their user-visible alert strings.
type Outcome struct {
	JalScore  int
	Verdict   models.Verdict
	Triggered []string
	Alerts    []string
}

// Override evaluates the absolute danger rules.
type Override struct {
	cfg config.SafetyConfig
}

// NewOverride builds an override from the safety policy.
func NewOverride(cfg config.SafetyConfig) *Override {
	return &Override{cfg: cfg}
}

// Apply checks raw parameter means (not sub-scores) against the absolute
// ceilings and returns the conservative outcome. Apply is a pure function
// of its arguments and is idempotent: re-applying it to an already capped
// score reproduces the same outcome. When several rules fire at once the
// score cap is the minimum of the applicable caps and the verdict the most
// severe one.
func (o *Override) Apply(score int, in scoring.Inputs) Outcome {
	out := Outcome{JalScore: score}
	forceUnsafe := false

	if in.PH < o.cfg.PHMin || in.PH > o.cfg.PHMax {
		forceUnsafe = true
		out.Triggered = append(out.Triggered, RulePHExtreme)
		out.Alerts = append(out.Alerts,
			fmt.Sprintf("pH %.1f is outside the potable range [%.0f, %.0f] - do not drink without treatment", in.PH, o.cfg.PHMin, o.cfg.PHMax))
	}

	if in.TDS > o.cfg.TDSCeiling {
		forceUnsafe = true
		out.Triggered = append(out.Triggered, RuleTDSCeiling)
		out.Alerts = append(out.Alerts,
			fmt.Sprintf("TDS %.0f ppm exceeds the absolute ceiling of %.0f ppm - use RO purification", in.TDS, o.cfg.TDSCeiling))
	}

	if in.Turbidity >= o.cfg.TurbidityCeiling {
		forceUnsafe = true
		out.Triggered = append(out.Triggered, RuleTurbidity)
		out.Alerts = append(out.Alerts,
			fmt.Sprintf("turbidity %.1f NTU is at or above the absolute ceiling of %.1f NTU - boil before consumption", in.Turbidity, o.cfg.TurbidityCeiling))
	}

	if forceUnsafe && out.JalScore > o.cfg.ScoreCap {
		out.JalScore = o.cfg.ScoreCap
	}

	out.Verdict = scoring.VerdictForScore(out.JalScore)
	if forceUnsafe {
		out.Verdict = out.Verdict.Worse(models.VerdictUnsafe)
	}

	// Low stability escalates by one severity level but never forces
	// UNSAFE outright: the water may be fine, the sensor is the suspect.
	if in.Stability < o.cfg.StabilityFloor {
		out.Triggered = append(out.Triggered, RuleStabilityFail)
		out.Alerts = append(out.Alerts,
			fmt.Sprintf("sensor stability %.0f%% is below %.0f%% - clean the sensor probe and retest", in.Stability, o.cfg.StabilityFloor))
		out.Verdict = out.Verdict.Escalate()
	}

	return out
}
