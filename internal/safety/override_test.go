package safety

import (
	"testing"

	"aquamind/internal/config"
	"aquamind/internal/models"
	"aquamind/internal/scoring"
)

func testSafetyConfig() config.SafetyConfig {
	return config.SafetyConfig{
		PHMin:            4,
		PHMax:            10,
		TDSCeiling:       800,
		TurbidityCeiling: 8,
		StabilityFloor:   40,
		ScoreCap:         30,
	}
}

func benignInputs() scoring.Inputs {
	return scoring.Inputs{
		TDS:             150,
		PH:              7.2,
		Turbidity:       0.5,
		DissolvedOxygen: 7.5,
		Stability:       95,
	}
}

func TestApplyNoTrigger(t *testing.T) {
	o := NewOverride(testSafetyConfig())

	out := o.Apply(85, benignInputs())

	if out.JalScore != 85 {
		t.Errorf("Expected score unchanged at 85, got %d", out.JalScore)
	}
	if out.Verdict != models.VerdictSafe {
		t.Errorf("Expected SAFE, got %s", out.Verdict)
	}
	if len(out.Triggered) != 0 {
		t.Errorf("Expected no triggered rules, got %v", out.Triggered)
	}
	if len(out.Alerts) != 0 {
		t.Errorf("Expected no alerts, got %v", out.Alerts)
	}
}

func TestApplyForcedRules(t *testing.T) {
	o := NewOverride(testSafetyConfig())

	tests := []struct {
		name     string
		mutate   func(*scoring.Inputs)
		wantRule string
	}{
		{
			name:     "acidic ph",
			mutate:   func(in *scoring.Inputs) { in.PH = 3.5 },
			wantRule: RulePHExtreme,
		},
		{
			name:     "caustic ph",
			mutate:   func(in *scoring.Inputs) { in.PH = 10.5 },
			wantRule: RulePHExtreme,
		},
		{
			name:     "tds above ceiling",
			mutate:   func(in *scoring.Inputs) { in.TDS = 900 },
			wantRule: RuleTDSCeiling,
		},
		{
			name:     "turbidity exactly at ceiling",
			mutate:   func(in *scoring.Inputs) { in.Turbidity = 8.0 },
			wantRule: RuleTurbidity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := benignInputs()
			tt.mutate(&in)

			out := o.Apply(85, in)

			if out.JalScore != 30 {
				t.Errorf("Expected score capped at 30, got %d", out.JalScore)
			}
			if out.Verdict != models.VerdictUnsafe {
				t.Errorf("Expected UNSAFE, got %s", out.Verdict)
			}
			if len(out.Triggered) != 1 || out.Triggered[0] != tt.wantRule {
				t.Errorf("Expected triggered rules [%s], got %v", tt.wantRule, out.Triggered)
			}
			if len(out.Alerts) != 1 {
				t.Errorf("Expected one alert, got %v", out.Alerts)
			}
		})
	}
}

func TestApplyBoundariesDoNotTrigger(t *testing.T) {
	o := NewOverride(testSafetyConfig())

	tests := []struct {
		name   string
		mutate func(*scoring.Inputs)
	}{
		{
			name:   "ph at lower bound",
			mutate: func(in *scoring.Inputs) { in.PH = 4.0 },
		},
		{
			name:   "ph at upper bound",
			mutate: func(in *scoring.Inputs) { in.PH = 10.0 },
		},
		{
			name:   "tds exactly at ceiling",
			mutate: func(in *scoring.Inputs) { in.TDS = 800 },
		},
		{
			name:   "turbidity just under ceiling",
			mutate: func(in *scoring.Inputs) { in.Turbidity = 7.9 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := benignInputs()
			tt.mutate(&in)

			out := o.Apply(85, in)
			if len(out.Triggered) != 0 {
				t.Errorf("Expected no triggered rules, got %v", out.Triggered)
			}
			if out.JalScore != 85 {
				t.Errorf("Expected score unchanged, got %d", out.JalScore)
			}
		})
	}
}

func TestApplyLowStabilityEscalates(t *testing.T) {
	o := NewOverride(testSafetyConfig())

	in := benignInputs()
	in.Stability = 35

	out := o.Apply(85, in)

	if out.JalScore != 85 {
		t.Errorf("Expected score unchanged by stability rule, got %d", out.JalScore)
	}
	if out.Verdict != models.VerdictAcceptable {
		t.Errorf("Expected SAFE escalated to ACCEPTABLE, got %s", out.Verdict)
	}
	if len(out.Triggered) != 1 || out.Triggered[0] != RuleStabilityFail {
		t.Errorf("Expected triggered rules [%s], got %v", RuleStabilityFail, out.Triggered)
	}
}

func TestApplyMultipleTriggers(t *testing.T) {
	o := NewOverride(testSafetyConfig())

	in := benignInputs()
	in.PH = 3.0
	in.TDS = 900
	in.Stability = 30

	out := o.Apply(85, in)

	if out.JalScore != 30 {
		t.Errorf("Expected score capped at 30, got %d", out.JalScore)
	}
	if out.Verdict != models.VerdictUnsafe {
		t.Errorf("Expected UNSAFE, got %s", out.Verdict)
	}
	if len(out.Triggered) != 3 {
		t.Errorf("Expected 3 triggered rules, got %v", out.Triggered)
	}
}

func TestApplyKeepsScoreBelowCap(t *testing.T) {
	o := NewOverride(testSafetyConfig())

	in := benignInputs()
	in.TDS = 900

	out := o.Apply(15, in)
	if out.JalScore != 15 {
		t.Errorf("Expected score 15 untouched below the cap, got %d", out.JalScore)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	o := NewOverride(testSafetyConfig())

	in := benignInputs()
	in.Turbidity = 12
	in.Stability = 35

	first := o.Apply(85, in)
	second := o.Apply(first.JalScore, in)

	if second.JalScore != first.JalScore {
		t.Errorf("Expected idempotent score, got %d then %d", first.JalScore, second.JalScore)
	}
	if second.Verdict != first.Verdict {
		t.Errorf("Expected idempotent verdict, got %s then %s", first.Verdict, second.Verdict)
	}
}
