package analyzer

import (
	"fmt"

	"github.com/google/uuid"

	"aquamind/internal/models"
	"aquamind/internal/safety"
	"aquamind/internal/sensor"
)

// Water temperature bounds outside which the TDS sensor loses accuracy.
const (
	tempHighC = 35.0
	tempLowC  = 10.0
)

// adviceForVerdict is the user-facing action text attached to every
// result as its first alert line.
func adviceForVerdict(v models.Verdict) string {
	switch v {
	case models.VerdictSafe:
		return "water appears safe for consumption"
	case models.VerdictAcceptable:
		return "water quality is acceptable - basic filtration recommended for regular use"
	case models.VerdictCaution:
		return "water quality marginal - treatment recommended before drinking"
	default:
		return "water unsafe - do not consume without treatment"
	}
}

// temperatureAdvisory returns the advisory for water temperatures that skew
// TDS readings, or empty in the accurate range. Advisory only, the verdict
// is never affected.
func temperatureAdvisory(tempC float64) string {
	switch {
	case tempC >= tempHighC:
		return fmt.Sprintf("water temperature %.1f°C is high - cool the sample before testing for accurate TDS readings", tempC)
	case tempC < tempLowC:
		return fmt.Sprintf("water temperature %.1f°C is low - allow the sample to reach room temperature for accurate TDS readings", tempC)
	default:
		return ""
	}
}

// assembleResult packages one cycle's outputs into the immutable record
// handed to every downstream consumer.
func assembleResult(s session, bursts map[models.Parameter]models.BurstResult, stability float64, outcome safety.Outcome, driftAlerts []string) *models.AnalysisResult {
	readings := make([]models.ParameterReading, 0, len(sensor.AnalysisParameters))
	for _, param := range sensor.AnalysisParameters {
		readings = append(readings, bursts[param].Reading())
	}

	alerts := make([]string, 0, len(outcome.Alerts)+len(driftAlerts)+3)
	alerts = append(alerts, adviceForVerdict(outcome.Verdict))
	alerts = append(alerts, outcome.Alerts...)
	if advisory := temperatureAdvisory(bursts[models.ParamTemperature].Mean); advisory != "" {
		alerts = append(alerts, advisory)
	}
	alerts = append(alerts, driftAlerts...)
	if s.SeasonalAlert != "" {
		alerts = append(alerts, s.SeasonalAlert)
	}

	return &models.AnalysisResult{
		ID:          uuid.NewString(),
		JalScore:    outcome.JalScore,
		Verdict:     outcome.Verdict,
		Readings:    readings,
		Stability:   stability,
		ProfileName: s.Profile.Name,
		City:        s.City,
		Season:      s.Season.Season,
		Alerts:      alerts,
		Timestamp:   s.Timestamp,
	}
}
