package trust

import (
	"math"
	"sync"

	"aquamind/internal/models"
)

// cvStableLimit is the coefficient of variation (percent) under which a
// reading history counts as stable.
const cvStableLimit = 15.0

// slopeStableLimit is the absolute per-reading slope under which a trend
// counts as flat.
const slopeStableLimit = 0.5

// Trend describes how a parameter's recent means are moving.
type Trend struct {
	Direction string  `json:"direction"` // "stable", "rising", "falling" or "unknown"
	Magnitude float64 `json:"magnitude"` // absolute slope per reading
	CVPercent float64 `json:"cv_percent"`
	Stable    bool    `json:"stable"`
	Samples   int     `json:"samples"`
}

// Tracker keeps a sliding window of recent burst means per parameter and
// detects sensor drift across analyses. It complements the Tri-Check:
// the Tri-Check judges noise within one reading, the tracker judges
// movement between readings.
type Tracker struct {
	windowSize int

	mu      sync.Mutex
	history map[models.Parameter][]float64
}

// NewTracker builds a tracker keeping the last windowSize means.
func NewTracker(windowSize int) *Tracker {
	if windowSize < 3 {
		windowSize = 3
	}
	return &Tracker{
		windowSize: windowSize,
		history:    make(map[models.Parameter][]float64),
	}
}

// Add appends a reading to a parameter's history, evicting the oldest
// once the window is full.
func (t *Tracker) Add(param models.Parameter, value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := append(t.history[param], value)
	if len(h) > t.windowSize {
		h = h[1:]
	}
	t.history[param] = h
}

// Trend analyzes a parameter's history. Fewer than three samples yield an
// unknown, stable trend.
func (t *Tracker) Trend(param models.Parameter) Trend {
	t.mu.Lock()
	values := append([]float64(nil), t.history[param]...)
	t.mu.Unlock()

	if len(values) < 3 {
		return Trend{Direction: "unknown", Stable: true, Samples: len(values)}
	}

	slope := linearSlope(values)

	direction := "stable"
	if slope > slopeStableLimit {
		direction = "rising"
	} else if slope < -slopeStableLimit {
		direction = "falling"
	}

	mean := calculateMean(values)
	cv := 0.0
	if mean != 0 {
		variance := 0.0
		for _, v := range values {
			variance += (v - mean) * (v - mean)
		}
		variance /= float64(len(values))
		cv = math.Sqrt(variance) / math.Abs(mean) * 100
	}

	return Trend{
		Direction: direction,
		Magnitude: math.Abs(slope),
		CVPercent: math.Round(cv*10) / 10,
		Stable:    cv < cvStableLimit,
		Samples:   len(values),
	}
}

// Clear drops all history, e.g. after a probe cleaning.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.history = make(map[models.Parameter][]float64)
	t.mu.Unlock()
}

// linearSlope fits a least-squares line through the values indexed by
// reading number and returns its slope.
func linearSlope(values []float64) float64 {
	n := len(values)
	xMean := float64(n-1) / 2
	yMean := calculateMean(values)

	numerator := 0.0
	denominator := 0.0
	for i, v := range values {
		dx := float64(i) - xMean
		numerator += dx * (v - yMean)
		denominator += dx * dx
	}

	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
