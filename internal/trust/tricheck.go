// Package trust implements the Tri-Check burst sampler, the device's sole
// defense against transient sensor noise. Raw point readings are never
// trusted directly; every scored value is a grand mean over several bursts
// of samples, paired with a stability score derived from sample variance.
package trust

import (
	"math"
	"time"

	"aquamind/internal/config"
	"aquamind/internal/models"
	"aquamind/internal/sensor"
)

// TriCheck runs burst sampling against a single sensor source. A sampling
// run blocks for the configured inter-sample and inter-burst delays; the
// delay is part of the noise rejection design, not incidental latency.
type TriCheck struct {
	bursts          int
	samplesPerBurst int
	sampleDelay     time.Duration
	burstDelay      time.Duration
	stabilityScale  float64
	stabilityFloor  float64
}

// NewTriCheck builds a sampler from the sampling policy.
func NewTriCheck(cfg config.SamplingConfig) *TriCheck {
	return &TriCheck{
		bursts:          cfg.Bursts,
		samplesPerBurst: cfg.SamplesPerBurst,
		sampleDelay:     time.Duration(cfg.SampleDelayMs) * time.Millisecond,
		burstDelay:      time.Duration(cfg.BurstDelayMs) * time.Millisecond,
		stabilityScale:  cfg.StabilityScale,
		stabilityFloor:  cfg.StabilityFloor,
	}
}

// Duration returns the fixed wall time one sampling run blocks for.
func (t *TriCheck) Duration() time.Duration {
	perBurst := time.Duration(t.samplesPerBurst) * t.sampleDelay
	return time.Duration(t.bursts)*perBurst + time.Duration(t.bursts-1)*t.burstDelay
}

// Sample collects bursts from the source and derives the mean and the
// stability score. The source is exclusively owned for the duration of
// the run. Sampling never fails: a malfunctioning sensor surfaces as
// abnormally low stability, which downstream scoring treats as evidence
// of unreliability rather than a fatal error.
func (t *TriCheck) Sample(src sensor.Source) models.BurstResult {
	samples := make([]float64, 0, t.bursts*t.samplesPerBurst)
	burstMeans := make([]float64, 0, t.bursts)

	for b := 0; b < t.bursts; b++ {
		burstSum := 0.0
		for s := 0; s < t.samplesPerBurst; s++ {
			value := src.Read()
			if value < 0 {
				// Non-physical reading, clamp before aggregation.
				value = 0
			}
			samples = append(samples, value)
			burstSum += value
			time.Sleep(t.sampleDelay)
		}
		burstMeans = append(burstMeans, burstSum/float64(t.samplesPerBurst))

		if b < t.bursts-1 {
			time.Sleep(t.burstDelay)
		}
	}

	mean := calculateMean(samples)
	stdDev := calculateStdDev(samples, mean)

	return models.BurstResult{
		Parameter:  src.Parameter(),
		Mean:       mean,
		Stability:  t.stabilityFromCV(CoefficientOfVariation(mean, stdDev)),
		BurstMeans: burstMeans,
	}
}

// CoefficientOfVariation is the sample standard deviation relative to the
// mean, in percent. Zero when the mean is non-positive to avoid division
// by zero on empty or fully clamped channels.
func CoefficientOfVariation(mean, stdDev float64) float64 {
	if mean <= 0 {
		return 0
	}
	return stdDev / mean * 100
}

// stabilityFromCV maps variation to a 0-100 confidence score, clamped to
// the configured floor and to 100 at zero variation. The scale constant
// controls how punishing noise is.
func (t *TriCheck) stabilityFromCV(cv float64) float64 {
	stability := 100 - cv*t.stabilityScale
	if stability < t.stabilityFloor {
		stability = t.stabilityFloor
	}
	if stability > 100 {
		stability = 100
	}
	return math.Round(stability*10) / 10
}

// calculateMean calculates the mean of values
func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateStdDev calculates the sample standard deviation of values
func calculateStdDev(values []float64, mean float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}
