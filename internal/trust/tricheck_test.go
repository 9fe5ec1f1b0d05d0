package trust

import (
	"math"
	"testing"
	"time"

	"aquamind/internal/config"
	"aquamind/internal/models"
)

// scriptedSource replays a fixed sequence of readings, cycling when
// exhausted.
type scriptedSource struct {
	param  models.Parameter
	values []float64
	i      int
}

func (s *scriptedSource) Parameter() models.Parameter { return s.param }

func (s *scriptedSource) Read() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

func fastSampling(bursts, samples int) config.SamplingConfig {
	return config.SamplingConfig{
		Bursts:          bursts,
		SamplesPerBurst: samples,
		StabilityScale:  5,
	}
}

func TestSampleConstantSource(t *testing.T) {
	tc := NewTriCheck(fastSampling(3, 5))
	src := &scriptedSource{param: models.ParamTDS, values: []float64{250}}

	result := tc.Sample(src)

	if result.Parameter != models.ParamTDS {
		t.Errorf("Expected parameter tds, got %s", result.Parameter)
	}
	if result.Mean != 250 {
		t.Errorf("Expected mean 250, got %f", result.Mean)
	}
	if result.Stability != 100 {
		t.Errorf("Expected stability 100 for zero variance, got %f", result.Stability)
	}
	if len(result.BurstMeans) != 3 {
		t.Errorf("Expected 3 burst means, got %d", len(result.BurstMeans))
	}
	if src.i != 15 {
		t.Errorf("Expected 15 reads (3 bursts x 5 samples), got %d", src.i)
	}
}

func TestSampleKnownVariance(t *testing.T) {
	// One burst of four samples alternating 90/110: mean 100, sample
	// stddev 11.547, CV 11.547%, stability 100 - 11.547*5 = 42.3.
	tc := NewTriCheck(fastSampling(1, 4))
	src := &scriptedSource{param: models.ParamPH, values: []float64{90, 110}}

	result := tc.Sample(src)

	if result.Mean != 100 {
		t.Errorf("Expected mean 100, got %f", result.Mean)
	}
	if result.Stability != 42.3 {
		t.Errorf("Expected stability 42.3, got %f", result.Stability)
	}
}

func TestSampleClampsNegativeReadings(t *testing.T) {
	tc := NewTriCheck(fastSampling(2, 3))
	src := &scriptedSource{param: models.ParamTurbidity, values: []float64{-5}}

	result := tc.Sample(src)

	if result.Mean != 0 {
		t.Errorf("Expected negative readings clamped to mean 0, got %f", result.Mean)
	}
	// Non-positive mean yields CV 0, which reads as fully stable.
	if result.Stability != 100 {
		t.Errorf("Expected stability 100 at zero mean, got %f", result.Stability)
	}
}

func TestSampleStabilityFloor(t *testing.T) {
	cfg := fastSampling(1, 4)
	cfg.StabilityFloor = 20
	tc := NewTriCheck(cfg)

	// Wild swings drive the raw stability far below zero.
	src := &scriptedSource{param: models.ParamTDS, values: []float64{10, 500}}

	result := tc.Sample(src)

	if result.Stability != 20 {
		t.Errorf("Expected stability clamped to floor 20, got %f", result.Stability)
	}
}

func TestNoisierSourceScoresLowerStability(t *testing.T) {
	tc := NewTriCheck(fastSampling(2, 4))

	quiet := tc.Sample(&scriptedSource{param: models.ParamTDS, values: []float64{99, 101}})
	noisy := tc.Sample(&scriptedSource{param: models.ParamTDS, values: []float64{80, 120}})

	if noisy.Stability >= quiet.Stability {
		t.Errorf("Expected noisier source to score lower stability: noisy=%f quiet=%f",
			noisy.Stability, quiet.Stability)
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	tests := []struct {
		name   string
		mean   float64
		stdDev float64
		want   float64
	}{
		{
			name:   "ten percent variation",
			mean:   100,
			stdDev: 10,
			want:   10,
		},
		{
			name:   "zero mean",
			mean:   0,
			stdDev: 5,
			want:   0,
		},
		{
			name:   "negative mean",
			mean:   -10,
			stdDev: 5,
			want:   0,
		},
		{
			name:   "zero deviation",
			mean:   50,
			stdDev: 0,
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoefficientOfVariation(tt.mean, tt.stdDev)
			if got != tt.want {
				t.Errorf("CoefficientOfVariation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDuration(t *testing.T) {
	tc := NewTriCheck(config.SamplingConfig{
		Bursts:          3,
		SamplesPerBurst: 5,
		SampleDelayMs:   10,
		BurstDelayMs:    200,
		StabilityScale:  5,
	})

	want := 550 * time.Millisecond
	if got := tc.Duration(); got != want {
		t.Errorf("Duration() = %v, want %v", got, want)
	}
}

func TestCalculateStdDevSample(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean := calculateMean(values)
	got := calculateStdDev(values, mean)

	// Sample (n-1) standard deviation of the classic sequence.
	want := 2.13809
	if math.Abs(got-want) > 0.0001 {
		t.Errorf("calculateStdDev() = %f, want %f", got, want)
	}
}

func TestCalculateStdDevDegenerate(t *testing.T) {
	if got := calculateStdDev([]float64{5}, 5); got != 0 {
		t.Errorf("Expected 0 for single sample, got %f", got)
	}
	if got := calculateStdDev(nil, 0); got != 0 {
		t.Errorf("Expected 0 for empty input, got %f", got)
	}
}
