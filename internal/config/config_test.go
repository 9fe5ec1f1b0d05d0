package config

import (
	"os"
	"sync"
	"testing"
)

func loadTestConfig(t *testing.T, content string) (*Config, error) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	tmpFile.Close()

	instance = nil
	once = *new(sync.Once)

	return Load(tmpFile.Name())
}

func TestLoad(t *testing.T) {
	tempConfig := `device:
  name: "aquamind-test"
  cooldown_seconds: 3
sampling:
  bursts: 2
  samples_per_burst: 4
scoring:
  ph_optimal: 7.0
profiles:
  default: "JABALPUR"
redis:
  addr: "localhost:6379"
  result_stream: "analysis_results"
`
	cfg, err := loadTestConfig(t, tempConfig)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	if cfg.Device.Name != "aquamind-test" {
		t.Errorf("Expected device name 'aquamind-test', got '%s'", cfg.Device.Name)
	}

	if cfg.Device.CooldownSeconds != 3 {
		t.Errorf("Expected cooldown 3, got %d", cfg.Device.CooldownSeconds)
	}

	if cfg.Sampling.Bursts != 2 {
		t.Errorf("Expected 2 bursts, got %d", cfg.Sampling.Bursts)
	}

	if cfg.Scoring.PHOptimal != 7.0 {
		t.Errorf("Expected ph_optimal 7.0, got %f", cfg.Scoring.PHOptimal)
	}

	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Expected redis addr 'localhost:6379', got '%s'", cfg.Redis.Addr)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := loadTestConfig(t, `profiles:
  default: "JABALPUR"
`)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Sampling.Bursts != 3 {
		t.Errorf("Expected default 3 bursts, got %d", cfg.Sampling.Bursts)
	}
	if cfg.Sampling.SamplesPerBurst != 5 {
		t.Errorf("Expected default 5 samples per burst, got %d", cfg.Sampling.SamplesPerBurst)
	}
	if cfg.Sampling.StabilityScale != 5 {
		t.Errorf("Expected default stability scale 5, got %f", cfg.Sampling.StabilityScale)
	}
	if cfg.Scoring.PHOptimal != 7.2 {
		t.Errorf("Expected default ph_optimal 7.2, got %f", cfg.Scoring.PHOptimal)
	}
	if cfg.Safety.TDSCeiling != 800 {
		t.Errorf("Expected default tds ceiling 800, got %f", cfg.Safety.TDSCeiling)
	}
	if cfg.Safety.ScoreCap != 30 {
		t.Errorf("Expected default score cap 30, got %d", cfg.Safety.ScoreCap)
	}
	if cfg.Redis.ResultStream != "analysis_results" {
		t.Errorf("Expected default result stream, got '%s'", cfg.Redis.ResultStream)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected default server addr ':8080', got '%s'", cfg.Server.Addr)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "empty default profile",
			content: "device:\n  name: x\n",
		},
		{
			name: "inverted ph band",
			content: `profiles:
  default: "JABALPUR"
scoring:
  ph_safe_low: 9.0
  ph_safe_high: 6.0
`,
		},
		{
			name: "inverted safety ph bounds",
			content: `profiles:
  default: "JABALPUR"
safety:
  ph_min: 11
  ph_max: 10
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadTestConfig(t, tt.content); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	instance = nil
	once = *new(sync.Once)

	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing config file, got nil")
	}
}
