package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	instance *Config
	once     sync.Once
)

// SamplingConfig controls the Tri-Check burst sampler.
type SamplingConfig struct {
	Bursts          int     `yaml:"bursts"`
	SamplesPerBurst int     `yaml:"samples_per_burst"`
	SampleDelayMs   int     `yaml:"sample_delay_ms"`
	BurstDelayMs    int     `yaml:"burst_delay_ms"`
	StabilityScale  float64 `yaml:"stability_scale"` // penalty per CV percent
	StabilityFloor  float64 `yaml:"stability_floor"`
	TrendWindow     int     `yaml:"trend_window"` // analyses kept for drift detection
}

// ScoringConfig carries the tunable scoring policy constants. Verdict
// thresholds are fixed and live in the scoring package.
type ScoringConfig struct {
	PHOptimal          float64 `yaml:"ph_optimal"`
	PHSafeLow          float64 `yaml:"ph_safe_low"`
	PHSafeHigh         float64 `yaml:"ph_safe_high"`
	LowStability       float64 `yaml:"low_stability"`      // below this, mild penalty
	VeryLowStability   float64 `yaml:"very_low_stability"` // below this, harsh penalty
	LowPenaltyFactor   float64 `yaml:"low_penalty_factor"` // multiplier at low stability
	HarshPenaltyFactor float64 `yaml:"harsh_penalty_factor"`
}

// SafetyConfig carries the absolute override ceilings, independent of any
// profile's weighting policy.
type SafetyConfig struct {
	PHMin            float64 `yaml:"ph_min"`
	PHMax            float64 `yaml:"ph_max"`
	TDSCeiling       float64 `yaml:"tds_ceiling"`
	TurbidityCeiling float64 `yaml:"turbidity_ceiling"`
	StabilityFloor   float64 `yaml:"stability_floor"`
	ScoreCap         int     `yaml:"score_cap"`
}

// Config - loaded once per process via Load.
type Config struct {
	Device struct {
		Name            string `yaml:"name"`
		CooldownSeconds int    `yaml:"cooldown_seconds"`
		IntervalSeconds int    `yaml:"interval_seconds"`
	} `yaml:"device"`
	Sampling SamplingConfig `yaml:"sampling"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Safety   SafetyConfig   `yaml:"safety"`
	Profiles struct {
		Path    string `yaml:"path"`
		Default string `yaml:"default"`
		// Explicit profile selection; overrides geolocation when set.
		Override string `yaml:"override"`
	} `yaml:"profiles"`
	Sensors struct {
		Scenario string `yaml:"scenario"`
		Seed     int64  `yaml:"seed"`
	} `yaml:"sensors"`
	Weather struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"weather"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	Redis struct {
		Addr          string `yaml:"addr"`
		Password      string `yaml:"password"`
		DB            int    `yaml:"db"`
		ResultStream  string `yaml:"result_stream"`
		CommandStream string `yaml:"command_stream"`
	} `yaml:"redis"`
}

func Load(configPath string) (*Config, error) {
	var err error
	once.Do(func() {
		instance = &Config{}

		data, readErr := os.ReadFile(configPath)
		if readErr != nil {
			err = fmt.Errorf("failed to read config file %s: %w", configPath, readErr)
			return
		}

		if parseErr := yaml.Unmarshal(data, instance); parseErr != nil {
			err = fmt.Errorf("failed to parse config: %w", parseErr)
			return
		}

		instance.applyDefaults()

		if validateErr := instance.validate(); validateErr != nil {
			err = validateErr
			return
		}
	})

	return instance, err
}

func Get() *Config {
	if instance == nil {
		panic("config not loaded - call config.Load() first")
	}
	return instance
}

func (c *Config) applyDefaults() {
	if c.Device.Name == "" {
		c.Device.Name = "aquamind"
	}
	if c.Device.CooldownSeconds == 0 {
		c.Device.CooldownSeconds = 5
	}
	if c.Sampling.Bursts == 0 {
		c.Sampling.Bursts = 3
	}
	if c.Sampling.SamplesPerBurst == 0 {
		c.Sampling.SamplesPerBurst = 5
	}
	if c.Sampling.SampleDelayMs == 0 {
		c.Sampling.SampleDelayMs = 10
	}
	if c.Sampling.BurstDelayMs == 0 {
		c.Sampling.BurstDelayMs = 200
	}
	if c.Sampling.StabilityScale == 0 {
		c.Sampling.StabilityScale = 5
	}
	if c.Sampling.TrendWindow == 0 {
		c.Sampling.TrendWindow = 10
	}
	if c.Scoring.PHOptimal == 0 {
		c.Scoring.PHOptimal = 7.2
	}
	if c.Scoring.PHSafeLow == 0 {
		c.Scoring.PHSafeLow = 6.5
	}
	if c.Scoring.PHSafeHigh == 0 {
		c.Scoring.PHSafeHigh = 8.5
	}
	if c.Scoring.LowStability == 0 {
		c.Scoring.LowStability = 70
	}
	if c.Scoring.VeryLowStability == 0 {
		c.Scoring.VeryLowStability = 50
	}
	if c.Scoring.LowPenaltyFactor == 0 {
		c.Scoring.LowPenaltyFactor = 0.9
	}
	if c.Scoring.HarshPenaltyFactor == 0 {
		c.Scoring.HarshPenaltyFactor = 0.8
	}
	if c.Safety.PHMin == 0 {
		c.Safety.PHMin = 4
	}
	if c.Safety.PHMax == 0 {
		c.Safety.PHMax = 10
	}
	if c.Safety.TDSCeiling == 0 {
		c.Safety.TDSCeiling = 800
	}
	if c.Safety.TurbidityCeiling == 0 {
		c.Safety.TurbidityCeiling = 8
	}
	if c.Safety.StabilityFloor == 0 {
		c.Safety.StabilityFloor = 40
	}
	if c.Safety.ScoreCap == 0 {
		c.Safety.ScoreCap = 30
	}
	if c.Profiles.Path == "" {
		c.Profiles.Path = "./profiles.yaml"
	}
	if c.Sensors.Scenario == "" {
		c.Sensors.Scenario = "tap_water"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Redis.ResultStream == "" {
		c.Redis.ResultStream = "analysis_results"
	}
	if c.Redis.CommandStream == "" {
		c.Redis.CommandStream = "device_commands"
	}
}

func (c *Config) validate() error {
	if c.Profiles.Default == "" {
		return fmt.Errorf("profiles.default cannot be empty")
	}
	if c.Sampling.Bursts < 1 || c.Sampling.SamplesPerBurst < 1 {
		return fmt.Errorf("sampling.bursts and sampling.samples_per_burst must be at least 1")
	}
	if c.Sampling.StabilityFloor < 0 || c.Sampling.StabilityFloor > 100 {
		return fmt.Errorf("sampling.stability_floor must be within [0,100]")
	}
	if c.Scoring.PHSafeLow >= c.Scoring.PHSafeHigh {
		return fmt.Errorf("scoring.ph_safe_low must be below scoring.ph_safe_high")
	}
	if c.Safety.PHMin >= c.Safety.PHMax {
		return fmt.Errorf("safety.ph_min must be below safety.ph_max")
	}
	return nil
}
