package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"aquamind/internal/analyzer"
	"aquamind/internal/api"
	"aquamind/internal/config"
	"aquamind/internal/profile"
	"aquamind/internal/sensor"
)

var (
	analyzeScenario string
	analyzeProfile  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a single water analysis and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildAnalyzer()
		if err != nil {
			return err
		}

		result, err := a.Analyze()
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeScenario, "scenario", "s", "", "simulation scenario override")
	analyzeCmd.Flags().StringVarP(&analyzeProfile, "profile", "p", "", "explicit geo profile override")
	rootCmd.AddCommand(analyzeCmd)
}

// buildAnalyzer wires a full analyzer from the loaded config, honoring the
// command line overrides.
func buildAnalyzer() (*analyzer.Analyzer, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if analyzeScenario != "" {
		cfg.Sensors.Scenario = analyzeScenario
	}
	if analyzeProfile != "" {
		cfg.Profiles.Override = analyzeProfile
	}

	registry, err := profile.LoadRegistry(cfg.Profiles.Path)
	if err != nil {
		return nil, err
	}

	sources, err := sensor.NewSimulatedManager(cfg.Sensors.Scenario, cfg.Sensors.Seed)
	if err != nil {
		return nil, err
	}

	var weather analyzer.WeatherProvider
	var locator analyzer.LocationProvider
	if cfg.Weather.Enabled {
		weather = api.NewOpenMeteoClient()
		locator = api.NewGeoClient()
	} else {
		log.Printf("weather provider disabled, season derived from calendar only")
	}

	return analyzer.New(cfg, sources, registry, weather, locator), nil
}
