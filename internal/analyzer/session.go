package analyzer

import (
	"log"
	"time"

	"aquamind/internal/models"
	"aquamind/internal/profile"
)

// session is the resolved context for one analysis cycle. It is computed
// once before sampling and never re-resolved mid-analysis, so every
// reading in the cycle is scored against the same profile.
type session struct {
	Profile       *models.GeoProfile
	City          string
	Season        models.SeasonContext
	SeasonalAlert string
	Timestamp     time.Time
}

// resolveSession determines the active profile and season context.
// Location and weather lookups are best-effort: any failure falls back to
// the configured default profile or a weather-free season, never blocking
// the analysis. The fallback is observable through the result's profile
// name.
func (a *Analyzer) resolveSession(now time.Time) session {
	s := session{Timestamp: now}

	var coord *models.Coordinate
	explicit := a.cfg.Profiles.Override

	if explicit == "" && a.locator != nil {
		detected, err := a.locator.Locate()
		if err != nil {
			log.Printf("location lookup failed, falling back to default profile: %v", err)
		} else {
			coord = &models.Coordinate{Latitude: detected.Latitude, Longitude: detected.Longitude}
			s.City = detected.City
		}
	}

	prof, err := a.registry.Resolve(explicit, coord)
	if err != nil {
		log.Printf("profile %q not resolvable, using default: %v", explicit, err)
		prof = a.registry.Default()
	}
	s.Profile = prof

	s.Season = profile.DeriveSeason(now, a.fetchWeather(coord, prof))
	s.SeasonalAlert = profile.SeasonalAlert(prof, s.Season.Season)

	return s
}

// fetchWeather pulls current conditions for the detected location, or the
// profile's reference coordinate when no fix is available. Returns nil on
// any failure.
func (a *Analyzer) fetchWeather(coord *models.Coordinate, prof *models.GeoProfile) *profile.WeatherSnapshot {
	if a.weather == nil || !a.cfg.Weather.Enabled {
		return nil
	}

	ref := coord
	if ref == nil {
		ref = prof.Location
	}
	if ref == nil {
		return nil
	}

	current, err := a.weather.GetCurrentWeather(ref.Latitude, ref.Longitude)
	if err != nil {
		log.Printf("weather lookup failed, season derived from calendar only: %v", err)
		return nil
	}

	return &profile.WeatherSnapshot{
		AmbientTemperature: current.Temperature2m,
		IsRaining:          current.IsRaining(),
		WeatherCode:        current.WeatherCode,
	}
}
