package profile

import (
	"time"

	"aquamind/internal/models"
)

// WeatherSnapshot is the best-effort weather input to season derivation.
type WeatherSnapshot struct {
	AmbientTemperature float64
	IsRaining          bool
	WeatherCode        int
}

// DeriveSeason computes the season context for one analysis session from
// the calendar month and an optional weather snapshot. Season informs
// auxiliary alert text only; thresholds are never altered by season.
func DeriveSeason(now time.Time, weather *WeatherSnapshot) models.SeasonContext {
	ctx := models.SeasonContext{Season: seasonForMonth(now.Month())}

	if weather != nil {
		ctx.AmbientTemperature = weather.AmbientTemperature
		ctx.IsRaining = weather.IsRaining
		ctx.WeatherCode = weather.WeatherCode

		// Active rain outside the calendar monsoon still means monsoon
		// conditions for sediment alerting.
		if weather.IsRaining && ctx.Season == models.SeasonNormal {
			ctx.Season = models.SeasonMonsoon
		}
	}

	return ctx
}

func seasonForMonth(m time.Month) models.Season {
	switch {
	case m >= time.June && m <= time.September:
		return models.SeasonMonsoon
	case m >= time.March && m <= time.May:
		return models.SeasonSummer
	case m >= time.November || m <= time.February:
		return models.SeasonWinter
	default:
		return models.SeasonNormal
	}
}

// SeasonalAlert returns the profile's alert text for the active season,
// empty when the profile defines none.
func SeasonalAlert(p *models.GeoProfile, season models.Season) string {
	if p == nil || p.SeasonalAlerts == nil {
		return ""
	}
	return p.SeasonalAlerts[season]
}
