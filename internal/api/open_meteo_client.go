package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const openMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// Weather lookups are best-effort: bounded attempts with linear backoff,
// and callers fall back to defaults when all attempts fail.
const (
	maxAttempts  = 3
	retryBackoff = 500 * time.Millisecond
)

// CurrentWeather is the slice of an Open-Meteo response the analyzer needs
// for season context.
type CurrentWeather struct {
	Time          string  `json:"time"`
	Temperature2m float64 `json:"temperature_2m"`
	Rain          float64 `json:"rain"`
	WeatherCode   int     `json:"weather_code"`
}

// IsRaining reports whether the snapshot shows active precipitation.
func (w *CurrentWeather) IsRaining() bool {
	return w.Rain > 0
}

type forecastResponse struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Current   CurrentWeather `json:"current"`
}

// OpenMeteoClient is a client for the Open-Meteo API
type OpenMeteoClient struct {
	client  *http.Client
	baseURL string
}

// NewOpenMeteoClient creates a new Open-Meteo API client
func NewOpenMeteoClient() *OpenMeteoClient {
	return &OpenMeteoClient{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: openMeteoBaseURL,
	}
}

// GetCurrentWeather fetches the current conditions for the given
// coordinates, retrying transient failures with backoff.
func (c *OpenMeteoClient) GetCurrentWeather(latitude, longitude float64) (*CurrentWeather, error) {
	url := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&current=temperature_2m,rain,weather_code&timezone=auto",
		c.baseURL, latitude, longitude)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		weather, err := c.fetch(url)
		if err == nil {
			return weather, nil
		}
		lastErr = err

		if attempt < maxAttempts {
			time.Sleep(retryBackoff * time.Duration(attempt))
		}
	}

	return nil, fmt.Errorf("weather lookup failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *OpenMeteoClient) fetch(url string) (*CurrentWeather, error) {
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var forecast forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &forecast.Current, nil
}
