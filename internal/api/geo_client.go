package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const geoBaseURL = "http://ip-api.com/json"

// DetectedLocation is a coarse IP-based position fix.
type DetectedLocation struct {
	Status    string  `json:"status"`
	City      string  `json:"city"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// GeoClient resolves the device's approximate location from its public IP.
// A failed lookup is expected on offline devices and must never block an
// analysis; callers fall back to the default profile.
type GeoClient struct {
	client  *http.Client
	baseURL string
}

// NewGeoClient creates a new IP geolocation client.
func NewGeoClient() *GeoClient {
	return &GeoClient{
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: geoBaseURL,
	}
}

// Locate fetches the current position fix, retrying transient failures
// with backoff.
func (c *GeoClient) Locate() (*DetectedLocation, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		loc, err := c.fetch()
		if err == nil {
			return loc, nil
		}
		lastErr = err

		if attempt < maxAttempts {
			time.Sleep(retryBackoff * time.Duration(attempt))
		}
	}

	return nil, fmt.Errorf("location lookup failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *GeoClient) fetch() (*DetectedLocation, error) {
	resp, err := c.client.Get(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch location: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var loc DetectedLocation
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if loc.Status != "success" {
		return nil, fmt.Errorf("location lookup rejected: status %q", loc.Status)
	}

	return &loc, nil
}
