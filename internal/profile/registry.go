// Package profile implements geo-adaptive profiling: region specific
// thresholds and weights reflecting locally dominant contamination modes,
// selected once per analysis session.
package profile

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"aquamind/internal/models"
)

// weightEpsilon is the tolerance for the weights-sum-to-one invariant.
const weightEpsilon = 1e-6

// Registry is the static set of named regional profiles. It is loaded once
// and never mutated afterwards, so concurrent readers need no locking.
type Registry struct {
	defaultName string
	profiles    map[string]*models.GeoProfile
}

type registryFile struct {
	Default  string                        `yaml:"default"`
	Profiles map[string]*models.GeoProfile `yaml:"profiles"`
}

// LoadRegistry reads and validates the profile registry. A malformed
// profile fails here, at load time, never at scoring time.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile registry %s: %w", path, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse profile registry: %w", err)
	}

	if len(file.Profiles) == 0 {
		return nil, fmt.Errorf("profile registry has no profiles")
	}
	if file.Default == "" {
		return nil, fmt.Errorf("profile registry has no default profile")
	}
	if _, ok := file.Profiles[file.Default]; !ok {
		return nil, fmt.Errorf("default profile %q not found in registry", file.Default)
	}

	for key, p := range file.Profiles {
		if p == nil {
			return nil, fmt.Errorf("profile %q is empty", key)
		}
		if p.Name == "" {
			p.Name = key
		}
		if err := validateProfile(key, p); err != nil {
			return nil, err
		}
	}

	return &Registry{
		defaultName: file.Default,
		profiles:    file.Profiles,
	}, nil
}

func validateProfile(key string, p *models.GeoProfile) error {
	if sum := p.Weights.Sum(); math.Abs(sum-1.0) > weightEpsilon {
		return fmt.Errorf("profile %q: weights sum to %.6f, must sum to 1.0", key, sum)
	}
	if p.Thresholds.TDSSafe <= 0 || p.Thresholds.TDSDanger <= p.Thresholds.TDSSafe {
		return fmt.Errorf("profile %q: tds thresholds must satisfy 0 < safe < danger", key)
	}
	if p.Thresholds.TurbiditySafe <= 0 || p.Thresholds.TurbidityDanger <= p.Thresholds.TurbiditySafe {
		return fmt.Errorf("profile %q: turbidity thresholds must satisfy 0 < safe < danger", key)
	}
	if p.Location != nil {
		if p.Location.Latitude < -90 || p.Location.Latitude > 90 {
			return fmt.Errorf("profile %q: latitude must be between -90 and 90", key)
		}
		if p.Location.Longitude < -180 || p.Location.Longitude > 180 {
			return fmt.Errorf("profile %q: longitude must be between -180 and 180", key)
		}
	}
	return nil
}

// Default returns the configured fallback profile.
func (r *Registry) Default() *models.GeoProfile {
	return r.profiles[r.defaultName]
}

// SetDefault overrides the registry file's own default. Must be called
// before the registry is shared with concurrent readers.
func (r *Registry) SetDefault(name string) error {
	if _, ok := r.profiles[name]; !ok {
		return fmt.Errorf("default profile %q not found in registry (available: %v)", name, r.Names())
	}
	r.defaultName = name
	return nil
}

// Get returns a profile by registry key.
func (r *Registry) Get(key string) (*models.GeoProfile, error) {
	p, ok := r.profiles[key]
	if !ok {
		return nil, fmt.Errorf("profile %q not found (available: %v)", key, r.Names())
	}
	return p, nil
}

// Names lists the registry keys in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve selects the active profile for one analysis session. An explicit
// profile name wins; otherwise the profile nearest to the detected location
// is chosen; with neither, the default applies. A nil location is the
// normal no-fix fallback, not an error.
func (r *Registry) Resolve(explicit string, location *models.Coordinate) (*models.GeoProfile, error) {
	if explicit != "" {
		return r.Get(explicit)
	}
	if location == nil {
		return r.Default(), nil
	}
	return r.nearest(*location), nil
}

// nearest picks the profile whose reference coordinate minimizes
// great-circle distance to the given point. Profiles without a reference
// coordinate are skipped; if none has one, the default applies.
func (r *Registry) nearest(loc models.Coordinate) *models.GeoProfile {
	var best *models.GeoProfile
	bestDist := math.Inf(1)

	for _, name := range r.Names() {
		p := r.profiles[name]
		if p.Location == nil {
			continue
		}
		d := Haversine(loc.Latitude, loc.Longitude, p.Location.Latitude, p.Location.Longitude)
		if d < bestDist {
			bestDist = d
			best = p
		}
	}

	if best == nil {
		return r.Default()
	}
	return best
}

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance between two points in km.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
