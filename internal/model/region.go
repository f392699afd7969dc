package model

import "time"

// Region represents a single backend region with its static routing attributes.
// Regions are loaded once at startup and never mutated afterwards.
type Region struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Endpoint         string        `json:"endpoint"`
	Priority         int           `json:"priority"`          // lower = preferred tie-break
	LatencyThreshold time.Duration `json:"latency_threshold"` // acceptable vs. degraded boundary
	Timezone         string        `json:"timezone"`
	Geographies      []string      `json:"geographies"` // ISO country codes served by this region
}

// ServesGeography returns true if the region serves the given country code.
func (r *Region) ServesGeography(code string) bool {
	for _, g := range r.Geographies {
		if g == code {
			return true
		}
	}
	return false
}
