package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kirychukyurii/webitel-region-router/internal/config"
	"github.com/kirychukyurii/webitel-region-router/internal/model"
)

// Registry holds the static set of candidate regions. It is built once at
// startup and read-only afterwards, so it needs no locking.
type Registry struct {
	regions []model.Region
	byID    map[string]model.Region
	byGeo   map[string][]string // country code -> region IDs
	home    string
}

// New builds a registry from the configured regions
func New(cfgs []config.RegionConfig, homeRegion string) (*Registry, error) {
	r := &Registry{
		regions: make([]model.Region, 0, len(cfgs)),
		byID:    make(map[string]model.Region, len(cfgs)),
		byGeo:   make(map[string][]string),
		home:    homeRegion,
	}

	for _, cfg := range cfgs {
		region := model.Region{
			ID:               cfg.ID,
			Name:             cfg.Name,
			Endpoint:         strings.TrimRight(cfg.Endpoint, "/"),
			Priority:         cfg.Priority,
			LatencyThreshold: cfg.LatencyThreshold,
			Timezone:         cfg.Timezone,
			Geographies:      normalizeGeographies(cfg.Geographies),
		}
		r.regions = append(r.regions, region)
		r.byID[region.ID] = region
		for _, geo := range region.Geographies {
			r.byGeo[geo] = append(r.byGeo[geo], region.ID)
		}
	}

	if _, ok := r.byID[homeRegion]; !ok {
		return nil, fmt.Errorf("home region %q is not configured", homeRegion)
	}

	// Stable listing order: priority first, then ID
	sort.Slice(r.regions, func(i, j int) bool {
		if r.regions[i].Priority != r.regions[j].Priority {
			return r.regions[i].Priority < r.regions[j].Priority
		}
		return r.regions[i].ID < r.regions[j].ID
	})

	return r, nil
}

// List returns all configured regions ordered by priority then ID
func (r *Registry) List() []model.Region {
	out := make([]model.Region, len(r.regions))
	copy(out, r.regions)
	return out
}

// Get returns a region by ID
func (r *Registry) Get(id string) (model.Region, bool) {
	region, ok := r.byID[id]
	return region, ok
}

// Home returns the designated home region used as a last-resort fallback
func (r *Registry) Home() model.Region {
	return r.byID[r.home]
}

// ForGeography returns the regions serving the given country code.
// An unmapped code yields an empty slice, not an error.
func (r *Registry) ForGeography(code string) []model.Region {
	ids := r.byGeo[strings.ToUpper(strings.TrimSpace(code))]
	out := make([]model.Region, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	return out
}

func normalizeGeographies(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			out = append(out, code)
		}
	}
	return out
}
