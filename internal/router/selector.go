package router

import (
	"sort"
	"strings"
	"time"

	"github.com/kirychukyurii/webitel-region-router/internal/latency"
	"github.com/kirychukyurii/webitel-region-router/internal/model"
	"github.com/kirychukyurii/webitel-region-router/internal/registry"
)

// Selector computes the ranked candidate order for a request from the
// current health and latency state. Selection is a pure read: it never
// mutates any shared state.
type Selector struct {
	registry *registry.Registry
	health   HealthState
	tracker  *latency.Tracker
}

// NewSelector creates a region selector
func NewSelector(reg *registry.Registry, health HealthState, tracker *latency.Tracker) *Selector {
	return &Selector{
		registry: reg,
		health:   health,
		tracker:  tracker,
	}
}

// Select returns region IDs in the order they should be attempted.
//
// Healthy regions are ranked by average observed latency (regions with no
// samples rank after every region with data), ties broken by priority then
// ID. A geography hint narrows the set to regions serving that country when
// at least one of them is healthy; otherwise the hint is ignored. When no
// region is healthy at all, the home region is returned as a best-effort
// last resort so callers still attempt a request instead of failing closed.
func (s *Selector) Select(geoHint string) []string {
	health := s.health.Snapshot()

	healthy := make([]model.Region, 0)
	for _, region := range s.registry.List() {
		if record, ok := health[region.ID]; ok && record.Healthy {
			healthy = append(healthy, region)
		}
	}

	if len(healthy) == 0 {
		return []string{s.registry.Home().ID}
	}

	if geoHint != "" {
		code := strings.ToUpper(strings.TrimSpace(geoHint))
		preferred := make([]model.Region, 0)
		for _, region := range healthy {
			if region.ServesGeography(code) {
				preferred = append(preferred, region)
			}
		}
		// An unmapped or fully-unhealthy geography falls back to the
		// whole healthy set
		if len(preferred) > 0 {
			healthy = preferred
		}
	}

	type ranked struct {
		region model.Region
		avg    time.Duration
		hasAvg bool
	}

	candidates := make([]ranked, 0, len(healthy))
	for _, region := range healthy {
		avg, ok := s.tracker.Average(region.ID)
		candidates = append(candidates, ranked{region: region, avg: avg, hasAvg: ok})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		// No latency data ranks after any measured value
		if a.hasAvg != b.hasAvg {
			return a.hasAvg
		}
		if a.hasAvg && a.avg != b.avg {
			return a.avg < b.avg
		}
		if a.region.Priority != b.region.Priority {
			return a.region.Priority < b.region.Priority
		}
		return a.region.ID < b.region.ID
	})

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.region.ID)
	}
	return out
}
