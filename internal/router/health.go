package router

import "github.com/kirychukyurii/webitel-region-router/internal/model"

// HealthState is the view of region health the routing layer needs.
// Implemented by the health checker.
type HealthState interface {
	// Snapshot returns a copy of every region's current health record
	Snapshot() map[string]model.HealthRecord

	// IsHealthy reports whether the region is currently considered healthy
	IsHealthy(regionID string) bool

	// MarkUnhealthy flips a region to unhealthy out-of-band
	MarkUnhealthy(regionID, reason string)
}
