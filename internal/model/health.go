package model

import "time"

// HealthStatus represents possible region health states
const (
	HealthStatusUnknown   = "unknown"
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

// HealthRecord represents the last known health state of a region.
// It is owned by the health checker; the failover executor may flip a
// region to unhealthy out-of-band when live traffic fails.
type HealthRecord struct {
	RegionID    string         `json:"region_id"`
	Status      string         `json:"status"` // unknown | healthy | unhealthy
	Healthy     bool           `json:"healthy"`
	LastCheck   time.Time      `json:"last_check"`
	LastLatency *time.Duration `json:"last_latency,omitempty"`
	LastStatus  *int           `json:"last_status_code,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
}

// ProbeResult represents the outcome of a single health probe against a region.
type ProbeResult struct {
	StatusCode int
	Latency    time.Duration
}
