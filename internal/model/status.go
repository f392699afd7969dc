package model

import "time"

// RegionStatus represents the current observed state of a single region,
// combining its static attributes with health and latency data.
type RegionStatus struct {
	Region     Region        `json:"region"`
	Health     HealthRecord  `json:"health"`
	AvgLatency time.Duration `json:"avg_latency"`
	HasLatency bool          `json:"has_latency"` // false until at least one sample exists
}

// ServiceStatus represents the overall status of the region router.
type ServiceStatus struct {
	HomeRegion    string         `json:"home_region"`
	HealthyCount  int            `json:"healthy_count"`
	TotalCount    int            `json:"total_count"`
	CheckInterval int64          `json:"check_interval_ms"`
	Regions       []RegionStatus `json:"regions"`
}

// FailoverStats aggregates the failover history for observability.
type FailoverStats struct {
	TotalEvents     int             `json:"total_events"`
	Last24hByRegion map[string]int  `json:"last_24h_by_region"`
	RecentEvents    []FailoverEvent `json:"recent_events"`
}
