package model

import (
	"net/http"
	"time"
)

// FailoverEvent represents a single failed attempt recorded during request routing.
// Events are kept in a bounded in-memory log for observability only.
type FailoverEvent struct {
	ID        string    `json:"id"`
	RegionID  string    `json:"region_id"`
	Error     string    `json:"error"`
	Attempt   int       `json:"attempt"` // attempt number within one routing decision
	Timestamp time.Time `json:"timestamp"`
}

// RequestSpec describes a request to be routed to one of the regions.
type RequestSpec struct {
	Method  string        `json:"method"`
	Path    string        `json:"path"`
	Header  http.Header   `json:"-"`
	Body    []byte        `json:"-"`
	Timeout time.Duration `json:"timeout,omitempty"` // zero means the configured default
}

// ForwardResponse is the raw outcome of one forwarded request against one region.
type ForwardResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Latency    time.Duration
}

// ForwardResult represents a completed routing decision: the upstream response
// plus which region served it and how many attempts it took.
type ForwardResult struct {
	StatusCode int           `json:"status_code"`
	Header     http.Header   `json:"-"`
	Body       []byte        `json:"-"`
	RegionID   string        `json:"region_id"`
	Attempts   int           `json:"attempts"`
	Latency    time.Duration `json:"latency"`
}
