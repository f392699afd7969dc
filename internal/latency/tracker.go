package latency

import (
	"sync"
	"time"
)

// DefaultWindowSize is the number of latency samples kept per region
const DefaultWindowSize = 10

// Tracker maintains a bounded rolling window of observed latencies per region.
// Samples come from both periodic health probes and live forwarded traffic,
// so all access is serialized through a single mutex.
type Tracker struct {
	mu         sync.Mutex
	windows    map[string][]time.Duration
	windowSize int
}

// NewTracker creates a latency tracker with the given window size per region
func NewTracker(windowSize int) *Tracker {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Tracker{
		windows:    make(map[string][]time.Duration),
		windowSize: windowSize,
	}
}

// Record appends a latency sample for the region, evicting the oldest
// sample once the window is full
func (t *Tracker) Record(regionID string, latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	window := t.windows[regionID]
	if len(window) >= t.windowSize {
		window = window[1:]
	}
	t.windows[regionID] = append(window, latency)
}

// Average returns the arithmetic mean of the current window. The bool is
// false while no samples exist yet.
func (t *Tracker) Average(regionID string) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	window := t.windows[regionID]
	if len(window) == 0 {
		return 0, false
	}

	var total time.Duration
	for _, sample := range window {
		total += sample
	}
	return total / time.Duration(len(window)), true
}

// Snapshot returns the current average latency for every region with data
func (t *Tracker) Snapshot() map[string]time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]time.Duration, len(t.windows))
	for regionID, window := range t.windows {
		if len(window) == 0 {
			continue
		}
		var total time.Duration
		for _, sample := range window {
			total += sample
		}
		out[regionID] = total / time.Duration(len(window))
	}
	return out
}
