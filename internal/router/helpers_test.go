package router

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/webitel-region-router/internal/config"
	"github.com/kirychukyurii/webitel-region-router/internal/latency"
	"github.com/kirychukyurii/webitel-region-router/internal/metrics"
	"github.com/kirychukyurii/webitel-region-router/internal/model"
	"github.com/kirychukyurii/webitel-region-router/internal/registry"
)

// stubHealth implements HealthState with directly controllable state
type stubHealth struct {
	mu      sync.Mutex
	healthy map[string]bool
	reasons map[string]string
}

func newStubHealth(healthy ...string) *stubHealth {
	s := &stubHealth{
		healthy: make(map[string]bool),
		reasons: make(map[string]string),
	}
	for _, id := range healthy {
		s.healthy[id] = true
	}
	return s
}

func (s *stubHealth) Snapshot() map[string]model.HealthRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]model.HealthRecord, len(s.healthy))
	for id, healthy := range s.healthy {
		status := model.HealthStatusUnhealthy
		if healthy {
			status = model.HealthStatusHealthy
		}
		out[id] = model.HealthRecord{
			RegionID:  id,
			Status:    status,
			Healthy:   healthy,
			LastError: s.reasons[id],
		}
	}
	return out
}

func (s *stubHealth) IsHealthy(regionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthy[regionID]
}

func (s *stubHealth) MarkUnhealthy(regionID, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy[regionID] = false
	s.reasons[regionID] = reason
}

func (s *stubHealth) setHealthy(regionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy[regionID] = true
}

// forwardFn scripts one region's response to a forwarded request
type forwardFn func(attempt int) (*model.ForwardResponse, error)

// fakeUpstream implements repository.UpstreamRepository with scripted
// per-region outcomes and a record of attempted regions
type fakeUpstream struct {
	mu       sync.Mutex
	scripts  map[string]forwardFn
	attempts []string
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{scripts: make(map[string]forwardFn)}
}

func (f *fakeUpstream) respond(regionID string, fn forwardFn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[regionID] = fn
}

func (f *fakeUpstream) attempted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.attempts))
	copy(out, f.attempts)
	return out
}

func (f *fakeUpstream) Probe(ctx context.Context, region model.Region) (model.ProbeResult, error) {
	return model.ProbeResult{StatusCode: 200, Latency: time.Millisecond}, nil
}

func (f *fakeUpstream) Forward(ctx context.Context, region model.Region, spec model.RequestSpec, attempt int, requestID string) (*model.ForwardResponse, error) {
	f.mu.Lock()
	fn := f.scripts[region.ID]
	f.attempts = append(f.attempts, region.ID)
	f.mu.Unlock()

	if fn == nil {
		return &model.ForwardResponse{StatusCode: 200, Latency: time.Millisecond}, nil
	}
	return fn(attempt)
}

func respondStatus(statusCode int) forwardFn {
	return func(attempt int) (*model.ForwardResponse, error) {
		return &model.ForwardResponse{
			StatusCode: statusCode,
			Body:       []byte("response"),
			Latency:    time.Millisecond,
		}, nil
	}
}

func respondError(err error) forwardFn {
	return func(attempt int) (*model.ForwardResponse, error) {
		return nil, err
	}
}

func testRegions() []config.RegionConfig {
	threshold := 100 * time.Millisecond
	return []config.RegionConfig{
		{ID: "a", Name: "Region A", Endpoint: "http://a.local", Priority: 1, LatencyThreshold: threshold, Geographies: []string{"US"}},
		{ID: "b", Name: "Region B", Endpoint: "http://b.local", Priority: 2, LatencyThreshold: threshold, Geographies: []string{"DE"}},
		{ID: "c", Name: "Region C", Endpoint: "http://c.local", Priority: 3, LatencyThreshold: threshold, Geographies: []string{"DE"}},
	}
}

// rig wires a selector and executor around controllable doubles
type rig struct {
	registry *registry.Registry
	health   *stubHealth
	tracker  *latency.Tracker
	upstream *fakeUpstream
	events   *EventLog
	selector *Selector
	executor *Executor
}

func newRig(t *testing.T, home string, healthy ...string) *rig {
	t.Helper()

	reg, err := registry.New(testRegions(), home)
	require.NoError(t, err)

	health := newStubHealth(healthy...)
	tracker := latency.NewTracker(10)
	upstream := newFakeUpstream()
	events := NewEventLog(100)

	cfg := &config.FailoverConfig{
		MaxAttempts:    3,
		RequestTimeout: time.Second,
		HistorySize:    100,
		LatencyWindow:  10,
	}

	selector := NewSelector(reg, health, tracker)
	executor := NewExecutor(cfg, reg, selector, health, tracker, upstream, events, metrics.New(), slog.New(slog.DiscardHandler))

	return &rig{
		registry: reg,
		health:   health,
		tracker:  tracker,
		upstream: upstream,
		events:   events,
		selector: selector,
		executor: executor,
	}
}

// seedLatency fills a region's whole window with one value
func (r *rig) seedLatency(regionID string, d time.Duration) {
	for i := 0; i < 10; i++ {
		r.tracker.Record(regionID, d)
	}
}
