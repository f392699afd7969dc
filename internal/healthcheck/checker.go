package healthcheck

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kirychukyurii/webitel-region-router/internal/concurrent"
	"github.com/kirychukyurii/webitel-region-router/internal/config"
	"github.com/kirychukyurii/webitel-region-router/internal/latency"
	"github.com/kirychukyurii/webitel-region-router/internal/metrics"
	"github.com/kirychukyurii/webitel-region-router/internal/model"
	"github.com/kirychukyurii/webitel-region-router/internal/registry"
	"github.com/kirychukyurii/webitel-region-router/internal/repository"
)

// Checker performs periodic concurrent health probes against every region
// and owns the per-region health records. The failover executor may flip a
// region to unhealthy out-of-band through MarkUnhealthy; all other writes
// happen on the probe tick.
type Checker struct {
	cfg      *config.HealthCheckConfig
	registry *registry.Registry
	tracker  *latency.Tracker
	upstream repository.UpstreamRepository
	metrics  *metrics.Metrics
	logger   *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.RWMutex
	records map[string]*model.HealthRecord
}

// NewChecker creates a new health checker with every region in the unknown
// state, which routes as unhealthy until the first probe completes
func NewChecker(
	cfg *config.HealthCheckConfig,
	reg *registry.Registry,
	tracker *latency.Tracker,
	upstream repository.UpstreamRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Checker {
	records := make(map[string]*model.HealthRecord)
	for _, region := range reg.List() {
		records[region.ID] = &model.HealthRecord{
			RegionID: region.ID,
			Status:   model.HealthStatusUnknown,
		}
	}

	return &Checker{
		cfg:      cfg,
		registry: reg,
		tracker:  tracker,
		upstream: upstream,
		metrics:  m,
		logger:   logger,
		stopCh:   make(chan struct{}),
		records:  records,
	}
}

// Start begins the health check loop in a background goroutine
func (c *Checker) Start(ctx context.Context) {
	c.logger.Info("starting health checker",
		slog.Duration("interval", c.cfg.Interval),
		slog.Duration("probe_timeout", c.cfg.ProbeTimeout),
	)

	c.wg.Add(1)
	go c.run(ctx)
}

// Stop gracefully stops the health checker
func (c *Checker) Stop() {
	c.logger.Info("stopping health checker")
	close(c.stopCh)
	c.wg.Wait()
	c.logger.Info("health checker stopped")
}

// run is the main health check loop
func (c *Checker) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	c.logger.Info("performing initial health check")
	c.CheckNow(ctx)

	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckNow(ctx)
		}
	}
}

// CheckNow probes every region concurrently and applies the results. Each
// probe carries its own timeout, so a hanging region can delay the round by
// at most the probe timeout and never affects other regions' outcomes.
func (c *Checker) CheckNow(ctx context.Context) {
	regions := c.registry.List()

	results := concurrent.ParallelMapWithLimit(ctx, regions, func(ctx context.Context, region model.Region) (model.ProbeResult, error) {
		probeCtx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
		defer cancel()
		return c.upstream.Probe(probeCtx, region)
	}, c.cfg.MaxConcurrent)

	for i, result := range results {
		c.applyProbe(regions[i], result.Value, result.Error)
	}

	healthy, total := c.HealthyCount()
	c.metrics.HealthyRegions.Set(float64(healthy))
	c.logger.Info("health check round complete",
		slog.Int("healthy", healthy),
		slog.Int("total", total),
	)
}

// applyProbe updates one region's health record from a probe outcome
func (c *Checker) applyProbe(region model.Region, result model.ProbeResult, probeErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	record := c.records[region.ID]
	record.LastCheck = time.Now()

	if probeErr != nil {
		record.Status = model.HealthStatusUnhealthy
		record.Healthy = false
		record.LastError = probeErr.Error()
		c.metrics.ProbeFailures.WithLabelValues(region.ID).Inc()

		c.logger.Warn("health probe failed",
			slog.String("region", region.ID),
			slog.String("error", probeErr.Error()),
		)
		return
	}

	statusCode := result.StatusCode
	record.LastStatus = &statusCode

	if statusCode != 200 {
		record.Status = model.HealthStatusUnhealthy
		record.Healthy = false
		record.LastError = fmt.Sprintf("unexpected probe status %d", statusCode)
		c.metrics.ProbeFailures.WithLabelValues(region.ID).Inc()

		c.logger.Warn("health probe returned bad status",
			slog.String("region", region.ID),
			slog.Int("status", statusCode),
		)
		return
	}

	rtt := result.Latency
	record.LastLatency = &rtt
	c.tracker.Record(region.ID, rtt)
	c.metrics.ProbeDuration.WithLabelValues(region.ID).Observe(rtt.Seconds())

	// A region that answers but takes over twice its threshold is degraded
	// enough to route around
	healthy := rtt < 2*region.LatencyThreshold
	if healthy {
		record.Status = model.HealthStatusHealthy
		record.Healthy = true
		record.LastError = ""
	} else {
		record.Status = model.HealthStatusUnhealthy
		record.Healthy = false
		record.LastError = fmt.Sprintf("latency %s above 2x threshold %s", rtt, region.LatencyThreshold)

		c.logger.Warn("region degraded by latency",
			slog.String("region", region.ID),
			slog.Duration("latency", rtt),
			slog.Duration("threshold", region.LatencyThreshold),
		)
	}
}

// MarkUnhealthy flips a region to unhealthy immediately, without waiting for
// the next probe tick. Called by the failover executor on server-class
// failures so concurrent requests stop re-selecting a known-bad region.
// The write is idempotent; the region recovers on its next successful probe.
func (c *Checker) MarkUnhealthy(regionID, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	record, ok := c.records[regionID]
	if !ok {
		return
	}

	record.Status = model.HealthStatusUnhealthy
	record.Healthy = false
	record.LastError = reason

	healthy := 0
	for _, r := range c.records {
		if r.Healthy {
			healthy++
		}
	}
	c.metrics.HealthyRegions.Set(float64(healthy))
}

// IsHealthy reports whether the region is currently considered healthy
func (c *Checker) IsHealthy(regionID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record, ok := c.records[regionID]
	return ok && record.Healthy
}

// Snapshot returns a copy of every region's current health record
func (c *Checker) Snapshot() map[string]model.HealthRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]model.HealthRecord, len(c.records))
	for id, record := range c.records {
		out[id] = *record
	}
	return out
}

// HealthyCount returns the number of healthy regions and the total
func (c *Checker) HealthyCount() (healthy, total int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, record := range c.records {
		total++
		if record.Healthy {
			healthy++
		}
	}
	return healthy, total
}
