package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirychukyurii/webitel-region-router/internal/config"
	"github.com/kirychukyurii/webitel-region-router/internal/latency"
	"github.com/kirychukyurii/webitel-region-router/internal/metrics"
	"github.com/kirychukyurii/webitel-region-router/internal/model"
	"github.com/kirychukyurii/webitel-region-router/internal/registry"
	"github.com/kirychukyurii/webitel-region-router/internal/repository"
)

// Executor routes a request through the ranked candidate regions with
// bounded failover. Invocations run independently and concurrently with each
// other and with the health check loop.
type Executor struct {
	cfg      *config.FailoverConfig
	registry *registry.Registry
	selector *Selector
	health   HealthState
	tracker  *latency.Tracker
	upstream repository.UpstreamRepository
	events   *EventLog
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewExecutor creates a failover executor
func NewExecutor(
	cfg *config.FailoverConfig,
	reg *registry.Registry,
	selector *Selector,
	health HealthState,
	tracker *latency.Tracker,
	upstream repository.UpstreamRepository,
	events *EventLog,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		cfg:      cfg,
		registry: reg,
		selector: selector,
		health:   health,
		tracker:  tracker,
		upstream: upstream,
		events:   events,
		metrics:  m,
		logger:   logger,
	}
}

// Execute forwards the request to the best available region, advancing
// through the ranked candidates on server-class or transport failures.
//
// Candidates are tried strictly in the order computed at call time. A region
// that turned unhealthy between selection and its attempt is skipped, unless
// it is the last option and nothing has been attempted yet, in which case a
// best-effort request is still issued rather than failing closed. A 4xx
// response is returned to the caller as-is: the region answered, so failing
// over cannot help and its health is not touched.
func (e *Executor) Execute(ctx context.Context, spec model.RequestSpec, geoHint string) (*model.ForwardResult, error) {
	candidates := e.selector.Select(geoHint)

	maxAttempts := e.cfg.MaxAttempts
	if len(candidates) < maxAttempts {
		maxAttempts = len(candidates)
	}

	requestID := spec.Header.Get(repository.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = e.cfg.RequestTimeout
	}

	var lastErr error
	attemptsMade := 0
	forwarded := false

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		regionID := candidates[attempt-1]
		attemptsMade = attempt

		// Re-check at attempt time: health may have changed since selection
		if !e.health.IsHealthy(regionID) {
			lastOption := attempt == maxAttempts && !forwarded
			if !lastOption {
				e.logger.Debug("skipping unhealthy candidate",
					slog.String("region", regionID),
					slog.Int("attempt", attempt),
				)
				continue
			}
		}

		region, ok := e.registry.Get(regionID)
		if !ok {
			lastErr = fmt.Errorf("unknown region %s", regionID)
			continue
		}

		forwarded = true
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := e.upstream.Forward(reqCtx, region, spec, attempt, requestID)
		cancel()

		if err != nil {
			lastErr = err
			e.recordFailure(region.ID, err.Error(), attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("region %s returned status %d", region.ID, resp.StatusCode)
			e.recordFailure(region.ID, lastErr.Error(), attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			// Client error: the region answered correctly, the request
			// itself is at fault. No failover, no health signal.
			return &model.ForwardResult{
				StatusCode: resp.StatusCode,
				Header:     resp.Header,
				Body:       resp.Body,
				RegionID:   region.ID,
				Attempts:   attempt,
				Latency:    resp.Latency,
			}, nil
		}

		e.tracker.Record(region.ID, resp.Latency)
		e.metrics.ForwardDuration.WithLabelValues(region.ID).Observe(resp.Latency.Seconds())

		e.logger.Debug("request routed",
			slog.String("region", region.ID),
			slog.Int("attempt", attempt),
			slog.Duration("latency", resp.Latency),
		)

		return &model.ForwardResult{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       resp.Body,
			RegionID:   region.ID,
			Attempts:   attempt,
			Latency:    resp.Latency,
		}, nil
	}

	e.metrics.Exhaustions.Inc()
	e.logger.Error("failover exhausted",
		slog.Int("attempts", attemptsMade),
		slog.String("geo_hint", geoHint),
	)

	return nil, &FailoverExhaustedError{
		Attempts: attemptsMade,
		LastErr:  lastErr,
	}
}

// recordFailure books a failover event and immediately flips the region to
// unhealthy so concurrent requests in the same burst stop selecting it
func (e *Executor) recordFailure(regionID, errMsg string, attempt int) {
	e.events.Append(regionID, errMsg, attempt)
	e.health.MarkUnhealthy(regionID, errMsg)
	e.metrics.FailoverEvents.WithLabelValues(regionID).Inc()

	e.logger.Warn("routing attempt failed",
		slog.String("region", regionID),
		slog.Int("attempt", attempt),
		slog.String("error", errMsg),
	)
}

// RecentEvents returns up to limit most recent failover events, newest first
func (e *Executor) RecentEvents(limit int) []model.FailoverEvent {
	return e.events.Recent(limit)
}

// Stats aggregates the failover history for observability
func (e *Executor) Stats(recentLimit int) model.FailoverStats {
	return model.FailoverStats{
		TotalEvents:     e.events.Total(),
		Last24hByRegion: e.events.CountsSince(time.Now().Add(-24 * time.Hour)),
		RecentEvents:    e.events.Recent(recentLimit),
	}
}
