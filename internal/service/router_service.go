package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirychukyurii/webitel-region-router/internal/cache"
	"github.com/kirychukyurii/webitel-region-router/internal/healthcheck"
	"github.com/kirychukyurii/webitel-region-router/internal/latency"
	"github.com/kirychukyurii/webitel-region-router/internal/model"
	"github.com/kirychukyurii/webitel-region-router/internal/registry"
	"github.com/kirychukyurii/webitel-region-router/internal/router"
)

const (
	statusCacheKey = "service-status"

	// recentEventsLimit bounds how many events the stats view returns
	recentEventsLimit = 20
)

// RouterService defines the interface for routing and observability operations
type RouterService interface {
	Route(ctx context.Context, spec model.RequestSpec, geoHint string) (*model.ForwardResult, error)
	GetStatus(ctx context.Context) (*model.ServiceStatus, error)
	ListRegions(ctx context.Context) ([]model.RegionStatus, error)
	GetRegionStatus(ctx context.Context, regionID string) (*model.RegionStatus, error)
	FailoverStats(ctx context.Context) (*model.FailoverStats, error)
	RecentFailoverEvents(ctx context.Context, limit int) ([]model.FailoverEvent, error)
}

// routerService implements RouterService
type routerService struct {
	registry      *registry.Registry
	checker       *healthcheck.Checker
	tracker       *latency.Tracker
	executor      *router.Executor
	cache         cache.Cache
	ttl           time.Duration
	checkInterval time.Duration
	logger        *slog.Logger
}

// NewRouterService creates a new router service
func NewRouterService(
	reg *registry.Registry,
	checker *healthcheck.Checker,
	tracker *latency.Tracker,
	executor *router.Executor,
	appCache cache.Cache,
	ttl time.Duration,
	checkInterval time.Duration,
	logger *slog.Logger,
) RouterService {
	return &routerService{
		registry:      reg,
		checker:       checker,
		tracker:       tracker,
		executor:      executor,
		cache:         appCache,
		ttl:           ttl,
		checkInterval: checkInterval,
		logger:        logger,
	}
}

// Route forwards a request through the failover executor
func (s *routerService) Route(ctx context.Context, spec model.RequestSpec, geoHint string) (*model.ForwardResult, error) {
	return s.executor.Execute(ctx, spec, geoHint)
}

// GetStatus returns the aggregated service status. The aggregation is cheap
// but requested on every dashboard poll, so it is cached briefly.
func (s *routerService) GetStatus(ctx context.Context) (*model.ServiceStatus, error) {
	if cached, ok := s.cache.Get(statusCacheKey); ok {
		if status, ok := cached.(*model.ServiceStatus); ok {
			return status, nil
		}
	}

	regions, err := s.ListRegions(ctx)
	if err != nil {
		return nil, err
	}

	healthy, total := s.checker.HealthyCount()

	status := &model.ServiceStatus{
		HomeRegion:    s.registry.Home().ID,
		HealthyCount:  healthy,
		TotalCount:    total,
		CheckInterval: s.checkInterval.Milliseconds(),
		Regions:       regions,
	}

	s.cache.Set(statusCacheKey, status, s.ttl)
	return status, nil
}

// ListRegions returns the current observed state of every region
func (s *routerService) ListRegions(ctx context.Context) ([]model.RegionStatus, error) {
	health := s.checker.Snapshot()
	averages := s.tracker.Snapshot()

	regions := s.registry.List()
	out := make([]model.RegionStatus, 0, len(regions))
	for _, region := range regions {
		status := model.RegionStatus{
			Region: region,
			Health: health[region.ID],
		}
		if avg, ok := averages[region.ID]; ok {
			status.AvgLatency = avg
			status.HasLatency = true
		}
		out = append(out, status)
	}

	return out, nil
}

// GetRegionStatus returns the observed state of a single region
func (s *routerService) GetRegionStatus(ctx context.Context, regionID string) (*model.RegionStatus, error) {
	region, ok := s.registry.Get(regionID)
	if !ok {
		return nil, fmt.Errorf("region %s not found", regionID)
	}

	health := s.checker.Snapshot()
	status := &model.RegionStatus{
		Region: region,
		Health: health[region.ID],
	}
	if avg, ok := s.tracker.Average(region.ID); ok {
		status.AvgLatency = avg
		status.HasLatency = true
	}

	return status, nil
}

// FailoverStats returns aggregated failover history
func (s *routerService) FailoverStats(ctx context.Context) (*model.FailoverStats, error) {
	stats := s.executor.Stats(recentEventsLimit)
	return &stats, nil
}

// RecentFailoverEvents returns up to limit most recent failover events
func (s *routerService) RecentFailoverEvents(ctx context.Context, limit int) ([]model.FailoverEvent, error) {
	if limit <= 0 {
		limit = recentEventsLimit
	}
	return s.executor.RecentEvents(limit), nil
}
