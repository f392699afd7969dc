package main

import (
	"context"
	"flag"
	"os"

	"github.com/kirychukyurii/webitel-region-router/internal/api"
	"github.com/kirychukyurii/webitel-region-router/internal/cache"
	"github.com/kirychukyurii/webitel-region-router/internal/config"
	"github.com/kirychukyurii/webitel-region-router/internal/healthcheck"
	"github.com/kirychukyurii/webitel-region-router/internal/latency"
	"github.com/kirychukyurii/webitel-region-router/internal/logger"
	"github.com/kirychukyurii/webitel-region-router/internal/metrics"
	"github.com/kirychukyurii/webitel-region-router/internal/registry"
	"github.com/kirychukyurii/webitel-region-router/internal/repository"
	"github.com/kirychukyurii/webitel-region-router/internal/router"
	"github.com/kirychukyurii/webitel-region-router/internal/service"
	"github.com/kirychukyurii/webitel-region-router/pkg/httpserver"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	// Initialize logger
	log := logger.NewWithLevel(logger.ParseLevel(*logLevel))

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load configuration",
			"error", err.Error(),
		)
		os.Exit(1)
	}

	log.Info("configuration loaded",
		"regions", len(cfg.Regions),
		"home_region", cfg.HomeRegion,
	)

	// Build the region registry
	reg, err := registry.New(cfg.Regions, cfg.HomeRegion)
	if err != nil {
		log.Error("failed to build region registry",
			"error", err.Error(),
		)
		os.Exit(1)
	}

	// Create upstream HTTP clients
	upstream, err := repository.NewUpstreamRepository(cfg.Regions, log)
	if err != nil {
		log.Error("failed to create upstream repository",
			"error", err.Error(),
		)
		os.Exit(1)
	}

	// Core state and collectors
	m := metrics.New()
	tracker := latency.NewTracker(cfg.Failover.LatencyWindow)
	appCache := cache.New(cfg.Cache.TTL)

	// Create and start health checker
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checker := healthcheck.NewChecker(&cfg.HealthCheck, reg, tracker, upstream, m, log)
	checker.Start(ctx)

	// Routing pipeline
	selector := router.NewSelector(reg, checker, tracker)
	events := router.NewEventLog(cfg.Failover.HistorySize)
	executor := router.NewExecutor(&cfg.Failover, reg, selector, checker, tracker, upstream, events, m, log)

	// Service facade and HTTP surface
	svc := service.NewRouterService(reg, checker, tracker, executor, appCache, cfg.Cache.TTL, cfg.HealthCheck.Interval, log)
	handler := api.NewHandler(svc, m.Handler(), cfg.Server.BasePath, log)

	srv := httpserver.New(
		cfg.Server.Addr,
		handler.Router(),
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		log,
	)

	log.Info("starting region router")

	if err := srv.Run(); err != nil {
		log.Error("server error",
			"error", err.Error(),
		)
	}

	// Graceful shutdown: stop issuing new probe rounds; in-flight probes
	// are abandoned once their own timeout elapses
	log.Info("shutting down health checker")
	cancel()
	checker.Stop()

	log.Info("shutdown complete")
}
