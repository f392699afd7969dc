package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Cache       CacheConfig       `koanf:"cache"`
	HealthCheck HealthCheckConfig `koanf:"health_check"`
	Failover    FailoverConfig    `koanf:"failover"`
	HomeRegion  string            `koanf:"home_region"`
	Regions     []RegionConfig    `koanf:"regions"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	BasePath     string        `koanf:"base_path"` // Optional base path for reverse proxy (e.g., "/region-router")
}

// CacheConfig represents cache configuration
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// HealthCheckConfig represents periodic health probing configuration
type HealthCheckConfig struct {
	Interval      time.Duration `koanf:"interval"`       // time between probe rounds
	ProbeTimeout  time.Duration `koanf:"probe_timeout"`  // per-region probe deadline
	MaxConcurrent int           `koanf:"max_concurrent"` // probe fan-out limit, 0 = unlimited
}

// FailoverConfig represents request routing and failover configuration
type FailoverConfig struct {
	MaxAttempts    int           `koanf:"max_attempts"`
	RequestTimeout time.Duration `koanf:"request_timeout"` // default deadline for forwarded requests
	HistorySize    int           `koanf:"history_size"`    // bounded failover event log size
	LatencyWindow  int           `koanf:"latency_window"`  // rolling latency samples kept per region
}

// RegionConfig represents a single backend region configuration
type RegionConfig struct {
	ID               string        `koanf:"id"`
	Name             string        `koanf:"name"`
	Endpoint         string        `koanf:"endpoint"`
	Priority         int           `koanf:"priority"`
	LatencyThreshold time.Duration `koanf:"latency_threshold"`
	Timezone         string        `koanf:"timezone"`
	Geographies      []string      `koanf:"geographies"`
	TLS              *TLSConfig    `koanf:"tls"`
}

// TLSConfig represents TLS configuration for upstream clients
type TLSConfig struct {
	CA   string `koanf:"ca"`
	Cert string `koanf:"cert"`
	Key  string `koanf:"key"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Load YAML config
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills in defaults for optional settings
func (c *Config) applyDefaults() {
	if c.HealthCheck.Interval <= 0 {
		c.HealthCheck.Interval = 30 * time.Second
	}
	if c.HealthCheck.ProbeTimeout <= 0 {
		c.HealthCheck.ProbeTimeout = 5 * time.Second
	}
	if c.Failover.MaxAttempts <= 0 {
		c.Failover.MaxAttempts = 3
	}
	if c.Failover.RequestTimeout <= 0 {
		c.Failover.RequestTimeout = 30 * time.Second
	}
	if c.Failover.HistorySize <= 0 {
		c.Failover.HistorySize = 100
	}
	if c.Failover.LatencyWindow <= 0 {
		c.Failover.LatencyWindow = 10
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 5 * time.Second
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	if len(c.Regions) == 0 {
		return fmt.Errorf("at least one region must be configured")
	}

	seen := make(map[string]bool, len(c.Regions))
	for i, region := range c.Regions {
		if region.ID == "" {
			return fmt.Errorf("regions[%d].id is required", i)
		}
		if region.Endpoint == "" {
			return fmt.Errorf("regions[%d].endpoint is required", i)
		}
		if region.LatencyThreshold <= 0 {
			return fmt.Errorf("regions[%d].latency_threshold must be positive", i)
		}
		if seen[region.ID] {
			return fmt.Errorf("regions[%d].id %q is duplicated", i, region.ID)
		}
		seen[region.ID] = true
	}

	if c.HomeRegion == "" {
		return fmt.Errorf("home_region is required")
	}
	if !seen[c.HomeRegion] {
		return fmt.Errorf("home_region %q is not a configured region", c.HomeRegion)
	}

	return nil
}
