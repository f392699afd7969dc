package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `
server:
  addr: ":8080"
  read_timeout: 10s
  write_timeout: 10s

home_region: us-east-1

regions:
  - id: us-east-1
    name: US East
    endpoint: https://us-east-1.example.com
    priority: 1
    latency_threshold: 150ms
    timezone: America/New_York
    geographies: [US, CA]
  - id: eu-west-1
    name: Europe West
    endpoint: https://eu-west-1.example.com
    priority: 2
    latency_threshold: 200ms
    geographies: [DE, FR]
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "us-east-1", cfg.HomeRegion)
	require.Len(t, cfg.Regions, 2)
	assert.Equal(t, 150*time.Millisecond, cfg.Regions[0].LatencyThreshold)
	assert.Equal(t, []string{"US", "CA"}, cfg.Regions[0].Geographies)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.HealthCheck.Interval)
	assert.Equal(t, 5*time.Second, cfg.HealthCheck.ProbeTimeout)
	assert.Equal(t, 3, cfg.Failover.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Failover.RequestTimeout)
	assert.Equal(t, 100, cfg.Failover.HistorySize)
	assert.Equal(t, 10, cfg.Failover.LatencyWindow)
	assert.Equal(t, 5*time.Second, cfg.Cache.TTL)
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig+`
health_check:
  interval: 10s
  probe_timeout: 2s
  max_concurrent: 4

failover:
  max_attempts: 5
  request_timeout: 15s
`))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.HealthCheck.Interval)
	assert.Equal(t, 2*time.Second, cfg.HealthCheck.ProbeTimeout)
	assert.Equal(t, 4, cfg.HealthCheck.MaxConcurrent)
	assert.Equal(t, 5, cfg.Failover.MaxAttempts)
	assert.Equal(t, 15*time.Second, cfg.Failover.RequestTimeout)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:    "missing server addr",
			mutate:  func(cfg *Config) { cfg.Server.Addr = "" },
			wantErr: "server.addr",
		},
		{
			name:    "no regions",
			mutate:  func(cfg *Config) { cfg.Regions = nil },
			wantErr: "at least one region",
		},
		{
			name:    "region without id",
			mutate:  func(cfg *Config) { cfg.Regions[0].ID = "" },
			wantErr: "id is required",
		},
		{
			name:    "region without endpoint",
			mutate:  func(cfg *Config) { cfg.Regions[1].Endpoint = "" },
			wantErr: "endpoint is required",
		},
		{
			name:    "non-positive latency threshold",
			mutate:  func(cfg *Config) { cfg.Regions[0].LatencyThreshold = 0 },
			wantErr: "latency_threshold",
		},
		{
			name:    "duplicate region id",
			mutate:  func(cfg *Config) { cfg.Regions[1].ID = cfg.Regions[0].ID },
			wantErr: "duplicated",
		},
		{
			name:    "missing home region",
			mutate:  func(cfg *Config) { cfg.HomeRegion = "" },
			wantErr: "home_region is required",
		},
		{
			name:    "unknown home region",
			mutate:  func(cfg *Config) { cfg.HomeRegion = "mars-1" },
			wantErr: "not a configured region",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, validConfig))
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
