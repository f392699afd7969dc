package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kirychukyurii/webitel-region-router/internal/config"
	"github.com/kirychukyurii/webitel-region-router/internal/model"
	"github.com/kirychukyurii/webitel-region-router/internal/util"
)

const healthPath = "/health"

// Headers attached to outbound requests for downstream observability
const (
	HeaderRegion    = "X-Region"
	HeaderAttempt   = "X-Attempt"
	HeaderRequestID = "X-Request-Id"
)

// UpstreamRepository defines the interface for talking to backend regions
type UpstreamRepository interface {
	// Probe issues a health probe against the region's /health endpoint.
	// The caller bounds the call via ctx.
	Probe(ctx context.Context, region model.Region) (model.ProbeResult, error)

	// Forward issues the given request against the region. A non-2xx
	// response is not an error; only transport-level failures are.
	Forward(ctx context.Context, region model.Region, spec model.RequestSpec, attempt int, requestID string) (*model.ForwardResponse, error)
}

// httpUpstream implements UpstreamRepository over per-region HTTP clients
type httpUpstream struct {
	clients map[string]*http.Client
	logger  *slog.Logger
}

// NewUpstreamRepository creates an HTTP upstream repository with one client
// per configured region, honoring per-region TLS settings
func NewUpstreamRepository(cfgs []config.RegionConfig, logger *slog.Logger) (UpstreamRepository, error) {
	clients := make(map[string]*http.Client, len(cfgs))

	for i, cfg := range cfgs {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.TLS != nil {
			tlsConfig, err := util.LoadTLSConfig(cfg.TLS)
			if err != nil {
				return nil, fmt.Errorf("failed to load TLS config for region at index %d: %w", i, err)
			}
			transport.TLSClientConfig = tlsConfig
		}

		// Per-call deadlines come from the caller's context, not the client
		clients[cfg.ID] = &http.Client{Transport: transport}
	}

	return &httpUpstream{
		clients: clients,
		logger:  logger,
	}, nil
}

// Probe issues a GET against the region's health endpoint and measures
// round-trip time
func (u *httpUpstream) Probe(ctx context.Context, region model.Region) (model.ProbeResult, error) {
	client, err := u.client(region.ID)
	if err != nil {
		return model.ProbeResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, region.Endpoint+healthPath, nil)
	if err != nil {
		return model.ProbeResult{}, fmt.Errorf("failed to build probe request: %w", err)
	}
	req.Header.Set(HeaderRegion, region.ID)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return model.ProbeResult{}, fmt.Errorf("probe failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	return model.ProbeResult{
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}, nil
}

// Forward issues the request against the region and returns the raw response
func (u *httpUpstream) Forward(ctx context.Context, region model.Region, spec model.RequestSpec, attempt int, requestID string) (*model.ForwardResponse, error) {
	client, err := u.client(region.ID)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if len(spec.Body) > 0 {
		body = bytes.NewReader(spec.Body)
	}

	method := spec.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, region.Endpoint+spec.Path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for key, values := range spec.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set(HeaderRegion, region.ID)
	req.Header.Set(HeaderAttempt, strconv.Itoa(attempt))
	if requestID != "" && req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, requestID)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to region %s failed: %w", region.ID, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from region %s: %w", region.ID, err)
	}

	return &model.ForwardResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       respBody,
		Latency:    time.Since(start),
	}, nil
}

func (u *httpUpstream) client(regionID string) (*http.Client, error) {
	client, ok := u.clients[regionID]
	if !ok {
		return nil, fmt.Errorf("no client configured for region %s", regionID)
	}
	return client, nil
}
