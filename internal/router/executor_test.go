package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/webitel-region-router/internal/model"
)

func TestExecuteFastPathUsesTopCandidate(t *testing.T) {
	r := newRig(t, "a", "a", "b", "c")
	r.seedLatency("a", 10*time.Millisecond)
	r.seedLatency("b", 20*time.Millisecond)

	result, err := r.executor.Execute(context.Background(), model.RequestSpec{Path: "/v1/ping"}, "")
	require.NoError(t, err)

	assert.Equal(t, "a", result.RegionID)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 200, result.StatusCode)
	assert.Equal(t, []string{"a"}, r.upstream.attempted())
	assert.Equal(t, 0, r.events.Total())
}

func TestExecuteFailsOverOn503(t *testing.T) {
	r := newRig(t, "a", "a", "b", "c")
	r.seedLatency("a", 10*time.Millisecond)
	r.seedLatency("b", 20*time.Millisecond)
	r.upstream.respond("a", respondStatus(503))

	result, err := r.executor.Execute(context.Background(), model.RequestSpec{Path: "/v1/ping"}, "")
	require.NoError(t, err)

	assert.Equal(t, "b", result.RegionID)
	assert.Equal(t, 2, result.Attempts)

	// a was marked unhealthy immediately, not on the next probe tick
	assert.False(t, r.health.IsHealthy("a"))
	assert.Equal(t, 1, r.events.Total())
	assert.Equal(t, "a", r.events.Recent(1)[0].RegionID)
	assert.Equal(t, 1, r.events.Recent(1)[0].Attempt)
}

func TestExecuteFailsOverOnConnectionError(t *testing.T) {
	r := newRig(t, "a", "a", "b")
	r.seedLatency("a", 10*time.Millisecond)
	r.upstream.respond("a", respondError(errors.New("connection refused")))

	result, err := r.executor.Execute(context.Background(), model.RequestSpec{Path: "/v1/ping"}, "")
	require.NoError(t, err)

	assert.Equal(t, "b", result.RegionID)
	assert.False(t, r.health.IsHealthy("a"))
}

func TestExecuteClientErrorReturnsImmediately(t *testing.T) {
	r := newRig(t, "a", "a", "b", "c")
	r.seedLatency("a", 10*time.Millisecond)
	r.upstream.respond("a", respondStatus(404))

	result, err := r.executor.Execute(context.Background(), model.RequestSpec{Path: "/v1/missing"}, "")
	require.NoError(t, err)

	// The region answered; retrying a bad request elsewhere cannot help
	assert.Equal(t, 404, result.StatusCode)
	assert.Equal(t, "a", result.RegionID)
	assert.Equal(t, 1, result.Attempts)
	assert.True(t, r.health.IsHealthy("a"))
	assert.Equal(t, 0, r.events.Total())
	assert.Equal(t, []string{"a"}, r.upstream.attempted())
}

func TestExecuteExhaustsAllCandidates(t *testing.T) {
	r := newRig(t, "a", "a", "b", "c")
	last := fmt.Errorf("still down")
	r.upstream.respond("a", respondStatus(503))
	r.upstream.respond("b", respondStatus(502))
	r.upstream.respond("c", respondError(last))

	_, err := r.executor.Execute(context.Background(), model.RequestSpec{Path: "/v1/ping"}, "")
	require.Error(t, err)

	var exhausted *FailoverExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, exhausted, last)
	assert.Equal(t, 3, r.events.Total())
}

func TestExecuteSkipsRegionTurnedUnhealthyMidFlight(t *testing.T) {
	r := newRig(t, "a", "a", "b")
	r.seedLatency("a", 10*time.Millisecond)
	r.seedLatency("b", 20*time.Millisecond)

	// a fails with 503 and b goes unhealthy while a's attempt is in flight
	r.upstream.respond("a", func(attempt int) (*model.ForwardResponse, error) {
		r.health.MarkUnhealthy("b", "probe failed")
		return &model.ForwardResponse{StatusCode: 503, Latency: time.Millisecond}, nil
	})

	_, err := r.executor.Execute(context.Background(), model.RequestSpec{Path: "/v1/ping"}, "")
	require.Error(t, err)

	var exhausted *FailoverExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
	// b was skipped at attempt time, so only a saw traffic
	assert.Equal(t, []string{"a"}, r.upstream.attempted())
}

func TestExecuteBestEffortAgainstHomeWhenNothingHealthy(t *testing.T) {
	// No healthy regions: the selector falls back to the home region and
	// the executor still issues the request instead of failing closed
	r := newRig(t, "b")
	r.upstream.respond("b", respondStatus(200))

	result, err := r.executor.Execute(context.Background(), model.RequestSpec{Path: "/v1/ping"}, "")
	require.NoError(t, err)

	assert.Equal(t, "b", result.RegionID)
	assert.Equal(t, 1, result.Attempts)
}

func TestExecuteConcurrentCallersAgainstFailingRegion(t *testing.T) {
	r := newRig(t, "a", "a", "b")
	r.seedLatency("a", 10*time.Millisecond)
	r.seedLatency("b", 20*time.Millisecond)
	r.upstream.respond("a", respondStatus(500))

	var wg sync.WaitGroup
	results := make([]*model.ForwardResult, 20)
	errs := make([]error, 20)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.executor.Execute(context.Background(), model.RequestSpec{Path: "/v1/ping"}, "")
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "b", results[i].RegionID)
	}

	// Every caller observed or caused a consistent unhealthy transition
	assert.False(t, r.health.IsHealthy("a"))
	assert.True(t, r.health.IsHealthy("b"))
}

func TestExecuteHonorsCandidateOrderFromSelection(t *testing.T) {
	r := newRig(t, "a", "a", "b", "c")
	r.seedLatency("c", 10*time.Millisecond)
	r.seedLatency("b", 20*time.Millisecond)
	r.seedLatency("a", 30*time.Millisecond)
	r.upstream.respond("c", respondStatus(503))
	r.upstream.respond("b", respondStatus(503))

	result, err := r.executor.Execute(context.Background(), model.RequestSpec{Path: "/v1/ping"}, "")
	require.NoError(t, err)

	assert.Equal(t, "a", result.RegionID)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, []string{"c", "b", "a"}, r.upstream.attempted())
}

func TestExecuteGeographyHintPrefersMappedRegions(t *testing.T) {
	r := newRig(t, "a", "a", "b", "c")
	r.seedLatency("a", 10*time.Millisecond)
	r.seedLatency("b", 50*time.Millisecond)

	result, err := r.executor.Execute(context.Background(), model.RequestSpec{Path: "/v1/ping"}, "DE")
	require.NoError(t, err)

	// a is fastest overall but does not serve DE
	assert.Equal(t, "b", result.RegionID)
}

func TestStatsAggregation(t *testing.T) {
	r := newRig(t, "a", "a", "b", "c")
	r.upstream.respond("a", respondStatus(503))
	r.upstream.respond("b", respondStatus(503))

	_, err := r.executor.Execute(context.Background(), model.RequestSpec{Path: "/v1/ping"}, "")
	require.NoError(t, err)

	stats := r.executor.Stats(10)
	assert.Equal(t, 2, stats.TotalEvents)
	assert.Equal(t, 1, stats.Last24hByRegion["a"])
	assert.Equal(t, 1, stats.Last24hByRegion["b"])
	require.Len(t, stats.RecentEvents, 2)
	assert.Equal(t, "b", stats.RecentEvents[0].RegionID)
}
