package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-forecaster/internal/frame"
	"stock-forecaster/internal/models"
)

type stubProvider struct {
	calls int
	err   error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Fetch(ctx context.Context, symbol string, start, end time.Time) (*frame.Frame, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return frame.New(models.PriceColumns...), nil
}

func newTestBreaker(next Provider, clock *time.Time) *Breaker {
	b := NewBreaker(next, BreakerConfig{FailureThreshold: 2, Cooldown: time.Minute}, zerolog.Nop())
	b.now = func() time.Time { return *clock }
	return b
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	stub := &stubProvider{err: errors.New("status 502")}
	b := newTestBreaker(stub, &clock)

	for i := 0; i < 2; i++ {
		_, err := b.Fetch(ctx, "INFY.NS", clock, clock)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.Check(), ErrCircuitOpen)

	_, err := b.Fetch(ctx, "INFY.NS", clock, clock)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, stub.calls, "open circuit must not reach the provider")
}

func TestBreakerTrialCallClosesOrReopens(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	stub := &stubProvider{err: errors.New("timeout")}
	b := newTestBreaker(stub, &clock)

	_, _ = b.Fetch(ctx, "TCS.NS", clock, clock)
	_, _ = b.Fetch(ctx, "TCS.NS", clock, clock)
	require.Equal(t, BreakerOpen, b.State())

	clock = clock.Add(2 * time.Minute)
	_, err := b.Fetch(ctx, "TCS.NS", clock, clock)
	require.Error(t, err)
	assert.Equal(t, BreakerOpen, b.State(), "failed trial reopens the circuit")
	assert.Equal(t, 3, stub.calls)

	clock = clock.Add(2 * time.Minute)
	stub.err = nil
	f, err := b.Fetch(ctx, "TCS.NS", clock, clock)
	require.NoError(t, err)
	assert.True(t, f.Empty())
	assert.Equal(t, BreakerClosed, b.State())
	assert.NoError(t, b.Check())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	ctx := context.Background()
	clock := time.Now()
	stub := &stubProvider{err: errors.New("reset by peer")}
	b := newTestBreaker(stub, &clock)

	_, _ = b.Fetch(ctx, "ITC.NS", clock, clock)
	stub.err = nil
	_, _ = b.Fetch(ctx, "ITC.NS", clock, clock)
	stub.err = errors.New("reset by peer")
	_, _ = b.Fetch(ctx, "ITC.NS", clock, clock)

	assert.Equal(t, BreakerClosed, b.State())
	assert.Equal(t, "stub", b.Name())
}

func TestBreakerIgnoresCancelledCalls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	clock := time.Now()
	stub := &stubProvider{err: context.Canceled}
	b := newTestBreaker(stub, &clock)

	for i := 0; i < 3; i++ {
		_, err := b.Fetch(ctx, "SBIN.NS", clock, clock)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, BreakerClosed, b.State())
}
