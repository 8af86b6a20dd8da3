package provider

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stock-forecaster/internal/frame"
)

// BreakerState is the state of a provider circuit breaker.
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half-open"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("provider unavailable: too many recent failures")

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that open the circuit.
	FailureThreshold int
	// Cooldown is how long the circuit stays open before one trial call.
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the breaker defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	}
}

// Breaker guards a Provider. After FailureThreshold consecutive failures it
// fails fast with ErrCircuitOpen until Cooldown has passed, then lets a
// single trial call through. Empty results count as successes and a
// cancelled caller counts as neither.
type Breaker struct {
	next   Provider
	cfg    BreakerConfig
	logger zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker wraps next with a circuit breaker.
func NewBreaker(next Provider, cfg BreakerConfig, logger zerolog.Logger) *Breaker {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultBreakerConfig().Cooldown
	}
	return &Breaker{
		next:   next,
		cfg:    cfg,
		logger: logger.With().Str("component", "breaker").Str("provider", next.Name()).Logger(),
		now:    time.Now,
		state:  BreakerClosed,
	}
}

// Name returns the wrapped provider's name.
func (b *Breaker) Name() string {
	return b.next.Name()
}

// Fetch calls the wrapped provider unless the circuit is open.
func (b *Breaker) Fetch(ctx context.Context, symbol string, start, end time.Time) (*frame.Frame, error) {
	if err := b.allow(); err != nil {
		return nil, err
	}

	f, err := b.next.Fetch(ctx, symbol, start, end)
	switch {
	case err == nil:
		b.recordSuccess()
	case ctx.Err() != nil:
		b.release()
	default:
		b.recordFailure()
	}
	return f, err
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Check reports ErrCircuitOpen while calls are being rejected.
func (b *Breaker) Check() error {
	if b.State() == BreakerOpen {
		return ErrCircuitOpen
	}
	return nil
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return ErrCircuitOpen
		}
		b.transition(BreakerHalfOpen)
		b.probing = true
	case BreakerHalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	b.failures = 0
	if b.state != BreakerClosed {
		b.transition(BreakerClosed)
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.cfg.FailureThreshold {
		b.openedAt = b.now()
		b.transition(BreakerOpen)
	}
}

// release ends a trial call that produced no verdict.
func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
}

// transition must be called with mu held.
func (b *Breaker) transition(to BreakerState) {
	if b.state == to {
		return
	}
	b.logger.Warn().Str("from", string(b.state)).Str("to", string(to)).Int("failures", b.failures).Msg("circuit state change")
	b.state = to
	if to == BreakerClosed {
		b.failures = 0
	}
}
