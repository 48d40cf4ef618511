package fetcher

import (
	"fmt"
	"time"

	"dmr/internal/providers"
	"dmr/internal/structures"
)

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// BreakerOpenError is returned without contacting the remote service.
type BreakerOpenError struct {
	Remaining time.Duration
}

func (e *BreakerOpenError) Error() string {
	return fmt.Sprintf("circuit breaker is open, retry in %s", e.Remaining.Round(time.Millisecond))
}

// CircuitBreaker tracks remote-service health within a single run. State
// is not persisted: remote health is not assumed stable across restarts.
type CircuitBreaker struct {
	threshold    int
	baseCooldown time.Duration
	maxCooldown  time.Duration

	state    BreakerState
	failures int
	openedAt time.Time
	cooldown time.Duration
	probing  bool

	now    func() time.Time
	logger providers.Logger
}

func NewCircuitBreaker(conf *structures.Config, logger providers.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:    conf.Breaker.FailureThreshold,
		baseCooldown: conf.Breaker.Cooldown,
		maxCooldown:  conf.Breaker.MaxCooldown,
		cooldown:     conf.Breaker.Cooldown,
		now:          time.Now,
		logger:       logger,
	}
}

func (b *CircuitBreaker) State() BreakerState {
	return b.state
}

// Allow reports whether a call may proceed. While open it fails fast
// until the cooldown elapses, then admits exactly one half-open probe.
func (b *CircuitBreaker) Allow() error {
	switch b.state {
	case BreakerClosed:
		return nil

	case BreakerOpen:
		elapsed := b.now().Sub(b.openedAt)
		if elapsed < b.cooldown {
			return &BreakerOpenError{Remaining: b.cooldown - elapsed}
		}
		b.state = BreakerHalfOpen
		b.probing = true
		b.logger.Infof(providers.TypeFetch, "Circuit breaker half-open, allowing one probe")
		return nil

	default: // BreakerHalfOpen
		if b.probing {
			return &BreakerOpenError{Remaining: 0}
		}
		b.probing = true
		return nil
	}
}

func (b *CircuitBreaker) RecordSuccess() {
	switch b.state {
	case BreakerHalfOpen:
		b.logger.Infof(providers.TypeFetch, "Circuit breaker closed after successful probe")
		b.state = BreakerClosed
		b.cooldown = b.baseCooldown
	case BreakerClosed:
	}
	b.failures = 0
	b.probing = false
}

func (b *CircuitBreaker) RecordFailure() {
	switch b.state {
	case BreakerHalfOpen:
		// Failed probe reopens with a doubled, capped cooldown.
		b.cooldown = min(b.cooldown*2, b.maxCooldown)
		b.open()

	case BreakerClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.open()
		}
	}
	b.probing = false
}

func (b *CircuitBreaker) open() {
	b.state = BreakerOpen
	b.openedAt = b.now()
	b.logger.Warnf(providers.TypeFetch, "Circuit breaker opened (cooldown %s)", b.cooldown)
}
