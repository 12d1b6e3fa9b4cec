package retry

import (
	"sync"
	"time"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
)

// BreakerConfig configures a Breaker
type BreakerConfig struct {
	// FailureThreshold consecutive failures open the breaker
	FailureThreshold int
	// SuccessThreshold successes while half-open close it again
	SuccessThreshold int
	// Cooldown is how long the breaker stays open before letting a probe through
	Cooldown time.Duration
}

// DefaultBreakerConfig opens after 5 failures and probes again after 30s
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, SuccessThreshold: 1, Cooldown: 30 * time.Second}
}

// BreakerState is the state of a Breaker
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Breaker stops calls to a peer that keeps failing with retryable errors.
// Non-retryable failures say nothing about the peer's health and are ignored.
type Breaker struct {
	config    BreakerConfig
	mu        sync.Mutex
	state     BreakerState
	failures  int
	successes int
	openedAt  time.Time
	now       func() time.Time
}

// NewBreaker creates a closed breaker
func NewBreaker(config BreakerConfig) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 1
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	return &Breaker{config: config, now: time.Now}
}

// State returns the current state
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow returns an error if the breaker is open
func (b *Breaker) Allow(operation string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		if b.now().Sub(b.openedAt) < b.config.Cooldown {
			return mcperrors.NewError(
				mcperrors.CodeCircuitOpen,
				"circuit breaker is open",
				mcperrors.CategoryTransport,
				mcperrors.SeverityWarning,
			).WithContext(&mcperrors.Context{
				Timestamp: b.now(),
				Component: "breaker",
				Operation: operation,
			})
		}
		b.state = BreakerHalfOpen
		b.successes = 0
	}
	return nil
}

// Record feeds the outcome of a call into the breaker
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		if b.state == BreakerHalfOpen {
			b.successes++
			if b.successes >= b.config.SuccessThreshold {
				b.state = BreakerClosed
			}
		}
		return
	}

	if !mcperrors.IsRetryable(err) && !mcperrors.IsRetryExhausted(err) {
		return
	}

	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.config.FailureThreshold {
		b.state = BreakerOpen
		b.openedAt = b.now()
	}
}
