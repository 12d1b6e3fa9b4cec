// Package retry provides exponential-backoff retry, deadline races and a
// circuit breaker. None of it knows about transports or messages.
package retry

import (
	"context"
	cryptorand "crypto/rand"
	"math"
	"math/big"
	"time"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
)

// Policy configures Do
type Policy struct {
	// MaxRetries is the number of attempts after the first one
	MaxRetries int
	// InitialDelay is the wait after the first failed attempt
	InitialDelay time.Duration
	// MaxDelay caps every wait
	MaxDelay time.Duration
	// BackoffMultiplier grows the wait after each failure
	BackoffMultiplier float64
	// Jitter spreads each wait by up to this fraction in either direction. Zero disables it.
	Jitter float64
}

// DefaultPolicy returns 3 retries starting at 1s, doubling, capped at 30s
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2,
	}
}

// NoRetry is a policy that attempts an operation exactly once
func NoRetry() Policy {
	return Policy{}
}

// Delay returns the wait after the given failed attempt (0-based):
// min(InitialDelay * BackoffMultiplier^attempt, MaxDelay).
func (p Policy) Delay(attempt int) time.Duration {
	mult := p.BackoffMultiplier
	if mult <= 0 {
		mult = 1
	}
	backoff := float64(p.InitialDelay) * math.Pow(mult, float64(attempt))
	if p.MaxDelay > 0 && backoff > float64(p.MaxDelay) {
		backoff = float64(p.MaxDelay)
	}

	if p.Jitter > 0 {
		if r, err := secureRandFloat64(); err == nil {
			backoff += backoff * p.Jitter * (r*2 - 1)
		}
	}

	return time.Duration(backoff)
}

// secureRandFloat64 generates a cryptographically secure random float64 in [0, 1)
func secureRandFloat64() (float64, error) {
	n, err := cryptorand.Int(cryptorand.Reader, big.NewInt(1<<53))
	if err != nil {
		return 0, err
	}
	return float64(n.Int64()) / float64(1<<53), nil
}

// Option customizes a single call to Do
type Option func(*settings)

type settings struct {
	onRetry   func(attempt int, delay time.Duration, err error)
	retryable func(error) bool
	sleep     func(ctx context.Context, d time.Duration) error
}

// OnRetry registers a hook invoked before each wait. attempt is the 1-based
// number of the attempt that just failed.
func OnRetry(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(s *settings) { s.onRetry = fn }
}

// WithRetryable replaces the default classification (errors.IsRetryable)
func WithRetryable(fn func(error) bool) Option {
	return func(s *settings) { s.retryable = fn }
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// policy allows no more attempts. Non-retryable errors are returned unchanged;
// exhaustion returns a *errors.RetryExhaustedError wrapping the last failure.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error), opts ...Option) (T, error) {
	s := settings{retryable: mcperrors.IsRetryable, sleep: sleepCtx}
	for _, opt := range opts {
		opt(&s)
	}

	var zero T
	maxAttempts := p.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, mcperrors.OperationCancelled("retry", err)
		}

		result, err := op(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !s.retryable(err) {
			return zero, err
		}
		if attempt == maxAttempts-1 {
			break
		}

		delay := p.Delay(attempt)
		if s.onRetry != nil {
			s.onRetry(attempt+1, delay, err)
		}
		if err := s.sleep(ctx, delay); err != nil {
			return zero, mcperrors.OperationCancelled("retry", err)
		}
	}

	return zero, mcperrors.NewRetryExhausted(maxAttempts, lastErr)
}
