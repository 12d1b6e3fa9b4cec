package retry

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
)

func fastPolicy() Policy {
	return Policy{
		MaxRetries:        3,
		InitialDelay:      time.Millisecond,
		MaxDelay:          4 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, time.Second, p.InitialDelay)
	assert.Equal(t, 30*time.Second, p.MaxDelay)
	assert.Equal(t, 2.0, p.BackoffMultiplier)

	assert.Equal(t, time.Second, p.Delay(0))
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 16*time.Second, p.Delay(4))
	assert.Equal(t, 30*time.Second, p.Delay(5))
	assert.Equal(t, 30*time.Second, p.Delay(20))
}

func TestDelayJitterStaysInBounds(t *testing.T) {
	p := Policy{InitialDelay: 100 * time.Millisecond, BackoffMultiplier: 1, Jitter: 0.1}
	for i := 0; i < 50; i++ {
		d := p.Delay(0)
		assert.GreaterOrEqual(t, d, 90*time.Millisecond)
		assert.LessOrEqual(t, d, 110*time.Millisecond)
	}
}

func TestDoValidationAttemptedOnce(t *testing.T) {
	var calls int32
	_, err := Do(context.Background(), fastPolicy(), func(ctx context.Context, attempt int) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", mcperrors.ValidationError("bad arguments", nil)
	})

	require.Error(t, err)
	assert.True(t, mcperrors.IsValidation(err))
	assert.False(t, mcperrors.IsRetryExhausted(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoRetriesConnectionErrors(t *testing.T) {
	var calls int
	var delays []time.Duration

	_, err := Do(context.Background(), fastPolicy(), func(ctx context.Context, attempt int) (int, error) {
		assert.Equal(t, calls, attempt)
		calls++
		return 0, mcperrors.ConnectionLost("stdio", "", io.EOF)
	}, OnRetry(func(attempt int, delay time.Duration, err error) {
		delays = append(delays, delay)
	}))

	require.Error(t, err)
	assert.Equal(t, 4, calls, "first attempt plus MaxRetries retries")
	require.Len(t, delays, 3)
	for i := 1; i < len(delays); i++ {
		assert.GreaterOrEqual(t, delays[i], delays[i-1])
	}
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}, delays)

	var exhausted *mcperrors.RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.True(t, mcperrors.IsConnection(exhausted.Last))
	assert.ErrorIs(t, err, io.EOF)
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	result, err := Do(context.Background(), fastPolicy(), func(ctx context.Context, attempt int) (string, error) {
		if attempt < 2 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestDoNoRetryPolicy(t *testing.T) {
	var calls int
	_, err := Do(context.Background(), NoRetry(), func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, errors.New("down")
	})
	assert.Equal(t, 1, calls)
	assert.True(t, mcperrors.IsRetryExhausted(err))
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxRetries: 5, InitialDelay: time.Hour, BackoffMultiplier: 2}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Do(ctx, p, func(ctx context.Context, attempt int) (int, error) {
		return 0, errors.New("down")
	})
	assert.True(t, mcperrors.IsCancelled(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDoCustomRetryable(t *testing.T) {
	var calls int
	_, err := Do(context.Background(), fastPolicy(), func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, io.EOF
	}, WithRetryable(func(err error) bool { return false }))
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 1, calls)
}
