package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
)

func TestWithTimeoutReturnsResult(t *testing.T) {
	v, err := WithTimeout(context.Background(), "op", time.Second, func() (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = WithTimeout(context.Background(), "op", time.Second, func() (int, error) {
		return 0, errors.New("failed")
	})
	assert.EqualError(t, err, "failed")
}

func TestWithTimeoutExpires(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})

	_, err := WithTimeout(context.Background(), "tools/call", 20*time.Millisecond, func() (int, error) {
		defer close(finished)
		<-release
		return 1, nil
	})

	require.Error(t, err)
	assert.True(t, mcperrors.IsTimeout(err))
	mcpErr, ok := mcperrors.AsMCPError(err)
	require.True(t, ok)
	data, ok := mcpErr.Data().(*mcperrors.TimeoutErrorData)
	require.True(t, ok)
	assert.Equal(t, 20*time.Millisecond, data.Timeout)

	// the operation is not interrupted and still completes afterwards
	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("operation did not complete after timeout")
	}
}

func TestWithTimeoutDisabled(t *testing.T) {
	v, err := WithTimeout(context.Background(), "op", 0, func() (string, error) {
		time.Sleep(5 * time.Millisecond)
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestWithTimeoutContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := WithTimeout(ctx, "op", time.Second, func() (int, error) {
		time.Sleep(50 * time.Millisecond)
		return 0, nil
	})
	assert.True(t, mcperrors.IsCancelled(err))
}

func TestBreaker(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, Cooldown: time.Minute})
	now := time.Now()
	b.now = func() time.Time { return now }

	require.NoError(t, b.Allow("call"))
	b.Record(mcperrors.ValidationError("bad", nil))
	b.Record(mcperrors.ValidationError("bad", nil))
	assert.Equal(t, BreakerClosed, b.State(), "non-retryable errors do not trip the breaker")

	b.Record(errors.New("down"))
	b.Record(errors.New("down"))
	assert.Equal(t, BreakerOpen, b.State())
	assert.True(t, mcperrors.IsConnection(b.Allow("call")))

	now = now.Add(2 * time.Minute)
	require.NoError(t, b.Allow("call"))
	assert.Equal(t, BreakerHalfOpen, b.State())
	b.Record(nil)
	assert.Equal(t, BreakerClosed, b.State())
}
