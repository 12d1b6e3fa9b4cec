package retry

import (
	"context"
	"time"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
)

type outcome[T any] struct {
	value T
	err   error
}

// WithTimeout races op against a timer. On expiry it returns a timeout error
// naming operation and the deadline. op is not interrupted: it keeps running
// and its eventual result is discarded. A non-positive d disables the timer.
func WithTimeout[T any](ctx context.Context, operation string, d time.Duration, op func() (T, error)) (T, error) {
	done := make(chan outcome[T], 1)
	go func() {
		v, err := op()
		done <- outcome[T]{value: v, err: err}
	}()

	var expired <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		expired = timer.C
	}

	var zero T
	select {
	case out := <-done:
		return out.value, out.err
	case <-expired:
		return zero, mcperrors.OperationTimeout(operation, d)
	case <-ctx.Done():
		return zero, mcperrors.OperationCancelled(operation, ctx.Err())
	}
}
