package resilience

import (
	"context"
	"fmt"
)

// Guarded runs fn with retries, inside cb when cb is non-nil. The breaker
// sees one outcome per guarded call, not one per attempt.
func Guarded[T any](ctx context.Context, retry RetryConfig, cb *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	call := func(ctx context.Context) (T, error) {
		return DoVal(ctx, retry, fn)
	}
	if cb == nil {
		return call(ctx)
	}
	return ExecuteVal(ctx, cb, call)
}

// StatusError builds the error for a non-2xx response from an engine. Status
// codes worth retrying come back as a *TransientError.
func StatusError(engine string, statusCode int, body []byte) error {
	const maxBody = 512
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	err := fmt.Errorf("%s: API returned %d: %s", engine, statusCode, body)
	if IsTransientHTTPStatus(statusCode) {
		return NewTransientError(err, statusCode)
	}
	return err
}
