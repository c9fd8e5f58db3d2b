package resilience

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quickRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 1}
}

func TestGuarded_RetriesWithoutBreaker(t *testing.T) {
	calls := 0
	got, err := Guarded(context.Background(), quickRetry(), nil, func(_ context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(errors.New("busy"), http.StatusServiceUnavailable)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestGuarded_BreakerCountsOneFailurePerCall(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})
	calls := 0
	fail := func(_ context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("down"), http.StatusBadGateway)
	}

	_, err := Guarded(context.Background(), quickRetry(), cb, fail)
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, CircuitClosed, cb.State())

	_, err = Guarded(context.Background(), quickRetry(), cb, fail)
	require.Error(t, err)
	assert.Equal(t, CircuitOpen, cb.State())

	_, err = Guarded(context.Background(), quickRetry(), cb, fail)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 6, calls)
}

func TestStatusError(t *testing.T) {
	err := StatusError("docling", http.StatusTooManyRequests, []byte("slow down"))
	assert.True(t, IsTransient(err))
	assert.Contains(t, err.Error(), "docling: API returned 429: slow down")

	err = StatusError("mistral", http.StatusUnauthorized, []byte("bad key"))
	assert.False(t, IsTransient(err))

	long := StatusError("mistral", http.StatusBadRequest, []byte(strings.Repeat("x", 2000)))
	assert.Less(t, len(long.Error()), 600)
}
