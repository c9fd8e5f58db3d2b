package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errEngineDown = errors.New("docling: API returned 502")

// testClock is a manually advanced clock for breaker tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(threshold int, reset time.Duration) (*CircuitBreaker, *testClock) {
	clock := &testClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: threshold, ResetTimeout: reset})
	cb.now = clock.Now
	return cb, clock
}

func fail(context.Context) error    { return errEngineDown }
func succeed(context.Context) error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, fail), errEngineDown)
		assert.Equal(t, CircuitClosed, cb.State())
	}
	assert.ErrorIs(t, cb.Execute(ctx, fail), errEngineDown)
	assert.Equal(t, CircuitOpen, cb.State())

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb, _ := newTestBreaker(2, time.Minute)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	require.NoError(t, cb.Execute(ctx, succeed))
	_ = cb.Execute(ctx, fail)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb, clock := newTestBreaker(1, 30*time.Second)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	require.Equal(t, CircuitOpen, cb.State())

	clock.Advance(29 * time.Second)
	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrCircuitOpen)

	clock.Advance(time.Second)
	assert.Equal(t, CircuitHalfOpen, cb.State())
	require.NoError(t, cb.Execute(ctx, succeed))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(3, 10*time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, fail)
	}
	clock.Advance(10 * time.Second)

	assert.ErrorIs(t, cb.Execute(ctx, fail), errEngineDown)
	assert.Equal(t, CircuitOpen, cb.State())

	clock.Advance(5 * time.Second)
	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrCircuitOpen)
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Nanosecond,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	time.Sleep(time.Millisecond)
	require.NoError(t, cb.Execute(ctx, succeed))

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	assert.Equal(t, DefaultCircuitBreakerConfig().FailureThreshold, cb.cfg.FailureThreshold)
	assert.Equal(t, DefaultCircuitBreakerConfig().ResetTimeout, cb.cfg.ResetTimeout)
}

func TestCircuitBreaker_ConcurrentCalls(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1000, ResetTimeout: time.Minute})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = cb.Execute(ctx, fail)
			} else {
				_ = cb.Execute(ctx, succeed)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestExecuteVal(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Minute)
	ctx := context.Background()

	pages, err := ExecuteVal(ctx, cb, func(context.Context) ([]string, error) {
		return []string{"page one"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"page one"}, pages)

	_, err = ExecuteVal(ctx, cb, func(context.Context) ([]string, error) { return nil, errEngineDown })
	require.Error(t, err)

	pages, err = ExecuteVal(ctx, cb, func(context.Context) ([]string, error) { return []string{"x"}, nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Nil(t, pages)
}

func TestServiceBreakers(t *testing.T) {
	sb := NewServiceBreakers(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	mistral := sb.Get("mistral")
	assert.Same(t, mistral, sb.Get("mistral"))
	docling := sb.Get("docling")
	assert.NotSame(t, mistral, docling)

	_ = mistral.Execute(context.Background(), fail)
	assert.Equal(t, map[string]CircuitState{
		"mistral": CircuitOpen,
		"docling": CircuitClosed,
	}, sb.States())
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(42).String())
}
