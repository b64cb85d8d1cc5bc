package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/atzentis/atzentis/internal/domain/port"
)

func TestRetryPolicy_Backoff_DoublesUntilCap(t *testing.T) {
	p := retryPolicy{baseDelay: time.Second, maxDelay: 30 * time.Second}
	assert.Equal(t, time.Second, p.backoff(0))
	assert.Equal(t, 2*time.Second, p.backoff(1))
	assert.Equal(t, 4*time.Second, p.backoff(2))
	assert.Equal(t, 30*time.Second, p.backoff(10))
}

func TestRetryPolicy_Run_StopsOnFirstSuccess(t *testing.T) {
	p := retryPolicy{maxRetries: 2, baseDelay: time.Millisecond, maxDelay: time.Millisecond}
	calls := 0
	result, err := p.run(context.Background(), func(context.Context, int) (port.Result, error) {
		calls++
		return port.Result{Success: true}, nil
	})
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_Run_CompletedShortCircuitsEvenWithoutSuccess(t *testing.T) {
	p := retryPolicy{maxRetries: 2, baseDelay: time.Millisecond, maxDelay: time.Millisecond}
	calls := 0
	result, err := p.run(context.Background(), func(context.Context, int) (port.Result, error) {
		calls++
		return port.Result{Success: false, Completed: true}, nil
	})
	assert.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_Run_ExhaustsAllAttemptsWhenNeverSuccessful(t *testing.T) {
	p := retryPolicy{maxRetries: 2, baseDelay: time.Millisecond, maxDelay: time.Millisecond}
	calls := 0
	result, err := p.run(context.Background(), func(context.Context, int) (port.Result, error) {
		calls++
		return port.Result{Success: false, Completed: false}, nil
	})
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_Run_CtxCancelledStopsRetryingDuringBackoff(t *testing.T) {
	p := retryPolicy{maxRetries: 5, baseDelay: 50 * time.Millisecond, maxDelay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	result, err := p.run(ctx, func(context.Context, int) (port.Result, error) {
		calls++
		if calls == 1 {
			cancel()
		}
		return port.Result{Success: false, Completed: false}, nil
	})
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, calls)
}
