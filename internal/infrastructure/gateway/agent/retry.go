package agent

import (
	"context"
	"time"

	"github.com/atzentis/atzentis/internal/domain/port"
)

// attemptFunc performs a single agent invocation attempt.
type attemptFunc func(ctx context.Context, attempt int) (port.Result, error)

// retryPolicy parameterises the inner retry envelope every Engine
// applies within a single Execute call (spec.md §4.4): on
// !success && !completed, back off and retry, up to maxRetries extra
// attempts; completed=true (even with success=false) stops retrying.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func (p retryPolicy) backoff(attempt int) time.Duration {
	delay := p.baseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= p.maxDelay {
			return p.maxDelay
		}
	}
	return delay
}

// run executes attempt 0..maxRetries, stopping early on success or
// completion, sleeping the backoff between failed attempts unless ctx
// is cancelled first.
func (p retryPolicy) run(ctx context.Context, do attemptFunc) (port.Result, error) {
	var result port.Result
	var err error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		result, err = do(ctx, attempt)
		if err != nil {
			return result, err
		}
		if result.Success || result.Completed {
			return result, nil
		}
		if attempt == p.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return result, nil
		case <-time.After(p.backoff(attempt)):
		}
	}
	return result, nil
}
