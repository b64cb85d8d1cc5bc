package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/atzentis/atzentis/internal/domain/port"
)

// MockEngine is the test Engine variant: it never spawns a process,
// instead returning pre-programmed results so executor tests can drive
// retry, timeout, and crash-resume scenarios deterministically. Like
// SubprocessEngine, it applies the inner retry envelope internally
// within a single Execute call; MaxRetries defaults to 0 (one attempt)
// so tests opt into multi-attempt behaviour explicitly.
type MockEngine struct {
	mu    sync.Mutex
	calls int

	// MaxRetries bounds internal retries per Execute call (0 = single attempt).
	MaxRetries int

	// BaseDelay is the backoff base between internal retries; tests
	// should keep this small to avoid slow suites.
	BaseDelay time.Duration

	// FailUntil makes every attempt up to and including the FailUntil'th
	// global call return a failing, incomplete Result; attempts after it
	// succeed and report completion.
	FailUntil int

	// Output is returned verbatim (with the completion token appended
	// once the engine is due to report completion).
	Output string
}

// NewMockEngine builds a mock that completes immediately on its first call.
func NewMockEngine() *MockEngine {
	return &MockEngine{BaseDelay: time.Millisecond}
}

func (e *MockEngine) Name() string { return "mock" }

// Execute applies the inner retry envelope (policy.run) around
// per-attempt canned results driven by FailUntil.
func (e *MockEngine) Execute(ctx context.Context, _ string, opts port.ExecuteOptions) (port.Result, error) {
	maxRetries := e.MaxRetries
	if opts.MaxRetries > 0 {
		maxRetries = opts.MaxRetries
	}
	baseDelay := e.BaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Millisecond
	}
	policy := retryPolicy{maxRetries: maxRetries, baseDelay: baseDelay, maxDelay: time.Second}

	return policy.run(ctx, func(context.Context, int) (port.Result, error) {
		return e.attempt(), nil
	})
}

func (e *MockEngine) attempt() port.Result {
	e.mu.Lock()
	e.calls++
	call := e.calls
	e.mu.Unlock()

	if e.FailUntil > 0 && call <= e.FailUntil {
		return port.Result{
			Success: false,
			Output:  fmt.Sprintf("%s (attempt %d)", e.Output, call),
			Error:   "mock engine: programmed failure",
		}
	}

	output := e.Output + "\n<promise>COMPLETE</promise>"
	found, metadata := detectCompletion(output)
	return port.Result{
		Success:   true,
		Output:    output,
		Completed: found,
		Metadata:  metadata,
	}
}

// CheckCompletion reports whether output carries the completion token.
func (e *MockEngine) CheckCompletion(output string) bool {
	found, _ := detectCompletion(output)
	return found
}

// Calls returns the number of attempts made so far, across all Execute
// calls and their internal retries.
func (e *MockEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
