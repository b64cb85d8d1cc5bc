package execution

import (
	"context"
	"fmt"
	"sync"

	"github.com/atzentis/atzentis/internal/domain/model"
	"github.com/atzentis/atzentis/internal/domain/scheduler"
)

// runWaves executes waves in strict sequence — wave i+1 starts only
// once every task in wave i has reached a terminal state. Within a
// wave, opts.Sequential runs tasks one at a time, aborting the whole
// run on the first exhausted-retries failure; otherwise tasks run in
// maxParallel-bounded concurrent chunks using allSettled semantics
// (spec.md §4.7 "Wave execution").
func (d *Deps) runWaves(ctx context.Context, sessionID, project string, waves []scheduler.Wave, opts RunOptions) RunResult {
	result := RunResult{SessionID: sessionID}

	for _, wave := range waves {
		if opts.Sequential {
			for _, task := range wave {
				outcome := d.runTask(ctx, sessionID, project, task, opts)
				result.Outcomes = append(result.Outcomes, outcome)
				if outcome.Status == TaskFailed {
					result.Aborted = true
					return result
				}
			}
			continue
		}

		result.Outcomes = append(result.Outcomes, d.runChunked(ctx, sessionID, project, wave, opts)...)
	}

	return result
}

// runChunked splits wave into chunks of at most Config.MaxParallel
// tasks, running each chunk's tasks concurrently and waiting for the
// whole chunk to settle before starting the next. This bounds
// concurrency to maxParallel without an unbounded goroutine fan-out,
// grounded on parallel_runner.go's semaphore-bounded dispatch. A panic
// inside one task's goroutine is recovered and converted into a failed
// outcome rather than crashing the run.
func (d *Deps) runChunked(ctx context.Context, sessionID, project string, wave scheduler.Wave, opts RunOptions) []TaskOutcome {
	maxParallel := d.Config.MaxParallel()
	if maxParallel < 1 {
		maxParallel = 1
	}

	outcomes := make([]TaskOutcome, len(wave))
	for start := 0; start < len(wave); start += maxParallel {
		end := start + maxParallel
		if end > len(wave) {
			end = len(wave)
		}
		chunk := wave[start:end]

		var wg sync.WaitGroup
		wg.Add(len(chunk))
		for i, task := range chunk {
			go func(slot int, task model.Task) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						d.Logger.Printf("task %s: recovered panic: %v", task.ID, r)
						outcomes[slot] = TaskOutcome{TaskID: task.ID, Status: TaskFailed, Error: fmt.Sprintf("panic: %v", r)}
					}
				}()
				outcomes[slot] = d.runTask(ctx, sessionID, project, task, opts)
			}(start+i, task)
		}
		wg.Wait()
	}
	return outcomes
}
