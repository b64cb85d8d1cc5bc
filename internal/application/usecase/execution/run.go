package execution

import (
	"context"
	"fmt"

	"github.com/atzentis/atzentis/internal/domain/model"
	"github.com/atzentis/atzentis/internal/domain/port"
	"github.com/atzentis/atzentis/internal/domain/scheduler"
)

// RunUseCase starts a brand-new session for a phase's tasks and drives
// it to completion.
type RunUseCase struct {
	deps *Deps
}

// NewRunUseCase builds a RunUseCase over deps.
func NewRunUseCase(deps *Deps) *RunUseCase { return &RunUseCase{deps: deps} }

// Execute loads opts.Phase's tasks, schedules them into waves, opens a
// session, and runs the wave pipeline to completion (spec.md §4.7 "Run
// state machine").
func (u *RunUseCase) Execute(ctx context.Context, opts RunOptions) (*RunResult, error) {
	tasks, err := u.deps.Loader.LoadTasks(opts.Phase)
	if err != nil {
		return nil, fmt.Errorf("run: load tasks: %w", err)
	}
	if len(tasks) == 0 {
		return &RunResult{}, nil
	}

	waves, err := scheduler.BuildExecutionWaves(tasks)
	if err != nil {
		return nil, fmt.Errorf("run: schedule: %w", err)
	}

	taskIDs := make([]model.TaskID, len(tasks))
	for i, t := range tasks {
		taskIDs[i] = t.ID
	}

	session, err := u.deps.Store.Create(ctx, opts.Project, opts.Phase, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("run: create session: %w", err)
	}

	hookCtx := port.HookContext{Project: opts.Project, Phase: opts.Phase.String()}
	if cmd := u.deps.HookConfig.Command(port.HookBeforePhase); cmd != "" {
		if _, err := u.deps.Hooks.Run(ctx, port.HookBeforePhase, cmd, hookCtx); err != nil {
			return nil, fmt.Errorf("run: beforePhase hook: %w", err)
		}
	}

	result := u.deps.runWaves(ctx, session.ID, opts.Project, waves, opts)
	u.deps.fireRunCompletion(ctx, hookCtx, result)
	u.deps.archiveSession(ctx, session.ID)
	return &result, nil
}
