package execution

import (
	"context"
	"errors"
	"fmt"

	"github.com/atzentis/atzentis/internal/domain/model"
	"github.com/atzentis/atzentis/internal/domain/port"
	"github.com/atzentis/atzentis/internal/domain/scheduler"
)

// ErrNoActiveSession signals resume found nothing to continue (spec.md
// §4.7 "Resume" step 2: "If no active session: report completion and stop").
var ErrNoActiveSession = errors.New("resume: no active session")

// ResumeUseCase continues the most recently active session for a
// project, or a specific session by id.
type ResumeUseCase struct {
	deps *Deps
}

// NewResumeUseCase builds a ResumeUseCase over deps.
func NewResumeUseCase(deps *Deps) *ResumeUseCase { return &ResumeUseCase{deps: deps} }

// Execute implements spec.md §4.7 "Resume": requeue any task interrupted
// mid-flight, load the remaining pending tasks fresh, and re-run the
// wave pipeline over that reduced subset.
func (u *ResumeUseCase) Execute(ctx context.Context, project string, runOpts RunOptions) (*RunResult, error) {
	session, err := u.deps.Store.GetActive(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	if session == nil {
		return nil, ErrNoActiveSession
	}

	if session.CurrentTask != nil {
		u.deps.Logger.Printf("resuming interrupted task %s", session.CurrentTask.String())
		if err := u.deps.Store.RequeueCurrentTask(ctx, session.ID); err != nil {
			return nil, fmt.Errorf("resume: requeue interrupted task: %w", err)
		}
		session, err = u.deps.Store.Get(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("resume: reload session: %w", err)
		}
	}

	if len(session.Pending) == 0 {
		return &RunResult{SessionID: session.ID}, nil
	}

	tasks := make([]model.Task, 0, len(session.Pending))
	for _, id := range session.Pending {
		task, ok, err := u.deps.Loader.LoadTask(id)
		if err != nil {
			return nil, fmt.Errorf("resume: load task %s: %w", id, err)
		}
		if !ok {
			return nil, fmt.Errorf("resume: task %s no longer resolvable", id)
		}
		tasks = append(tasks, task)
	}

	waves, err := scheduler.BuildExecutionWaves(dropDependenciesOutsideSubset(tasks))
	if err != nil {
		return nil, fmt.Errorf("resume: schedule: %w", err)
	}

	opts := runOpts
	opts.Project = project
	opts.Phase = session.Phase

	hookCtx := port.HookContext{Project: project, Phase: session.Phase.String()}
	result := u.deps.runWaves(ctx, session.ID, project, waves, opts)
	u.deps.fireRunCompletion(ctx, hookCtx, result)
	u.deps.archiveSession(ctx, session.ID)
	return &result, nil
}

// dropDependenciesOutsideSubset removes any dependency not also present
// in tasks. A dependency on a task outside the resumed subset was
// necessarily already completed (spec.md §4.7 step 5: "dependencies on
// already-completed tasks are transitively satisfied because they are
// absent") — resume never promotes a failed task to satisfied, it simply
// never re-introduces it into the dependency graph.
func dropDependenciesOutsideSubset(tasks []model.Task) []model.Task {
	inSubset := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		inSubset[t.ID.String()] = true
	}

	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		filtered := t.Dependencies[:0:0]
		for _, dep := range t.Dependencies {
			if inSubset[dep.String()] {
				filtered = append(filtered, dep)
			}
		}
		t.Dependencies = filtered
		out[i] = t
	}
	return out
}
