package execution

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/atzentis/atzentis/internal/domain/model"
	"github.com/atzentis/atzentis/internal/domain/port"
)

const commitTrailer = "Automated by atzentis"

// taskAttemptResult is the outcome of one pass through attemptTask, a
// single pass through createWorktree -> prompt -> execute -> validate
// -> commit/push/PR.
type taskAttemptResult struct {
	success bool
	errMsg  string
	prURL   string
}

// runTask drives taskID through the full state machine diagrammed in
// spec.md §4.7: startTask, an optional fatal beforeTask hook, the outer
// retry envelope around attemptTask, and the terminal checkpoint. Once
// startTask has succeeded, the warning-only afterTask hook fires, win or
// lose; a startTask failure returns before any hook runs.
func (d *Deps) runTask(ctx context.Context, sessionID, project string, task model.Task, opts RunOptions) TaskOutcome {
	taskID := task.ID
	hookCtx := port.HookContext{
		Project:  project,
		Phase:    opts.Phase.String(),
		TaskID:   taskID.String(),
		TaskName: task.Name,
	}

	if err := d.Store.StartTask(ctx, sessionID, taskID); err != nil {
		d.Logger.Printf("task %s: start task: %v", taskID, err)
		return TaskOutcome{TaskID: taskID, Status: TaskFailed, Error: fmt.Sprintf("start task: %v", err)}
	}

	if cmd := d.HookConfig.Command(port.HookBeforeTask); cmd != "" {
		if _, err := d.Hooks.Run(ctx, port.HookBeforeTask, cmd, hookCtx); err != nil {
			errMsg := fmt.Sprintf("beforeTask hook failed: %v", err)
			d.Logger.Printf("task %s: %s", taskID, errMsg)
			outcome := d.recordAndCheckpointFailed(ctx, sessionID, taskID, 0, errMsg)
			d.fireAfterTask(ctx, hookCtx, outcome)
			return outcome
		}
	}

	outerRetries := d.Config.OuterRetries()
	start := time.Now()

	var result taskAttemptResult
	var lastErr string
	for attempt := 0; attempt <= outerRetries; attempt++ {
		result = d.attemptTask(ctx, sessionID, task, opts)
		if result.success {
			break
		}
		lastErr = result.errMsg
		d.Logger.Printf("task %s: attempt %d/%d failed: %s", taskID, attempt+1, outerRetries+1, lastErr)
		if err := d.Store.RecordError(ctx, sessionID, taskID, lastErr); err != nil {
			d.Logger.Printf("task %s: recordError: %v", taskID, err)
		}
		if attempt < outerRetries {
			if err := d.Worktree.Remove(ctx, taskID.String(), port.WorktreeRemoveOptions{Force: true}); err != nil {
				d.Logger.Printf("task %s: worktree remove before retry (ignored): %v", taskID, err)
			}
		}
	}

	duration := time.Since(start)
	var outcome TaskOutcome
	if result.success {
		if err := d.Store.Checkpoint(ctx, sessionID, taskID, model.CheckpointCompleted, port.CheckpointOptions{
			PRLink:   result.prURL,
			Duration: duration,
		}); err != nil {
			d.Logger.Printf("task %s: checkpoint completed: %v", taskID, err)
		}
		if err := d.Store.ResolveError(ctx, sessionID, taskID); err != nil {
			d.Logger.Printf("task %s: resolveError: %v", taskID, err)
		}
		outcome = TaskOutcome{TaskID: taskID, Status: TaskCompleted, PRURL: result.prURL, DurationMs: duration.Milliseconds()}
	} else {
		outcome = d.checkpointFailed(ctx, sessionID, taskID, duration, lastErr)
	}

	d.fireAfterTask(ctx, hookCtx, outcome)
	return outcome
}

// attemptTask runs one pass of the core pipeline: createWorktree, build
// prompt, drive the agent to completion, validate, commit/push, and
// attempt a best-effort PR.
func (d *Deps) attemptTask(ctx context.Context, sessionID string, task model.Task, opts RunOptions) taskAttemptResult {
	taskID := task.ID

	ref, err := d.Worktree.Create(ctx, taskID.String(), port.WorktreeCreateOptions{
		BaseBranch: d.Config.BaseBranch(),
		Slug:       task.Name,
	})
	if err != nil {
		return taskAttemptResult{errMsg: fmt.Sprintf("create worktree: %v", err)}
	}
	if err := d.Store.RegisterWorktree(ctx, sessionID, taskID, ref.Path); err != nil {
		d.Logger.Printf("task %s: register worktree: %v", taskID, err)
	}
	if err := d.Store.RegisterBranch(ctx, sessionID, taskID, ref.Branch); err != nil {
		d.Logger.Printf("task %s: register branch: %v", taskID, err)
	}

	variant := opts.Variant
	if variant == "" {
		variant = d.Config.AgentVariant()
	}
	engine, err := d.Engines.Resolve(variant)
	if err != nil {
		return taskAttemptResult{errMsg: fmt.Sprintf("resolve engine: %v", err)}
	}

	result, err := engine.Execute(ctx, buildPrompt(task), port.ExecuteOptions{
		WorkingDirectory: ref.Path,
		Timeout:          d.Config.TimeoutMs(),
		MaxRetries:       d.Config.MaxRetries(),
		CompletionToken:  d.Config.CompletionToken(),
	})
	if err != nil {
		return taskAttemptResult{errMsg: fmt.Sprintf("agent execute: %v", err)}
	}
	if !result.Completed {
		msg := result.Error
		if msg == "" {
			msg = "agent did not signal completion"
		}
		return taskAttemptResult{errMsg: msg}
	}

	if !d.Config.FastMode() {
		if err := d.validate(ctx, ref.Path); err != nil {
			return taskAttemptResult{errMsg: fmt.Sprintf("validation: %v", err)}
		}
	}

	message := fmt.Sprintf("%s: %s\n\n%s", taskID.String(), task.Name, commitTrailer)
	_, commitErr := d.Worktree.Commit(ctx, taskID.String(), message, port.WorktreeCommitOptions{AddAll: true})
	switch {
	case commitErr == nil:
		if err := d.Worktree.Push(ctx, taskID.String(), port.WorktreePushOptions{SetUpstream: true}); err != nil {
			return taskAttemptResult{errMsg: fmt.Sprintf("push: %v", err)}
		}
	case errors.Is(commitErr, port.ErrNothingToCommit):
		// Idempotent retry with no new changes: nothing to push.
	default:
		return taskAttemptResult{errMsg: fmt.Sprintf("commit: %v", commitErr)}
	}

	prURL := d.createPR(ctx, sessionID, task, ref.Branch)
	return taskAttemptResult{success: true, prURL: prURL}
}

// validate runs the project-configured lint then test commands in dir,
// non-zero exit from either terminating the attempt.
func (d *Deps) validate(ctx context.Context, dir string) error {
	if cmd := d.Config.LintCommand(); cmd != "" {
		if err := runShell(ctx, dir, cmd); err != nil {
			return fmt.Errorf("lint: %w", err)
		}
	}
	if cmd := d.Config.TestCommand(); cmd != "" {
		if err := runShell(ctx, dir, cmd); err != nil {
			return fmt.Errorf("test: %w", err)
		}
	}
	return nil
}

func runShell(ctx context.Context, dir, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w (output: %s)", err, out)
	}
	return nil
}

// createPR is fire-and-forget: any failure is logged as a warning and
// never fails the task (spec.md §4.7 "Commit/push/PR").
func (d *Deps) createPR(ctx context.Context, sessionID string, task model.Task, branch string) string {
	if d.PRs == nil {
		return ""
	}
	url, err := d.PRs.Create(ctx, task.ID.String(), port.PRCreateOptions{
		Branch:     branch,
		BaseBranch: d.Config.BaseBranch(),
		Title:      fmt.Sprintf("%s: %s", task.ID.String(), task.Name),
		Body:       commitTrailer,
	})
	if err != nil {
		d.Logger.Printf("task %s: pr create failed (warning): %v", task.ID, err)
		return ""
	}
	if url == "" {
		return ""
	}
	if err := d.Store.RegisterPR(ctx, sessionID, task.ID, url); err != nil {
		d.Logger.Printf("task %s: register PR: %v", task.ID, err)
	}
	return url
}

func (d *Deps) recordAndCheckpointFailed(ctx context.Context, sessionID string, taskID model.TaskID, durationMs int64, errMsg string) TaskOutcome {
	if err := d.Store.RecordError(ctx, sessionID, taskID, errMsg); err != nil {
		d.Logger.Printf("task %s: recordError: %v", taskID, err)
	}
	return d.checkpointFailed(ctx, sessionID, taskID, time.Duration(durationMs)*time.Millisecond, errMsg)
}

func (d *Deps) checkpointFailed(ctx context.Context, sessionID string, taskID model.TaskID, duration time.Duration, errMsg string) TaskOutcome {
	if err := d.Store.Checkpoint(ctx, sessionID, taskID, model.CheckpointFailed, port.CheckpointOptions{
		Duration: duration,
		Error:    errMsg,
	}); err != nil {
		d.Logger.Printf("task %s: checkpoint failed: %v", taskID, err)
	}
	return TaskOutcome{TaskID: taskID, Status: TaskFailed, Error: errMsg, DurationMs: duration.Milliseconds()}
}

func (d *Deps) fireAfterTask(ctx context.Context, hookCtx port.HookContext, outcome TaskOutcome) {
	cmd := d.HookConfig.Command(port.HookAfterTask)
	if cmd == "" {
		return
	}
	hookCtx.Status = port.HookStatusSuccess
	if outcome.Status == TaskFailed {
		hookCtx.Status = port.HookStatusError
		hookCtx.Error = outcome.Error
	}
	if _, err := d.Hooks.Run(ctx, port.HookAfterTask, cmd, hookCtx); err != nil {
		d.Logger.Printf("task %s: afterTask hook failed (warning): %v", hookCtx.TaskID, err)
	}
}
