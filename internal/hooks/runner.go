// Package hooks fires lifecycle shell commands (beforePhase, beforeTask,
// afterTask, onSuccess, onError) with execution context injected as
// environment variables, grounded on the subprocess-invocation idiom in
// claudecli.Runner (os/exec + CombinedOutput).
package hooks

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/atzentis/atzentis/internal/domain/port"
)

// Runner shells out via "sh -c <command>".
type Runner struct{}

// NewRunner creates a hook runner.
func NewRunner() *Runner { return &Runner{} }

// Run executes cmd with a shell, injecting hookCtx as bare (unprefixed)
// environment variables — PROJECT, PHASE, TASK_ID, TASK_NAME, STATUS,
// ERROR — alongside the process's own environment.
func (r *Runner) Run(ctx context.Context, kind port.HookKind, cmd string, hookCtx port.HookContext) (port.HookResult, error) {
	c := exec.CommandContext(ctx, "sh", "-c", cmd)
	c.Env = append(c.Environ(),
		"PROJECT="+hookCtx.Project,
		"PHASE="+hookCtx.Phase,
		"TASK_ID="+hookCtx.TaskID,
		"TASK_NAME="+hookCtx.TaskName,
		"STATUS="+string(hookCtx.Status),
		"ERROR="+hookCtx.Error,
	)

	out, err := c.CombinedOutput()
	result := port.HookResult{
		Success: err == nil,
		Output:  string(out),
	}
	if err != nil {
		return result, fmt.Errorf("hook %s failed: %w (output: %s)", kind, err, out)
	}
	return result, nil
}
