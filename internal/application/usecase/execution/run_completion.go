package execution

import (
	"context"
	"encoding/json"

	"github.com/atzentis/atzentis/internal/domain/port"
)

// fireRunCompletion fires the run-level onSuccess hook when every task
// across every wave reached completed, or onError when any task failed
// or the run aborted in sequential mode (spec.md §4.7 "Wave execution":
// "the final onSuccess fires only if no task failed across all waves").
func (d *Deps) fireRunCompletion(ctx context.Context, hookCtx port.HookContext, result RunResult) {
	if !result.Failed() && !result.Aborted {
		if cmd := d.HookConfig.Command(port.HookOnSuccess); cmd != "" {
			hookCtx.Status = port.HookStatusSuccess
			if _, err := d.Hooks.Run(ctx, port.HookOnSuccess, cmd, hookCtx); err != nil {
				d.Logger.Printf("onSuccess hook failed (warning): %v", err)
			}
		}
		return
	}

	if cmd := d.HookConfig.Command(port.HookOnError); cmd != "" {
		hookCtx.Status = port.HookStatusError
		if _, err := d.Hooks.Run(ctx, port.HookOnError, cmd, hookCtx); err != nil {
			d.Logger.Printf("onError hook failed (warning): %v", err)
		}
	}
}

// archiveSession best-effort snapshots the session to the configured
// Archiver; any failure is logged and never surfaced to the caller
// (spec.md §3 domain-stack wiring: "fire-and-forget").
func (d *Deps) archiveSession(ctx context.Context, sessionID string) {
	if d.Archiver == nil {
		return
	}
	session, err := d.Store.Get(ctx, sessionID)
	if err != nil {
		d.Logger.Printf("archive session %s: load: %v", sessionID, err)
		return
	}
	snapshot, err := json.Marshal(session)
	if err != nil {
		d.Logger.Printf("archive session %s: marshal: %v", sessionID, err)
		return
	}
	if _, err := d.Archiver.Archive(ctx, sessionID, snapshot); err != nil {
		d.Logger.Printf("archive session %s failed (warning): %v", sessionID, err)
	}
}
