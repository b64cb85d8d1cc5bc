package port

import (
	"context"
	"time"

	"github.com/atzentis/atzentis/internal/domain/model"
)

// CheckpointOptions carries the optional fields of a checkpoint call.
type CheckpointOptions struct {
	PRLink   string
	Duration time.Duration
	Error    string
}

// SessionStore is durable, crash-safe, single-writer persistence of
// session state. Every operation either completes and durably flushes,
// or fails atomically; implementations must never leave a session
// partially updated.
type SessionStore interface {
	Create(ctx context.Context, project string, phase model.PhaseID, taskIDs []model.TaskID) (*model.Session, error)
	GetActive(ctx context.Context, project string) (*model.Session, error)
	Get(ctx context.Context, sessionID string) (*model.Session, error)
	ListAll(ctx context.Context, project string) ([]*model.Session, error)

	StartTask(ctx context.Context, sessionID string, taskID model.TaskID) error
	// RequeueCurrentTask prepends a session's in-flight CurrentTask back
	// onto Pending and clears it, durably, in one transaction. It is a
	// no-op if CurrentTask is unset. Used by resume to recover from a
	// crash between startTask and checkpoint (spec.md §4.7 "Resume").
	RequeueCurrentTask(ctx context.Context, sessionID string) error
	Checkpoint(ctx context.Context, sessionID string, taskID model.TaskID, status model.CheckpointStatus, opts CheckpointOptions) error
	RecordError(ctx context.Context, sessionID string, taskID model.TaskID, msg string) error
	ResolveError(ctx context.Context, sessionID string, taskID model.TaskID) error

	RegisterWorktree(ctx context.Context, sessionID string, taskID model.TaskID, path string) error
	RegisterBranch(ctx context.Context, sessionID string, taskID model.TaskID, branch string) error
	RegisterPR(ctx context.Context, sessionID string, taskID model.TaskID, url string) error

	Delete(ctx context.Context, sessionID string) error
}
