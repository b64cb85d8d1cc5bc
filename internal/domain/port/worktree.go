// Package port declares the driven interfaces the executor depends on:
// worktree management, the agent subprocess, the session store, and hook
// execution. Concrete adapters live under internal/infrastructure; the
// core only ever sees these interfaces, mirroring the Clean-Architecture
// port/adapter split the teacher uses (internal/application/port/output).
package port

import "context"

// WorktreeCreateOptions parameterises acquisition of a task's worktree.
type WorktreeCreateOptions struct {
	BaseBranch string
	Slug       string
}

// WorktreeRef identifies a scoped, isolated working copy and its branch.
type WorktreeRef struct {
	Path   string
	Branch string
}

// WorktreeRemoveOptions parameterises worktree removal.
type WorktreeRemoveOptions struct {
	Force bool
}

// WorktreeCommitOptions parameterises a commit.
type WorktreeCommitOptions struct {
	AddAll bool
}

// WorktreePushOptions parameterises a push.
type WorktreePushOptions struct {
	SetUpstream bool
	Remote      string
}

// WorktreeDiffOptions parameterises a diff request.
type WorktreeDiffOptions struct {
	Staged bool
}

// ErrNothingToCommit signals Commit found no changes to record.
var ErrNothingToCommit = errNothingToCommit{}

type errNothingToCommit struct{}

func (errNothingToCommit) Error() string { return "nothing to commit" }

// WorktreeManager scopes acquisition of an isolated working copy and
// branch per task. The canonical path for (baseDir, project, taskID) is a
// pure function: two Create calls with the same inputs return the same
// path, which is what lets resume skip tracking paths in the session.
type WorktreeManager interface {
	Create(ctx context.Context, taskID string, opts WorktreeCreateOptions) (WorktreeRef, error)
	Remove(ctx context.Context, taskID string, opts WorktreeRemoveOptions) error
	Commit(ctx context.Context, taskID string, message string, opts WorktreeCommitOptions) (commitID string, err error)
	Push(ctx context.Context, taskID string, opts WorktreePushOptions) error
	HasUncommittedChanges(ctx context.Context, taskID string) (bool, error)
	ChangedFiles(ctx context.Context, taskID string) ([]string, error)
	Diff(ctx context.Context, taskID string, opts WorktreeDiffOptions) (string, error)
}
