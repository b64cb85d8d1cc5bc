package model

import (
	"time"

	"github.com/google/uuid"
)

// CheckpointStatus is the terminal outcome recorded for a task attempt.
type CheckpointStatus string

const (
	CheckpointCompleted CheckpointStatus = "completed"
	CheckpointFailed    CheckpointStatus = "failed"
)

// Checkpoint is a durable record of a task's terminal outcome within a
// session. The ULID doubles as the checkpoints table's sort key so two
// checkpoints sharing a timestamp millisecond still order deterministically.
type Checkpoint struct {
	ULID       string
	Timestamp  time.Time
	TaskID     TaskID
	Status     CheckpointStatus
	PRLink     string
	DurationMs int64
	Error      string
}

// SessionError tracks the retry/error history for one task within a session.
type SessionError struct {
	Iterations int
	LastError  string
	Retried    bool
	Resolved   bool
}

// Session is a single run instance, persisting partial progress across
// the task DAG identified at creation time.
type Session struct {
	ID               string
	Project          string
	Phase            PhaseID
	StartedAt        time.Time
	LastCheckpointAt *time.Time
	CurrentTask      *TaskID

	Pending   []TaskID
	Completed []TaskID
	Failed    []TaskID

	Worktrees map[string]string // TaskID.String() -> path
	Branches  map[string]string // TaskID.String() -> branch name
	PRs       map[string]string // TaskID.String() -> PR URL
	ArchiveRef string

	Errors map[string]*SessionError // TaskID.String() -> error record

	Checkpoints []Checkpoint
}

// NewSession creates a fresh session with all task ids pending.
func NewSession(project string, phase PhaseID, taskIDs []TaskID) *Session {
	pending := make([]TaskID, len(taskIDs))
	copy(pending, taskIDs)
	return &Session{
		ID:        uuid.New().String(),
		Project:   project,
		Phase:     phase,
		StartedAt: now(),
		Pending:   pending,
		Worktrees: map[string]string{},
		Branches:  map[string]string{},
		PRs:       map[string]string{},
		Errors:    map[string]*SessionError{},
	}
}

// IsActive reports whether the session still has work to do: pending
// tasks remain, or a task is currently in flight.
func (s *Session) IsActive() bool {
	return len(s.Pending) > 0 || s.CurrentTask != nil
}

// StartTask moves id out of Pending and marks it as the current task.
// It is a no-op with respect to id's prior membership beyond removal from
// Pending; callers are expected to have validated id came from Pending.
func (s *Session) StartTask(id TaskID) {
	s.Pending = removeTaskID(s.Pending, id)
	t := id
	s.CurrentTask = &t
}

// Checkpoint appends a terminal checkpoint for the current task, clears
// CurrentTask, and files id into Completed or Failed.
func (s *Session) Checkpoint(id TaskID, status CheckpointStatus, prLink string, duration time.Duration, errMsg string) Checkpoint {
	cp := Checkpoint{
		ULID:      NewCheckpointULID(),
		Timestamp: now(),
		TaskID:    id,
		Status:    status,
		PRLink:    prLink,
		Error:     errMsg,
	}
	if duration > 0 {
		cp.DurationMs = duration.Milliseconds()
	}
	s.Checkpoints = append(s.Checkpoints, cp)

	if s.CurrentTask != nil && s.CurrentTask.Equals(id) {
		s.CurrentTask = nil
	}

	switch status {
	case CheckpointCompleted:
		s.Completed = append(s.Completed, id)
	case CheckpointFailed:
		s.Failed = append(s.Failed, id)
	}

	t := now()
	s.LastCheckpointAt = &t
	return cp
}

// RecordError initialises or increments the error record for id.
func (s *Session) RecordError(id TaskID, msg string) {
	rec, ok := s.Errors[id.String()]
	if !ok {
		rec = &SessionError{}
		s.Errors[id.String()] = rec
	}
	rec.Iterations++
	rec.LastError = msg
	rec.Retried = rec.Iterations > 1
	rec.Resolved = false
}

// ResolveError marks id's error record resolved without touching Iterations.
func (s *Session) ResolveError(id TaskID) {
	rec, ok := s.Errors[id.String()]
	if !ok {
		return
	}
	rec.Resolved = true
}

// RegisterWorktree records the worktree path for id.
func (s *Session) RegisterWorktree(id TaskID, path string) { s.Worktrees[id.String()] = path }

// RegisterBranch records the branch name for id.
func (s *Session) RegisterBranch(id TaskID, branch string) { s.Branches[id.String()] = branch }

// RegisterPR records the PR URL for id.
func (s *Session) RegisterPR(id TaskID, url string) { s.PRs[id.String()] = url }

// PrependPending prepends id to the front of Pending, used by resume to
// requeue a task interrupted mid-flight.
func (s *Session) PrependPending(id TaskID) {
	s.Pending = append([]TaskID{id}, s.Pending...)
}

func removeTaskID(ids []TaskID, target TaskID) []TaskID {
	out := ids[:0:0]
	for _, id := range ids {
		if !id.Equals(target) {
			out = append(out, id)
		}
	}
	return out
}
