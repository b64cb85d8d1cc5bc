package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atzentis/atzentis/internal/domain/model"
	"github.com/atzentis/atzentis/internal/domain/port"
)

// SessionStore implements port.SessionStore against a SQLite database,
// grounded on internal/infrastructure/persistence/sqlite/sbi_repository_impl.go's
// query shape and error-wrapping idiom. Every write is a single
// transaction so a crash mid-operation never leaves partial state:
// either the whole session row (and any new checkpoint) commits, or
// nothing does.
//
// The session store is single-writer per process: wave execution runs
// same-wave tasks on concurrent goroutines, and each one mutates the
// store directly, so a bare sql.DB would let two goroutines open
// concurrent write transactions and have one fail with SQLITE_BUSY. mu
// serializes every store write the same way ulidMu serializes checkpoint
// id generation in model/ulid.go.
type SessionStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSessionStore wraps an already-migrated database handle.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

var errSessionNotFound = errors.New("session store: session not found")

// Create persists a brand-new session with all taskIDs pending.
func (s *SessionStore) Create(ctx context.Context, project string, phase model.PhaseID, taskIDs []model.TaskID) (*model.Session, error) {
	session := model.NewSession(project, phase, taskIDs)
	if err := s.insert(ctx, session); err != nil {
		return nil, fmt.Errorf("create session failed: %w", err)
	}
	return session, nil
}

func (s *SessionStore) insert(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction failed: %w", err)
	}
	defer tx.Rollback()

	if err := writeSessionRow(ctx, tx, session); err != nil {
		return err
	}
	return tx.Commit()
}

// GetActive returns the most recently started session for project that
// still has pending or in-flight work, or nil if none exists.
func (s *SessionStore) GetActive(ctx context.Context, project string) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id FROM sessions
		WHERE project = ? AND (current_task IS NOT NULL OR pending_tasks != '[]')
		ORDER BY started_at DESC
		LIMIT 1
	`, project)

	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active session failed: %w", err)
	}
	return s.Get(ctx, id)
}

// Get loads a session by id.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.readSession(ctx, s.db, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	return session, nil
}

// ListAll returns every session for project, most recent first.
func (s *SessionStore) ListAll(ctx context.Context, project string) ([]*model.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM sessions WHERE project = ? ORDER BY started_at DESC
	`, project)
	if err != nil {
		return nil, fmt.Errorf("list sessions failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list sessions failed: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions failed: %w", err)
	}

	sessions := make([]*model.Session, 0, len(ids))
	for _, id := range ids {
		session, err := s.readSession(ctx, s.db, id)
		if err != nil {
			return nil, fmt.Errorf("list sessions failed: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// StartTask moves taskID from pending to current within a single
// read-modify-write transaction.
func (s *SessionStore) StartTask(ctx context.Context, sessionID string, taskID model.TaskID) error {
	return s.mutate(ctx, sessionID, func(session *model.Session) error {
		session.StartTask(taskID)
		return nil
	})
}

// RequeueCurrentTask prepends CurrentTask back onto Pending and clears
// it; a no-op if no task was in flight.
func (s *SessionStore) RequeueCurrentTask(ctx context.Context, sessionID string) error {
	return s.mutate(ctx, sessionID, func(session *model.Session) error {
		if session.CurrentTask == nil {
			return nil
		}
		session.PrependPending(*session.CurrentTask)
		session.CurrentTask = nil
		return nil
	})
}

// Checkpoint records the terminal outcome of a task attempt and inserts
// the corresponding checkpoints row in the same transaction as the
// session row update.
func (s *SessionStore) Checkpoint(ctx context.Context, sessionID string, taskID model.TaskID, status model.CheckpointStatus, opts port.CheckpointOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("checkpoint failed: begin transaction: %w", err)
	}
	defer tx.Rollback()

	session, err := s.readSession(ctx, tx, sessionID)
	if err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}

	cp := session.Checkpoint(taskID, status, opts.PRLink, opts.Duration, opts.Error)

	if err := writeSessionRow(ctx, tx, session); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	if err := insertCheckpointRow(ctx, tx, session.ID, cp); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return tx.Commit()
}

// RecordError increments the retry/error record for taskID.
func (s *SessionStore) RecordError(ctx context.Context, sessionID string, taskID model.TaskID, msg string) error {
	return s.mutate(ctx, sessionID, func(session *model.Session) error {
		session.RecordError(taskID, msg)
		return nil
	})
}

// ResolveError marks taskID's error record resolved.
func (s *SessionStore) ResolveError(ctx context.Context, sessionID string, taskID model.TaskID) error {
	return s.mutate(ctx, sessionID, func(session *model.Session) error {
		session.ResolveError(taskID)
		return nil
	})
}

// RegisterWorktree records the worktree path used for taskID.
func (s *SessionStore) RegisterWorktree(ctx context.Context, sessionID string, taskID model.TaskID, path string) error {
	return s.mutate(ctx, sessionID, func(session *model.Session) error {
		session.RegisterWorktree(taskID, path)
		return nil
	})
}

// RegisterBranch records the branch created for taskID.
func (s *SessionStore) RegisterBranch(ctx context.Context, sessionID string, taskID model.TaskID, branch string) error {
	return s.mutate(ctx, sessionID, func(session *model.Session) error {
		session.RegisterBranch(taskID, branch)
		return nil
	})
}

// RegisterPR records the pull request URL opened for taskID.
func (s *SessionStore) RegisterPR(ctx context.Context, sessionID string, taskID model.TaskID, url string) error {
	return s.mutate(ctx, sessionID, func(session *model.Session) error {
		session.RegisterPR(taskID, url)
		return nil
	})
}

// Delete removes a session and its checkpoints (ON DELETE CASCADE).
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session failed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session failed: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete session failed: %w", errSessionNotFound)
	}
	return nil
}

// mutate loads sessionID, applies fn, and writes the result back inside
// a single transaction — the read-modify-write pattern every state
// transition in this store follows.
func (s *SessionStore) mutate(ctx context.Context, sessionID string, fn func(*model.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction failed: %w", err)
	}
	defer tx.Rollback()

	session, err := s.readSession(ctx, tx, sessionID)
	if err != nil {
		return err
	}
	if err := fn(session); err != nil {
		return err
	}
	if err := writeSessionRow(ctx, tx, session); err != nil {
		return err
	}
	return tx.Commit()
}

// dbExecutor is satisfied by both *sql.DB and *sql.Tx, allowing readSession
// and writeSessionRow to run either standalone or inside a caller's
// transaction, grounded on the teacher's dbExecutor abstraction.
type dbExecutor interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *SessionStore) readSession(ctx context.Context, db dbExecutor, sessionID string) (*model.Session, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, project, phase, started_at, last_checkpoint_at, current_task,
		       pending_tasks, completed_tasks, failed_tasks,
		       worktrees, branches, prs, errors, archive_ref
		FROM sessions WHERE id = ?
	`, sessionID)

	var (
		phaseRaw                                                    string
		startedAt                                                   time.Time
		lastCheckpointAt                                            sql.NullTime
		currentTask                                                 sql.NullString
		pendingJSON, completedJSON, failedJSON                      string
		worktreesJSON, branchesJSON, prsJSON, errorsJSON            string
		archiveRef                                                  sql.NullString
		session                                                     model.Session
	)

	if err := row.Scan(&session.ID, &session.Project, &phaseRaw, &startedAt, &lastCheckpointAt, &currentTask,
		&pendingJSON, &completedJSON, &failedJSON,
		&worktreesJSON, &branchesJSON, &prsJSON, &errorsJSON, &archiveRef); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", errSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("scan session failed: %w", err)
	}

	phase, err := model.ParsePhaseID(phaseRaw)
	if err != nil {
		return nil, fmt.Errorf("decode session phase failed: %w", err)
	}
	session.Phase = phase
	session.StartedAt = startedAt
	if lastCheckpointAt.Valid {
		t := lastCheckpointAt.Time
		session.LastCheckpointAt = &t
	}
	if currentTask.Valid {
		id, err := model.ParseTaskID(currentTask.String)
		if err != nil {
			return nil, fmt.Errorf("decode current task failed: %w", err)
		}
		session.CurrentTask = &id
	}
	if archiveRef.Valid {
		session.ArchiveRef = archiveRef.String
	}

	if session.Pending, err = decodeTaskIDs(pendingJSON); err != nil {
		return nil, fmt.Errorf("decode pending tasks failed: %w", err)
	}
	if session.Completed, err = decodeTaskIDs(completedJSON); err != nil {
		return nil, fmt.Errorf("decode completed tasks failed: %w", err)
	}
	if session.Failed, err = decodeTaskIDs(failedJSON); err != nil {
		return nil, fmt.Errorf("decode failed tasks failed: %w", err)
	}

	if err := json.Unmarshal([]byte(worktreesJSON), &session.Worktrees); err != nil {
		return nil, fmt.Errorf("decode worktrees failed: %w", err)
	}
	if err := json.Unmarshal([]byte(branchesJSON), &session.Branches); err != nil {
		return nil, fmt.Errorf("decode branches failed: %w", err)
	}
	if err := json.Unmarshal([]byte(prsJSON), &session.PRs); err != nil {
		return nil, fmt.Errorf("decode PRs failed: %w", err)
	}
	if err := json.Unmarshal([]byte(errorsJSON), &session.Errors); err != nil {
		return nil, fmt.Errorf("decode errors failed: %w", err)
	}

	checkpoints, err := readCheckpoints(ctx, db, session.ID)
	if err != nil {
		return nil, fmt.Errorf("read checkpoints failed: %w", err)
	}
	session.Checkpoints = checkpoints

	return &session, nil
}

func writeSessionRow(ctx context.Context, db dbExecutor, session *model.Session) error {
	pendingJSON, err := encodeTaskIDs(session.Pending)
	if err != nil {
		return fmt.Errorf("encode pending tasks failed: %w", err)
	}
	completedJSON, err := encodeTaskIDs(session.Completed)
	if err != nil {
		return fmt.Errorf("encode completed tasks failed: %w", err)
	}
	failedJSON, err := encodeTaskIDs(session.Failed)
	if err != nil {
		return fmt.Errorf("encode failed tasks failed: %w", err)
	}

	worktreesJSON, err := json.Marshal(nonNilMap(session.Worktrees))
	if err != nil {
		return fmt.Errorf("encode worktrees failed: %w", err)
	}
	branchesJSON, err := json.Marshal(nonNilMap(session.Branches))
	if err != nil {
		return fmt.Errorf("encode branches failed: %w", err)
	}
	prsJSON, err := json.Marshal(nonNilMap(session.PRs))
	if err != nil {
		return fmt.Errorf("encode PRs failed: %w", err)
	}
	errorsJSON, err := json.Marshal(session.Errors)
	if err != nil {
		return fmt.Errorf("encode errors failed: %w", err)
	}

	var currentTask interface{}
	if session.CurrentTask != nil {
		currentTask = session.CurrentTask.String()
	}
	var archiveRef interface{}
	if session.ArchiveRef != "" {
		archiveRef = session.ArchiveRef
	}
	var lastCheckpointAt interface{}
	if session.LastCheckpointAt != nil {
		lastCheckpointAt = *session.LastCheckpointAt
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO sessions (id, project, phase, started_at, last_checkpoint_at, current_task,
		                      pending_tasks, completed_tasks, failed_tasks,
		                      worktrees, branches, prs, errors, archive_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_checkpoint_at = excluded.last_checkpoint_at,
			current_task = excluded.current_task,
			pending_tasks = excluded.pending_tasks,
			completed_tasks = excluded.completed_tasks,
			failed_tasks = excluded.failed_tasks,
			worktrees = excluded.worktrees,
			branches = excluded.branches,
			prs = excluded.prs,
			errors = excluded.errors,
			archive_ref = excluded.archive_ref
	`,
		session.ID, session.Project, session.Phase.String(), session.StartedAt, lastCheckpointAt, currentTask,
		string(pendingJSON), string(completedJSON), string(failedJSON),
		string(worktreesJSON), string(branchesJSON), string(prsJSON), string(errorsJSON), archiveRef,
	)
	if err != nil {
		return fmt.Errorf("write session row failed: %w", err)
	}
	return nil
}

func insertCheckpointRow(ctx context.Context, db dbExecutor, sessionID string, cp model.Checkpoint) error {
	var prLink, cpErr interface{}
	if cp.PRLink != "" {
		prLink = cp.PRLink
	}
	if cp.Error != "" {
		cpErr = cp.Error
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO checkpoints (ulid, session_id, timestamp, task_id, status, pr_link, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, cp.ULID, sessionID, cp.Timestamp, cp.TaskID.String(), string(cp.Status), prLink, cp.DurationMs, cpErr)
	if err != nil {
		return fmt.Errorf("insert checkpoint failed: %w", err)
	}
	return nil
}

func readCheckpoints(ctx context.Context, db dbExecutor, sessionID string) ([]model.Checkpoint, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT ulid, timestamp, task_id, status, pr_link, duration_ms, error
		FROM checkpoints WHERE session_id = ? ORDER BY ulid ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkpoints []model.Checkpoint
	for rows.Next() {
		var (
			cp                model.Checkpoint
			taskIDRaw, status string
			prLink, cpErr     sql.NullString
			durationMs        sql.NullInt64
		)
		if err := rows.Scan(&cp.ULID, &cp.Timestamp, &taskIDRaw, &status, &prLink, &durationMs, &cpErr); err != nil {
			return nil, err
		}
		taskID, err := model.ParseTaskID(taskIDRaw)
		if err != nil {
			return nil, fmt.Errorf("decode checkpoint task id failed: %w", err)
		}
		cp.TaskID = taskID
		cp.Status = model.CheckpointStatus(status)
		cp.PRLink = prLink.String
		cp.Error = cpErr.String
		cp.DurationMs = durationMs.Int64
		checkpoints = append(checkpoints, cp)
	}
	return checkpoints, rows.Err()
}

func encodeTaskIDs(ids []model.TaskID) ([]byte, error) {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	return json.Marshal(raw)
}

func decodeTaskIDs(data string) ([]model.TaskID, error) {
	var raw []string
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, err
	}
	ids := make([]model.TaskID, 0, len(raw))
	for _, r := range raw {
		id, err := model.ParseTaskID(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
