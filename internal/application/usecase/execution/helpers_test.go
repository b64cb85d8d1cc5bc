package execution

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/atzentis/atzentis/internal/app/config"
	"github.com/atzentis/atzentis/internal/domain/model"
	"github.com/atzentis/atzentis/internal/domain/port"
	"github.com/atzentis/atzentis/internal/infrastructure/gateway/agent"
	"github.com/atzentis/atzentis/internal/infrastructure/persistence/sqlite"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeLoader resolves tasks from a fixed in-memory list, standing in
// for infrastructure/parser.Loader in executor tests.
type fakeLoader struct {
	tasks []model.Task
}

func (f fakeLoader) LoadTasks(phase model.PhaseID) ([]model.Task, error) {
	var out []model.Task
	for _, t := range f.tasks {
		if t.Phase.String() == phase.String() {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f fakeLoader) LoadTask(id model.TaskID) (model.Task, bool, error) {
	for _, t := range f.tasks {
		if t.ID.Equals(id) {
			return t, true, nil
		}
	}
	return model.Task{}, false, nil
}

// fakeWorktree is an in-memory port.WorktreeManager recording calls so
// tests can assert on how many times a task's worktree was
// created/removed across outer retries.
type fakeWorktree struct {
	mu        sync.Mutex
	path      string
	created   map[string]int
	removed   map[string]int
	commitErr map[string]error
	pushErr   map[string]error
	clean     map[string]bool
}

func newFakeWorktree() *fakeWorktree {
	return &fakeWorktree{
		path:      ".",
		created:   map[string]int{},
		removed:   map[string]int{},
		commitErr: map[string]error{},
		pushErr:   map[string]error{},
		clean:     map[string]bool{},
	}
}

func (f *fakeWorktree) Create(_ context.Context, taskID string, _ port.WorktreeCreateOptions) (port.WorktreeRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created[taskID]++
	return port.WorktreeRef{Path: f.path, Branch: "atzentis/demo/" + strings.ToLower(taskID)}, nil
}

func (f *fakeWorktree) Remove(_ context.Context, taskID string, _ port.WorktreeRemoveOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed[taskID]++
	return nil
}

func (f *fakeWorktree) Commit(_ context.Context, taskID, _ string, _ port.WorktreeCommitOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.commitErr[taskID]; ok {
		return "", err
	}
	if f.clean[taskID] {
		return "", port.ErrNothingToCommit
	}
	return "deadbeef", nil
}

func (f *fakeWorktree) Push(_ context.Context, taskID string, _ port.WorktreePushOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushErr[taskID]
}

func (f *fakeWorktree) HasUncommittedChanges(context.Context, string) (bool, error) { return true, nil }
func (f *fakeWorktree) ChangedFiles(context.Context, string) ([]string, error)      { return nil, nil }
func (f *fakeWorktree) Diff(context.Context, string, port.WorktreeDiffOptions) (string, error) {
	return "", nil
}

func (f *fakeWorktree) createdCount(taskID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[taskID]
}

func (f *fakeWorktree) removedCount(taskID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removed[taskID]
}

// fakeHookRunner records every hook invocation and can be configured
// to fail specific kinds.
type fakeHookRunner struct {
	mu        sync.Mutex
	calls     []port.HookKind
	failKinds map[port.HookKind]bool
}

func newFakeHookRunner() *fakeHookRunner {
	return &fakeHookRunner{failKinds: map[port.HookKind]bool{}}
}

func (f *fakeHookRunner) Run(_ context.Context, kind port.HookKind, _ string, _ port.HookContext) (port.HookResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, kind)
	f.mu.Unlock()
	if f.failKinds[kind] {
		return port.HookResult{Success: false}, fmt.Errorf("hook %s failed", kind)
	}
	return port.HookResult{Success: true}, nil
}

func (f *fakeHookRunner) count(kind port.HookKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.calls {
		if k == kind {
			n++
		}
	}
	return n
}

// fakeArchiver records every snapshot handed to it.
type fakeArchiver struct {
	mu        sync.Mutex
	snapshots int
}

func (f *fakeArchiver) Archive(_ context.Context, sessionID string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots++
	return "ref://" + sessionID, nil
}

// fakePRCreator returns a fixed url/err pair for every task.
type fakePRCreator struct {
	url string
	err error
}

func (f fakePRCreator) Create(context.Context, string, port.PRCreateOptions) (string, error) {
	return f.url, f.err
}

func testConfig(t *testing.T, maxRetries, maxParallel, outerRetries int, fastMode bool, testCommand string) config.Config {
	t.Helper()
	return config.New("", "", "", "", "mock", "<promise>COMPLETE</promise>",
		0, maxRetries, maxParallel, outerRetries, fastMode, "", testCommand, "main", "", "", "",
		"", "", "", "", "")
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+t.Name()+"?mode=memory&cache=shared&_busy_timeout=5000")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.NewMigrator(db).Migrate())
	return db
}

func newTestDeps(t *testing.T, cfg config.Config, tasks []model.Task, engine *agent.MockEngine,
	wt *fakeWorktree, hooks *fakeHookRunner, hookCfg port.HookConfig, archiver port.Archiver, prs port.PRCreator,
) *Deps {
	t.Helper()
	registry := agent.NewRegistry()
	registry.Register(engine)

	store := sqlite.NewSessionStore(testDB(t))
	logger := log.New(testLogWriter{t}, "[executor] ", 0)

	return NewDeps(fakeLoader{tasks: tasks}, wt, registry, store, hooks, hookCfg, archiver, prs, cfg, logger)
}

// testLogWriter routes executor log output through t.Log so goroutine
// leak detection and test output stay interleaved sanely.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
