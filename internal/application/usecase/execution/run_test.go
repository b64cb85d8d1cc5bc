package execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atzentis/atzentis/internal/domain/model"
	"github.com/atzentis/atzentis/internal/domain/port"
	"github.com/atzentis/atzentis/internal/infrastructure/gateway/agent"
)

func mustPhase(t *testing.T, raw string) model.PhaseID {
	t.Helper()
	phase, err := model.ParsePhaseID(raw)
	require.NoError(t, err)
	return phase
}

func TestRunUseCase_LinearChainCompletesInOrder(t *testing.T) {
	phase := mustPhase(t, "p00")
	tasks := []model.Task{
		{ID: model.MustTaskID("T00-001"), Name: "first", Phase: phase},
		{ID: model.MustTaskID("T00-002"), Name: "second", Phase: phase, Dependencies: []model.TaskID{model.MustTaskID("T00-001")}},
		{ID: model.MustTaskID("T00-003"), Name: "third", Phase: phase, Dependencies: []model.TaskID{model.MustTaskID("T00-002")}},
	}

	engine := agent.NewMockEngine()
	wt := newFakeWorktree()
	hooks := newFakeHookRunner()
	cfg := testConfig(t, 0, 3, 2, true, "")
	deps := newTestDeps(t, cfg, tasks, engine, wt, hooks, port.HookConfig{}, nil, fakePRCreator{})

	result, err := NewRunUseCase(deps).Execute(context.Background(), RunOptions{Project: "demo", Phase: phase})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 3)
	assert.False(t, result.Failed())
	for _, o := range result.Outcomes {
		assert.Equal(t, TaskCompleted, o.Status)
		assert.Equal(t, 1, wt.createdCount(o.TaskID.String()))
	}
}

func TestRunUseCase_ParallelFanOutRunsAllTasksInOneWave(t *testing.T) {
	phase := mustPhase(t, "p00")
	tasks := []model.Task{
		{ID: model.MustTaskID("T00-001"), Name: "a", Phase: phase, ParallelGroup: 1},
		{ID: model.MustTaskID("T00-002"), Name: "b", Phase: phase, ParallelGroup: 1},
		{ID: model.MustTaskID("T00-003"), Name: "c", Phase: phase, ParallelGroup: 1},
	}

	engine := agent.NewMockEngine()
	wt := newFakeWorktree()
	hooks := newFakeHookRunner()
	cfg := testConfig(t, 0, 2, 2, true, "")
	deps := newTestDeps(t, cfg, tasks, engine, wt, hooks, port.HookConfig{}, nil, fakePRCreator{})

	result, err := NewRunUseCase(deps).Execute(context.Background(), RunOptions{Project: "demo", Phase: phase})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 3)
	assert.False(t, result.Failed())
	for _, o := range result.Outcomes {
		assert.Equal(t, TaskCompleted, o.Status)
	}
}

func TestRunUseCase_CyclicDependenciesAreRejectedBeforeSessionCreation(t *testing.T) {
	phase := mustPhase(t, "p00")
	tasks := []model.Task{
		{ID: model.MustTaskID("T00-001"), Name: "a", Phase: phase, Dependencies: []model.TaskID{model.MustTaskID("T00-002")}},
		{ID: model.MustTaskID("T00-002"), Name: "b", Phase: phase, Dependencies: []model.TaskID{model.MustTaskID("T00-001")}},
	}

	engine := agent.NewMockEngine()
	wt := newFakeWorktree()
	hooks := newFakeHookRunner()
	cfg := testConfig(t, 0, 3, 2, true, "")
	deps := newTestDeps(t, cfg, tasks, engine, wt, hooks, port.HookConfig{}, nil, fakePRCreator{})

	result, err := NewRunUseCase(deps).Execute(context.Background(), RunOptions{Project: "demo", Phase: phase})
	require.Error(t, err)
	assert.Nil(t, result)

	sessions, err := deps.Store.ListAll(context.Background(), "demo")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRunUseCase_EngineInternalRetryDoesNotTriggerOuterRetryEnvelope(t *testing.T) {
	phase := mustPhase(t, "p00")
	taskID := model.MustTaskID("T00-001")
	tasks := []model.Task{{ID: taskID, Name: "flaky", Phase: phase}}

	engine := agent.NewMockEngine()
	engine.FailUntil = 2 // fails its first two internal attempts, succeeds on the third

	wt := newFakeWorktree()
	hooks := newFakeHookRunner()
	cfg := testConfig(t, 2, 3, 2, true, "") // engine MaxRetries=2, outerRetries=2
	deps := newTestDeps(t, cfg, tasks, engine, wt, hooks, port.HookConfig{}, nil, fakePRCreator{})

	result, err := NewRunUseCase(deps).Execute(context.Background(), RunOptions{Project: "demo", Phase: phase})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, TaskCompleted, result.Outcomes[0].Status)

	// The engine resolved within a single attemptTask call, so the
	// executor never tore down and recreated the worktree.
	assert.Equal(t, 1, wt.createdCount(taskID.String()))
	assert.Equal(t, 0, wt.removedCount(taskID.String()))
	assert.Equal(t, 3, engine.Calls())
}

func TestRunUseCase_ValidationFailureExhaustsOuterRetries(t *testing.T) {
	phase := mustPhase(t, "p00")
	taskID := model.MustTaskID("T00-001")
	tasks := []model.Task{{ID: taskID, Name: "broken", Phase: phase}}

	engine := agent.NewMockEngine() // always completes on first attempt
	wt := newFakeWorktree()
	hooks := newFakeHookRunner()
	cfg := testConfig(t, 0, 3, 2, false, "exit 1") // validation always fails, 2 outer retries
	deps := newTestDeps(t, cfg, tasks, engine, wt, hooks, port.HookConfig{}, nil, fakePRCreator{})

	result, err := NewRunUseCase(deps).Execute(context.Background(), RunOptions{Project: "demo", Phase: phase})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, TaskFailed, result.Outcomes[0].Status)

	assert.Equal(t, 3, wt.createdCount(taskID.String()))
	assert.Equal(t, 2, wt.removedCount(taskID.String()))

	session, err := deps.Store.Get(context.Background(), result.SessionID)
	require.NoError(t, err)
	record, ok := session.Errors[taskID.String()]
	require.True(t, ok)
	assert.Equal(t, 3, record.Iterations)
}
