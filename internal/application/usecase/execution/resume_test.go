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

func TestResumeUseCase_RequeuesCrashedTaskAndCompletesRemainingWork(t *testing.T) {
	phase := mustPhase(t, "p00")
	task1 := model.MustTaskID("T00-001")
	task2 := model.MustTaskID("T00-002")
	tasks := []model.Task{
		{ID: task1, Name: "first", Phase: phase},
		{ID: task2, Name: "second", Phase: phase, Dependencies: []model.TaskID{task1}},
	}

	engine := agent.NewMockEngine()
	wt := newFakeWorktree()
	hooks := newFakeHookRunner()
	cfg := testConfig(t, 0, 3, 2, true, "")
	deps := newTestDeps(t, cfg, tasks, engine, wt, hooks, port.HookConfig{}, nil, fakePRCreator{})

	ctx := context.Background()
	session, err := deps.Store.Create(ctx, "demo", phase, []model.TaskID{task1, task2})
	require.NoError(t, err)

	// Simulate a crash: the executor claimed task1 but never checkpointed it.
	require.NoError(t, deps.Store.StartTask(ctx, session.ID, task1))

	result, err := NewResumeUseCase(deps).Execute(ctx, "demo", RunOptions{})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)
	assert.False(t, result.Failed())

	final, err := deps.Store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, final.CurrentTask)
	assert.Empty(t, final.Pending)
	assert.ElementsMatch(t, []string{task1.String(), task2.String()}, idsAsStrings(final.Completed))
}

func TestResumeUseCase_NoActiveSessionReturnsErrNoActiveSession(t *testing.T) {
	phase := mustPhase(t, "p00")
	tasks := []model.Task{{ID: model.MustTaskID("T00-001"), Name: "first", Phase: phase}}

	engine := agent.NewMockEngine()
	wt := newFakeWorktree()
	hooks := newFakeHookRunner()
	cfg := testConfig(t, 0, 3, 2, true, "")
	deps := newTestDeps(t, cfg, tasks, engine, wt, hooks, port.HookConfig{}, nil, fakePRCreator{})

	_, err := NewResumeUseCase(deps).Execute(context.Background(), "demo", RunOptions{})
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func idsAsStrings(ids []model.TaskID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
