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

func TestDryRunUseCase_PlansWavesWithoutSideEffects(t *testing.T) {
	phase := mustPhase(t, "p00")
	task1 := model.MustTaskID("T00-001")
	task2 := model.MustTaskID("T00-002")
	tasks := []model.Task{
		{ID: task1, Name: "first", Phase: phase, Estimate: model.NewEstimateHours(2)},
		{ID: task2, Name: "second", Phase: phase, Dependencies: []model.TaskID{task1}, Estimate: model.NewEstimateHours(3)},
	}

	engine := agent.NewMockEngine()
	wt := newFakeWorktree()
	hooks := newFakeHookRunner()
	cfg := testConfig(t, 0, 3, 2, true, "")
	deps := newTestDeps(t, cfg, tasks, engine, wt, hooks, port.HookConfig{}, nil, fakePRCreator{})

	plan, err := NewDryRunUseCase(deps).Execute(context.Background(), phase)
	require.NoError(t, err)
	require.Len(t, plan.Waves, 2)
	assert.Equal(t, task1, plan.Waves[0].Tasks[0].TaskID)
	assert.Equal(t, task2, plan.Waves[1].Tasks[0].TaskID)
	assert.Equal(t, []string{task1.String()}, plan.Waves[1].Tasks[0].Dependencies)
	assert.InDelta(t, 5.0, plan.TotalEstimateHours, 0.0001)

	// No session was created and no worktree touched.
	sessions, err := deps.Store.ListAll(context.Background(), "demo")
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.Zero(t, wt.createdCount(task1.String()))
	assert.Zero(t, wt.createdCount(task2.String()))
	assert.Zero(t, engine.Calls())
}
