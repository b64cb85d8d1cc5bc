package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atzentis/atzentis/internal/domain/model"
)

func mkTask(id string, group int, priority model.Priority, deps ...string) model.Task {
	depIDs := make([]model.TaskID, len(deps))
	for i, d := range deps {
		depIDs[i] = model.MustTaskID(d)
	}
	return model.Task{
		ID:            model.MustTaskID(id),
		Name:          id,
		Status:        model.StatusPending,
		ParallelGroup: group,
		Priority:      priority,
		Dependencies:  depIDs,
	}
}

func TestBuildExecutionWaves_LinearThreeTasks(t *testing.T) {
	tasks := []model.Task{
		mkTask("T00-001", 1, model.PriorityP1),
		mkTask("T00-002", 1, model.PriorityP1, "T00-001"),
		mkTask("T00-003", 1, model.PriorityP1, "T00-002"),
	}

	waves, err := BuildExecutionWaves(tasks)
	require.NoError(t, err)
	require.Len(t, waves, 3)
	for _, wave := range waves {
		assert.Len(t, wave, 1)
	}
	assert.Equal(t, "T00-001", waves[0][0].ID.String())
	assert.Equal(t, "T00-002", waves[1][0].ID.String())
	assert.Equal(t, "T00-003", waves[2][0].ID.String())
}

func TestBuildExecutionWaves_ParallelFanOut(t *testing.T) {
	tasks := []model.Task{
		mkTask("T00-001", 1, model.PriorityP1), // A
		mkTask("T00-002", 1, model.PriorityP1, "T00-001"), // B deps A
		mkTask("T00-003", 1, model.PriorityP1, "T00-001"), // C deps A
	}

	waves, err := BuildExecutionWaves(tasks)
	require.NoError(t, err)
	require.Len(t, waves, 2)
	assert.Len(t, waves[0], 1)
	assert.Equal(t, "T00-001", waves[0][0].ID.String())
	assert.Len(t, waves[1], 2)
}

func TestBuildExecutionWaves_Cycle(t *testing.T) {
	tasks := []model.Task{
		mkTask("T00-001", 1, model.PriorityP1, "T00-002"), // X deps Y
		mkTask("T00-002", 1, model.PriorityP1, "T00-001"), // Y deps X
	}

	_, err := BuildExecutionWaves(tasks)
	require.Error(t, err)
	var cycleErr *CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)

	names := map[string]bool{}
	for _, id := range cycleErr.Path {
		names[id.String()] = true
	}
	assert.True(t, names["T00-001"])
	assert.True(t, names["T00-002"])
}

func TestBuildExecutionWaves_UnknownDependency(t *testing.T) {
	tasks := []model.Task{
		mkTask("T00-001", 1, model.PriorityP1, "T00-999"),
	}
	_, err := BuildExecutionWaves(tasks)
	require.Error(t, err)
	var unknownErr *UnknownDependencyError
	require.ErrorAs(t, err, &unknownErr)
}

func TestBuildExecutionWaves_CrossGroupConflict(t *testing.T) {
	// T00-001 is in group 1 but depends on T00-002 in group 2: the
	// forward-referencing task sits in the earlier group, so its
	// dependency can never be satisfied within that group's sweep.
	tasks := []model.Task{
		mkTask("T00-001", 1, model.PriorityP1, "T00-002"),
		mkTask("T00-002", 2, model.PriorityP1),
	}
	_, err := BuildExecutionWaves(tasks)
	require.Error(t, err)
	var unschedulable *UnschedulableTasksError
	require.ErrorAs(t, err, &unschedulable)
}

func TestBuildExecutionWaves_UnionAndIntersectionInvariant(t *testing.T) {
	tasks := []model.Task{
		mkTask("T00-001", 1, model.PriorityP1),
		mkTask("T00-002", 1, model.PriorityP1, "T00-001"),
		mkTask("T00-003", 2, model.PriorityP1, "T00-002"),
	}
	waves, err := BuildExecutionWaves(tasks)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, wave := range waves {
		for _, task := range wave {
			seen[task.ID.String()]++
		}
	}
	assert.Len(t, seen, len(tasks))
	for _, count := range seen {
		assert.Equal(t, 1, count, "each task must appear in exactly one wave")
	}
}

func TestBuildExecutionWaves_DependenciesInEarlierWave(t *testing.T) {
	tasks := []model.Task{
		mkTask("T00-001", 1, model.PriorityP1),
		mkTask("T00-002", 1, model.PriorityP1, "T00-001"),
		mkTask("T00-003", 1, model.PriorityP1, "T00-001"),
		mkTask("T00-004", 1, model.PriorityP1, "T00-002", "T00-003"),
	}
	waves, err := BuildExecutionWaves(tasks)
	require.NoError(t, err)

	waveOf := map[string]int{}
	for i, wave := range waves {
		for _, task := range wave {
			waveOf[task.ID.String()] = i
		}
	}
	for _, task := range tasks {
		for _, dep := range task.Dependencies {
			assert.Less(t, waveOf[dep.String()], waveOf[task.ID.String()])
		}
	}
}

func TestBuildExecutionWaves_NoIntraWaveDependency(t *testing.T) {
	tasks := []model.Task{
		mkTask("T00-001", 1, model.PriorityP1),
		mkTask("T00-002", 1, model.PriorityP1, "T00-001"),
		mkTask("T00-003", 1, model.PriorityP1, "T00-001"),
	}
	waves, err := BuildExecutionWaves(tasks)
	require.NoError(t, err)

	for _, wave := range waves {
		for _, a := range wave {
			for _, b := range wave {
				if a.ID.Equals(b.ID) {
					continue
				}
				assert.False(t, a.DependsOn(b.ID), "%s must not depend on %s in the same wave", a.ID, b.ID)
			}
		}
	}
}

func TestTopologicalSort_PermutationAndEdgeOrder(t *testing.T) {
	tasks := []model.Task{
		mkTask("T00-002", 1, model.PriorityP2, "T00-001"),
		mkTask("T00-001", 1, model.PriorityP0),
		mkTask("T00-003", 1, model.PriorityP1, "T00-001"),
	}
	sorted, err := TopologicalSort(tasks)
	require.NoError(t, err)
	require.Len(t, sorted, len(tasks))

	pos := map[string]int{}
	for i, task := range sorted {
		pos[task.ID.String()] = i
	}
	for _, task := range sorted {
		for _, dep := range task.Dependencies {
			assert.Less(t, pos[dep.String()], pos[task.ID.String()])
		}
	}
}

func TestEstimatedDuration_MaxPerWaveSummed(t *testing.T) {
	a := mkTask("T00-001", 1, model.PriorityP1)
	a.Estimate = model.NewEstimateHours(2)
	b := mkTask("T00-002", 1, model.PriorityP1, "T00-001")
	b.Estimate = model.NewEstimateHours(3)
	c := mkTask("T00-003", 1, model.PriorityP1, "T00-001")
	c.Estimate = model.NewEstimateHours(5)

	waves, err := BuildExecutionWaves([]model.Task{a, b, c})
	require.NoError(t, err)

	total := EstimatedDuration(waves)
	// wave0 = max(2) = 2, wave1 = max(3,5) = 5, total = 7
	assert.Equal(t, 7.0, total.Hours())
}
