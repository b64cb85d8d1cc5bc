// Package scheduler validates a task DAG and partitions it into ordered
// execution waves, respecting both explicit dependencies and user-declared
// parallel groups. It performs no I/O: every function is a pure
// transformation over []model.Task, which keeps it goroutine-leak-free and
// trivially unit-testable.
package scheduler

import (
	"sort"

	"github.com/atzentis/atzentis/internal/domain/model"
)

// Wave is a maximal set of tasks that may execute concurrently.
type Wave []model.Task

// BuildExecutionWaves validates tasks and returns them partitioned into
// ordered waves: waves execute strictly in sequence, tasks within a wave
// may run concurrently.
func BuildExecutionWaves(tasks []model.Task) ([]Wave, error) {
	byID := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID.String()] = t
	}

	if err := checkDependenciesKnown(tasks, byID); err != nil {
		return nil, err
	}
	if err := checkAcyclic(tasks, byID); err != nil {
		return nil, err
	}

	groups := distinctParallelGroupsAsc(tasks)

	completed := make(map[string]bool, len(tasks))
	var waves []Wave

	for _, group := range groups {
		remaining := tasksInGroup(tasks, group)
		for len(remaining) > 0 {
			var eligible []model.Task
			var stillRemaining []model.Task
			for _, t := range remaining {
				if allDepsCompleted(t, completed) {
					eligible = append(eligible, t)
				} else {
					stillRemaining = append(stillRemaining, t)
				}
			}
			if len(eligible) == 0 {
				ids := make([]model.TaskID, len(remaining))
				for i, t := range remaining {
					ids[i] = t.ID
				}
				return nil, &UnschedulableTasksError{Remaining: ids}
			}

			sortByID(eligible)
			for _, t := range eligible {
				completed[t.ID.String()] = true
			}
			waves = append(waves, Wave(eligible))
			remaining = stillRemaining
		}
	}

	return waves, nil
}

// TopologicalSort linearises tasks for sequential execution. Ties are
// broken by (parallelGroup asc, priority asc) with P0 < P1 < P2 < P3.
func TopologicalSort(tasks []model.Task) ([]model.Task, error) {
	waves, err := BuildExecutionWaves(tasks)
	if err != nil {
		return nil, err
	}
	var out []model.Task
	for _, wave := range waves {
		ordered := append([]model.Task(nil), wave...)
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].ParallelGroup != ordered[j].ParallelGroup {
				return ordered[i].ParallelGroup < ordered[j].ParallelGroup
			}
			return ordered[i].Priority.Less(ordered[j].Priority)
		})
		out = append(out, ordered...)
	}
	return out, nil
}

// EstimatedDuration sums, per wave, the max estimate within the wave
// (tasks run in parallel), then sums across waves (waves run sequentially).
func EstimatedDuration(waves []Wave) model.Estimate {
	var total float64
	for _, wave := range waves {
		var max float64
		for _, t := range wave {
			if h := t.Estimate.Hours(); h > max {
				max = h
			}
		}
		total += max
	}
	return model.NewEstimateHours(total)
}

func checkDependenciesKnown(tasks []model.Task, byID map[string]model.Task) error {
	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			if _, ok := byID[dep.String()]; !ok {
				return &UnknownDependencyError{Task: t.ID, Dependency: dep}
			}
		}
	}
	return nil
}

func checkAcyclic(tasks []model.Task, byID map[string]model.Task) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(tasks))
	var path []model.TaskID

	var visit func(t model.Task) error
	visit = func(t model.Task) error {
		color[t.ID.String()] = gray
		path = append(path, t.ID)

		for _, depID := range t.Dependencies {
			dep := byID[depID.String()]
			switch color[dep.ID.String()] {
			case gray:
				cycle := append(append([]model.TaskID(nil), path...), dep.ID)
				return &CircularDependencyError{Path: cycle}
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		color[t.ID.String()] = black
		path = path[:len(path)-1]
		return nil
	}

	for _, t := range tasks {
		if color[t.ID.String()] == white {
			if err := visit(t); err != nil {
				return err
			}
		}
	}
	return nil
}

func distinctParallelGroupsAsc(tasks []model.Task) []int {
	seen := map[int]bool{}
	var groups []int
	for _, t := range tasks {
		if !seen[t.ParallelGroup] {
			seen[t.ParallelGroup] = true
			groups = append(groups, t.ParallelGroup)
		}
	}
	sort.Ints(groups)
	return groups
}

func tasksInGroup(tasks []model.Task, group int) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.ParallelGroup == group {
			out = append(out, t)
		}
	}
	return out
}

func allDepsCompleted(t model.Task, completed map[string]bool) bool {
	for _, dep := range t.Dependencies {
		if !completed[dep.String()] {
			return false
		}
	}
	return true
}

func sortByID(tasks []model.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].ID.String() < tasks[j].ID.String()
	})
}
