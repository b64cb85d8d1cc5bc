package execution

import (
	"context"
	"fmt"

	"github.com/atzentis/atzentis/internal/domain/model"
	"github.com/atzentis/atzentis/internal/domain/scheduler"
)

// DryRunUseCase computes the execution plan for a phase without any
// side effects: no session is created, no worktree touched, no agent
// invoked (spec.md §4.7 "Dry run").
type DryRunUseCase struct {
	deps *Deps
}

// NewDryRunUseCase builds a DryRunUseCase over deps.
func NewDryRunUseCase(deps *Deps) *DryRunUseCase { return &DryRunUseCase{deps: deps} }

// Execute resolves phase's tasks, schedules them, and renders the
// resulting waves plus dependency annotations and estimates as a
// structured plan.
func (u *DryRunUseCase) Execute(ctx context.Context, phase model.PhaseID) (*DryRunPlan, error) {
	tasks, err := u.deps.Loader.LoadTasks(phase)
	if err != nil {
		return nil, fmt.Errorf("dry run: load tasks: %w", err)
	}

	waves, err := scheduler.BuildExecutionWaves(tasks)
	if err != nil {
		return nil, fmt.Errorf("dry run: schedule: %w", err)
	}

	plan := &DryRunPlan{
		TotalEstimateHours: scheduler.EstimatedDuration(waves).Hours(),
	}
	for _, wave := range waves {
		entries := make([]DryRunTaskEntry, 0, len(wave))
		for _, t := range wave {
			deps := make([]string, 0, len(t.Dependencies))
			for _, d := range t.Dependencies {
				deps = append(deps, d.String())
			}
			entries = append(entries, DryRunTaskEntry{
				TaskID:        t.ID,
				Name:          t.Name,
				ParallelGroup: t.ParallelGroup,
				Dependencies:  deps,
				EstimateHours: t.Estimate.Hours(),
			})
		}
		plan.Waves = append(plan.Waves, DryRunWave{Tasks: entries})
	}
	return plan, nil
}
