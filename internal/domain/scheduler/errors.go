package scheduler

import (
	"fmt"
	"strings"

	"github.com/atzentis/atzentis/internal/domain/model"
)

// UnknownDependencyError means a task declares a dependency on an id that
// is not present in the loaded task set. Fatal: the run cannot be scheduled.
type UnknownDependencyError struct {
	Task       model.TaskID
	Dependency model.TaskID
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("task %s depends on unknown task %s", e.Task, e.Dependency)
}

// CircularDependencyError names a cycle discovered during DAG validation.
type CircularDependencyError struct {
	Path []model.TaskID
}

func (e *CircularDependencyError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = id.String()
	}
	return fmt.Sprintf("circular dependency: %s", strings.Join(parts, " -> "))
}

// UnschedulableTasksError means tasks remain after a parallel-group sweep
// made no progress — typically a cross-group dependency conflict.
type UnschedulableTasksError struct {
	Remaining []model.TaskID
}

func (e *UnschedulableTasksError) Error() string {
	parts := make([]string, len(e.Remaining))
	for i, id := range e.Remaining {
		parts[i] = id.String()
	}
	return fmt.Sprintf("unschedulable tasks (cross-group dependency conflict): %s", strings.Join(parts, ", "))
}
