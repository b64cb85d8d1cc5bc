package port

import "github.com/atzentis/atzentis/internal/domain/model"

// TaskLoader resolves task records from whatever backs the specs tree.
// The executor depends on this abstraction rather than
// infrastructure/parser.Loader directly so it can be exercised against a
// fake in tests without touching a filesystem.
type TaskLoader interface {
	LoadTasks(phase model.PhaseID) ([]model.Task, error)
	LoadTask(taskID model.TaskID) (model.Task, bool, error)
}
