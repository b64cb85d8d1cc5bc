package port

import "context"

// PRCreateOptions parameterises a pull-request creation attempt.
type PRCreateOptions struct {
	Branch     string
	BaseBranch string
	Title      string
	Body       string
}

// PRCreator opens a pull request for a pushed branch. Implementations
// are expected to be best-effort: the executor treats any error as a
// warning, never a task failure (spec.md §4.7 "Commit/push/PR").
type PRCreator interface {
	Create(ctx context.Context, taskID string, opts PRCreateOptions) (url string, err error)
}
