package pr

import (
	"context"

	"github.com/atzentis/atzentis/internal/domain/port"
)

// NoopCreator never attempts PR creation; used when no PR tool is
// configured (spec.md §4.7 PR creation is optional/best-effort).
type NoopCreator struct{}

// Create always returns an empty URL and no error, so the executor's
// best-effort handling never records a warning for it.
func (NoopCreator) Create(context.Context, string, port.PRCreateOptions) (string, error) {
	return "", nil
}
