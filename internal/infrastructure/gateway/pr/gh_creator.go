// Package pr adapts PR creation to an external CLI tool, invoked
// best-effort by the executor after a successful push (spec.md §4.7
// "Commit/push/PR"), grounded on the subprocess-invocation idiom in
// claudecli.Runner.Run.
package pr

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/atzentis/atzentis/internal/domain/port"
)

// GHCreator shells out to the configured PR tool binary (default "gh")
// with `pr create --head <branch> --base <baseBranch> --title <title>
// --body <body>` and parses the created PR URL from its stdout.
type GHCreator struct {
	bin string
}

// NewGHCreator builds a creator invoking bin (e.g. "gh").
func NewGHCreator(bin string) *GHCreator {
	if bin == "" {
		bin = "gh"
	}
	return &GHCreator{bin: bin}
}

// Create opens a PR for the pushed branch. Any failure (missing tool,
// no remote repo, auth) is returned to the caller, which per spec.md
// treats it as a warning, never a task failure.
func (c *GHCreator) Create(ctx context.Context, taskID string, opts port.PRCreateOptions) (string, error) {
	args := []string{"pr", "create",
		"--head", opts.Branch,
		"--base", opts.BaseBranch,
		"--title", opts.Title,
		"--body", opts.Body,
	}
	cmd := exec.CommandContext(ctx, c.bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("pr create for %s: %w (output: %s)", taskID, err, out)
	}
	return extractURL(string(out)), nil
}

// extractURL returns the last non-blank line of gh's output, which is
// the PR URL on success.
func extractURL(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
