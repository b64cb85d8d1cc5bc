// Package worktree is the reference port.WorktreeManager implementation:
// it drives git as a subprocess via os/exec, grounded on the
// subprocess-invocation idiom in
// internal/interface/external/claudecli/claude.go. It sits behind the
// abstract interface; the executor never imports this package directly
// except through DI wiring.
package worktree

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/atzentis/atzentis/internal/domain/port"
)

// GitManager creates one worktree per task rooted under baseDir, naming
// each by project and task id so CanonicalPath is a pure function of its
// inputs (two Create calls with the same taskID agree on the path,
// letting resume skip persisting it).
type GitManager struct {
	repoRoot string
	baseDir  string
	project  string
	logger   *log.Logger
}

// NewGitManager builds a manager for repoRoot's worktrees, rooted at baseDir.
func NewGitManager(repoRoot, baseDir, project string) *GitManager {
	return &GitManager{
		repoRoot: repoRoot, baseDir: baseDir, project: project,
		logger: log.New(log.Writer(), "[worktree] ", log.LstdFlags),
	}
}

// CanonicalPath is the pure function mapping (baseDir, project, taskID)
// to the worktree directory, independent of any I/O.
func CanonicalPath(baseDir, project, taskID string) string {
	return filepath.Join(baseDir, project, taskID)
}

// CanonicalBranch derives the per-task branch name.
func CanonicalBranch(project, taskID string) string {
	return fmt.Sprintf("atzentis/%s/%s", project, strings.ToLower(taskID))
}

// Create fetches the base branch and adds a new worktree/branch pair at
// the canonical path. If the worktree already exists at that path
// (resume), Create is a no-op returning the existing ref.
func (m *GitManager) Create(ctx context.Context, taskID string, opts port.WorktreeCreateOptions) (port.WorktreeRef, error) {
	path := CanonicalPath(m.baseDir, m.project, taskID)
	branch := CanonicalBranch(m.project, taskID)

	if _, err := m.run(ctx, m.repoRoot, "worktree", "list", "--porcelain"); err == nil {
		if exists, err := m.worktreeExists(ctx, path); err == nil && exists {
			return port.WorktreeRef{Path: path, Branch: branch}, nil
		}
	}

	// A fetch failure (offline, transient network blip) is tolerated: fall
	// through to worktree add against whatever origin/<baseBranch> is
	// already present locally rather than aborting the task outright.
	if _, err := m.run(ctx, m.repoRoot, "fetch", "origin", opts.BaseBranch); err != nil {
		m.logger.Printf("fetch origin %s failed, continuing with local ref: %v", opts.BaseBranch, err)
	}

	if _, err := m.run(ctx, m.repoRoot, "worktree", "add", "-b", branch, path, "origin/"+opts.BaseBranch); err != nil {
		return port.WorktreeRef{}, fmt.Errorf("worktree create: %w", err)
	}

	return port.WorktreeRef{Path: path, Branch: branch}, nil
}

// Remove deletes the worktree directory, force-removing dirty worktrees
// when opts.Force is set.
func (m *GitManager) Remove(ctx context.Context, taskID string, opts port.WorktreeRemoveOptions) error {
	path := CanonicalPath(m.baseDir, m.project, taskID)
	args := []string{"worktree", "remove", path}
	if opts.Force {
		args = append(args, "--force")
	}
	if _, err := m.run(ctx, m.repoRoot, args...); err != nil {
		return fmt.Errorf("worktree remove: %w", err)
	}
	return nil
}

// Commit stages and commits changes within the task's worktree. Returns
// ErrNothingToCommit if the working tree was already clean.
func (m *GitManager) Commit(ctx context.Context, taskID string, message string, opts port.WorktreeCommitOptions) (string, error) {
	dir := CanonicalPath(m.baseDir, m.project, taskID)

	dirty, err := m.HasUncommittedChanges(ctx, taskID)
	if err != nil {
		return "", fmt.Errorf("worktree commit: %w", err)
	}
	if !dirty {
		return "", port.ErrNothingToCommit
	}

	if opts.AddAll {
		if _, err := m.run(ctx, dir, "add", "-A"); err != nil {
			return "", fmt.Errorf("worktree commit: stage: %w", err)
		}
	}

	if _, err := m.run(ctx, dir, "commit", "-m", message); err != nil {
		return "", fmt.Errorf("worktree commit: %w", err)
	}

	out, err := m.run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("worktree commit: resolve HEAD: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Push publishes the task branch to the remote.
func (m *GitManager) Push(ctx context.Context, taskID string, opts port.WorktreePushOptions) error {
	dir := CanonicalPath(m.baseDir, m.project, taskID)
	branch := CanonicalBranch(m.project, taskID)
	remote := opts.Remote
	if remote == "" {
		remote = "origin"
	}

	args := []string{"push"}
	if opts.SetUpstream {
		args = append(args, "-u")
	}
	args = append(args, remote, branch)

	if _, err := m.run(ctx, dir, args...); err != nil {
		return fmt.Errorf("worktree push: %w", err)
	}
	return nil
}

// HasUncommittedChanges reports whether the task's worktree has a dirty
// working tree or index.
func (m *GitManager) HasUncommittedChanges(ctx context.Context, taskID string) (bool, error) {
	dir := CanonicalPath(m.baseDir, m.project, taskID)
	out, err := m.run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("worktree status: %w", err)
	}
	return strings.TrimSpace(out) != "", nil
}

// ChangedFiles lists paths modified relative to HEAD in the task's worktree.
func (m *GitManager) ChangedFiles(ctx context.Context, taskID string) ([]string, error) {
	dir := CanonicalPath(m.baseDir, m.project, taskID)
	out, err := m.run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("worktree changed files: %w", err)
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		files = append(files, fields[len(fields)-1])
	}
	return files, nil
}

// Diff returns the unified diff for the task's worktree, staged changes
// only when opts.Staged is set.
func (m *GitManager) Diff(ctx context.Context, taskID string, opts port.WorktreeDiffOptions) (string, error) {
	dir := CanonicalPath(m.baseDir, m.project, taskID)
	args := []string{"diff"}
	if opts.Staged {
		args = append(args, "--cached")
	}
	out, err := m.run(ctx, dir, args...)
	if err != nil {
		return "", fmt.Errorf("worktree diff: %w", err)
	}
	return out, nil
}

func (m *GitManager) worktreeExists(ctx context.Context, path string) (bool, error) {
	out, err := m.run(ctx, m.repoRoot, "worktree", "list", "--porcelain")
	if err != nil {
		return false, err
	}
	// git lists worktrees by absolute path, while the canonical path is
	// relative to repoRoot when baseDir is relative.
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(filepath.Join(m.repoRoot, path))
		if err != nil {
			return false, err
		}
		path = abs
	}
	return strings.Contains(out, "worktree "+path), nil
}

func (m *GitManager) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w (output: %s)", strings.Join(args, " "), err, out.String())
	}
	return out.String(), nil
}
