// Package execution implements the executor (spec.md §4.7): the run,
// resume, and dry-run state machines that compose the Scheduler,
// Worktree Manager, Agent Engine, Session Store, and Hook Runner ports
// into the task pipeline, grounded on
// internal/infrastructure/di/container.go's manual-DI wiring and
// internal/interface/cli/workflow_sbi/parallel_runner.go's
// semaphore-bounded goroutine fan-out.
package execution

import (
	"log"
	"os"

	"github.com/atzentis/atzentis/internal/app/config"
	"github.com/atzentis/atzentis/internal/domain/port"
)

// Deps bundles every collaborator the executor's use cases depend on.
// It is constructed once by the DI container and shared across
// RunUseCase, ResumeUseCase, and DryRunUseCase.
type Deps struct {
	Loader     port.TaskLoader
	Worktree   port.WorktreeManager
	Engines    port.EngineRegistry
	Store      port.SessionStore
	Hooks      port.HookRunner
	HookConfig port.HookConfig
	Archiver   port.Archiver
	PRs        port.PRCreator
	Config     config.Config
	Logger     *log.Logger
}

// NewDeps builds a Deps with a default "[executor] " logger writing to
// stderr when logger is nil, mirroring the teacher's package-level
// *log.Logger-per-component convention.
func NewDeps(loader port.TaskLoader, worktree port.WorktreeManager, engines port.EngineRegistry,
	store port.SessionStore, hooks port.HookRunner, hookConfig port.HookConfig,
	archiver port.Archiver, prs port.PRCreator, cfg config.Config, logger *log.Logger,
) *Deps {
	if logger == nil {
		logger = log.New(os.Stderr, "[executor] ", log.LstdFlags)
	}
	return &Deps{
		Loader:     loader,
		Worktree:   worktree,
		Engines:    engines,
		Store:      store,
		Hooks:      hooks,
		HookConfig: hookConfig,
		Archiver:   archiver,
		PRs:        prs,
		Config:     cfg,
		Logger:     logger,
	}
}
