// Package di manually wires every layer of the application together,
// grounded on internal/infrastructure/di/container.go's dependency-order
// initialization pattern (infrastructure -> domain -> application ->
// adapters) rather than a reflection-based container.
package di

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/afero"

	"github.com/atzentis/atzentis/internal/application/usecase/execution"
	"github.com/atzentis/atzentis/internal/app/config"
	"github.com/atzentis/atzentis/internal/domain/port"
	"github.com/atzentis/atzentis/internal/hooks"
	"github.com/atzentis/atzentis/internal/infrastructure/archive"
	"github.com/atzentis/atzentis/internal/infrastructure/gateway/agent"
	"github.com/atzentis/atzentis/internal/infrastructure/gateway/pr"
	"github.com/atzentis/atzentis/internal/infrastructure/parser"
	"github.com/atzentis/atzentis/internal/infrastructure/persistence/sqlite"
	"github.com/atzentis/atzentis/internal/infrastructure/repository/worktree"

	_ "github.com/mattn/go-sqlite3"
)

// Container holds every wired collaborator the CLI layer needs, built
// once at process startup.
type Container struct {
	config config.Config

	db         *sql.DB
	store      port.SessionStore
	loader     port.TaskLoader
	wt         port.WorktreeManager
	engines    *agent.Registry
	hookRunner port.HookRunner
	archiver   port.Archiver
	prCreator  port.PRCreator

	deps *execution.Deps

	runUseCase    *execution.RunUseCase
	resumeUseCase *execution.ResumeUseCase
	dryRunUseCase *execution.DryRunUseCase

	out io.Writer
}

// Options configures container construction beyond what Config provides.
type Options struct {
	RepoRoot string    // git repository root the worktree manager operates on
	Project  string    // project name, used to namespace worktrees/branches
	Output   io.Writer // CLI output stream; defaults to os.Stdout
}

// NewContainer builds a Container from cfg, opening the session database,
// running migrations, and wiring every port to its concrete adapter.
func NewContainer(cfg config.Config, opts Options) (*Container, error) {
	c := &Container{config: cfg, out: opts.Output}
	if c.out == nil {
		c.out = os.Stdout
	}

	if err := c.initInfrastructure(opts); err != nil {
		return nil, fmt.Errorf("container: infrastructure: %w", err)
	}
	c.initUseCases()
	return c, nil
}

func (c *Container) initInfrastructure(opts Options) error {
	dbPath := c.config.DBPath()
	if dbPath == "" {
		dbPath = ".atzentis/session.db"
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("open session db: %w", err)
	}
	// The session store is single-writer per process (enforced by its own
	// mutex); capping the pool to one connection keeps SQLite from ever
	// handing two goroutines concurrent write handles underneath it.
	db.SetMaxOpenConns(1)
	c.db = db

	if err := sqlite.NewMigrator(db).Migrate(); err != nil {
		return fmt.Errorf("migrate session db: %w", err)
	}
	c.store = sqlite.NewSessionStore(db)

	c.loader = parser.NewLoader(afero.NewOsFs(), c.config.SpecsRoot())
	c.wt = worktree.NewGitManager(opts.RepoRoot, c.config.WorktreeBaseDir(), opts.Project)
	c.hookRunner = hooks.NewRunner()

	c.engines = agent.NewRegistry()
	c.engines.Register(agent.NewSubprocessEngine(
		c.config.AgentVariant(),
		c.config.AgentBin(),
		c.config.Timeout(),
		c.config.CompletionToken(),
	))

	if bucket := c.config.ArchiveS3Bucket(); bucket != "" {
		s3Archiver, err := archive.NewS3Archiver(context.Background(), archive.S3Config{Bucket: bucket})
		if err != nil {
			return fmt.Errorf("init s3 archiver: %w", err)
		}
		c.archiver = s3Archiver
	} else {
		c.archiver = archive.NoopArchiver{}
	}

	if c.config.PRTool() != "" {
		c.prCreator = pr.NewGHCreator(c.config.PRTool())
	} else {
		c.prCreator = pr.NoopCreator{}
	}

	return nil
}

func (c *Container) initUseCases() {
	logger := log.New(c.out, "[executor] ", log.LstdFlags)
	hookConfig := port.HookConfig{
		BeforePhase: c.config.HookBeforePhase(),
		BeforeTask:  c.config.HookBeforeTask(),
		AfterTask:   c.config.HookAfterTask(),
		OnSuccess:   c.config.HookOnSuccess(),
		OnError:     c.config.HookOnError(),
	}
	c.deps = execution.NewDeps(c.loader, c.wt, c.engines, c.store, c.hookRunner, hookConfig,
		c.archiver, c.prCreator, c.config, logger)

	c.runUseCase = execution.NewRunUseCase(c.deps)
	c.resumeUseCase = execution.NewResumeUseCase(c.deps)
	c.dryRunUseCase = execution.NewDryRunUseCase(c.deps)
}

// RunUseCase returns the wired run use case.
func (c *Container) RunUseCase() *execution.RunUseCase { return c.runUseCase }

// ResumeUseCase returns the wired resume use case.
func (c *Container) ResumeUseCase() *execution.ResumeUseCase { return c.resumeUseCase }

// DryRunUseCase returns the wired dry-run use case.
func (c *Container) DryRunUseCase() *execution.DryRunUseCase { return c.dryRunUseCase }

// Store exposes the session store directly, used by the status command
// which has no corresponding use case of its own.
func (c *Container) Store() port.SessionStore { return c.store }

// Output returns the configured output writer.
func (c *Container) Output() io.Writer { return c.out }

// Close releases the underlying database handle.
func (c *Container) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
