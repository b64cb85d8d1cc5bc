// Package cli builds the atzentis Cobra command tree, grounded on
// deespec's RootBuilder pattern (internal/adapter/controller/cli/root.go):
// a root command carrying persistent flags, with the DI container
// assembled in PersistentPreRunE once those flags are parsed.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atzentis/atzentis/internal/app/config"
	"github.com/atzentis/atzentis/internal/buildinfo"
	"github.com/atzentis/atzentis/internal/infrastructure/di"
)

// globals holds the persistent-flag values and the container assembled
// from them once PersistentPreRunE has run; subcommands close over a
// pointer to this struct since they're registered before the flags are
// parsed.
type globals struct {
	project  string
	repoRoot string

	hookBeforePhase string
	hookBeforeTask  string
	hookAfterTask   string
	hookOnSuccess   string
	hookOnError     string

	container *di.Container
}

// NewRootCommand builds the atzentis root command and its full subcommand tree.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:     "atzentis",
		Short:   "Drive a task DAG through an autonomous code-gen agent",
		Version: buildinfo.GetVersion(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.project == "" {
				return fmt.Errorf("--project is required")
			}
			cfg := config.FromEnv().WithHooks(
				g.hookBeforePhase, g.hookBeforeTask, g.hookAfterTask, g.hookOnSuccess, g.hookOnError,
			)
			c, err := di.NewContainer(cfg, di.Options{
				RepoRoot: g.repoRoot,
				Project:  g.project,
				Output:   cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}
			g.container = c
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if g.container != nil {
				return g.container.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&g.project, "project", "", "project name (required)")
	root.PersistentFlags().StringVar(&g.repoRoot, "repo-root", ".", "git repository root the worktree manager operates on")
	root.PersistentFlags().StringVar(&g.hookBeforePhase, "before-phase", "", "override the before-phase hook command")
	root.PersistentFlags().StringVar(&g.hookBeforeTask, "before-task", "", "override the before-task hook command")
	root.PersistentFlags().StringVar(&g.hookAfterTask, "after-task", "", "override the after-task hook command")
	root.PersistentFlags().StringVar(&g.hookOnSuccess, "on-success", "", "override the on-run-success hook command")
	root.PersistentFlags().StringVar(&g.hookOnError, "on-error", "", "override the on-run-error hook command")

	root.AddCommand(
		newRunCommand(g),
		newResumeCommand(g),
		newDryRunCommand(g),
		newStatusCommand(g),
	)
	return root
}
