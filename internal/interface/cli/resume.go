package cli

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/atzentis/atzentis/internal/application/usecase/execution"
)

func newResumeCommand(g *globals) *cobra.Command {
	var variant string
	var sequential bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Continue the most recently active session for this project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := confirmPreviousFailures(cmd.Context(), g, yes); err != nil {
				return err
			}

			result, err := g.container.ResumeUseCase().Execute(cmd.Context(), g.project, execution.RunOptions{
				Variant:    variant,
				Sequential: sequential,
			})
			if err != nil {
				return fmt.Errorf("resume: %w", err)
			}
			printRunResult(cmd, result)
			if result.Failed() {
				return fmt.Errorf("resume: %d task(s) failed", countFailed(result))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "registered engine variant; defaults to the configured agent variant")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "run one task at a time, aborting the run on the first unhandled failure")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt when the session carries prior failures")

	return cmd
}

// confirmPreviousFailures warns and asks for confirmation before resuming
// a session that already has tasks recorded as failed — resume only
// requeues the interrupted current task and drains pending, it never
// retries a task already checkpointed failed.
func confirmPreviousFailures(ctx context.Context, g *globals, skip bool) error {
	session, err := g.container.Store().GetActive(ctx, g.project)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	if session == nil || len(session.Failed) == 0 || skip {
		return nil
	}

	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Session %s already has %d failed task(s); resume anyway", session.ID, len(session.Failed)),
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		return fmt.Errorf("resume: aborted by user")
	}
	return nil
}
