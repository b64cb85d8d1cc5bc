package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atzentis/atzentis/internal/application/usecase/execution"
	"github.com/atzentis/atzentis/internal/domain/model"
)

func newRunCommand(g *globals) *cobra.Command {
	var phaseRaw, variant string
	var sequential bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a new session over a phase's tasks and drive it to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := model.ParsePhaseID(phaseRaw)
			if err != nil {
				return err
			}
			result, err := g.container.RunUseCase().Execute(cmd.Context(), execution.RunOptions{
				Project:    g.project,
				Phase:      phase,
				Variant:    variant,
				Sequential: sequential,
			})
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			printRunResult(cmd, result)
			if result.Failed() {
				return fmt.Errorf("run: %d task(s) failed", countFailed(result))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&phaseRaw, "phase", "", "phase to run, e.g. p00 (required)")
	cmd.Flags().StringVar(&variant, "variant", "", "registered engine variant; defaults to the configured agent variant")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "run one task at a time, aborting the run on the first unhandled failure")
	cmd.MarkFlagRequired("phase")

	return cmd
}

func printRunResult(cmd *cobra.Command, result *execution.RunResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session %s\n", result.SessionID)
	for _, o := range result.Outcomes {
		switch o.Status {
		case execution.TaskCompleted:
			fmt.Fprintf(out, "  %s  completed  %dms", o.TaskID, o.DurationMs)
			if o.PRURL != "" {
				fmt.Fprintf(out, "  %s", o.PRURL)
			}
			fmt.Fprintln(out)
		case execution.TaskFailed:
			fmt.Fprintf(out, "  %s  failed  %s\n", o.TaskID, o.Error)
		}
	}
	if result.Aborted {
		fmt.Fprintln(out, "run aborted: sequential mode stopped on first unhandled failure")
	}
}

func countFailed(result *execution.RunResult) int {
	n := 0
	for _, o := range result.Outcomes {
		if o.Status == execution.TaskFailed {
			n++
		}
	}
	return n
}
