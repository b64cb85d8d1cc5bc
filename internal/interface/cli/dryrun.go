package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atzentis/atzentis/internal/domain/model"
)

func newDryRunCommand(g *globals) *cobra.Command {
	var phaseRaw string

	cmd := &cobra.Command{
		Use:   "dry-run",
		Short: "Print the execution plan for a phase without running anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := model.ParsePhaseID(phaseRaw)
			if err != nil {
				return err
			}
			plan, err := g.container.DryRunUseCase().Execute(cmd.Context(), phase)
			if err != nil {
				return fmt.Errorf("dry-run: %w", err)
			}

			out := cmd.OutOrStdout()
			for i, wave := range plan.Waves {
				fmt.Fprintf(out, "wave %d:\n", i+1)
				for _, t := range wave.Tasks {
					fmt.Fprintf(out, "  %s  %s  (%.1fh)", t.TaskID, t.Name, t.EstimateHours)
					if len(t.Dependencies) > 0 {
						fmt.Fprintf(out, "  depends on %v", t.Dependencies)
					}
					fmt.Fprintln(out)
				}
			}
			fmt.Fprintf(out, "total estimate: %.1fh\n", plan.TotalEstimateHours)
			return nil
		},
	}

	cmd.Flags().StringVar(&phaseRaw, "phase", "", "phase to plan, e.g. p00 (required)")
	cmd.MarkFlagRequired("phase")

	return cmd
}
