package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/atzentis/atzentis/internal/domain/model"
)

func newStatusCommand(g *globals) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active session for this project, or every session with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if all {
				sessions, err := g.container.Store().ListAll(cmd.Context(), g.project)
				if err != nil {
					return fmt.Errorf("status: %w", err)
				}
				if len(sessions) == 0 {
					fmt.Fprintln(out, "no sessions found")
					return nil
				}
				for _, s := range sessions {
					printSessionSummary(out, s)
				}
				return nil
			}

			session, err := g.container.Store().GetActive(cmd.Context(), g.project)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			if session == nil {
				fmt.Fprintln(out, "no active session")
				return nil
			}
			printSessionSummary(out, session)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "list every session for this project, not just the active one")
	return cmd
}

func printSessionSummary(out io.Writer, s *model.Session) {
	fmt.Fprintf(out, "session %s  project=%s  phase=%s\n", s.ID, s.Project, s.Phase.String())
	fmt.Fprintf(out, "  pending=%d completed=%d failed=%d\n", len(s.Pending), len(s.Completed), len(s.Failed))
	if s.CurrentTask != nil {
		fmt.Fprintf(out, "  current=%s\n", s.CurrentTask.String())
	}
	for taskID, rec := range s.Errors {
		if rec.Resolved {
			continue
		}
		fmt.Fprintf(out, "  error[%s]: iterations=%d last=%q\n", taskID, rec.Iterations, rec.LastError)
	}
}
