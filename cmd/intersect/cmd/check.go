package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-drift/intersect/cmd/intersect/internal/scenario"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <scenario.yaml>",
		Short: "Validate a scenario without running it",
		Long: `Validate every observer options block and every step of a scenario.
All problems are listed, not just the first one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			problems := scenario.Problems(s.Validate())
			if len(problems) > 0 {
				for _, p := range problems {
					fmt.Fprintf(out, "✗ %v\n", p)
				}
				return fmt.Errorf("%s: %d problems found", args[0], len(problems))
			}
			fmt.Fprintf(out, "✓ %s is valid (%d observers, %d steps)\n", args[0], len(s.Observers), len(s.Steps))
			return nil
		},
	}
}
