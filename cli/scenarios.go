package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mempoolsim/benchmarks"
)

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the built-in scenarios.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			for _, s := range benchmarks.DefaultScenarios() {
				_, _ = fmt.Fprintf(out, "%-22s %3d ports, %d lanes, %6d ticks  %s\n",
					s.Name, s.Config.NumEntries, s.Config.NumOut, s.Ticks,
					s.Description)
			}

			return nil
		},
	}
}
