// Package cli provides the mpsim command-line interface.
package cli

import (
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const (
	envTraceDB = "MPSIM_TRACE_DB"
	envConfig  = "MPSIM_CONFIG"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
)

// NewRootCmd builds the mpsim command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mpsim",
		Short: "Simulate the MemPool tile response arbiter.",
		Long: `mpsim runs traffic scenarios through a model of the MemPool tile ` +
			`response arbiter and reports throughput, latency and fairness. ` +
			`Defaults for --config and --trace can be set with ` + envConfig +
			` and ` + envTraceDB + `, also from a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(), newScenariosCmd(), newConfigCmd())

	for _, c := range root.Commands() {
		reportErrors(c)
	}

	return root
}

// reportErrors makes the command print its error in red on stderr.
func reportErrors(c *cobra.Command) {
	run := c.RunE
	if run == nil {
		return
	}

	c.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if err != nil {
			printError(cmd.ErrOrStderr(), err)
		}

		return err
	}
}

func printError(w io.Writer, err error) {
	_, _ = errColor.Fprintf(w, "Error: %v\n", err)
}

// Execute runs the command tree on the process arguments and returns the
// exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}

	return 0
}
