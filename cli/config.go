package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mempoolsim/timing/arbiter"
)

func newConfigCmd() *cobra.Command {
	var configPath, writePath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or write an arbiter configuration.",
		Long: `Without flags, config prints the default arbiter configuration as ` +
			`JSON. --config validates and prints a configuration file; ` +
			`--write saves the configuration to a file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := loadArbiterConfig(configPath)
			if err != nil {
				return err
			}

			if writePath != "" {
				if err := config.SaveConfig(writePath); err != nil {
					return err
				}

				_, _ = okColor.Fprintf(cmd.ErrOrStderr(),
					"configuration written to %s\n", writePath)

				return nil
			}

			data, err := json.MarshalIndent(config, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to serialize arbiter config: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", os.Getenv(envConfig),
		"arbiter configuration JSON file")
	cmd.Flags().StringVar(&writePath, "write", "",
		"write the configuration to this file")

	return cmd
}

// loadArbiterConfig loads path, or returns the default configuration when
// path is empty.
func loadArbiterConfig(path string) (*arbiter.Config, error) {
	if path == "" {
		return arbiter.DefaultConfig(), nil
	}

	return arbiter.LoadConfig(path)
}
