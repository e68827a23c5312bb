package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mempoolsim/benchmarks"
	"github.com/sarchlab/mempoolsim/timing/trace"
)

// traceWriter stores grant records in a named file.
type traceWriter interface {
	trace.Writer
	FileName() string
}

var newTraceWriter = func(path string) traceWriter {
	return trace.NewSQLiteWriter(path)
}

type runOptions struct {
	configPath string
	scenarios  []string
	ticks      uint64
	backend    string
	tracePath  string
	logGrants  bool
	format     string
	noChecks   bool
	verbose    bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run scenarios and report the results.",
		Long: `run executes the selected scenarios (all of them by default). ` +
			`--config replaces the arbiter configuration of every scenario. ` +
			`Tracing or grant logging runs the scenarios on the tile component.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScenarios(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", os.Getenv(envConfig),
		"arbiter configuration JSON file")
	f.StringSliceVar(&opts.scenarios, "scenario", nil,
		"scenario to run, repeatable (default: all)")
	f.Uint64Var(&opts.ticks, "ticks", 0,
		"override the number of ticks of every scenario")
	f.StringVar(&opts.backend, "backend", string(benchmarks.BackendModel),
		"model or tile")
	f.StringVar(&opts.tracePath, "trace", os.Getenv(envTraceDB),
		"record grants into this SQLite database (without .sqlite3)")
	f.BoolVar(&opts.logGrants, "log-grants", false,
		"log every grant to stderr")
	f.StringVar(&opts.format, "format", "text", "text, csv or json")
	f.BoolVar(&opts.noChecks, "no-checks", false,
		"skip the per-tick integrity sweep")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	return cmd
}

func runScenarios(cmd *cobra.Command, opts *runOptions) (err error) {
	scenarios, err := selectScenarios(opts)
	if err != nil {
		return err
	}

	config := benchmarks.DefaultConfig()
	config.Output = cmd.OutOrStdout()
	config.Verbose = opts.verbose
	config.Checks = !opts.noChecks

	switch benchmarks.Backend(opts.backend) {
	case benchmarks.BackendModel, benchmarks.BackendTile:
		config.Backend = benchmarks.Backend(opts.backend)
	default:
		return fmt.Errorf("unknown backend %q", opts.backend)
	}

	switch opts.format {
	case "text", "csv", "json":
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}

	if opts.logGrants {
		config.Backend = benchmarks.BackendTile
		config.Hooks = append(config.Hooks,
			trace.NewLogHook(log.New(cmd.ErrOrStderr(), "", 0)))
	}

	if opts.tracePath != "" {
		writer := newTraceWriter(opts.tracePath)
		if err := writer.Init(); err != nil {
			return err
		}

		recorder := trace.NewGrantRecorder(writer, 10000)
		defer func() {
			if closeErr := recorder.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("trace %s incomplete, %d grants lost: %w",
					writer.FileName(), recorder.Dropped(), closeErr)
			}
		}()

		config.Backend = benchmarks.BackendTile
		config.Hooks = append(config.Hooks, recorder)

		_, _ = okColor.Fprintf(cmd.ErrOrStderr(),
			"recording grants in %s\n", writer.FileName())
	}

	harness := benchmarks.NewHarness(config)
	harness.AddScenarios(scenarios)

	results, err := harness.RunAll()
	if err != nil {
		return err
	}

	switch opts.format {
	case "csv":
		harness.PrintCSV(results)
	case "json":
		if err := harness.PrintJSON(results); err != nil {
			return err
		}
	default:
		harness.PrintResults(results)
	}

	reportBound(cmd, results)

	return nil
}

func selectScenarios(opts *runOptions) ([]benchmarks.Scenario, error) {
	var scenarios []benchmarks.Scenario

	if len(opts.scenarios) == 0 {
		scenarios = benchmarks.DefaultScenarios()
	}

	for _, name := range opts.scenarios {
		s, ok := benchmarks.ScenarioByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q (see mpsim scenarios)", name)
		}

		scenarios = append(scenarios, s)
	}

	if opts.configPath != "" {
		config, err := loadArbiterConfig(opts.configPath)
		if err != nil {
			return nil, err
		}

		for i := range scenarios {
			scenarios[i].Config = config.Clone()
		}
	}

	if opts.ticks > 0 {
		for i := range scenarios {
			scenarios[i].Ticks = opts.ticks
		}
	}

	return scenarios, nil
}

func reportBound(cmd *cobra.Command, results []benchmarks.Result) {
	w := cmd.ErrOrStderr()
	exceeded := 0

	for _, r := range results {
		if !r.WithinBound {
			exceeded++
			_, _ = warnColor.Fprintf(w,
				"%s: a request waited %d ticks in the age matrix (%d ports)\n",
				r.Name, r.MaxTrackedWait, r.NumEntries)
		}
	}

	if exceeded == 0 {
		_, _ = okColor.Fprintf(w, "%d scenarios, every tracked wait within bound\n",
			len(results))
	}
}
