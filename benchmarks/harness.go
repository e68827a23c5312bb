// Package benchmarks runs traffic scenarios through the response arbiter and
// reports throughput, latency and fairness.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mempoolsim/timing/arbiter"
	"github.com/sarchlab/mempoolsim/timing/bitvec"
	"github.com/sarchlab/mempoolsim/timing/tile"
	"github.com/sarchlab/mempoolsim/traffic"
)

// Backend selects what a scenario is run on.
type Backend string

const (
	// BackendModel ticks the arbiter model directly.
	BackendModel Backend = "model"

	// BackendTile runs the tile component on an Akita serial engine.
	BackendTile Backend = "tile"
)

// Scenario defines one traffic scenario.
type Scenario struct {
	// Name identifies the scenario
	Name string

	// Description explains what the scenario exercises
	Description string

	// Config is the arbiter configuration
	Config *arbiter.Config

	// Traffic creates the request arrival pattern. A fresh pattern is
	// created for every run so that runs repeat.
	Traffic func() traffic.Pattern

	// Backpressure creates the downstream ready source.
	Backpressure func() traffic.Backpressure

	// Ticks is the number of ticks to run
	Ticks uint64
}

// Result holds the outcome of one scenario run.
type Result struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Backend     Backend `json:"backend"`

	NumEntries int `json:"num_entries"`
	NumEnq     int `json:"num_enq"`
	NumOut     int `json:"num_out"`

	Ticks          uint64 `json:"ticks"`
	Requests       uint64 `json:"requests"`
	Grants         uint64 `json:"grants"`
	AgeGrants      uint64 `json:"age_grants"`
	OverflowGrants uint64 `json:"overflow_grants"`
	StallTicks     uint64 `json:"stall_ticks"`

	// Throughput is grants per tick
	Throughput float64 `json:"throughput"`

	MeanLatency float64 `json:"mean_latency"`
	MaxLatency  uint64  `json:"max_latency"`

	// MaxTrackedWait is the longest time a request spent in the age matrix
	MaxTrackedWait uint64 `json:"max_tracked_wait"`

	// WithinBound reports MaxTrackedWait <= NumEntries
	WithinBound bool `json:"within_bound"`

	// Fairness is Jain's index over per-port grants
	Fairness float64 `json:"fairness"`

	PortGrants []uint64 `json:"port_grants"`

	// WallTime is the actual time taken to run the scenario
	WallTime time.Duration `json:"wall_time_ns"`
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Backend selects the model or the tile component
	Backend Backend

	// Checks enables the arbiter's per-tick integrity sweep
	Checks bool

	// Hooks are attached to the tile component (tile backend only)
	Hooks []sim.Hook

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Backend: BackendModel,
		Checks:  true,
		Output:  os.Stdout,
		Verbose: false,
	}
}

// Harness runs scenarios and reports results.
type Harness struct {
	config    HarnessConfig
	scenarios []Scenario
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	if config.Backend == "" {
		config.Backend = BackendModel
	}

	return &Harness{
		config:    config,
		scenarios: []Scenario{},
	}
}

// AddScenario adds a scenario to the harness.
func (h *Harness) AddScenario(s Scenario) {
	h.scenarios = append(h.scenarios, s)
}

// AddScenarios adds multiple scenarios to the harness.
func (h *Harness) AddScenarios(scenarios []Scenario) {
	h.scenarios = append(h.scenarios, scenarios...)
}

// RunAll executes all scenarios and returns results. It stops at the first
// scenario that cannot be built.
func (h *Harness) RunAll() ([]Result, error) {
	results := make([]Result, 0, len(h.scenarios))

	for _, s := range h.scenarios {
		result, err := h.runScenario(s)
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", s.Name, err)
		}

		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "finished %s: %d grants in %v\n",
				s.Name, result.Grants, result.WallTime)
		}

		results = append(results, result)
	}

	return results, nil
}

func (h *Harness) runScenario(s Scenario) (Result, error) {
	start := time.Now()

	var (
		stats arbiter.Statistics
		err   error
	)

	switch h.config.Backend {
	case BackendTile:
		stats, err = h.runOnTile(s)
	default:
		stats, err = h.runOnModel(s)
	}

	if err != nil {
		return Result{}, err
	}

	return Result{
		Name:           s.Name,
		Description:    s.Description,
		Backend:        h.config.Backend,
		NumEntries:     s.Config.NumEntries,
		NumEnq:         s.Config.NumEnq,
		NumOut:         s.Config.NumOut,
		Ticks:          stats.Ticks,
		Requests:       stats.Requests,
		Grants:         stats.Grants,
		AgeGrants:      stats.AgeGrants,
		OverflowGrants: stats.OverflowGrants,
		StallTicks:     stats.StallTicks,
		Throughput:     stats.Throughput(),
		MeanLatency:    stats.MeanLatency(),
		MaxLatency:     stats.MaxLatency,
		MaxTrackedWait: stats.MaxTrackedWait,
		WithinBound:    stats.MaxTrackedWait <= uint64(s.Config.NumEntries),
		Fairness:       stats.Fairness(),
		PortGrants:     stats.PortGrants,
		WallTime:       time.Since(start),
	}, nil
}

// runOnModel drives the arbiter directly. A port holds its request until
// it handshakes, then asks the pattern for the next one.
func (h *Harness) runOnModel(s Scenario) (arbiter.Statistics, error) {
	arb, err := arbiter.New(s.Config, arbiter.WithChecks(h.config.Checks))
	if err != nil {
		return arbiter.Statistics{}, err
	}

	pattern := s.Traffic()
	bp := s.Backpressure()
	valid := bitvec.New(s.Config.NumEntries)
	ready := bitvec.New(s.Config.NumOut)

	for t := uint64(0); t < s.Ticks; t++ {
		for p := 0; p < s.Config.NumEntries; p++ {
			if !valid.Test(p) && pattern.Next(t, p) {
				valid.Set(p)
			}
		}

		for l := 0; l < s.Config.NumOut; l++ {
			ready.SetTo(l, bp.Ready(t, l))
		}

		out := arb.Tick(arbiter.Input{Valid: valid, DownstreamReady: ready})
		valid = valid.AndNot(out.Ready)
	}

	return arb.Stats(), nil
}

func (h *Harness) runOnTile(s Scenario) (arbiter.Statistics, error) {
	engine := sim.NewSerialEngine()

	comp, err := tile.MakeBuilder().
		WithEngine(engine).
		WithConfig(s.Config).
		WithChecks(h.config.Checks).
		WithTickLimit(s.Ticks).
		Build("Tile[0].RespArbiter")
	if err != nil {
		return arbiter.Statistics{}, err
	}

	for _, hook := range h.config.Hooks {
		comp.AcceptHook(hook)
	}

	d := newDriver(engine, comp, s)
	d.TickLater()

	if err := engine.Run(); err != nil {
		return arbiter.Statistics{}, err
	}

	comp.CatchUp(s.Ticks)

	return comp.Arbiter().Stats(), nil
}

// PrintResults outputs scenario results in a human-readable format.
func (h *Harness) PrintResults(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output, "=== MemPool Response Arbiter Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Scenario: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Backend: %s (entries=%d, enq=%d, out=%d)\n",
			r.Backend, r.NumEntries, r.NumEnq, r.NumOut)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Traffic ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Ticks:            %d\n", r.Ticks)
		_, _ = fmt.Fprintf(h.config.Output, "  Requests:         %d\n", r.Requests)
		_, _ = fmt.Fprintf(h.config.Output, "  Grants:           %d\n", r.Grants)
		_, _ = fmt.Fprintf(h.config.Output, "  Age Grants:       %d\n", r.AgeGrants)
		_, _ = fmt.Fprintf(h.config.Output, "  Overflow Grants:  %d\n", r.OverflowGrants)
		_, _ = fmt.Fprintf(h.config.Output, "  Stall Ticks:      %d\n", r.StallTicks)
		_, _ = fmt.Fprintf(h.config.Output, "  Throughput:       %.3f\n", r.Throughput)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Latency ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Mean:             %.3f\n", r.MeanLatency)
		_, _ = fmt.Fprintf(h.config.Output, "  Max:              %d\n", r.MaxLatency)
		_, _ = fmt.Fprintf(h.config.Output, "  Max Tracked Wait: %d (bound %d, ok=%v)\n",
			r.MaxTrackedWait, r.NumEntries, r.WithinBound)
		_, _ = fmt.Fprintf(h.config.Output, "  Fairness:         %.3f\n", r.Fairness)

		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "  Port Grants:      %v\n", r.PortGrants)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs scenario results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,backend,entries,enq,out,ticks,requests,grants,age_grants,overflow_grants,stall_ticks,throughput,mean_latency,max_latency,max_tracked_wait,within_bound,fairness")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output,
			"%s,%s,%d,%d,%d,%d,%d,%d,%d,%d,%d,%.3f,%.3f,%d,%d,%v,%.3f\n",
			r.Name,
			r.Backend,
			r.NumEntries,
			r.NumEnq,
			r.NumOut,
			r.Ticks,
			r.Requests,
			r.Grants,
			r.AgeGrants,
			r.OverflowGrants,
			r.StallTicks,
			r.Throughput,
			r.MeanLatency,
			r.MaxLatency,
			r.MaxTrackedWait,
			r.WithinBound,
			r.Fairness,
		)
	}
}

// Report is the complete output format for scenario results.
type Report struct {
	// Metadata about the run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual scenario results
	Results []Result `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the run.
type ReportMetadata struct {
	Timestamp string  `json:"timestamp"`
	Backend   Backend `json:"backend"`
	Checks    bool    `json:"checks"`
}

// ReportSummary contains aggregate statistics across all scenarios.
type ReportSummary struct {
	TotalScenarios int           `json:"total_scenarios"`
	TotalTicks     uint64        `json:"total_ticks"`
	TotalGrants    uint64        `json:"total_grants"`
	AllWithinBound bool          `json:"all_within_bound"`
	TotalWallTime  time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs scenario results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []Result) error {
	summary := ReportSummary{
		TotalScenarios: len(results),
		AllWithinBound: true,
	}

	for _, r := range results {
		summary.TotalTicks += r.Ticks
		summary.TotalGrants += r.Grants
		summary.TotalWallTime += r.WallTime
		summary.AllWithinBound = summary.AllWithinBound && r.WithinBound
	}

	report := Report{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Backend:   h.config.Backend,
			Checks:    h.config.Checks,
		},
		Results: results,
		Summary: summary,
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
