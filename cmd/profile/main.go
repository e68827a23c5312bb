// Package main provides a profiling wrapper that runs one scenario for a
// long time under runtime/pprof to find hot spots in the arbiter model.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/mempoolsim/benchmarks"
)

var (
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	scenario   = flag.String("scenario", "wide_16x4", "scenario to run")
	ticks      = flag.Uint64("ticks", 1000000, "number of ticks to run")
	backend    = flag.String("backend", "model", "model or tile")
	checks     = flag.Bool("checks", false, "enable the per-tick integrity sweep")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	s, ok := benchmarks.ScenarioByName(*scenario)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown scenario: %s\n", *scenario)
		return 1
	}
	s.Ticks = *ticks

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			return 1
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	config := benchmarks.DefaultConfig()
	config.Backend = benchmarks.Backend(*backend)
	config.Checks = *checks

	harness := benchmarks.NewHarness(config)
	harness.AddScenario(s)

	start := time.Now()

	results, err := harness.RunAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running scenario: %v\n", err)
		return 1
	}

	elapsed := time.Since(start)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			return 1
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	r := results[0]
	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Scenario: %s (%s)\n", r.Name, r.Backend)
	fmt.Printf("Ticks: %d\n", r.Ticks)
	fmt.Printf("Grants: %d\n", r.Grants)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if r.Ticks > 0 {
		fmt.Printf("Ticks/second: %.0f\n", float64(r.Ticks)/elapsed.Seconds())
	}

	return 0
}
