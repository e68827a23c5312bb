// Package main provides accuracy validation for performance optimizations.
// Ensures that running without the integrity sweep, or on the tile
// component, does not change what the arbiter grants.
package main

import (
	"fmt"
	"os"
	"reflect"

	"github.com/sarchlab/mempoolsim/benchmarks"
)

func runScenario(config benchmarks.HarnessConfig, s benchmarks.Scenario) (benchmarks.Result, error) {
	h := benchmarks.NewHarness(config)
	h.AddScenario(s)

	results, err := h.RunAll()
	if err != nil {
		return benchmarks.Result{}, err
	}

	r := results[0]
	r.WallTime = 0

	return r, nil
}

func quiet(checks bool) benchmarks.HarnessConfig {
	config := benchmarks.DefaultConfig()
	config.Output = os.Stderr
	config.Checks = checks

	return config
}

// testChecksPreserveResults validates that disabling the per-tick integrity
// sweep produces identical statistics.
func testChecksPreserveResults() bool {
	fmt.Println("Testing that the integrity sweep does not change results...")

	for _, s := range benchmarks.DefaultScenarios() {
		checked, err := runScenario(quiet(true), s)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", s.Name, err)
			return false
		}

		unchecked, err := runScenario(quiet(false), s)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", s.Name, err)
			return false
		}

		if !reflect.DeepEqual(checked, unchecked) {
			fmt.Printf("❌ %s: results differ\n", s.Name)
			fmt.Printf("  checked:   %+v\n", checked)
			fmt.Printf("  unchecked: %+v\n", unchecked)
			return false
		}

		fmt.Printf("✅ %s: %d grants either way\n", s.Name, checked.Grants)
	}

	return true
}

// testRepeatability validates that a seeded scenario repeats exactly.
func testRepeatability() bool {
	fmt.Println("\nTesting that seeded scenarios repeat...")

	for _, name := range []string{"uniform", "hotspot", "wide_16x4"} {
		s, _ := benchmarks.ScenarioByName(name)

		first, err := runScenario(quiet(false), s)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", name, err)
			return false
		}

		second, err := runScenario(quiet(false), s)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", name, err)
			return false
		}

		if !reflect.DeepEqual(first, second) {
			fmt.Printf("❌ %s: two runs differ\n", name)
			return false
		}

		fmt.Printf("✅ %s: repeatable\n", name)
	}

	return true
}

// testTileConservesRequests validates that every request the tile grants
// was raised by the driver and that nothing is granted twice.
func testTileConservesRequests() bool {
	fmt.Println("\nTesting the tile component...")

	config := quiet(true)
	config.Backend = benchmarks.BackendTile

	for _, s := range benchmarks.DefaultScenarios() {
		r, err := runScenario(config, s)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", s.Name, err)
			return false
		}

		if r.Grants > r.Requests {
			fmt.Printf("❌ %s: %d grants for %d requests\n",
				s.Name, r.Grants, r.Requests)
			return false
		}

		fmt.Printf("✅ %s: %d/%d requests granted\n", s.Name, r.Grants, r.Requests)
	}

	return true
}

func main() {
	fmt.Println("=======================================================")
	fmt.Println("Arbiter Accuracy Validation")
	fmt.Println("=======================================================")

	allPassed := true

	if !testChecksPreserveResults() {
		allPassed = false
	}

	if !testRepeatability() {
		allPassed = false
	}

	if !testTileConservesRequests() {
		allPassed = false
	}

	fmt.Println("\n=======================================================")
	if allPassed {
		fmt.Println("🎉 ALL ACCURACY TESTS PASSED")
		os.Exit(0)
	} else {
		fmt.Println("❌ ACCURACY TESTS FAILED")
		os.Exit(1)
	}
}
