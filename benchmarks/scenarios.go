package benchmarks

import (
	"github.com/sarchlab/mempoolsim/timing/arbiter"
	"github.com/sarchlab/mempoolsim/traffic"
)

// DefaultScenarios returns the standard scenario set: the two worked
// examples of the arbiter's enqueue and backpressure behavior, followed by
// traffic mixes on the MemPool tile configuration and two variants.
func DefaultScenarios() []Scenario {
	return []Scenario{
		simultaneousEnqueue(),
		partialReady(),
		uniformTile(),
		saturatedTile(),
		hotspotTile(),
		burstTile(),
		wideArbiter(),
		singleEnqueue(),
	}
}

// ScenarioByName looks up a scenario from DefaultScenarios.
func ScenarioByName(name string) (Scenario, bool) {
	for _, s := range DefaultScenarios() {
		if s.Name == name {
			return s, true
		}
	}

	return Scenario{}, false
}

func scripted(arrivals map[uint64][]int) func() traffic.Pattern {
	return func() traffic.Pattern { return traffic.Scripted{Arrivals: arrivals} }
}

func scriptedReady(lanes map[uint64][]int) func() traffic.Backpressure {
	return func() traffic.Backpressure {
		return traffic.ScriptedReady{Lanes: lanes, Default: true}
	}
}

// Ports 0 and 2 arrive together while the downstream stalls; both are
// registered, port 0 first, and drain oldest first.
func simultaneousEnqueue() Scenario {
	return Scenario{
		Name:         "simultaneous_enqueue",
		Description:  "ports 0 and 2 arrive together under a one-tick stall",
		Config:       arbiter.DefaultConfig(),
		Traffic:      scripted(map[uint64][]int{0: {0, 2}}),
		Backpressure: scriptedReady(map[uint64][]int{0: {}}),
		Ticks:        4,
	}
}

// Only lane 0 is ready on the second tick, so port 2 stays registered for
// one more tick.
func partialReady() Scenario {
	return Scenario{
		Name:         "partial_ready",
		Description:  "one of two winners accepted downstream",
		Config:       arbiter.DefaultConfig(),
		Traffic:      scripted(map[uint64][]int{0: {0, 2}}),
		Backpressure: scriptedReady(map[uint64][]int{0: {}, 1: {0}}),
		Ticks:        4,
	}
}

func uniformTile() Scenario {
	return Scenario{
		Name:        "uniform",
		Description: "uniform 50% arrivals, 70% ready on lane 1",
		Config:      arbiter.DefaultConfig(),
		Traffic: func() traffic.Pattern {
			return traffic.NewUniform(0.5, 1)
		},
		Backpressure: func() traffic.Backpressure {
			return traffic.NewRandomReady(0.7, true, 2)
		},
		Ticks: 10000,
	}
}

func saturatedTile() Scenario {
	return Scenario{
		Name:        "saturated",
		Description: "every port always requesting, downstream always ready",
		Config:      arbiter.DefaultConfig(),
		Traffic: func() traffic.Pattern {
			return traffic.Saturating{}
		},
		Backpressure: func() traffic.Backpressure {
			return traffic.AlwaysReady{}
		},
		Ticks: 10000,
	}
}

func hotspotTile() Scenario {
	return Scenario{
		Name:        "hotspot",
		Description: "port 0 requests at 90%, others at 20%, lane 1 ready half the time",
		Config:      arbiter.DefaultConfig(),
		Traffic: func() traffic.Pattern {
			return traffic.NewHotspot(0, 0.9, 0.2, 3)
		},
		Backpressure: func() traffic.Backpressure {
			return traffic.Periodic{Period: 4, ReadyTicks: 2, Lane0Always: true}
		},
		Ticks: 10000,
	}
}

func burstTile() Scenario {
	return Scenario{
		Name:        "burst",
		Description: "all ports burst for 4 of every 16 ticks",
		Config:      arbiter.DefaultConfig(),
		Traffic: func() traffic.Pattern {
			return traffic.Burst{Period: 16, Length: 4}
		},
		Backpressure: func() traffic.Backpressure {
			return traffic.NewRandomReady(0.5, true, 4)
		},
		Ticks: 10000,
	}
}

func wideArbiter() Scenario {
	return Scenario{
		Name:        "wide_16x4",
		Description: "16 ports, 4 output lanes, 30% arrivals",
		Config: &arbiter.Config{
			NumEntries:  16,
			NumEnq:      2,
			NumOut:      4,
			PayloadBits: 32,
		},
		Traffic: func() traffic.Pattern {
			return traffic.NewUniform(0.3, 5)
		},
		Backpressure: func() traffic.Backpressure {
			return traffic.NewRandomReady(0.8, true, 6)
		},
		Ticks: 10000,
	}
}

func singleEnqueue() Scenario {
	return Scenario{
		Name:        "single_enqueue",
		Description: "8 ports registered one per tick",
		Config: &arbiter.Config{
			NumEntries:  8,
			NumEnq:      1,
			NumOut:      2,
			PayloadBits: 32,
		},
		Traffic: func() traffic.Pattern {
			return traffic.NewUniform(0.4, 7)
		},
		Backpressure: func() traffic.Backpressure {
			return traffic.NewRandomReady(0.6, true, 8)
		},
		Ticks: 10000,
	}
}
