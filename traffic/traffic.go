// Package traffic generates request arrivals and downstream backpressure
// for driving the response arbiter. Every random source is seeded so that
// runs are reproducible.
package traffic

import (
	"math/rand/v2"
	"slices"
)

// Pattern decides when a requester port raises a new request.
type Pattern interface {
	// Next reports whether port raises a new request at tick. It is only
	// asked for ports that have no request pending.
	Next(tick uint64, port int) bool
}

// Uniform raises requests on every port with the same probability.
type Uniform struct {
	Rate float64

	rng *rand.Rand
}

// NewUniform creates a Uniform pattern.
func NewUniform(rate float64, seed uint64) *Uniform {
	return &Uniform{Rate: rate, rng: rand.New(rand.NewPCG(seed, seed^0x5eed))}
}

// Next implements Pattern.
func (u *Uniform) Next(_ uint64, _ int) bool {
	return u.rng.Float64() < u.Rate
}

// Hotspot raises requests on one port much more often than on the others.
type Hotspot struct {
	Hot      int
	HotRate  float64
	ColdRate float64

	rng *rand.Rand
}

// NewHotspot creates a Hotspot pattern.
func NewHotspot(hot int, hotRate, coldRate float64, seed uint64) *Hotspot {
	return &Hotspot{
		Hot:      hot,
		HotRate:  hotRate,
		ColdRate: coldRate,
		rng:      rand.New(rand.NewPCG(seed, seed^0x5eed)),
	}
}

// Next implements Pattern.
func (h *Hotspot) Next(_ uint64, port int) bool {
	if port == h.Hot {
		return h.rng.Float64() < h.HotRate
	}

	return h.rng.Float64() < h.ColdRate
}

// Saturating keeps every port requesting all the time.
type Saturating struct{}

// Next implements Pattern.
func (Saturating) Next(_ uint64, _ int) bool {
	return true
}

// Burst has every port request during the first Length ticks of each
// Period.
type Burst struct {
	Period uint64
	Length uint64
}

// Next implements Pattern.
func (b Burst) Next(tick uint64, _ int) bool {
	if b.Period == 0 {
		return false
	}

	return tick%b.Period < b.Length
}

// Scripted raises requests at fixed ticks.
type Scripted struct {
	// Arrivals maps a tick to the ports that raise a request at that tick.
	Arrivals map[uint64][]int
}

// Next implements Pattern.
func (s Scripted) Next(tick uint64, port int) bool {
	return slices.Contains(s.Arrivals[tick], port)
}

// Backpressure decides whether an output lane accepts a grant.
type Backpressure interface {
	Ready(tick uint64, lane int) bool
}

// AlwaysReady never stalls.
type AlwaysReady struct{}

// Ready implements Backpressure.
func (AlwaysReady) Ready(_ uint64, _ int) bool {
	return true
}

// Periodic makes every lane ready during the first ReadyTicks of each
// Period. Lane 0 can be pinned ready.
type Periodic struct {
	Period      uint64
	ReadyTicks  uint64
	Lane0Always bool
}

// Ready implements Backpressure.
func (p Periodic) Ready(tick uint64, lane int) bool {
	if lane == 0 && p.Lane0Always {
		return true
	}

	if p.Period == 0 {
		return true
	}

	return tick%p.Period < p.ReadyTicks
}

// RandomReady makes each lane ready with a fixed probability. Lane 0 can be
// pinned ready.
type RandomReady struct {
	Rate        float64
	Lane0Always bool

	rng *rand.Rand
}

// NewRandomReady creates a RandomReady backpressure source.
func NewRandomReady(rate float64, lane0Always bool, seed uint64) *RandomReady {
	return &RandomReady{
		Rate:        rate,
		Lane0Always: lane0Always,
		rng:         rand.New(rand.NewPCG(seed, seed^0xbacc)),
	}
}

// Ready implements Backpressure.
func (r *RandomReady) Ready(_ uint64, lane int) bool {
	if lane == 0 && r.Lane0Always {
		return true
	}

	return r.rng.Float64() < r.Rate
}

// ScriptedReady lists, per tick, the lanes that are ready. Ticks that are
// not listed fall back to Default.
type ScriptedReady struct {
	Lanes   map[uint64][]int
	Default bool
}

// Ready implements Backpressure.
func (s ScriptedReady) Ready(tick uint64, lane int) bool {
	lanes, ok := s.Lanes[tick]
	if !ok {
		return s.Default
	}

	return slices.Contains(lanes, lane)
}
