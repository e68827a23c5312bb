// Package arbiter models the response arbiter of a MemPool tile: a
// multi-grant arbiter that hands up to NumOut output lanes per tick to
// NumEntries requesters, oldest request first, without starving anyone.
//
// One call to Tick evaluates one clock cycle in a fixed order:
//
//  1. classify valid requests into new and old (slot tracker);
//  2. pick up to NumEnq new requests to register (enqueue candidates);
//  3. ask the age matrix for the NumOut oldest old requests;
//  4. fill the output lanes from [age winners..., enqueue candidates...]
//     with a fixed-priority selector;
//  5. derive ready from the grants and the downstream ready bits;
//  6. latch the age matrix and the slot tracker for the next tick.
//
// All reads in a tick see the state latched at the end of the previous
// tick.
package arbiter

import (
	"github.com/sarchlab/mempoolsim/timing/agematrix"
	"github.com/sarchlab/mempoolsim/timing/bitvec"
	"github.com/sarchlab/mempoolsim/timing/integrity"
	"github.com/sarchlab/mempoolsim/timing/selection"
	"github.com/sarchlab/mempoolsim/timing/slottracker"
)

// None marks an output lane without a grant.
const None = selection.None

// Input holds the signals sampled at the start of a tick.
type Input struct {
	// Valid has one bit per requester port.
	Valid bitvec.Vec

	// DownstreamReady has one bit per output lane.
	DownstreamReady bitvec.Vec
}

// Output holds the signals produced by a tick.
type Output struct {
	// Grants holds, per output lane, the granted port or None.
	Grants []int

	// WinnerMasks holds, per output lane, the granted port as a one-hot
	// mask (all zero without a grant).
	WinnerMasks []bitvec.Vec

	// ValidOut has one bit per output lane carrying a request.
	ValidOut bitvec.Vec

	// Ready has one bit per port whose request handshaked this tick.
	Ready bitvec.Vec

	// FromAgeMatrix has one bit per output lane filled by an age matrix
	// winner rather than by a newly arrived request.
	FromAgeMatrix bitvec.Vec

	// Enqueued has one bit per port registered in the age matrix.
	Enqueued bitvec.Vec

	// Dequeued has one bit per port removed from the age matrix.
	Dequeued bitvec.Vec
}

// Option is a functional option for configuring the Arbiter.
type Option func(*Arbiter)

// WithChecks enables or disables the per-tick integrity sweep (slot
// partition, winner validity, grant uniqueness, matrix order). Input width
// checks and the checks inside the age matrix always run.
func WithChecks(enabled bool) Option {
	return func(a *Arbiter) {
		a.checks = enabled
	}
}

// Arbiter is the response arbiter model.
type Arbiter struct {
	config  *Config
	ages    *agematrix.Matrix
	tracker *slottracker.Tracker
	checks  bool

	tick       uint64
	held       bool
	arrivedAt  []int64
	enqueuedAt []uint64
	stats      Statistics
}

// New creates an arbiter. It returns a *integrity.ConfigurationError when the
// configuration is not supported.
func New(config *Config, opts ...Option) (*Arbiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ages, err := agematrix.New(config.AgeMatrixConfig())
	if err != nil {
		return nil, err
	}

	a := &Arbiter{
		config:  config.Clone(),
		ages:    ages,
		tracker: slottracker.New(config.NumEntries),
		checks:  true,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.resetCounters()

	return a, nil
}

// Config returns a copy of the arbiter configuration.
func (a *Arbiter) Config() *Config {
	return a.config.Clone()
}

// AgeMatrix exposes the age matrix for inspection.
func (a *Arbiter) AgeMatrix() *agematrix.Matrix {
	return a.ages
}

// Tracker exposes the slot tracker for inspection.
func (a *Arbiter) Tracker() *slottracker.Tracker {
	return a.tracker
}

// CurrentTick returns the number of ticks evaluated so far.
func (a *Arbiter) CurrentTick() uint64 {
	return a.tick
}

// Reset returns the arbiter to its reset state and clears statistics.
func (a *Arbiter) Reset() {
	a.ages.Reset()
	a.tracker.Reset()
	a.tick = 0
	a.held = false
	a.resetCounters()
}

func (a *Arbiter) resetCounters() {
	n := a.config.NumEntries

	a.arrivedAt = make([]int64, n)
	for i := range a.arrivedAt {
		a.arrivedAt[i] = -1
	}

	a.enqueuedAt = make([]uint64, n)
	a.stats = Statistics{PortGrants: make([]uint64, n)}
}

// Tick evaluates one clock cycle.
func (a *Arbiter) Tick(in Input) Output {
	n, numOut := a.config.NumEntries, a.config.NumOut

	integrity.MustHaveWidth(integrity.CheckInputWidth, "valid", in.Valid, n)
	integrity.MustHaveWidth(integrity.CheckInputWidth, "downstream ready",
		in.DownstreamReady, numOut)

	validNew, validOld := a.tracker.Classify(in.Valid)
	if a.checks {
		a.partitionMustMatchMatrix(validNew, validOld)
	}

	enqCandidates := selection.PickEnqueue(validNew, a.config.NumEnq)
	ageWinners := a.ages.Select(validOld)

	sources := make([]selection.Source, 0, len(ageWinners)+len(enqCandidates))
	for _, w := range ageWinners {
		sources = append(sources, selection.Source{Valid: !w.IsZero(), Slot: w.Lowest()})
	}
	for _, e := range enqCandidates {
		sources = append(sources, selection.Source{Valid: !e.IsZero(), Slot: e.Lowest()})
	}

	out := Output{
		Grants:        make([]int, numOut),
		WinnerMasks:   make([]bitvec.Vec, numOut),
		ValidOut:      bitvec.New(numOut),
		Ready:         bitvec.New(n),
		FromAgeMatrix: bitvec.New(numOut),
	}

	for lane, src := range selection.Select(sources, numOut) {
		out.Grants[lane] = None
		out.WinnerMasks[lane] = bitvec.New(n)

		if src == selection.None {
			continue
		}

		slot := sources[src].Slot
		out.Grants[lane] = slot
		out.WinnerMasks[lane].Set(slot)
		out.ValidOut.Set(lane)

		if src < len(ageWinners) {
			out.FromAgeMatrix.Set(lane)
		}

		if in.DownstreamReady.Test(lane) {
			out.Ready.Set(slot)
		}
	}

	if a.checks {
		a.grantsMustBeSound(in.Valid, out)
	}

	handshake := out.Ready

	enqueues := make([]bitvec.Vec, len(enqCandidates))
	out.Enqueued = bitvec.New(n)
	for i, e := range enqCandidates {
		enqueues[i] = e.AndNot(handshake)
		out.Enqueued = out.Enqueued.Or(enqueues[i])
	}

	out.Dequeued = handshake.And(validOld)

	a.updateStats(in, out)

	a.ages.Advance(enqueues, out.Dequeued)
	a.tracker.Update(in.Valid, handshake, out.Enqueued)

	if a.checks {
		a.ages.CheckOrder()
	}

	a.tick++
	a.held = !in.Valid.IsZero()

	return out
}

// Stall advances the arbiter by n ticks that repeat the inputs of the last
// evaluated tick. That tick must not have made progress (no handshake and
// no enqueue), so the state does not change and only the tick count and the
// statistics move. A component that sleeps while its inputs are unchanged
// uses it to account the cycles it skipped.
func (a *Arbiter) Stall(n uint64) {
	s := &a.stats
	s.Ticks += n

	if a.held {
		s.ActiveTicks += n
		s.StallTicks += n
	}

	a.tick += n
}

func (a *Arbiter) partitionMustMatchMatrix(validNew, validOld bitvec.Vec) {
	tracked := a.ages.Valid()

	integrity.MustBeSubset(integrity.CheckSlotPartition,
		"old requests outside the age matrix", validOld, tracked)

	if !validNew.And(tracked).IsZero() {
		integrity.Fail(integrity.CheckSlotPartition,
			"new requests %v already in the age matrix",
			validNew.And(tracked).Indices())
	}
}

func (a *Arbiter) grantsMustBeSound(valid bitvec.Vec, out Output) {
	granted := bitvec.New(a.config.NumEntries)

	for lane, mask := range out.WinnerMasks {
		integrity.MustBeOneHotOrZero(integrity.CheckWinnerOneHot,
			"output lane winner", mask)
		integrity.MustBeSubset(integrity.CheckSelectInvalidSlot,
			"output lane winner", mask, valid)

		if !mask.And(granted).IsZero() {
			integrity.Fail(integrity.CheckDuplicateGrant,
				"lane %d grants port %d a second time", lane, mask.Lowest())
		}

		granted = granted.Or(mask)
	}
}

func (a *Arbiter) updateStats(in Input, out Output) {
	s := &a.stats
	s.Ticks++

	for _, p := range in.Valid.Indices() {
		if a.arrivedAt[p] < 0 {
			a.arrivedAt[p] = int64(a.tick)
			s.Requests++
		}
	}

	if !in.Valid.IsZero() {
		s.ActiveTicks++
		if out.Ready.IsZero() {
			s.StallTicks++
		}
	}

	for lane, p := range out.Grants {
		if p == None || !in.DownstreamReady.Test(lane) {
			continue
		}

		s.Grants++
		s.PortGrants[p]++

		if out.FromAgeMatrix.Test(lane) {
			s.AgeGrants++
		} else {
			s.OverflowGrants++
		}

		latency := a.tick - uint64(a.arrivedAt[p])
		s.TotalLatency += latency
		s.MaxLatency = max(s.MaxLatency, latency)
		a.arrivedAt[p] = -1
	}

	for _, p := range out.Dequeued.Indices() {
		s.MaxTrackedWait = max(s.MaxTrackedWait, a.tick-a.enqueuedAt[p])
	}

	for _, p := range out.Enqueued.Indices() {
		a.enqueuedAt[p] = a.tick
		s.Enqueues++
	}
}
