// Package selection implements the selection network of the response
// arbiter: the per-tick selection round shared by the priority lanes, the
// enqueue-candidate pick over newly arrived requests, and a generic
// N-input/M-output fixed-priority selector.
package selection

import (
	"github.com/sarchlab/mempoolsim/timing/bitvec"
	"github.com/sarchlab/mempoolsim/timing/integrity"
)

// None marks an output lane without a grant.
const None = -1

// Round is the state of one tick's selection. Lanes pick in strict order
// 0..NumLanes-1 and every lane excludes the slots taken by earlier lanes.
type Round struct {
	taken bitvec.Vec
	lanes []bitvec.Vec
	next  int
}

// NewRound creates an empty round over width slots and numLanes lanes.
func NewRound(width, numLanes int) *Round {
	r := &Round{
		taken: bitvec.New(width),
		lanes: make([]bitvec.Vec, numLanes),
	}

	for i := range r.lanes {
		r.lanes[i] = bitvec.New(width)
	}

	return r
}

// Remaining returns the bits of mask not yet taken in this round.
func (r *Round) Remaining(mask bitvec.Vec) bitvec.Vec {
	return mask.AndNot(r.taken)
}

// Claim records the winner of the next lane. The winner must be one-hot or
// zero and must not overlap earlier lanes.
func (r *Round) Claim(winner bitvec.Vec) {
	if r.next >= len(r.lanes) {
		integrity.Fail(integrity.CheckWinnerOneHot,
			"round has only %d lanes", len(r.lanes))
	}

	integrity.MustBeOneHotOrZero(integrity.CheckWinnerOneHot,
		"lane winner", winner)

	if !winner.And(r.taken).IsZero() {
		integrity.Fail(integrity.CheckDuplicateGrant,
			"slot %d already won by an earlier lane", winner.Lowest())
	}

	r.lanes[r.next] = winner
	r.taken = r.taken.Or(winner)
	r.next++
}

// Taken returns the union of all claimed slots.
func (r *Round) Taken() bitvec.Vec {
	return r.taken.Clone()
}

// Lane returns the winner mask of lane i.
func (r *Round) Lane(i int) bitvec.Vec {
	return r.lanes[i]
}

// Lanes returns the winner masks of all lanes.
func (r *Round) Lanes() []bitvec.Vec {
	out := make([]bitvec.Vec, len(r.lanes))
	copy(out, r.lanes)

	return out
}

// PickEnqueue chooses up to numEnq distinct slots from validNew to register
// in the age matrix this tick. Lane 0 scans from the bottom (trailing-zero
// count) and lane 1 from the top (leading-zero count), so a steady stream of
// low-index requests cannot monopolize both lanes. A lane that lands on a
// slot already picked by lane 0 is suppressed.
func PickEnqueue(validNew bitvec.Vec, numEnq int) []bitvec.Vec {
	width := validNew.Width()
	out := make([]bitvec.Vec, numEnq)

	for lane := range out {
		out[lane] = bitvec.New(width)

		var idx int
		if lane%2 == 0 {
			idx = validNew.Lowest()
		} else {
			idx = validNew.Highest()
		}

		if idx < 0 {
			continue
		}

		if lane > 0 && out[0].Test(idx) {
			continue
		}

		out[lane].Set(idx)
	}

	return out
}

// Source is one input of the fixed-priority selector.
type Source struct {
	Valid bool
	Slot  int
}

// Select assigns sources to numOut output lanes. Lane j receives the
// lowest-indexed valid source not consumed by lanes below j. A source whose
// slot has already been assigned is skipped, so no slot reaches two lanes.
// The result holds the source index per lane, or None.
func Select(sources []Source, numOut int) []int {
	out := make([]int, numOut)
	assigned := make(map[int]bool, numOut)

	next := 0
	for lane := range out {
		out[lane] = None

		for next < len(sources) {
			src := sources[next]
			next++

			if !src.Valid || assigned[src.Slot] {
				continue
			}

			assigned[src.Slot] = true
			out[lane] = next - 1

			break
		}
	}

	return out
}
