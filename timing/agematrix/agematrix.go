// Package agematrix models the age matrix of the response arbiter.
//
// The matrix keeps one row per request slot. Bit (row, col) is 1 when row is
// younger than col and 0 when row is older (or col is not competing). The
// diagonal mirrors slot validity. Among valid slots the off-diagonal part is
// antisymmetric, which makes the matrix a strict total order: the oldest
// candidate of any subset is the one whose row is all zeros over that subset.
//
// The matrix is a synchronous register. Select reads the committed state;
// Advance computes the complete next state from (state, enqueues, dequeue)
// and then swaps it in.
package agematrix

import (
	"sort"
	"strings"

	"github.com/sarchlab/mempoolsim/timing/bitvec"
	"github.com/sarchlab/mempoolsim/timing/integrity"
	"github.com/sarchlab/mempoolsim/timing/selection"
)

// MaxEnq is the largest number of enqueue lanes the matrix supports.
const MaxEnq = 2

// Config sets the dimensions of the matrix.
type Config struct {
	// NumEntries is the number of request slots.
	NumEntries int

	// NumEnq is the number of slots that can be enqueued in one tick.
	NumEnq int

	// NumSel is the number of winners selected per tick.
	NumSel int
}

// Validate checks that the configuration is supported.
func (c Config) Validate() error {
	if c.NumEntries < 1 {
		return integrity.NewConfigurationError("NumEntries", c.NumEntries,
			"must be at least 1")
	}

	if c.NumEnq < 1 {
		return integrity.NewConfigurationError("NumEnq", c.NumEnq,
			"must be at least 1")
	}

	if c.NumEnq > MaxEnq {
		return integrity.NewConfigurationError("NumEnq", c.NumEnq,
			"at most 2 simultaneous enqueues are supported")
	}

	if c.NumSel < 1 {
		return integrity.NewConfigurationError("NumSel", c.NumSel,
			"must be at least 1")
	}

	return nil
}

// Matrix is an age matrix over a fixed number of slots.
type Matrix struct {
	cfg   Config
	rows  []bitvec.Vec
	valid bitvec.Vec
}

// New creates an age matrix with every slot invalid.
func New(cfg Config) (*Matrix, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Matrix{cfg: cfg}
	m.Reset()

	return m, nil
}

// Config returns the matrix dimensions.
func (m *Matrix) Config() Config {
	return m.cfg
}

// Reset invalidates every slot.
func (m *Matrix) Reset() {
	n := m.cfg.NumEntries

	m.rows = make([]bitvec.Vec, n)
	for r := range m.rows {
		m.rows[r] = drainedRow(n, r)
	}

	m.valid = bitvec.New(n)
}

// Valid returns the mask of slots currently tracked.
func (m *Matrix) Valid() bitvec.Vec {
	return m.valid.Clone()
}

// At returns bit (row, col). On the diagonal it returns the validity of the
// slot.
func (m *Matrix) At(row, col int) bool {
	if row == col {
		return m.valid.Test(row)
	}

	return m.rows[row].Test(col)
}

// Row returns a copy of a row, with the diagonal bit set to validity.
func (m *Matrix) Row(row int) bitvec.Vec {
	r := m.rows[row].Clone()
	r.SetTo(row, m.valid.Test(row))

	return r
}

// Older reports whether slot a is older than slot b. Both must be valid.
func (m *Matrix) Older(a, b int) bool {
	if a == b || !m.valid.Test(a) || !m.valid.Test(b) {
		return false
	}

	return m.rows[b].Test(a)
}

// Order returns the valid slots from oldest to youngest.
func (m *Matrix) Order() []int {
	slots := m.valid.Indices()
	rank := make(map[int]int, len(slots))

	for _, s := range slots {
		rank[s] = m.rows[s].And(m.valid).Count()
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return rank[slots[i]] < rank[slots[j]]
	})

	return slots
}

// Select returns NumSel winner masks for the slots in sel. Lane i picks the
// oldest valid candidate not won by lanes below i, or an all-zero mask when
// no candidate remains. Select does not change the matrix.
func (m *Matrix) Select(sel bitvec.Vec) []bitvec.Vec {
	integrity.MustHaveWidth(integrity.CheckInputWidth, "select mask",
		sel, m.cfg.NumEntries)

	candidates := sel.And(m.valid)
	round := selection.NewRound(m.cfg.NumEntries, m.cfg.NumSel)

	for lane := 0; lane < m.cfg.NumSel; lane++ {
		remaining := round.Remaining(candidates)
		winner := m.oldest(remaining)

		if winner.IsZero() && !remaining.IsZero() {
			integrity.Fail(integrity.CheckNoOldestCandidate,
				"lane %d: no oldest slot among %v", lane, remaining.Indices())
		}

		integrity.MustBeSubset(integrity.CheckSelectInvalidSlot,
			"age matrix winner", winner, m.valid)
		round.Claim(winner)
	}

	return round.Lanes()
}

// oldest evaluates every candidate's row against the remaining set, the
// same way the hardware does in parallel, so a broken order shows up as a
// multi-hot winner instead of being masked by a first-match scan.
func (m *Matrix) oldest(remaining bitvec.Vec) bitvec.Vec {
	winner := bitvec.New(m.cfg.NumEntries)

	for _, c := range remaining.Indices() {
		blockers := m.rows[c].And(remaining)
		blockers.Clear(c)

		if blockers.IsZero() {
			winner.Set(c)
		}
	}

	return winner
}

// Advance latches the next state. Each enqueue mask is one-hot or zero and
// is processed in lane order; dequeue may hold any number of slots.
//
// A dequeued slot's row is forced to all ones and its validity dropped. An
// enqueued slot becomes younger than every slot that stays valid and every
// slot inserted by an earlier lane this tick. A slot that is enqueued and
// dequeued in the same tick is not inserted.
func (m *Matrix) Advance(enqueues []bitvec.Vec, dequeue bitvec.Vec) {
	n := m.cfg.NumEntries

	if len(enqueues) > m.cfg.NumEnq {
		integrity.Fail(integrity.CheckEnqueueWidth,
			"%d enqueue lanes, matrix supports %d", len(enqueues), m.cfg.NumEnq)
	}

	integrity.MustHaveWidth(integrity.CheckInputWidth, "dequeue mask",
		dequeue, n)

	nextRows := make([]bitvec.Vec, n)
	for r := range m.rows {
		nextRows[r] = m.rows[r].Clone()
	}

	nextValid := m.valid.AndNot(dequeue)

	for _, d := range dequeue.Indices() {
		nextRows[d] = drainedRow(n, d)
	}

	survivors := nextValid.Clone()
	inserted := bitvec.New(n)

	for lane, enq := range enqueues {
		integrity.MustHaveWidth(integrity.CheckInputWidth, "enqueue mask",
			enq, n)
		integrity.MustBeOneHotOrZero(integrity.CheckEnqueueMultiHot,
			"enqueue mask", enq)

		s := enq.Lowest()
		if s < 0 {
			continue
		}

		if m.valid.Test(s) {
			integrity.Fail(integrity.CheckEnqueueValidSlot,
				"lane %d enqueues slot %d which is already valid", lane, s)
		}

		if inserted.Test(s) {
			integrity.Fail(integrity.CheckEnqueueValidSlot,
				"lane %d enqueues slot %d twice in one tick", lane, s)
		}

		if dequeue.Test(s) {
			continue
		}

		older := survivors.Or(inserted)
		older.Clear(s)
		nextRows[s] = older

		for _, r := range nextValid.Indices() {
			nextRows[r].Clear(s)
		}

		nextValid.Set(s)
		inserted.Set(s)
	}

	m.rows = nextRows
	m.valid = nextValid
}

// CheckOrder verifies that exactly one of (a, b) and (b, a) is set for every
// pair of valid slots.
func (m *Matrix) CheckOrder() {
	slots := m.valid.Indices()

	for i, a := range slots {
		for _, b := range slots[i+1:] {
			if m.rows[a].Test(b) == m.rows[b].Test(a) {
				integrity.Fail(integrity.CheckAgeOrder,
					"slots %d and %d are not ordered", a, b)
			}
		}
	}
}

// String dumps the matrix one row per line, column 0 first, with the
// diagonal shown as validity.
func (m *Matrix) String() string {
	var sb strings.Builder

	for r := range m.rows {
		for c := range m.rows {
			if m.At(r, c) {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

func drainedRow(n, row int) bitvec.Vec {
	r := bitvec.Ones(n)
	r.Clear(row)

	return r
}
