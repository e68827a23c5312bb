// Package slottracker tracks, per requester port, whether the pending
// request is new (not yet registered in the age matrix) or old (registered
// and waiting for a grant).
package slottracker

import (
	"github.com/sarchlab/mempoolsim/timing/bitvec"
	"github.com/sarchlab/mempoolsim/timing/integrity"
)

// Tracker holds one new/old flag per port. Reset sets every flag to new,
// matching the hardware reset polarity.
type Tracker struct {
	isNew bitvec.Vec
}

// New creates a tracker for numEntries ports.
func New(numEntries int) *Tracker {
	t := &Tracker{}
	t.isNew = bitvec.Ones(numEntries)

	return t
}

// Reset marks every port new.
func (t *Tracker) Reset() {
	t.isNew = bitvec.Ones(t.isNew.Width())
}

// NumEntries returns the number of ports.
func (t *Tracker) NumEntries() int {
	return t.isNew.Width()
}

// IsNew reports whether port i's next valid request counts as new.
func (t *Tracker) IsNew(i int) bool {
	return t.isNew.Test(i)
}

// Classify splits the valid ports into new and old requests. The two
// results never share a bit.
func (t *Tracker) Classify(valid bitvec.Vec) (validNew, validOld bitvec.Vec) {
	integrity.MustHaveWidth(integrity.CheckInputWidth, "valid",
		valid, t.isNew.Width())

	return valid.And(t.isNew), valid.AndNot(t.isNew)
}

// Update latches the flags for the next tick.
//
// A port whose request handshaked becomes new: whatever it presents next is
// a fresh request. A port registered in the age matrix without a handshake
// becomes old. Every other port keeps its flag, so a request that waits
// keeps its age.
func (t *Tracker) Update(valid, handshake, registered bitvec.Vec) {
	integrity.MustHaveWidth(integrity.CheckInputWidth, "valid",
		valid, t.isNew.Width())
	integrity.MustBeSubset(integrity.CheckSlotPartition, "handshake",
		handshake, valid)
	integrity.MustBeSubset(integrity.CheckSlotPartition, "registered",
		registered, valid.And(t.isNew))

	withdrawn := t.isNew.Not().AndNot(valid).AndNot(handshake)
	if !withdrawn.IsZero() {
		integrity.Fail(integrity.CheckRequestWithdrawn,
			"ports %v dropped valid before being granted", withdrawn.Indices())
	}

	next := t.isNew.Or(handshake)
	next = next.AndNot(registered.AndNot(handshake))
	t.isNew = next
}
