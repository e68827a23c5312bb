package slottracker_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mempoolsim/timing/bitvec"
	"github.com/sarchlab/mempoolsim/timing/integrity"
	"github.com/sarchlab/mempoolsim/timing/slottracker"
)

var _ = Describe("Slot Tracker", func() {
	const n = 4

	var t *slottracker.Tracker

	slots := func(idx ...int) bitvec.Vec { return bitvec.FromIndices(n, idx...) }
	none := func() bitvec.Vec { return bitvec.New(n) }

	BeforeEach(func() {
		t = slottracker.New(n)
	})

	It("should start with every port new", func() {
		for i := 0; i < n; i++ {
			Expect(t.IsNew(i)).To(BeTrue())
		}

		validNew, validOld := t.Classify(slots(0, 2))
		Expect(validNew.Indices()).To(Equal([]int{0, 2}))
		Expect(validOld.IsZero()).To(BeTrue())
	})

	It("should turn a registered port old", func() {
		t.Update(slots(0, 2), none(), slots(0))

		validNew, validOld := t.Classify(slots(0, 2))
		Expect(validNew.Indices()).To(Equal([]int{2}))
		Expect(validOld.Indices()).To(Equal([]int{0}))
	})

	It("should keep an unregistered waiting port new", func() {
		t.Update(slots(1), none(), none())

		Expect(t.IsNew(1)).To(BeTrue())
	})

	It("should turn a granted port new again", func() {
		t.Update(slots(0), none(), slots(0))
		Expect(t.IsNew(0)).To(BeFalse())

		t.Update(slots(0), slots(0), none())
		Expect(t.IsNew(0)).To(BeTrue())
	})

	It("should keep an old port old while it waits", func() {
		t.Update(slots(3), none(), slots(3))

		for tick := 0; tick < 5; tick++ {
			t.Update(slots(3), none(), none())
			Expect(t.IsNew(3)).To(BeFalse())
		}
	})

	It("should never report a port in both partitions", func() {
		t.Update(slots(0, 1, 2, 3), none(), slots(1, 3))

		validNew, validOld := t.Classify(bitvec.Ones(n))
		Expect(validNew.And(validOld).IsZero()).To(BeTrue())
		Expect(validNew.Or(validOld).Equal(bitvec.Ones(n))).To(BeTrue())
	})

	It("should reset every port to new", func() {
		t.Update(slots(0, 1), none(), slots(0, 1))
		t.Reset()

		Expect(t.IsNew(0)).To(BeTrue())
		Expect(t.IsNew(1)).To(BeTrue())
	})

	It("should reject an old request that disappears without a grant", func() {
		t.Update(slots(2), none(), slots(2))

		Expect(func() { t.Update(none(), none(), none()) }).
			To(PanicWith(HaveField("Check", integrity.CheckRequestWithdrawn)))
	})

	It("should reject registering an old port", func() {
		t.Update(slots(2), none(), slots(2))

		Expect(func() { t.Update(slots(2), none(), slots(2)) }).
			To(PanicWith(HaveField("Check", integrity.CheckSlotPartition)))
	})

	It("should reject a handshake on an idle port", func() {
		Expect(func() { t.Update(none(), slots(1), none()) }).
			To(PanicWith(HaveField("Check", integrity.CheckSlotPartition)))
	})
})
