package integrity_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mempoolsim/timing/bitvec"
	"github.com/sarchlab/mempoolsim/timing/integrity"
)

var _ = Describe("Integrity", func() {
	It("should describe a configuration error", func() {
		err := integrity.NewConfigurationError("NumEnq", 3, "too many")
		wrapped := fmt.Errorf("building arbiter: %w", err)

		var cfgErr *integrity.ConfigurationError
		Expect(errors.As(wrapped, &cfgErr)).To(BeTrue())
		Expect(cfgErr.Value).To(Equal(3))
		Expect(err.Error()).To(ContainSubstring("NumEnq=3"))
	})

	It("should panic with the failed check", func() {
		Expect(func() { integrity.Fail(integrity.CheckAgeOrder, "slot %d", 2) }).
			To(PanicWith(And(
				HaveField("Check", integrity.CheckAgeOrder),
				HaveField("Detail", "slot 2"),
			)))
	})

	It("should accept a one-hot or empty mask", func() {
		Expect(func() {
			integrity.MustBeOneHotOrZero(integrity.CheckWinnerOneHot, "w",
				bitvec.OneHot(4, 1))
			integrity.MustBeOneHotOrZero(integrity.CheckWinnerOneHot, "w",
				bitvec.New(4))
		}).NotTo(Panic())
	})

	It("should reject a multi-hot mask", func() {
		Expect(func() {
			integrity.MustBeOneHotOrZero(integrity.CheckWinnerOneHot, "w",
				bitvec.FromIndices(4, 0, 3))
		}).To(PanicWith(HaveField("Check", integrity.CheckWinnerOneHot)))
	})

	It("should report bits outside the superset", func() {
		Expect(func() {
			integrity.MustBeSubset(integrity.CheckSlotPartition, "old",
				bitvec.FromIndices(4, 1, 2), bitvec.FromIndices(4, 1))
		}).To(PanicWith(HaveField("Detail", ContainSubstring("[2]"))))
	})

	It("should check widths", func() {
		Expect(func() {
			integrity.MustHaveWidth(integrity.CheckInputWidth, "valid",
				bitvec.New(3), 4)
		}).To(PanicWith(HaveField("Check", integrity.CheckInputWidth)))
	})
})
