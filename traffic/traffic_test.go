package traffic_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mempoolsim/traffic"
)

var _ = Describe("Patterns", func() {
	sample := func(p traffic.Pattern, port int) []bool {
		out := make([]bool, 64)
		for t := range out {
			out[t] = p.Next(uint64(t), port)
		}
		return out
	}

	It("should repeat a uniform pattern for the same seed", func() {
		Expect(sample(traffic.NewUniform(0.5, 9), 0)).
			To(Equal(sample(traffic.NewUniform(0.5, 9), 0)))
	})

	It("should never request at rate zero", func() {
		Expect(sample(traffic.NewUniform(0, 1), 0)).NotTo(ContainElement(true))
	})

	It("should favor the hot port", func() {
		h := traffic.NewHotspot(2, 1, 0, 3)

		Expect(sample(h, 2)).NotTo(ContainElement(false))
		Expect(sample(h, 1)).NotTo(ContainElement(true))
	})

	It("should request in bursts", func() {
		b := traffic.Burst{Period: 4, Length: 1}

		Expect(b.Next(0, 0)).To(BeTrue())
		Expect(b.Next(1, 0)).To(BeFalse())
		Expect(b.Next(4, 3)).To(BeTrue())
		Expect(traffic.Burst{}.Next(0, 0)).To(BeFalse())
	})

	It("should follow a script", func() {
		s := traffic.Scripted{Arrivals: map[uint64][]int{1: {0, 2}}}

		Expect(s.Next(1, 2)).To(BeTrue())
		Expect(s.Next(1, 1)).To(BeFalse())
		Expect(s.Next(0, 0)).To(BeFalse())
	})

	It("should saturate", func() {
		Expect(sample(traffic.Saturating{}, 3)).NotTo(ContainElement(false))
	})
})

var _ = Describe("Backpressure", func() {
	It("should pin lane 0", func() {
		r := traffic.NewRandomReady(0, true, 5)

		Expect(r.Ready(0, 0)).To(BeTrue())
		Expect(r.Ready(0, 1)).To(BeFalse())
	})

	It("should be ready periodically", func() {
		p := traffic.Periodic{Period: 3, ReadyTicks: 1}

		Expect(p.Ready(0, 1)).To(BeTrue())
		Expect(p.Ready(1, 1)).To(BeFalse())
		Expect(p.Ready(3, 0)).To(BeTrue())
	})

	It("should follow a script and fall back to the default", func() {
		s := traffic.ScriptedReady{Lanes: map[uint64][]int{1: {0}}, Default: true}

		Expect(s.Ready(1, 0)).To(BeTrue())
		Expect(s.Ready(1, 1)).To(BeFalse())
		Expect(s.Ready(2, 1)).To(BeTrue())
	})

	It("should always be ready", func() {
		Expect(traffic.AlwaysReady{}.Ready(10, 3)).To(BeTrue())
	})
})
