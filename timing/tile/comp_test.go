package tile_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mempoolsim/timing/arbiter"
	"github.com/sarchlab/mempoolsim/timing/integrity"
	"github.com/sarchlab/mempoolsim/timing/tile"
)

type grantCollector struct {
	events []tile.GrantEvent
	ticks  int
}

func (h *grantCollector) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case tile.HookPosGrant:
		h.events = append(h.events, ctx.Item.(tile.GrantEvent))
	case tile.HookPosTick:
		h.ticks++
	}
}

var _ = Describe("Tile response arbiter", func() {
	var (
		engine sim.Engine
		comp   *tile.Comp
		hook   *grantCollector
	)

	srcs := func(reqs []*tile.Request) []int {
		out := make([]int, len(reqs))
		for i, r := range reqs {
			out[i] = r.Src
		}
		return out
	}

	BeforeEach(func() {
		var err error

		engine = sim.NewSerialEngine()
		comp, err = tile.MakeBuilder().
			WithEngine(engine).
			WithBufferDepth(1).
			Build("Tile[0].RespArbiter")
		Expect(err).NotTo(HaveOccurred())

		hook = &grantCollector{}
		comp.AcceptHook(hook)
	})

	It("should refuse to build without an engine", func() {
		_, err := tile.MakeBuilder().Build("Tile[1].RespArbiter")
		Expect(err).To(HaveOccurred())
	})

	It("should refuse an unsupported arbiter configuration", func() {
		cfg := arbiter.DefaultConfig()
		cfg.NumEnq = 3

		_, err := tile.MakeBuilder().
			WithEngine(engine).
			WithConfig(cfg).
			Build("Tile[1].RespArbiter")

		var cfgErr *integrity.ConfigurationError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
	})

	It("should expose one buffer per port and per lane", func() {
		Expect(comp.NumPorts()).To(Equal(4))
		Expect(comp.NumLanes()).To(Equal(2))
	})

	It("should refuse a request when the port buffer is full", func() {
		Expect(comp.Inject(1, "a")).To(BeTrue())
		Expect(comp.CanInject(1)).To(BeFalse())
		Expect(comp.Inject(1, "b")).To(BeFalse())
		Expect(comp.Pending(1)).To(Equal(1))
	})

	It("should forward payloads unchanged to the granted lane", func() {
		comp.Inject(0, uint32(0xdead))
		comp.Inject(2, uint32(0xbeef))

		Expect(engine.Run()).To(Succeed())

		lane0 := comp.Drain(0)
		lane1 := comp.Drain(1)

		Expect(lane0).To(HaveLen(1))
		Expect(lane0[0].Src).To(Equal(0))
		Expect(lane0[0].Lane).To(Equal(0))
		Expect(lane0[0].Payload).To(Equal(uint32(0xdead)))
		Expect(lane0[0].ID).NotTo(BeEmpty())

		Expect(lane1).To(HaveLen(1))
		Expect(lane1[0].Src).To(Equal(2))
		Expect(lane1[0].Payload).To(Equal(uint32(0xbeef)))

		Expect(hook.events).To(HaveLen(2))
		Expect(hook.events[0].FromAgeMatrix).To(BeFalse())
		Expect(comp.Pending(0)).To(BeZero())
	})

	It("should hold requests while the output lanes are full", func() {
		for p := 0; p < 4; p++ {
			Expect(comp.Inject(p, p)).To(BeTrue())
		}

		Expect(engine.Run()).To(Succeed())

		Expect(comp.Pending(1)).To(Equal(1))
		Expect(comp.Pending(2)).To(Equal(1))
		Expect(comp.Arbiter().AgeMatrix().Order()).To(Equal([]int{1, 2}))

		Expect(srcs(comp.Drain(0))).To(Equal([]int{0}))
		Expect(srcs(comp.Drain(1))).To(Equal([]int{3}))

		Expect(engine.Run()).To(Succeed())

		Expect(srcs(comp.Drain(0))).To(Equal([]int{1}))
		Expect(srcs(comp.Drain(1))).To(Equal([]int{2}))

		Expect(hook.events).To(HaveLen(4))
		Expect(hook.events[2].FromAgeMatrix).To(BeTrue())
		Expect(hook.events[3].FromAgeMatrix).To(BeTrue())
		Expect(hook.ticks).To(BeNumerically(">=", 3))

		s := comp.Arbiter().Stats()
		Expect(s.Grants).To(Equal(uint64(4)))
		Expect(s.AgeGrants).To(Equal(uint64(2)))
	})

	Context("with a tick limit", func() {
		BeforeEach(func() {
			var err error

			comp, err = tile.MakeBuilder().
				WithEngine(engine).
				WithBufferDepth(1).
				WithTickLimit(10).
				Build("Tile[0].RespArbiter")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should count the idle cycles it slept through", func() {
			comp.Inject(0, "a")

			Expect(engine.Run()).To(Succeed())
			comp.CatchUp(10)

			s := comp.Arbiter().Stats()
			Expect(s.Ticks).To(Equal(uint64(10)))
			Expect(s.ActiveTicks).To(Equal(uint64(1)))
			Expect(s.StallTicks).To(BeZero())
			Expect(s.Grants).To(Equal(uint64(1)))
			Expect(s.Throughput()).To(BeNumerically("~", 0.1))
		})

		It("should count the stalled cycles it slept through", func() {
			for p := 0; p < 4; p++ {
				comp.Inject(p, p)
			}

			Expect(engine.Run()).To(Succeed())
			comp.CatchUp(10)

			s := comp.Arbiter().Stats()
			Expect(s.Ticks).To(Equal(uint64(10)))
			Expect(s.ActiveTicks).To(Equal(uint64(10)))
			Expect(s.StallTicks).To(Equal(uint64(9)))
			Expect(s.Grants).To(Equal(uint64(2)))
		})

		It("should not count past the limit", func() {
			comp.Inject(0, "a")

			Expect(engine.Run()).To(Succeed())
			comp.CatchUp(25)

			Expect(comp.Arbiter().Stats().Ticks).To(Equal(uint64(10)))
		})
	})

	It("should stop arbitrating at the tick limit", func() {
		var err error

		comp, err = tile.MakeBuilder().
			WithEngine(engine).
			WithBufferDepth(1).
			WithTickLimit(1).
			Build("Tile[1].RespArbiter")
		Expect(err).NotTo(HaveOccurred())

		for p := 0; p < 4; p++ {
			comp.Inject(p, p)
		}

		Expect(engine.Run()).To(Succeed())

		Expect(comp.Arbiter().CurrentTick()).To(Equal(uint64(1)))
		Expect(comp.Pending(1)).To(Equal(1))
		Expect(comp.Pending(2)).To(Equal(1))
		Expect(srcs(comp.Drain(0))).To(Equal([]int{0}))
	})
})
