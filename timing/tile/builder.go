package tile

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mempoolsim/timing/arbiter"
)

// Builder builds tile response arbiters.
type Builder struct {
	engine         sim.Engine
	freq           sim.Freq
	config         *arbiter.Config
	inBufferDepth  int
	outBufferDepth int
	checks         bool
	tickLimit      uint64
}

// MakeBuilder returns a Builder with the MemPool tile defaults.
func MakeBuilder() Builder {
	return Builder{
		freq:           1 * sim.GHz,
		config:         arbiter.DefaultConfig(),
		inBufferDepth:  1,
		outBufferDepth: 1,
		checks:         true,
	}
}

// WithEngine sets the engine that schedules the component.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the clock frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithConfig sets the arbiter configuration.
func (b Builder) WithConfig(config *arbiter.Config) Builder {
	b.config = config.Clone()
	return b
}

// WithBufferDepth sets the depth of both the request and the output buffers.
func (b Builder) WithBufferDepth(depth int) Builder {
	b.inBufferDepth = depth
	b.outBufferDepth = depth
	return b
}

// WithInputBufferDepth sets the number of requests a port can hold.
func (b Builder) WithInputBufferDepth(depth int) Builder {
	b.inBufferDepth = depth
	return b
}

// WithOutputBufferDepth sets the number of granted requests an output lane
// can hold before it stops being ready.
func (b Builder) WithOutputBufferDepth(depth int) Builder {
	b.outBufferDepth = depth
	return b
}

// WithChecks enables or disables the arbiter's per-tick integrity sweep.
func (b Builder) WithChecks(enabled bool) Builder {
	b.checks = enabled
	return b
}

// WithTickLimit stops arbitration after the given number of cycles. Zero
// means no limit.
func (b Builder) WithTickLimit(ticks uint64) Builder {
	b.tickLimit = ticks
	return b
}

// Build creates the component.
func (b Builder) Build(name string) (*Comp, error) {
	if b.engine == nil {
		return nil, fmt.Errorf("tile %s: no engine", name)
	}

	if b.inBufferDepth < 1 || b.outBufferDepth < 1 {
		return nil, fmt.Errorf("tile %s: buffer depth must be at least 1", name)
	}

	arb, err := arbiter.New(b.config, arbiter.WithChecks(b.checks))
	if err != nil {
		return nil, fmt.Errorf("tile %s: %w", name, err)
	}

	c := &Comp{
		engine:    b.engine,
		arbiter:   arb,
		tickLimit: b.tickLimit,
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	for i := 0; i < b.config.NumEntries; i++ {
		c.inBufs = append(c.inBufs,
			sim.NewBuffer(fmt.Sprintf("%s.InBuf[%d]", name, i), b.inBufferDepth))
	}

	for j := 0; j < b.config.NumOut; j++ {
		c.outBufs = append(c.outBufs,
			sim.NewBuffer(fmt.Sprintf("%s.OutBuf[%d]", name, j), b.outBufferDepth))
	}

	return c, nil
}
