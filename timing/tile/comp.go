// Package tile wraps the response arbiter into an Akita ticking component,
// the way it sits inside a MemPool tile: one request buffer per requester
// port, one response buffer per output lane, one arbiter tick per cycle.
// Arbiter tick k is evaluated at engine cycle k+1. Cycles the component
// sleeps through are accounted as stalled or idle ticks when it wakes up.
package tile

import (
	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mempoolsim/timing/arbiter"
	"github.com/sarchlab/mempoolsim/timing/bitvec"
)

// HookPosGrant marks a request handshaking on an output lane. The hook item
// is a GrantEvent.
var HookPosGrant = &sim.HookPos{Name: "Arbiter Grant"}

// HookPosTick marks the end of an arbiter tick. The hook item is the
// arbiter.Output of the tick.
var HookPosTick = &sim.HookPos{Name: "Arbiter Tick"}

// Request is a response waiting for an output lane. The payload is carried
// unchanged from the request buffer to the output buffer.
type Request struct {
	ID      string
	Src     int
	Lane    int
	Payload any

	InjectTime sim.VTimeInSec
	GrantTime  sim.VTimeInSec
}

// GrantEvent describes one handshake.
type GrantEvent struct {
	Tick          uint64
	Time          sim.VTimeInSec
	Lane          int
	Port          int
	FromAgeMatrix bool
	Request       *Request
}

// Comp is a tile response arbiter component.
type Comp struct {
	*sim.TickingComponent

	engine    sim.Engine
	arbiter   *arbiter.Arbiter
	inBufs    []sim.Buffer
	outBufs   []sim.Buffer
	tickLimit uint64
}

// Arbiter exposes the arbiter model for inspection.
func (c *Comp) Arbiter() *arbiter.Arbiter {
	return c.arbiter
}

// NumPorts returns the number of requester ports.
func (c *Comp) NumPorts() int {
	return len(c.inBufs)
}

// NumLanes returns the number of output lanes.
func (c *Comp) NumLanes() int {
	return len(c.outBufs)
}

// CanInject reports whether port src can take another request.
func (c *Comp) CanInject(src int) bool {
	return c.inBufs[src].CanPush()
}

// Inject queues a request on port src. It returns false if the port's
// request buffer is full.
func (c *Comp) Inject(src int, payload any) bool {
	buf := c.inBufs[src]
	if !buf.CanPush() {
		return false
	}

	buf.Push(&Request{
		ID:         xid.New().String(),
		Src:        src,
		Lane:       arbiter.None,
		Payload:    payload,
		InjectTime: c.engine.CurrentTime(),
	})
	c.TickLater()

	return true
}

// Pending returns the number of requests still waiting on port src.
func (c *Comp) Pending(src int) int {
	return c.inBufs[src].Size()
}

// Drain removes every granted request from the output buffer of a lane.
func (c *Comp) Drain(lane int) []*Request {
	buf := c.outBufs[lane]
	reqs := make([]*Request, 0, buf.Size())

	for buf.Size() > 0 {
		reqs = append(reqs, buf.Pop().(*Request))
	}

	if len(reqs) > 0 {
		c.TickLater()
	}

	return reqs
}

// CatchUp accounts the ticks before tick that the component slept through.
// It does nothing for ticks already evaluated, and never goes past the tick
// limit.
func (c *Comp) CatchUp(tick uint64) {
	if c.tickLimit > 0 {
		tick = min(tick, c.tickLimit)
	}

	if now := c.arbiter.CurrentTick(); tick > now {
		c.arbiter.Stall(tick - now)
	}
}

// currentTick maps the engine time to an arbiter tick.
func (c *Comp) currentTick() uint64 {
	cycle := c.Freq.Cycle(c.engine.CurrentTime())
	if cycle == 0 {
		return 0
	}

	return cycle - 1
}

// Tick runs one arbiter cycle. It makes progress when a request handshakes
// or gets registered in the age matrix.
func (c *Comp) Tick() bool {
	now := c.currentTick()
	if c.tickLimit > 0 && now >= c.tickLimit {
		return false
	}

	c.CatchUp(now)

	valid := bitvec.New(len(c.inBufs))
	for i, buf := range c.inBufs {
		valid.SetTo(i, buf.Size() > 0)
	}

	ready := bitvec.New(len(c.outBufs))
	for j, buf := range c.outBufs {
		ready.SetTo(j, buf.CanPush())
	}

	tick := c.arbiter.CurrentTick()
	out := c.arbiter.Tick(arbiter.Input{Valid: valid, DownstreamReady: ready})

	for lane, src := range out.Grants {
		if src == arbiter.None || !ready.Test(lane) {
			continue
		}

		c.forward(tick, lane, src, out.FromAgeMatrix.Test(lane))
	}

	if c.NumHooks() > 0 {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosTick,
			Item:   out,
		})
	}

	return !out.Ready.IsZero() || !out.Enqueued.IsZero()
}

func (c *Comp) forward(tick uint64, lane, src int, fromAgeMatrix bool) {
	req := c.inBufs[src].Pop().(*Request)
	req.Lane = lane
	req.GrantTime = c.engine.CurrentTime()
	c.outBufs[lane].Push(req)

	if c.NumHooks() > 0 {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosGrant,
			Item: GrantEvent{
				Tick:          tick,
				Time:          req.GrantTime,
				Lane:          lane,
				Port:          src,
				FromAgeMatrix: fromAgeMatrix,
				Request:       req,
			},
		})
	}
}
