package benchmarks

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mempoolsim/timing/tile"
	"github.com/sarchlab/mempoolsim/traffic"
)

// driver plays a scenario against a tile component: it raises requests on
// idle ports and consumes granted requests from the output lanes that the
// backpressure source marks ready.
type driver struct {
	*sim.TickingComponent

	comp     *tile.Comp
	pattern  traffic.Pattern
	bp       traffic.Backpressure
	ticks    uint64
	tick     uint64
	consumed uint64
}

func newDriver(engine sim.Engine, comp *tile.Comp, s Scenario) *driver {
	d := &driver{
		comp:    comp,
		pattern: s.Traffic(),
		bp:      s.Backpressure(),
		ticks:   s.Ticks,
	}
	d.TickingComponent = sim.NewTickingComponent(
		"Tile[0].Driver", engine, 1*sim.GHz, d)

	return d
}

func (d *driver) Tick() bool {
	if d.tick >= d.ticks {
		return false
	}

	for lane := 0; lane < d.comp.NumLanes(); lane++ {
		if d.bp.Ready(d.tick, lane) {
			d.consumed += uint64(len(d.comp.Drain(lane)))
		}
	}

	for port := 0; port < d.comp.NumPorts(); port++ {
		if d.comp.Pending(port) == 0 && d.pattern.Next(d.tick, port) {
			d.comp.Inject(port, d.tick)
		}
	}

	d.tick++

	return true
}
