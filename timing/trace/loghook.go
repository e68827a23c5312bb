// Package trace records what the tile response arbiter grants, either as
// log lines or as rows in a SQLite database.
package trace

import (
	"log"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mempoolsim/timing/tile"
)

// LogHook writes one line per grant.
type LogHook struct {
	sim.LogHookBase
}

// NewLogHook creates a LogHook that writes into the logger.
func NewLogHook(logger *log.Logger) *LogHook {
	h := new(LogHook)
	h.Logger = logger

	return h
}

// Func logs grant events and ignores every other hook position.
func (h *LogHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != tile.HookPosGrant {
		return
	}

	evt, ok := ctx.Item.(tile.GrantEvent)
	if !ok {
		return
	}

	source := "new"
	if evt.FromAgeMatrix {
		source = "age"
	}

	h.Logger.Printf("%.10f, tick %d, lane %d <- port %d (%s), %s",
		float64(evt.Time), evt.Tick, evt.Lane, evt.Port, source, evt.Request.ID)
}
