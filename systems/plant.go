package systems

import (
	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/telemetry"
)

// UpdatePlant advances one plant: it dies of age when its lifespan runs out
// and seeds a new plant nearby each time its reproduction timer fires.
func UpdatePlant(ctx *Context, b Body, dt float64) {
	if !b.Alive() {
		return
	}
	t := &b.Life.Timers
	t.Tick(dt)

	if t.Expired(components.TimerLifespan) {
		ctx.kill(b, telemetry.CauseOldAge)
		return
	}

	if t.Expired(components.TimerReproduction) {
		b.Life.State = components.StateReproducing
	}
	if b.Life.State == components.StateReproducing {
		ctx.Reg.Spawn(b.Kind, DispersalPoint(ctx, *b.Pos), b.ID)
		ctx.Species.ResetTimer(b, components.TimerReproduction)
		b.Life.State = components.StateNormal
	}
}
