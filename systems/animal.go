package systems

import (
	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/telemetry"
)

// UpdateAnimal advances one animal by dt: timers, strategy, state
// transitions, movement, the state handler, and finally the payoff.
func UpdateAnimal(ctx *Context, b Body, dt float64) {
	if !b.Alive() {
		return
	}
	sp := ctx.Species.Get(b.Kind)
	a := b.Animal

	a.Fed = false
	thaw(a, dt)
	b.Life.Timers.Tick(dt)

	used := SelectStrategy(ctx, b, sp, dt)

	transition(ctx, b, sp, dt)
	if !b.Alive() {
		return
	}

	followTarget(ctx, b, dt)

	switch b.Life.State {
	case components.StatePursuingFood:
		sp.Feed(ctx, b, dt)
	case components.StateReproducing:
		reproduce(ctx, b)
	default:
		wander(ctx, b, dt)
	}

	if b.Alive() {
		AccruePayoff(ctx, a, used, dt)
	}
}

// transition evaluates the timer rules in priority order.
func transition(ctx *Context, b Body, sp *Species, dt float64) {
	t := &b.Life.Timers
	hasFood := ctx.Reg.AnyLive(sp.Edible)

	if t.Expired(components.TimerHunger) {
		if hasFood {
			applyState(ctx, b, components.StatePursuingFood)
		} else if ctx.TakeHit(b, Hit{Amount: dt * sp.Params.StarvationRate, Cause: telemetry.CauseStarved}) {
			return
		}
	}

	if t.Expired(components.TimerReproduction) {
		applyState(ctx, b, components.StateReproducing)
	}

	if b.Life.State == components.StatePursuingFood && !hasFood {
		clearState(ctx, b)
	}

	if t.Expired(components.TimerLifespan) {
		ctx.kill(b, telemetry.CauseOldAge)
		return
	}

	if s := b.Life.State; s == components.StateWalking || s == components.StateRunning {
		want := components.StateWalking
		if sp.Flocks && b.Animal.Sighted > 0 {
			want = components.StateRunning
		}
		if s != want {
			b.Life.State = want
			b.Animal.HasPoint = false
		}
	}
}

// applyState enters s after clearing the current state. PursuingFood can
// only be left for Dead; use clearState to abandon it.
func applyState(ctx *Context, b Body, s components.State) {
	cur := b.Life.State
	if cur == s {
		return
	}
	if cur == components.StatePursuingFood && s != components.StateDead {
		return
	}
	clearState(ctx, b)
	b.Life.State = s
}

// clearState drops targets and returns to Walking. A claimed partner is
// released too, with its reproduction timer restarted.
func clearState(ctx *Context, b Body) {
	a := b.Animal
	if b.Life.State == components.StateReproducing && a.Target != 0 {
		if p, ok := ctx.Reg.Resolve(a.Target); ok && p.Animal != nil &&
			p.Animal.Target == b.ID && p.Life.State == components.StateReproducing {
			ctx.Species.ResetTimer(p, components.TimerReproduction)
			p.Animal.ClearTarget()
			p.Life.State = components.StateWalking
		}
	}
	a.ClearTarget()
	b.Life.State = components.StateWalking
}

// ForcePursuit sends a living animal after food ahead of its hunger timer.
// It reports whether the state changed.
func ForcePursuit(ctx *Context, b Body) bool {
	if b.Animal == nil || !b.Alive() || b.Life.State == components.StatePursuingFood {
		return false
	}
	if !ctx.Reg.AnyLive(ctx.Species.Get(b.Kind).Edible) {
		return false
	}
	applyState(ctx, b, components.StatePursuingFood)
	return true
}

// followTarget moves b toward its entity target at run speed.
func followTarget(ctx *Context, b Body, dt float64) {
	a := b.Animal
	if a.Target == 0 {
		return
	}
	pos, state, ok := ctx.Reg.Locate(a.Target)
	if !ok || state == components.StateDead {
		return
	}
	moveToward(b.Pos, pos, a.RunSpeed, dt, ctx.Cfg.Interaction.MinMoveDistance)
}

func inRange(ctx *Context, a, b components.Position) bool {
	return distanceSq(a, b) <= ctx.Cfg.Derived.InteractionRangeSq
}

// PursueFood chases the nearest living food and eats it in range.
func PursueFood(ctx *Context, b Body, dt float64) {
	sp := ctx.Species.Get(b.Kind)
	food, ok := ctx.nearestLive(b, sp.Edible)
	if !ok {
		clearState(ctx, b)
		return
	}
	b.Animal.Target = food.ID
	if inRange(ctx, *b.Pos, *food.Pos) {
		eat(ctx, b, food, dt)
	}
}

// eat damages food by the eater's damage rate. Once the eater has fed for
// its satiation time the hunger timer restarts.
func eat(ctx *Context, b, food Body, dt float64) {
	a := b.Animal
	amount := a.Damage * dt
	a.Fed = true
	ctx.Emit(telemetry.NewBiteEvent(ctx.Tick, b.ID, b.Kind, food.ID, amount))

	died := ctx.TakeHit(food, Hit{
		Amount:     amount,
		Immobilize: a.Immobilizes,
		Cause:      telemetry.CauseEaten,
		Source:     b.ID,
	})
	if died {
		ctx.Emit(telemetry.NewKillEvent(ctx.Tick, b.ID, b.Kind, food.ID))
	}

	a.Satiation -= dt
	if a.Satiation < 0 {
		a.Satiation = ctx.Species.Get(b.Kind).Params.SatiationTime
		ctx.Species.ResetTimer(b, components.TimerHunger)
		ctx.Emit(telemetry.NewMealEvent(ctx.Tick, b.ID, b.Kind))
		clearState(ctx, b)
		return
	}
	if died {
		clearState(ctx, b)
	}
}

// reproduce runs the Reproducing state. Sexual species claim the nearest
// available mate; the initiator spawns the offspring once in range.
func reproduce(ctx *Context, b Body) {
	a := b.Animal
	if !a.NeedsPartner {
		spawnOffspring(ctx, b)
		ctx.Species.ResetTimer(b, components.TimerReproduction)
		clearState(ctx, b)
		return
	}

	if a.Target != 0 {
		p, ok := ctx.Reg.Resolve(a.Target)
		if !ok || !p.Alive() || p.Kind != b.Kind || p.Animal.Target != b.ID {
			ctx.Species.ResetTimer(b, components.TimerReproduction)
			clearState(ctx, b)
			return
		}
		if a.Initiator && inRange(ctx, *b.Pos, *p.Pos) {
			completePairing(ctx, b, p)
		}
		return
	}

	mate, ok := nearestMate(ctx, b)
	if !ok {
		return
	}
	a.Target = mate.ID
	a.Initiator = true
	mate.Animal.ClearTarget()
	mate.Life.State = components.StateReproducing
	mate.Animal.Target = b.ID
	ctx.Emit(telemetry.NewPairingEvent(ctx.Tick, b.ID, b.Kind, mate.ID))
}

// nearestMate finds the closest same-kind animal that is free to pair.
func nearestMate(ctx *Context, b Body) (Body, bool) {
	var (
		bestID components.EntityID
		bestSq float64
	)
	for _, id := range ctx.Reg.IDs(b.Kind) {
		if id == b.ID {
			continue
		}
		pos, state, ok := ctx.Reg.Locate(id)
		if !ok || (state != components.StateWalking && state != components.StateRunning) {
			continue
		}
		if d := distanceSq(*b.Pos, pos); bestID == 0 || d < bestSq {
			bestID, bestSq = id, d
		}
	}
	if bestID == 0 {
		return Body{}, false
	}
	return ctx.Reg.Resolve(bestID)
}

func completePairing(ctx *Context, b, partner Body) {
	spawnOffspring(ctx, b)
	for _, parent := range []Body{b, partner} {
		ctx.Species.ResetTimer(parent, components.TimerReproduction)
		parent.Animal.ClearTarget()
		parent.Life.State = components.StateWalking
	}
}

func spawnOffspring(ctx *Context, b Body) {
	pos := components.Position{
		X: b.Pos.X + ctx.Cfg.Interaction.SpawnOffsetX,
		Y: b.Pos.Y + ctx.Cfg.Interaction.SpawnOffsetY,
	}
	ctx.Reg.Spawn(b.Kind, clampToArena(pos, ctx.Cfg.Arena.Width, ctx.Cfg.Arena.Height), b.ID)
}
