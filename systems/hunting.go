package systems

import (
	"github.com/pthm-cable/ecosim/components"
)

// Hunt runs PursuingFood for predators according to the current strategy.
func Hunt(ctx *Context, b Body, dt float64) {
	if b.Animal.Strategy == components.Ambush {
		ambush(ctx, b, dt)
		return
	}
	activeHunt(ctx, b, dt)
}

// activeHunt tracks the nearest prey at walking speed and switches to a
// chase once it is within detection radius.
func activeHunt(ctx *Context, b Body, dt float64) {
	sp := ctx.Species.Get(b.Kind)
	a := b.Animal

	prey, ok := ctx.nearestLive(b, sp.Edible)
	if !ok {
		clearState(ctx, b)
		return
	}

	d := distanceSq(*b.Pos, *prey.Pos)
	switch {
	case d <= ctx.Cfg.Derived.InteractionRangeSq:
		a.Target = prey.ID
		eat(ctx, b, prey, dt)
	case d <= sp.Detection*sp.Detection:
		a.Target = prey.ID
	default:
		a.Target = 0
		moveToward(b.Pos, *prey.Pos, a.MoveSpeed, dt, ctx.Cfg.Interaction.MinMoveDistance)
	}
}

// ambush waits at a point inside cover and strikes prey that come in range.
func ambush(ctx *Context, b Body, dt float64) {
	sp := ctx.Species.Get(b.Kind)
	a := b.Animal

	if !a.HasPoint {
		a.TargetPoint = PickDestination(ctx, *b.Pos, components.TagCovered, 1)
		a.HasPoint = true
	}

	if prey, ok := ctx.nearestInRange(b, sp.Edible, ctx.Cfg.Interaction.Range); ok {
		a.Target = prey.ID
		eat(ctx, b, prey, dt)
		return
	}

	a.Target = 0
	moveToward(b.Pos, a.TargetPoint, a.MoveSpeed, dt, ctx.Cfg.Interaction.MinMoveDistance)
}
