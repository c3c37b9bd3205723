package systems

import (
	"github.com/pthm-cable/ecosim/components"
)

// wander moves b toward its destination, picking a new one when the idle
// timer fires or none is set.
func wander(ctx *Context, b Body, dt float64) {
	a := b.Animal
	if !a.HasPoint || b.Life.Timers.Expired(components.TimerIdle) {
		a.TargetPoint = PickDestination(ctx, *b.Pos, a.Strategy.Tag(), ctx.Cfg.Interaction.AreaBias)
		a.HasPoint = true
		ctx.Species.ResetTimer(b, components.TimerIdle)
	}

	speed := a.MoveSpeed
	if b.Life.State == components.StateRunning {
		speed = a.RunSpeed
	}
	moveToward(b.Pos, a.TargetPoint, speed, dt, ctx.Cfg.Interaction.MinMoveDistance)
	*b.Pos = clampToArena(*b.Pos, ctx.Cfg.Arena.Width, ctx.Cfg.Arena.Height)
}

// PickDestination returns a random point inside an area. With probability
// bias the area is drawn from those tagged tag; otherwise, or when none
// match, from all areas. Without areas it falls back to a window around from.
func PickDestination(ctx *Context, from components.Position, tag components.AreaTag, bias float64) components.Position {
	if area, ok := pickArea(ctx, tag, bias); ok {
		return pointIn(ctx, area)
	}

	w := ctx.Cfg.Arena.Width * ctx.Cfg.Interaction.WanderWindow
	h := ctx.Cfg.Arena.Height * ctx.Cfg.Interaction.WanderWindow
	p := components.Position{
		X: from.X + (ctx.RNG.Float64()*2-1)*w,
		Y: from.Y + (ctx.RNG.Float64()*2-1)*h,
	}
	return clampToArena(p, ctx.Cfg.Arena.Width, ctx.Cfg.Arena.Height)
}

func pickArea(ctx *Context, tag components.AreaTag, bias float64) (components.Area, bool) {
	if len(ctx.Areas) == 0 {
		return components.Area{}, false
	}
	if ctx.RNG.Float64() < bias {
		n := 0
		for _, a := range ctx.Areas {
			if a.Tag == tag {
				n++
			}
		}
		if n > 0 {
			pick := ctx.RNG.Intn(n)
			for _, a := range ctx.Areas {
				if a.Tag != tag {
					continue
				}
				if pick == 0 {
					return a, true
				}
				pick--
			}
		}
	}
	return ctx.Areas[ctx.RNG.Intn(len(ctx.Areas))], true
}

func pointIn(ctx *Context, a components.Area) components.Position {
	p := components.Position{
		X: a.Center.X + (ctx.RNG.Float64()-0.5)*a.Width,
		Y: a.Center.Y + (ctx.RNG.Float64()-0.5)*a.Height,
	}
	return clampToArena(p, ctx.Cfg.Arena.Width, ctx.Cfg.Arena.Height)
}

// PointInArea returns a random point inside an area tagged tag, or anywhere
// in the arena when no such area exists.
func PointInArea(ctx *Context, tag components.AreaTag) components.Position {
	for _, a := range ctx.Areas {
		if a.Tag == tag {
			area, _ := pickArea(ctx, tag, 1)
			return pointIn(ctx, area)
		}
	}
	return components.Position{
		X: ctx.RNG.Float64() * ctx.Cfg.Arena.Width,
		Y: ctx.RNG.Float64() * ctx.Cfg.Arena.Height,
	}
}

// DispersalPoint returns a seed position within the dispersal radius of from.
func DispersalPoint(ctx *Context, from components.Position) components.Position {
	r := ctx.Cfg.Interaction.PlantDispersal
	p := components.Position{
		X: from.X + (ctx.RNG.Float64()*2-1)*r,
		Y: from.Y + (ctx.RNG.Float64()*2-1)*r,
	}
	return clampToArena(p, ctx.Cfg.Arena.Width, ctx.Cfg.Arena.Height)
}
