package systems

import (
	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
)

// Boid is the position and velocity of one flock member.
type Boid struct {
	Pos, Vel Vec2
}

// Steering holds the raw boid terms before weighting.
type Steering struct {
	Separation Vec2 // mean unit vector away from neighbors inside the separation radius
	Alignment  Vec2 // mean neighbor velocity minus own velocity
	Cohesion   Vec2 // neighbor centroid minus own position
	Avoidance  Vec2 // mean unit vector away from predators
}

// Steer computes the steering terms for self. flock holds same-kind
// neighbors within the perception radius, predators the visible threats.
// Every term is zero when its input is empty.
func Steer(self Boid, flock []Boid, predators []Vec2, cfg config.FlockingConfig) Steering {
	var st Steering

	if len(flock) > 0 {
		var sep, vel, pos Vec2
		sepN := 0
		sepSq := cfg.SeparationRadius * cfg.SeparationRadius
		for _, n := range flock {
			vel = vel.Add(n.Vel)
			pos = pos.Add(n.Pos)
			d := self.Pos.Sub(n.Pos)
			if lsq := d.LenSq(); lsq > 0 && lsq < sepSq {
				sep = sep.Add(d.Normalize())
				sepN++
			}
		}
		inv := 1 / float64(len(flock))
		if sepN > 0 {
			st.Separation = sep.Scale(1 / float64(sepN))
		}
		st.Alignment = vel.Scale(inv).Sub(self.Vel)
		st.Cohesion = pos.Scale(inv).Sub(self.Pos)
	}

	if len(predators) > 0 {
		var away Vec2
		for _, p := range predators {
			away = away.Add(self.Pos.Sub(p).Normalize())
		}
		st.Avoidance = away.Scale(1 / float64(len(predators)))
	}
	return st
}

// Apply returns vel after steering. The weighted boid terms are capped at
// MaxForce; avoidance is added on top, scaled by the separation weight and
// dt. The result is capped at MaxSpeed.
func (st Steering) Apply(vel Vec2, cfg config.FlockingConfig, dt float64) Vec2 {
	steer := st.Separation.Scale(cfg.SeparationWeight).
		Add(st.Alignment.Scale(cfg.AlignmentWeight)).
		Add(st.Cohesion.Scale(cfg.CohesionWeight)).
		Limit(cfg.MaxForce)
	avoid := st.Avoidance.Scale(cfg.SeparationWeight * dt)
	return vel.Add(steer).Add(avoid).Limit(cfg.MaxSpeed)
}

type flockUpdate struct {
	id  components.EntityID
	vel Vec2
}

// Flock updates the velocity of every flocking animal and integrates
// position for those without an entity target. All velocities are computed
// from the same state before any is written.
func Flock(ctx *Context, dt float64) {
	cfg := ctx.Cfg.Flocking
	ctx.flock = ctx.flock[:0]

	for k := components.Kind(0); k < components.KindCount; k++ {
		sp := ctx.Species.Get(k)
		if !sp.Flocks {
			continue
		}
		for _, id := range ctx.Reg.IDs(k) {
			b, ok := ctx.Reg.Resolve(id)
			if !ok || !b.Alive() {
				continue
			}
			if b.Animal.Frozen > 0 {
				ctx.flock = append(ctx.flock, flockUpdate{id: id})
				continue
			}

			ctx.neighbors = ctx.Index.QueryRadiusInto(ctx.neighbors[:0], b.Pos.X, b.Pos.Y, cfg.PerceptionRadius, id)
			ctx.boids = ctx.boids[:0]
			ctx.threats = ctx.threats[:0]
			for _, n := range ctx.neighbors {
				switch {
				case n.Kind == k:
					if nb, ok := ctx.Reg.Resolve(n.ID); ok && nb.Alive() {
						ctx.boids = append(ctx.boids, Boid{Pos: vecFrom(*nb.Pos), Vel: Vec2(*nb.Vel)})
					}
				case containsKind(sp.Watch, n.Kind):
					ctx.threats = append(ctx.threats, Vec2{n.X, n.Y})
				}
			}

			self := Boid{Pos: vecFrom(*b.Pos), Vel: Vec2(*b.Vel)}
			st := Steer(self, ctx.boids, ctx.threats, cfg)
			ctx.flock = append(ctx.flock, flockUpdate{id: id, vel: st.Apply(self.Vel, cfg, dt)})
		}
	}

	for _, u := range ctx.flock {
		b, ok := ctx.Reg.Resolve(u.id)
		if !ok {
			continue
		}
		*b.Vel = components.Velocity(u.vel)
		if b.Animal.Target != 0 {
			continue
		}
		b.Pos.X += u.vel.X * dt
		b.Pos.Y += u.vel.Y * dt
		*b.Pos = clampToArena(*b.Pos, ctx.Cfg.Arena.Width, ctx.Cfg.Arena.Height)
	}
}
