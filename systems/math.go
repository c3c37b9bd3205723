package systems

import (
	"math"

	"github.com/pthm-cable/ecosim/components"
)

// Vec2 is a 2D vector used for steering math.
type Vec2 struct {
	X, Y float64
}

// vecFrom converts a position to a vector.
func vecFrom(p components.Position) Vec2 {
	return Vec2{p.X, p.Y}
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v*s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// LenSq returns the squared length.
func (v Vec2) LenSq() float64 { return v.X*v.X + v.Y*v.Y }

// Len returns the length.
func (v Vec2) Len() float64 { return math.Sqrt(v.LenSq()) }

// Normalize returns the unit vector, or zero for a zero vector.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Limit caps the length at max.
func (v Vec2) Limit(max float64) Vec2 {
	lsq := v.LenSq()
	if lsq > max*max && lsq > 0 {
		return v.Scale(max / math.Sqrt(lsq))
	}
	return v
}

// IsZero reports whether both components are zero.
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// distanceSq returns the squared distance between two points.
func distanceSq(a, b components.Position) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// clampFloat clamps v between min and max.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clampToArena keeps a position inside [0,w]x[0,h].
func clampToArena(p components.Position, w, h float64) components.Position {
	return components.Position{X: clampFloat(p.X, 0, w), Y: clampFloat(p.Y, 0, h)}
}

// moveToward advances pos toward dest at speed for dt seconds.
// No movement happens within minDist of the destination.
func moveToward(pos *components.Position, dest components.Position, speed, dt, minDist float64) {
	d := Vec2{dest.X - pos.X, dest.Y - pos.Y}
	if d.LenSq() <= minDist*minDist {
		return
	}
	step := d.Normalize().Scale(speed * dt)
	pos.X += step.X
	pos.Y += step.Y
}
