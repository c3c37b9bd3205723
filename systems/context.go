package systems

import (
	"math/rand"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/telemetry"
)

// Context carries everything a tick may read or mutate. It is owned by the
// simulation loop and passed explicitly to every system.
type Context struct {
	Cfg     *config.Config
	Reg     *Registry
	Index   *SpatialIndex
	Species *SpeciesTable
	Areas   []components.Area
	RNG     *rand.Rand

	Tick int32
	Now  float64 // simulation seconds

	events []telemetry.Event

	// Scratch buffers reused across calls
	neighbors []Neighbor
	boids     []Boid
	threats   []Vec2
	flock     []flockUpdate
}

// NewContext wires the systems together.
func NewContext(cfg *config.Config, reg *Registry, idx *SpatialIndex, species *SpeciesTable, areas []components.Area, rng *rand.Rand) *Context {
	return &Context{
		Cfg:     cfg,
		Reg:     reg,
		Index:   idx,
		Species: species,
		Areas:   areas,
		RNG:     rng,
	}
}

// Emit records a telemetry event for the current tick.
func (c *Context) Emit(ev telemetry.Event) {
	c.events = append(c.events, ev)
}

// DrainEvents returns the events recorded since the last drain.
func (c *Context) DrainEvents() []telemetry.Event {
	ev := c.events
	c.events = c.events[:0:0]
	return ev
}

// nearestLive scans the registry lists of kinds for the closest living
// entity to b by squared distance.
func (c *Context) nearestLive(b Body, kinds []components.Kind) (Body, bool) {
	var (
		bestID components.EntityID
		bestSq float64
	)
	for _, k := range kinds {
		for _, id := range c.Reg.IDs(k) {
			if id == b.ID {
				continue
			}
			pos, state, ok := c.Reg.Locate(id)
			if !ok || state == components.StateDead {
				continue
			}
			if d := distanceSq(*b.Pos, pos); bestID == 0 || d < bestSq {
				bestID, bestSq = id, d
			}
		}
	}
	if bestID == 0 {
		return Body{}, false
	}
	return c.Reg.Resolve(bestID)
}

// nearestInRange uses the spatial index to find the closest living entity of
// kinds within radius of b. Positions are re-read from the registry.
func (c *Context) nearestInRange(b Body, kinds []components.Kind, radius float64) (Body, bool) {
	c.neighbors = c.Index.QueryRadiusInto(c.neighbors[:0], b.Pos.X, b.Pos.Y, radius, b.ID)

	var (
		best   Body
		found  bool
		bestSq float64
	)
	radiusSq := radius * radius
	for _, n := range c.neighbors {
		if !containsKind(kinds, n.Kind) {
			continue
		}
		cand, ok := c.Reg.Resolve(n.ID)
		if !ok || !cand.Alive() {
			continue
		}
		d := distanceSq(*b.Pos, *cand.Pos)
		if d <= radiusSq && (!found || d < bestSq) {
			best, bestSq, found = cand, d, true
		}
	}
	return best, found
}

// countNearby counts index entries of kinds within radius of pos.
func (c *Context) countNearby(pos components.Position, radius float64, kinds []components.Kind, exclude components.EntityID) int {
	if len(kinds) == 0 || radius <= 0 {
		return 0
	}
	c.neighbors = c.Index.QueryRadiusInto(c.neighbors[:0], pos.X, pos.Y, radius, exclude)
	n := 0
	for _, nb := range c.neighbors {
		if containsKind(kinds, nb.Kind) {
			n++
		}
	}
	return n
}

func containsKind(kinds []components.Kind, k components.Kind) bool {
	for _, kk := range kinds {
		if kk == k {
			return true
		}
	}
	return false
}
