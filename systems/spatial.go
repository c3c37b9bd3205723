// Package systems provides the state machines, spatial index, and steering for the simulation.
package systems

import (
	"math"

	"github.com/pthm-cable/ecosim/components"
)

// Entry is a snapshot of an entity taken when the index was rebuilt.
type Entry struct {
	ID   components.EntityID
	Kind components.Kind
	X, Y float64
}

// Neighbor holds a nearby entity with precomputed spatial data.
type Neighbor struct {
	Entry
	DX, DY float64 // Delta from query origin
	DistSq float64 // Squared distance (avoid sqrt in hot path)
}

// SpatialIndex provides O(1) neighbor lookups using a uniform grid.
// Cells are keyed by floor(x/cellSize), floor(y/cellSize); the arena maps to a
// flat slice and anything outside it goes to an overflow map.
type SpatialIndex struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]Entry
	overflow map[cellKey][]Entry
	count    int
}

type cellKey struct{ ix, iy int }

// NewSpatialIndex creates an index covering a width x height arena.
func NewSpatialIndex(width, height, cellSize float64) *SpatialIndex {
	cols := int(math.Ceil(width/cellSize)) + 1
	rows := int(math.Ceil(height/cellSize)) + 1

	cells := make([][]Entry, cols*rows)
	for i := range cells {
		cells[i] = make([]Entry, 0, 8)
	}

	return &SpatialIndex{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
		overflow: make(map[cellKey][]Entry),
	}
}

// CellSize returns the bucket edge length.
func (g *SpatialIndex) CellSize() float64 { return g.cellSize }

// Len returns the number of inserted entries.
func (g *SpatialIndex) Len() int { return g.count }

// Clear empties all buckets, keeping their capacity.
func (g *SpatialIndex) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	clear(g.overflow)
	g.count = 0
}

// Insert appends an entity to the bucket of its cell.
func (g *SpatialIndex) Insert(id components.EntityID, kind components.Kind, x, y float64) {
	e := Entry{ID: id, Kind: kind, X: x, Y: y}
	k := g.key(x, y)
	if idx, ok := g.flat(k); ok {
		g.cells[idx] = append(g.cells[idx], e)
	} else {
		g.overflow[k] = append(g.overflow[k], e)
	}
	g.count++
}

// QueryNeighbors returns every entry in the 3x3 block of cells around (x, y).
// This is a coarse prefilter; callers check exact distances.
func (g *SpatialIndex) QueryNeighbors(x, y float64) []Entry {
	return g.QueryNeighborsInto(nil, x, y)
}

// QueryNeighborsInto appends the 3x3 neighborhood of (x, y) to dst.
func (g *SpatialIndex) QueryNeighborsInto(dst []Entry, x, y float64) []Entry {
	c := g.key(x, y)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			dst = append(dst, g.bucket(cellKey{c.ix + dx, c.iy + dy})...)
		}
	}
	return dst
}

// QueryRadiusInto finds entities within radius of (x, y) and appends them to dst.
// Reuse dst across calls to avoid allocations. exclude is skipped (0 skips nothing).
func (g *SpatialIndex) QueryRadiusInto(dst []Neighbor, x, y, radius float64, exclude components.EntityID) []Neighbor {
	cellRadius := int(math.Ceil(radius / g.cellSize))
	c := g.key(x, y)
	radiusSq := radius * radius

	for dy := -cellRadius; dy <= cellRadius; dy++ {
		for dx := -cellRadius; dx <= cellRadius; dx++ {
			for _, e := range g.bucket(cellKey{c.ix + dx, c.iy + dy}) {
				if e.ID == exclude {
					continue
				}
				ddx := e.X - x
				ddy := e.Y - y
				distSq := ddx*ddx + ddy*ddy
				if distSq <= radiusSq {
					dst = append(dst, Neighbor{Entry: e, DX: ddx, DY: ddy, DistSq: distSq})
				}
			}
		}
	}
	return dst
}

// CellOf returns the integer cell coordinates of a position.
func (g *SpatialIndex) CellOf(x, y float64) (int, int) {
	k := g.key(x, y)
	return k.ix, k.iy
}

func (g *SpatialIndex) key(x, y float64) cellKey {
	return cellKey{int(math.Floor(x / g.cellSize)), int(math.Floor(y / g.cellSize))}
}

func (g *SpatialIndex) flat(k cellKey) (int, bool) {
	if k.ix < 0 || k.iy < 0 || k.ix >= g.cols || k.iy >= g.rows {
		return 0, false
	}
	return k.iy*g.cols + k.ix, true
}

func (g *SpatialIndex) bucket(k cellKey) []Entry {
	if idx, ok := g.flat(k); ok {
		return g.cells[idx]
	}
	if len(g.overflow) == 0 {
		return nil
	}
	return g.overflow[k]
}
