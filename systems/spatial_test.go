package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/ecosim/components"
)

func TestSpatialIndexNeighborhoodIsExact(t *testing.T) {
	const cell = 32.0
	rng := rand.New(rand.NewSource(7))
	g := NewSpatialIndex(320, 240, cell)

	type point struct{ x, y float64 }
	points := make(map[components.EntityID]point)
	for i := 1; i <= 500; i++ {
		// Include positions outside the arena to cover the overflow buckets.
		p := point{rng.Float64()*400 - 40, rng.Float64()*320 - 40}
		points[components.EntityID(i)] = p
		g.Insert(components.EntityID(i), components.KindRabbit, p.x, p.y)
	}

	for q := 0; q < 200; q++ {
		qx := rng.Float64()*400 - 40
		qy := rng.Float64()*320 - 40
		qcx, qcy := int(math.Floor(qx/cell)), int(math.Floor(qy/cell))

		got := make(map[components.EntityID]int)
		for _, e := range g.QueryNeighbors(qx, qy) {
			got[e.ID]++
		}

		for id, p := range points {
			cx, cy := int(math.Floor(p.x/cell)), int(math.Floor(p.y/cell))
			inside := abs(cx-qcx) <= 1 && abs(cy-qcy) <= 1
			switch n := got[id]; {
			case inside && n != 1:
				t.Fatalf("query (%.1f,%.1f): entity %d in cell (%d,%d) returned %d times, want 1", qx, qy, id, cx, cy, n)
			case !inside && n != 0:
				t.Fatalf("query (%.1f,%.1f): entity %d in cell (%d,%d) outside neighborhood was returned", qx, qy, id, cx, cy)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestSpatialIndexClear(t *testing.T) {
	g := NewSpatialIndex(100, 100, 10)
	g.Insert(1, components.KindFox, 5, 5)
	g.Insert(2, components.KindFox, -5, -5)
	if g.Len() != 2 {
		t.Fatalf("Len = %d, want 2", g.Len())
	}

	g.Clear()
	if g.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", g.Len())
	}
	if got := g.QueryNeighbors(0, 0); len(got) != 0 {
		t.Errorf("QueryNeighbors after Clear returned %d entries", len(got))
	}
}

func TestSpatialIndexQueryRadius(t *testing.T) {
	g := NewSpatialIndex(200, 200, 10)
	g.Insert(1, components.KindRabbit, 50, 50)
	g.Insert(2, components.KindRabbit, 80, 50) // 30 away
	g.Insert(3, components.KindRabbit, 50, 91) // 41 away
	g.Insert(4, components.KindFox, 100, 100)

	tests := []struct {
		name    string
		radius  float64
		exclude components.EntityID
		want    []components.EntityID
	}{
		{"self only", 5, 0, []components.EntityID{1}},
		{"excluded self", 5, 1, nil},
		{"wider than one cell", 35, 1, []components.EntityID{2}},
		{"boundary inclusive", 41, 1, []components.EntityID{2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.QueryRadiusInto(nil, 50, 50, tt.radius, tt.exclude)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d neighbors, want %d", len(got), len(tt.want))
			}
			seen := make(map[components.EntityID]bool)
			for _, n := range got {
				seen[n.ID] = true
				if math.Abs(n.DX*n.DX+n.DY*n.DY-n.DistSq) > 1e-9 {
					t.Errorf("entity %d: DistSq %v inconsistent with delta", n.ID, n.DistSq)
				}
			}
			for _, id := range tt.want {
				if !seen[id] {
					t.Errorf("missing entity %d", id)
				}
			}
		})
	}
}
