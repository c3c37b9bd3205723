package systems

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
)

func init() {
	config.MustInit("")
}

// testConfig loads the defaults with timer jitter disabled.
func testConfig(t *testing.T, mutate func(*config.Config)) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, p := range []*config.SpeciesConfig{&cfg.Species.Rabbit, &cfg.Species.Fox, &cfg.Species.Bush, &cfg.Species.Grass} {
		p.Jitter = 0
	}
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

func newTestContext(t *testing.T, cfg *config.Config) *Context {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	species, err := NewSpeciesTable(cfg, rng)
	if err != nil {
		t.Fatalf("NewSpeciesTable: %v", err)
	}
	reg := NewRegistry(species, nil, [components.KindCount]int{})
	idx := NewSpatialIndex(cfg.Arena.Width, cfg.Arena.Height, cfg.Arena.CellSize)
	return NewContext(cfg, reg, idx, species, nil, rng)
}

// place creates an entity immediately and returns its id.
func place(t *testing.T, ctx *Context, kind components.Kind, x, y float64) components.EntityID {
	t.Helper()
	id := ctx.Reg.Spawn(kind, components.Position{X: x, Y: y}, 0)
	if id == 0 {
		t.Fatalf("Spawn %s refused", kind)
	}
	ctx.Reg.Flush()
	return id
}

func body(t *testing.T, ctx *Context, id components.EntityID) Body {
	t.Helper()
	b, ok := ctx.Reg.Resolve(id)
	if !ok {
		t.Fatalf("entity %d not found", id)
	}
	return b
}

// step runs one tick the way the simulation does.
func step(ctx *Context, dt float64) []Removal {
	ctx.Reg.RebuildIndex(ctx.Index)
	for k := components.Kind(0); k < components.KindCount; k++ {
		for _, id := range ctx.Reg.IDs(k) {
			b, ok := ctx.Reg.Resolve(id)
			if !ok || !b.Alive() {
				continue
			}
			if k.IsAnimal() {
				UpdateAnimal(ctx, b, dt)
			} else {
				UpdatePlant(ctx, b, dt)
			}
		}
	}
	Flock(ctx, dt)
	removed := ctx.Reg.RemoveDead()
	ctx.Reg.Flush()
	ctx.Tick++
	ctx.Now += dt
	return removed
}
