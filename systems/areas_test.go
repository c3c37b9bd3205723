package systems

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
)

func TestGenerateAreas(t *testing.T) {
	cfg := testConfig(t, nil)

	for seed := int64(1); seed <= 5; seed++ {
		areas := GenerateAreas(cfg, rand.New(rand.NewSource(seed)), seed)
		if len(areas) != cfg.World.Areas {
			t.Fatalf("seed %d: %d areas, want %d", seed, len(areas), cfg.World.Areas)
		}
		var tags [2]int
		for _, a := range areas {
			tags[a.Tag]++
			if a.Center.X-a.Width/2 < -1e-9 || a.Center.X+a.Width/2 > cfg.Arena.Width+1e-9 ||
				a.Center.Y-a.Height/2 < -1e-9 || a.Center.Y+a.Height/2 > cfg.Arena.Height+1e-9 {
				t.Errorf("seed %d: area %+v leaves the arena", seed, a)
			}
		}
		if tags[components.TagOpen] == 0 || tags[components.TagCovered] == 0 {
			t.Errorf("seed %d: tags = %v, want both present", seed, tags)
		}
	}
}

func TestGenerateAreasDisabled(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) { c.World.Areas = 0 })
	if areas := GenerateAreas(cfg, rand.New(rand.NewSource(1)), 1); areas != nil {
		t.Errorf("got %d areas, want none", len(areas))
	}
}

func TestPickDestinationPrefersTag(t *testing.T) {
	ctx := newTestContext(t, testConfig(t, nil))
	ctx.Areas = []components.Area{
		{Center: components.Position{X: 100, Y: 100}, Width: 50, Height: 50, Tag: components.TagOpen},
		{Center: components.Position{X: 600, Y: 400}, Width: 50, Height: 50, Tag: components.TagCovered},
	}

	for i := 0; i < 50; i++ {
		p := PickDestination(ctx, components.Position{}, components.TagCovered, 1)
		if !ctx.Areas[1].Contains(p) {
			t.Fatalf("destination %+v outside the covered area", p)
		}
	}

	ctx.Areas = nil
	from := components.Position{X: 640, Y: 360}
	p := PickDestination(ctx, from, components.TagOpen, 1)
	maxDX := ctx.Cfg.Arena.Width * ctx.Cfg.Interaction.WanderWindow
	if d := p.X - from.X; d > maxDX || d < -maxDX {
		t.Errorf("local wander moved %v, window is %v", d, maxDX)
	}
}
