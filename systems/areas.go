package systems

import (
	"math/rand"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
)

// GenerateAreas places cfg.World.Areas rectangles inside the arena. Each is
// tagged Covered where simplex noise at its center exceeds the cover
// threshold, so cover clusters instead of scattering. When both tags are
// possible the result always contains at least one of each.
func GenerateAreas(cfg *config.Config, rng *rand.Rand, seed int64) []components.Area {
	n := cfg.World.Areas
	if n <= 0 {
		return nil
	}
	noise := opensimplex.NewNormalized(seed)
	w, h := cfg.Arena.Width, cfg.Arena.Height

	areas := make([]components.Area, n)
	covered := 0
	for i := range areas {
		aw := cfg.World.MinAreaSize + rng.Float64()*(cfg.World.MaxAreaSize-cfg.World.MinAreaSize)
		ah := cfg.World.MinAreaSize + rng.Float64()*(cfg.World.MaxAreaSize-cfg.World.MinAreaSize)
		aw, ah = min(aw, w), min(ah, h)
		c := components.Position{
			X: aw/2 + rng.Float64()*(w-aw),
			Y: ah/2 + rng.Float64()*(h-ah),
		}

		tag := components.TagOpen
		if noise.Eval2(c.X*cfg.World.NoiseScale, c.Y*cfg.World.NoiseScale) > cfg.World.CoverThreshold {
			tag = components.TagCovered
			covered++
		}
		areas[i] = components.Area{Center: c, Width: aw, Height: ah, Tag: tag}
	}

	if n >= 2 {
		switch covered {
		case 0:
			areas[0].Tag = components.TagCovered
		case n:
			areas[0].Tag = components.TagOpen
		}
	}
	return areas
}
