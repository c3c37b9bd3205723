package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/telemetry"
)

func TestApplyDamage(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		amount   float64
		want     float64
		wantDead bool
	}{
		{"partial", 5, 2, 3, false},
		{"overkill clamps to zero", 1, 4, 0, true},
		{"healing clamps to initial", 9, -5, 10, false},
		{"within epsilon is dead", 0.5, 0.495, 0.005, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := components.Health{Current: tt.current, Initial: 10}
			dead := ApplyDamage(&h, tt.amount, 0.01)
			if math.Abs(h.Current-tt.want) > 1e-9 {
				t.Errorf("Current = %v, want %v", h.Current, tt.want)
			}
			if dead != tt.wantDead {
				t.Errorf("dead = %v, want %v", dead, tt.wantDead)
			}
		})
	}
}

func TestTakeHitImmobilizes(t *testing.T) {
	ctx := newTestContext(t, testConfig(t, nil))
	id := place(t, ctx, components.KindRabbit, 100, 100)
	b := body(t, ctx, id)

	ctx.TakeHit(b, Hit{Amount: 0.1, Immobilize: true, Cause: telemetry.CauseEaten, Source: 99})
	if b.Animal.MoveSpeed != 0 || b.Animal.RunSpeed != 0 {
		t.Fatalf("speeds = %v/%v, want 0", b.Animal.MoveSpeed, b.Animal.RunSpeed)
	}

	thaw(b.Animal, ctx.Cfg.Interaction.ImmobilizeDuration+0.1)
	if b.Animal.MoveSpeed != ctx.Cfg.Species.Rabbit.MoveSpeed {
		t.Errorf("MoveSpeed after thaw = %v, want %v", b.Animal.MoveSpeed, ctx.Cfg.Species.Rabbit.MoveSpeed)
	}
}

func TestPlantReproducesPeriodically(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.Species.Grass.ReproductionInterval = 10
		c.Species.Grass.Lifespan = 1000
	})

	tests := []struct {
		ticks int
		want  int
	}{
		{101, 2},
		{103, 3},
	}
	for _, tt := range tests {
		ctx := newTestContext(t, cfg)
		b := body(t, ctx, place(t, ctx, components.KindGrass, 300, 300))
		for i := 0; i < tt.ticks; i++ {
			UpdatePlant(ctx, b, 0.3)
		}
		if got := ctx.Reg.Pending(); got != tt.want {
			t.Errorf("after %d ticks: %d seedlings, want %d", tt.ticks, got, tt.want)
		}
		if b.Life.State != components.StateNormal {
			t.Errorf("after %d ticks: state %s, want normal", tt.ticks, b.Life.State)
		}
	}
}

func TestPlantDiesOfAge(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.Species.Bush.Lifespan = 0.15
	})
	ctx := newTestContext(t, cfg)
	id := place(t, ctx, components.KindBush, 300, 300)

	step(ctx, 0.1)
	removed := step(ctx, 0.1)
	if len(removed) != 1 || removed[0].ID != id || removed[0].Cause != telemetry.CauseOldAge {
		t.Fatalf("removed = %+v, want bush %d dead of old age", removed, id)
	}
	if ctx.Reg.Live(components.KindBush) != 0 {
		t.Errorf("live bushes = %d, want 0", ctx.Reg.Live(components.KindBush))
	}
}
