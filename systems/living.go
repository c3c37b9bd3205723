package systems

import (
	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/telemetry"
)

// Hit is a single application of damage.
type Hit struct {
	Amount     float64
	Immobilize bool // freeze the victim's speeds for the configured duration
	Cause      telemetry.DeathCause
	Source     components.EntityID // attacker, 0 for starvation and age
}

// ApplyDamage subtracts amount from h, clamping the result to [0, Initial].
// It reports whether health is at or below epsilon.
func ApplyDamage(h *components.Health, amount, epsilon float64) bool {
	h.Current = clampFloat(h.Current-amount, 0, h.Initial)
	return h.Current <= epsilon
}

// TakeHit damages b and handles death. Returns true if the hit killed it.
func (c *Context) TakeHit(b Body, hit Hit) bool {
	if !b.Alive() {
		return false
	}
	dead := ApplyDamage(b.Health, hit.Amount, c.Cfg.Interaction.DeathEpsilon)
	if hit.Amount > 0 {
		b.Health.LastHit = c.Now
	}

	if hit.Immobilize && b.Animal != nil && !dead {
		a := b.Animal
		a.MoveSpeed = 0
		a.RunSpeed = 0
		a.Frozen = c.Cfg.Interaction.ImmobilizeDuration
		if b.Vel != nil {
			*b.Vel = components.Velocity{}
		}
	}

	if !dead {
		return false
	}

	if b.Animal != nil {
		clearState(c, b)
	}
	c.Reg.MarkDead(b, hit.Cause, hit.Source)
	return true
}

// Heal restores b to full health.
func Heal(b Body) {
	if b.Alive() {
		b.Health.Current = b.Health.Initial
	}
}

// kill removes all remaining health.
func (c *Context) kill(b Body, cause telemetry.DeathCause) {
	c.TakeHit(b, Hit{Amount: b.Health.Current + b.Health.Initial + 1, Cause: cause})
}

// thaw counts down an immobilization and restores speeds when it ends.
func thaw(a *components.Animal, dt float64) {
	if a.Frozen <= 0 {
		return
	}
	a.Frozen -= dt
	if a.Frozen <= 0 {
		a.Frozen = 0
		a.MoveSpeed = a.BaseMoveSpeed
		a.RunSpeed = a.BaseRunSpeed
	}
}
