package systems

import (
	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
)

// PayoffFor returns the payoff model of strategy s.
func PayoffFor(cfg *config.Config, s components.Strategy) config.PayoffConfig {
	switch s {
	case components.ForageCover:
		return cfg.Strategy.Payoffs.ForageCover
	case components.ActiveHunt:
		return cfg.Strategy.Payoffs.ActiveHunt
	case components.Ambush:
		return cfg.Strategy.Payoffs.Ambush
	default:
		return cfg.Strategy.Payoffs.ForageOpen
	}
}

// Greedy returns the option with the highest experience. Ties go to the
// earliest option.
func Greedy(exp [components.StrategyCount]float64, options []components.Strategy) components.Strategy {
	best := options[0]
	for _, s := range options[1:] {
		if exp[s] > exp[best] {
			best = s
		}
	}
	return best
}

// Payoff returns the experience earned over dt.
func Payoff(p config.PayoffConfig, fed bool, threats int, dt float64) float64 {
	v := -p.Cost - p.ThreatCost*float64(threats)
	if fed {
		v += p.Benefit
	}
	return v * dt
}

// DecayExperience shrinks every score toward zero by rate per second.
func DecayExperience(exp *[components.StrategyCount]float64, rate, dt float64) {
	f := 1 - rate*dt
	if f < 0 {
		f = 0
	}
	for i := range exp {
		exp[i] *= f
	}
}

// SelectStrategy counts the watched kinds around b and picks its strategy for
// this tick. Seeing any watched kind forces the species' fallback strategy,
// except for an ambusher whose prey is already within striking range.
func SelectStrategy(ctx *Context, b Body, sp *Species, dt float64) components.Strategy {
	a := b.Animal
	a.Sighted = ctx.countNearby(*b.Pos, sp.Detection, sp.Watch, b.ID)

	if rate := ctx.Cfg.Strategy.ExperienceDecay; rate > 0 {
		DecayExperience(&a.Experience, rate, dt)
	}

	a.Strategy = Greedy(a.Experience, sp.Strategies)
	if a.Sighted > 0 && !holdsAmbush(ctx, b, sp, a.Strategy) {
		a.Strategy = sp.Forced
	}
	return a.Strategy
}

func holdsAmbush(ctx *Context, b Body, sp *Species, s components.Strategy) bool {
	if s != components.Ambush {
		return false
	}
	_, ok := ctx.nearestInRange(b, sp.Edible, ctx.Cfg.Interaction.Range)
	return ok
}

// AccruePayoff credits the outcome of this tick to strategy s.
func AccruePayoff(ctx *Context, a *components.Animal, s components.Strategy, dt float64) {
	a.Experience[s] += Payoff(PayoffFor(ctx.Cfg, s), a.Fed, a.Sighted, dt)
}
