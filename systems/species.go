package systems

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
)

// FeedFunc runs the PursuingFood behavior of a species.
type FeedFunc func(ctx *Context, b Body, dt float64)

// Species describes what a kind can do. Behavior is selected by these
// capabilities rather than by kind checks in the systems.
type Species struct {
	Kind   components.Kind
	Params config.SpeciesConfig

	Edible []components.Kind // kinds this species damages when feeding
	Watch  []components.Kind // kinds whose presence forces Forced

	Detection  float64               // radius for Watch
	Strategies []components.Strategy // first entry wins ties
	Forced     components.Strategy
	Flocks     bool
	Feed       FeedFunc
}

// Animal reports whether the species moves.
func (s *Species) Animal() bool { return s.Kind.IsAnimal() }

// SpeciesTable holds the capabilities of every kind and builds new entities.
type SpeciesTable struct {
	rng    *rand.Rand
	byKind [components.KindCount]*Species
}

// SpeciesParams returns the configured parameters of kind.
func SpeciesParams(cfg *config.Config, kind components.Kind) config.SpeciesConfig {
	switch kind {
	case components.KindRabbit:
		return cfg.Species.Rabbit
	case components.KindFox:
		return cfg.Species.Fox
	case components.KindBush:
		return cfg.Species.Bush
	default:
		return cfg.Species.Grass
	}
}

// NewSpeciesTable derives capabilities from cfg. An animal eaten by another
// animal is prey: it flocks, flees, and forages. An animal that eats animals
// is a predator: it hunts or ambushes.
func NewSpeciesTable(cfg *config.Config, rng *rand.Rand) (*SpeciesTable, error) {
	t := &SpeciesTable{rng: rng}

	for k := components.Kind(0); k < components.KindCount; k++ {
		p := SpeciesParams(cfg, k)
		sp := &Species{Kind: k, Params: p}
		for _, name := range p.Eats {
			food, err := components.ParseKind(name)
			if err != nil {
				return nil, fmt.Errorf("species %s: %w", k, err)
			}
			sp.Edible = append(sp.Edible, food)
		}
		t.byKind[k] = sp
	}

	for k := components.Kind(0); k < components.KindCount; k++ {
		sp := t.byKind[k]
		if !k.IsAnimal() {
			continue
		}
		var preyFood []components.Kind
		for _, food := range sp.Edible {
			if food.IsAnimal() {
				preyFood = append(preyFood, food)
			}
		}

		if len(preyFood) > 0 {
			sp.Watch = preyFood
			sp.Detection = cfg.Strategy.PredatorDetectionRadius
			sp.Strategies = []components.Strategy{components.ActiveHunt, components.Ambush}
			sp.Forced = components.ActiveHunt
			sp.Feed = Hunt
			continue
		}

		for other := components.Kind(0); other < components.KindCount; other++ {
			if other.IsAnimal() && containsKind(t.byKind[other].Edible, k) {
				sp.Watch = append(sp.Watch, other)
			}
		}
		sp.Detection = cfg.Strategy.PreyDetectionRadius
		sp.Strategies = []components.Strategy{components.ForageOpen, components.ForageCover}
		sp.Forced = components.ForageCover
		sp.Flocks = len(sp.Watch) > 0
		sp.Feed = PursueFood
	}
	return t, nil
}

// Get returns the capabilities of kind.
func (t *SpeciesTable) Get(kind components.Kind) *Species {
	return t.byKind[kind]
}

// Build implements Factory.
func (t *SpeciesTable) Build(kind components.Kind, _ components.Position) Template {
	sp := t.byKind[kind]
	p := sp.Params

	tmpl := Template{
		Health: components.Health{Current: p.Health, Initial: p.Health},
	}
	for w := components.Timer(0); w < components.TimerCount; w++ {
		if base := timerBase(p, w); base > 0 {
			tmpl.Life.Timers[w] = base + t.jitter(p)
		}
	}

	if !sp.Animal() {
		tmpl.Life.State = components.StateNormal
		return tmpl
	}

	tmpl.Life.State = components.StateWalking
	tmpl.Animal = &components.Animal{
		MoveSpeed:     p.MoveSpeed,
		RunSpeed:      p.RunSpeed,
		BaseMoveSpeed: p.MoveSpeed,
		BaseRunSpeed:  p.RunSpeed,
		Damage:        p.Damage,
		NeedsPartner:  p.NeedsPartner,
		Immobilizes:   p.Immobilize,
		Satiation:     p.SatiationTime,
		Strategy:      sp.Strategies[0],
	}
	return tmpl
}

// ResetTimer restarts one countdown at its base interval plus jitter.
func (t *SpeciesTable) ResetTimer(b Body, which components.Timer) {
	p := t.byKind[b.Kind].Params
	b.Life.Timers[which] = timerBase(p, which) + t.jitter(p)
}

func (t *SpeciesTable) jitter(p config.SpeciesConfig) float64 {
	if p.Jitter <= 0 {
		return 0
	}
	return t.rng.Float64() * p.Jitter
}

func timerBase(p config.SpeciesConfig, which components.Timer) float64 {
	switch which {
	case components.TimerHunger:
		return p.HungerInterval
	case components.TimerIdle:
		return p.IdleInterval
	case components.TimerReproduction:
		return p.ReproductionInterval
	case components.TimerLifespan:
		return p.Lifespan
	}
	return 0
}
