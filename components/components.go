// Package components defines ECS components for the simulation.
package components

// EntityID is a stable identifier assigned by the registry. Zero means "none".
type EntityID uint32

// Kind identifies the species of an entity.
type Kind uint8

const (
	KindRabbit Kind = iota
	KindFox
	KindBush
	KindGrass
	KindCount
)

// IsAnimal reports whether the kind moves and eats.
func (k Kind) IsAnimal() bool { return k == KindRabbit || k == KindFox }

// IsPlant reports whether the kind is a stationary food source.
func (k Kind) IsPlant() bool { return k == KindBush || k == KindGrass }

// State is the lifecycle state shared by animals and plants.
type State uint8

const (
	StateNormal State = iota // plants only
	StateWalking
	StateRunning
	StatePursuingFood
	StateReproducing
	StateDead
)

// Strategy is a behavioral mode chosen by payoff experience.
type Strategy uint8

const (
	ForageOpen Strategy = iota
	ForageCover
	ActiveHunt
	Ambush
	StrategyCount
)

// AreaTag classifies an Area.
type AreaTag uint8

const (
	TagOpen AreaTag = iota
	TagCovered
)

// Tag returns the area tag a strategy prefers.
func (s Strategy) Tag() AreaTag {
	if s == ForageCover || s == Ambush {
		return TagCovered
	}
	return TagOpen
}

// Timer indexes the countdowns in Timers.
type Timer uint8

const (
	TimerHunger Timer = iota
	TimerIdle
	TimerReproduction
	TimerLifespan
	TimerCount
)

// Timers holds countdowns in seconds. A timer fires once it drops below zero.
type Timers [TimerCount]float64

// Tick decrements every timer by dt.
func (t *Timers) Tick(dt float64) {
	for i := range t {
		t[i] -= dt
	}
}

// Expired reports whether the timer crossed below zero.
func (t *Timers) Expired(which Timer) bool {
	return t[which] < 0
}

// Identity ties an ark entity to its registry id and species.
type Identity struct {
	ID   EntityID `inspect:"label"`
	Kind Kind     `inspect:"label"`
}

// Position represents an entity's world position.
type Position struct {
	X, Y float64
}

// Velocity represents an entity's velocity. Only prey integrate it.
type Velocity struct {
	X, Y float64
}

// Health tracks hit points. LastHit is the sim time of the last damage, for renderers.
type Health struct {
	Current float64 `inspect:"label,fmt:%.2f"`
	Initial float64 `inspect:"label,fmt:%.1f"`
	LastHit float64 `inspect:"label,fmt:%.1fs"`
}

// Fraction returns Current/Initial in [0, 1].
func (h Health) Fraction() float64 {
	if h.Initial <= 0 {
		return 0
	}
	return h.Current / h.Initial
}

// Lifecycle holds the state machine variant and its timers.
type Lifecycle struct {
	State  State  `inspect:"label"`
	Timers Timers `inspect:"skip"`
}

// Animal holds the moving, eating part of an entity.
type Animal struct {
	MoveSpeed     float64 `inspect:"label,fmt:%.1f"`
	RunSpeed      float64 `inspect:"label,fmt:%.1f"`
	BaseMoveSpeed float64 `inspect:"skip"`
	BaseRunSpeed  float64 `inspect:"skip"`
	Damage        float64 `inspect:"label,fmt:%.1f"`
	NeedsPartner  bool    `inspect:"bool"`
	Immobilizes   bool    `inspect:"skip"`
	Frozen        float64 `inspect:"label,fmt:%.1fs"` // seconds until speeds recover

	// Target is a weak reference; resolve it through the registry every use.
	Target      EntityID `inspect:"label"`
	Initiator   bool     `inspect:"skip"` // this side spawns the offspring
	TargetPoint Position `inspect:"skip"`
	HasPoint    bool     `inspect:"skip"`

	Satiation  float64                `inspect:"label,fmt:%.2fs"`
	Strategy   Strategy               `inspect:"label"`
	Experience [StrategyCount]float64 `inspect:"label,fmt:%.2f"`
	Fed        bool                   `inspect:"skip"` // damaged food this tick
	Sighted    int                    `inspect:"label"` // watched kinds seen this tick
}

// ClearTarget drops the entity target and the destination point.
func (a *Animal) ClearTarget() {
	a.Target = 0
	a.Initiator = false
	a.HasPoint = false
}

// Plant tags stationary entities.
type Plant struct{}

// Area is a static rectangular zone used to bias location choices.
type Area struct {
	Center        Position
	Width, Height float64
	Tag           AreaTag
}

// Contains reports whether p lies inside the area.
func (a Area) Contains(p Position) bool {
	return p.X >= a.Center.X-a.Width/2 && p.X <= a.Center.X+a.Width/2 &&
		p.Y >= a.Center.Y-a.Height/2 && p.Y <= a.Center.Y+a.Height/2
}
