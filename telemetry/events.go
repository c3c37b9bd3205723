// Package telemetry provides ecosystem health tracking, bookmarking, and performance stats.
package telemetry

import "github.com/pthm-cable/ecosim/components"

// EventType identifies telemetry events.
type EventType uint8

const (
	EventBite EventType = iota
	EventKill
	EventMeal
	EventPairing
	EventBirth
	EventDeath
)

// DeathCause says why an entity died.
type DeathCause uint8

const (
	CauseNone DeathCause = iota
	CauseEaten
	CauseStarved
	CauseOldAge
	CauseRemoved
)

// String returns the display name for a DeathCause.
func (c DeathCause) String() string {
	switch c {
	case CauseEaten:
		return "eaten"
	case CauseStarved:
		return "starved"
	case CauseOldAge:
		return "old_age"
	case CauseRemoved:
		return "removed"
	}
	return "none"
}

// Event represents a single telemetry event.
type Event struct {
	Type     EventType
	Tick     int32
	EntityID components.EntityID
	Kind     components.Kind

	// Optional fields depending on event type
	TargetID components.EntityID // bite/kill victim, pairing partner, or birth parent
	Amount   float64             // damage dealt by a bite
	Cause    DeathCause
}

// NewBiteEvent creates an event for damage dealt to food.
func NewBiteEvent(tick int32, eater components.EntityID, kind components.Kind, food components.EntityID, amount float64) Event {
	return Event{Type: EventBite, Tick: tick, EntityID: eater, Kind: kind, TargetID: food, Amount: amount}
}

// NewKillEvent creates an event for food that died from a bite.
func NewKillEvent(tick int32, eater components.EntityID, kind components.Kind, food components.EntityID) Event {
	return Event{Type: EventKill, Tick: tick, EntityID: eater, Kind: kind, TargetID: food}
}

// NewMealEvent creates an event for an animal reaching satiation.
func NewMealEvent(tick int32, eater components.EntityID, kind components.Kind) Event {
	return Event{Type: EventMeal, Tick: tick, EntityID: eater, Kind: kind}
}

// NewPairingEvent creates an event for a claimed reproduction partner.
func NewPairingEvent(tick int32, initiator components.EntityID, kind components.Kind, partner components.EntityID) Event {
	return Event{Type: EventPairing, Tick: tick, EntityID: initiator, Kind: kind, TargetID: partner}
}

// NewBirthEvent creates a birth event. A zero parent marks a spawn from outside the tick.
func NewBirthEvent(tick int32, child, parent components.EntityID, kind components.Kind) Event {
	return Event{Type: EventBirth, Tick: tick, EntityID: child, Kind: kind, TargetID: parent}
}

// NewDeathEvent creates a death event.
func NewDeathEvent(tick int32, id components.EntityID, kind components.Kind, cause DeathCause) Event {
	return Event{Type: EventDeath, Tick: tick, EntityID: id, Kind: kind, Cause: cause}
}
