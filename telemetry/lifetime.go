package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/ecosim/components"
)

// LifetimeStats tracks per-entity statistics over its lifetime.
type LifetimeStats struct {
	Kind            components.Kind     `json:"-"`
	Parent          components.EntityID `json:"parent,omitempty"`
	BirthTick       int32               `json:"birth_tick"`
	BirthSec        float64             `json:"birth_sec"`
	SurvivalTimeSec float64             `json:"survival_sec"`

	// Feeding
	Bites int `json:"bites"`
	Kills int `json:"kills"`
	Meals int `json:"meals"`

	// Reproduction
	Pairings int `json:"pairings"`
	Children int `json:"children"`

	Cause DeathCause `json:"-"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s *LifetimeStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", s.Kind.String()),
		slog.Float64("survival_sec", s.SurvivalTimeSec),
		slog.Int("bites", s.Bites),
		slog.Int("kills", s.Kills),
		slog.Int("meals", s.Meals),
		slog.Int("children", s.Children),
		slog.String("cause", s.Cause.String()),
	)
}

// LifetimeTracker manages per-entity lifetime statistics.
type LifetimeTracker struct {
	stats map[components.EntityID]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[components.EntityID]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new entity.
func (lt *LifetimeTracker) Register(id components.EntityID, kind components.Kind, parent components.EntityID, birthTick int32, birthSec float64) {
	lt.stats[id] = &LifetimeStats{
		Kind:      kind,
		Parent:    parent,
		BirthTick: birthTick,
		BirthSec:  birthSec,
	}
}

// Get returns the lifetime stats for an entity, or nil if not found.
func (lt *LifetimeTracker) Get(id components.EntityID) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes an entity's stats and returns them with the survival time
// and cause filled in. Returns nil for unknown entities.
func (lt *LifetimeTracker) Remove(id components.EntityID, cause DeathCause, nowSec float64) *LifetimeStats {
	s := lt.stats[id]
	if s == nil {
		return nil
	}
	delete(lt.stats, id)
	s.SurvivalTimeSec = nowSec - s.BirthSec
	s.Cause = cause
	return s
}

// Record updates the stats of the entities an event refers to.
func (lt *LifetimeTracker) Record(ev Event) {
	switch ev.Type {
	case EventBite:
		if s := lt.stats[ev.EntityID]; s != nil {
			s.Bites++
		}
	case EventKill:
		if s := lt.stats[ev.EntityID]; s != nil {
			s.Kills++
		}
	case EventMeal:
		if s := lt.stats[ev.EntityID]; s != nil {
			s.Meals++
		}
	case EventPairing:
		for _, id := range []components.EntityID{ev.EntityID, ev.TargetID} {
			if s := lt.stats[id]; s != nil {
				s.Pairings++
			}
		}
	case EventBirth:
		if s := lt.stats[ev.TargetID]; s != nil {
			s.Children++
		}
	}
}

// Count returns the number of tracked entities.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
