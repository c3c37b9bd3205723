package game

import (
	"log/slog"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/systems"
	"github.com/pthm-cable/ecosim/telemetry"
)

// spawnInitialPopulation creates the starting entities. Bushes start in
// cover and grass in the open; animals are scattered over the arena.
func (s *Simulation) spawnInitialPopulation() {
	initial := s.cfg.Population.Initial
	counts := [components.KindCount]int{initial.Rabbit, initial.Fox, initial.Bush, initial.Grass}

	for k, n := range counts {
		for i := 0; i < n; i++ {
			s.reg.Spawn(components.Kind(k), s.spawnPoint(components.Kind(k)), 0)
		}
	}

	for _, b := range s.reg.Flush() {
		s.lifetimes.Register(b.ID, b.Kind, 0, 0, 0)
	}
}

// spawnPoint picks a location suited to kind.
func (s *Simulation) spawnPoint(kind components.Kind) components.Position {
	switch kind {
	case components.KindBush:
		return systems.PointInArea(s.ctx, components.TagCovered)
	case components.KindGrass:
		return systems.PointInArea(s.ctx, components.TagOpen)
	}
	return components.Position{
		X: s.rng.Float64() * s.cfg.Arena.Width,
		Y: s.rng.Float64() * s.cfg.Arena.Height,
	}
}

// cleanupDead evicts entities marked dead this step and queues their death
// events.
func (s *Simulation) cleanupDead(report *Report) {
	for _, r := range s.reg.RemoveDead() {
		report.Deaths[r.Kind]++
		s.ctx.Emit(telemetry.NewDeathEvent(s.ctx.Tick, r.ID, r.Kind, r.Cause))
	}
}

// flushBirths creates the offspring queued this step and queues their birth
// events.
func (s *Simulation) flushBirths(report *Report) {
	for _, b := range s.reg.Flush() {
		report.Births[b.Kind]++
		s.ctx.Emit(telemetry.NewBirthEvent(s.ctx.Tick, b.ID, b.Parent, b.Kind))
	}
}

// recordEvents feeds the step's events to the collector, the lifetime
// tracker and metrics. Lifetimes open on birth and close on death, after the
// event itself has been credited.
func (s *Simulation) recordEvents() {
	for _, ev := range s.ctx.DrainEvents() {
		if ev.Type == telemetry.EventBirth {
			s.lifetimes.Register(ev.EntityID, ev.Kind, ev.TargetID, ev.Tick, s.ctx.Now)
		}

		s.collector.Record(ev)
		s.lifetimes.Record(ev)
		s.metrics.ObserveEvent(ev)

		if ev.Type == telemetry.EventDeath {
			s.closeLifetime(ev)
		}
	}
}

func (s *Simulation) closeLifetime(ev telemetry.Event) {
	ls := s.lifetimes.Remove(ev.EntityID, ev.Cause, s.ctx.Now)
	if ls == nil {
		return
	}
	if s.logStats && ev.Kind.IsAnimal() {
		slog.Info("death", "id", ev.EntityID, "lifetime", ls)
	}
	if err := s.output.WriteLifetime(uint32(ev.EntityID), ls); err != nil {
		slog.Error("failed to write lifetime", "error", err)
	}
}

// Remove evicts an entity between steps, for hosts that delete entities
// directly. It reports whether the id was live.
func (s *Simulation) Remove(id components.EntityID) bool {
	removed := s.reg.Remove(id)
	for _, r := range removed {
		s.ctx.Emit(telemetry.NewDeathEvent(s.ctx.Tick, r.ID, r.Kind, r.Cause))
	}
	s.recordEvents()
	return len(removed) > 0
}
