package game

import (
	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/systems"
	"github.com/pthm-cable/ecosim/telemetry"
)

// Report summarizes one step.
type Report struct {
	Tick       int32
	Births     [components.KindCount]int
	Deaths     [components.KindCount]int
	Population [components.KindCount]int
}

// Advance runs one step of dt seconds: queued cards, spatial index, entity
// state machines, flocking, removals, spawns and telemetry, in that order.
func (s *Simulation) Advance(dt float64) Report {
	s.applyCards()

	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseSpatial)
	s.reg.RebuildIndex(s.index)

	s.perf.StartPhase(telemetry.PhaseEntities)
	s.updateEntities(dt)

	s.perf.StartPhase(telemetry.PhaseFlocking)
	systems.Flock(s.ctx, dt)

	var report Report

	s.perf.StartPhase(telemetry.PhaseCleanup)
	s.cleanupDead(&report)

	s.perf.StartPhase(telemetry.PhaseSpawn)
	s.flushBirths(&report)

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.ctx.Tick++
	s.ctx.Now += dt
	s.recordEvents()
	s.flushTelemetry()

	sample := s.perf.EndTick()

	report.Tick = s.ctx.Tick
	report.Population = s.reg.Population()

	s.metrics.ObservePopulation(report.Population)
	s.metrics.ObserveTick(sample, s.ctx.Now)
	if s.publish {
		s.published.Store(s.Snapshot(nil))
	}
	return report
}

// updateEntities runs the state machine of every living entity, kinds in
// declaration order. Removals and spawns are deferred, so the id lists stay
// fixed for the whole pass.
func (s *Simulation) updateEntities(dt float64) {
	for k := components.Kind(0); k < components.KindCount; k++ {
		for _, id := range s.reg.IDs(k) {
			b, ok := s.reg.Resolve(id)
			if !ok || !b.Alive() {
				continue
			}
			if k.IsAnimal() {
				systems.UpdateAnimal(s.ctx, b, dt)
			} else {
				systems.UpdatePlant(s.ctx, b, dt)
			}
		}
	}
}
