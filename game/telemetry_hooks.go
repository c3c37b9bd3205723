package game

import (
	"log/slog"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/systems"
	"github.com/pthm-cable/ecosim/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.ctx.Now) {
		return
	}

	stats := s.collector.Flush(s.ctx.Tick, s.ctx.Now, s.sample())
	perfStats := s.perf.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
		s.logWorldState()
	}

	if err := s.output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if s.snapshotDir != "" {
			s.saveSnapshot(&bm)
		}
	}
}

// sample measures the population at the end of a window.
func (s *Simulation) sample() telemetry.Sample {
	smp := telemetry.Sample{Population: s.reg.Population()}

	for _, kind := range []components.Kind{components.KindRabbit, components.KindFox} {
		for _, id := range s.reg.IDs(kind) {
			b, ok := s.reg.Resolve(id)
			if !ok || !b.Alive() {
				continue
			}
			if kind == components.KindRabbit {
				smp.RabbitHealth = append(smp.RabbitHealth, b.Health.Fraction())
			} else {
				smp.FoxHealth = append(smp.FoxHealth, b.Health.Fraction())
			}
			smp.Strategies[b.Animal.Strategy]++
		}
	}
	return smp
}

// saveSnapshot writes the current world to the snapshot directory.
func (s *Simulation) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(s.Snapshot(bookmark), s.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", s.ctx.Tick)
}

// Snapshot builds a serializable copy of the current world. bookmark may be nil.
func (s *Simulation) Snapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		Seed:        s.seed,
		ArenaWidth:  s.cfg.Arena.Width,
		ArenaHeight: s.cfg.Arena.Height,
		Tick:        s.ctx.Tick,
		SimTimeSec:  s.ctx.Now,
		Population:  make(map[string]int, components.KindCount),
		Entities:    make([]telemetry.EntityState, 0, s.reg.Len()),
		Bookmark:    bookmark,
	}
	for _, a := range s.areas {
		snap.Areas = append(snap.Areas, telemetry.NewAreaState(a))
	}
	for k, n := range s.reg.Population() {
		snap.Population[components.Kind(k).String()] = n
	}

	s.reg.Each(func(b systems.Body) {
		if !b.Alive() {
			return
		}
		st := entityState(b)
		if ls := s.lifetimes.Get(b.ID); ls != nil {
			cp := *ls
			st.Lifetime = &cp
		}
		snap.Entities = append(snap.Entities, st)
	})
	return snap
}

// View returns the drawable state of every living entity, kinds in
// declaration order and ids in insertion order.
func (s *Simulation) View() []EntityView {
	views := make([]EntityView, 0, s.reg.Len())
	s.reg.Each(func(b systems.Body) {
		if b.Alive() {
			views = append(views, entityState(b))
		}
	})
	return views
}

// Published returns the snapshot stored after the latest step. It is safe to
// call from any goroutine; the result must not be modified. Nil unless
// Options.Publish was set.
func (s *Simulation) Published() *telemetry.Snapshot {
	return s.published.Load()
}

func entityState(b systems.Body) telemetry.EntityState {
	st := telemetry.EntityState{
		ID:     uint32(b.ID),
		Kind:   b.Kind.String(),
		State:  b.Life.State.String(),
		X:      b.Pos.X,
		Y:      b.Pos.Y,
		Health: b.Health.Fraction(),
	}
	if b.Vel != nil {
		st.VelX, st.VelY = b.Vel.X, b.Vel.Y
	}
	if a := b.Animal; a != nil {
		st.Target = uint32(a.Target)
		st.Strategy = a.Strategy.String()
	}
	return st
}
