package game

import (
	"log/slog"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/systems"
)

// WorldState counts living entities by kind and lifecycle state.
type WorldState struct {
	Tick    int32
	SimTime float64
	Kinds   [components.KindCount]int
	States  [components.StateDead + 1]int
	Frozen  int // immobilized animals
	Targets int // animals holding an entity target
}

// LogValue implements slog.LogValuer.
func (w WorldState) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("tick", int(w.Tick)),
		slog.Float64("sim_time", w.SimTime),
	}
	for k, n := range w.Kinds {
		attrs = append(attrs, slog.Int(components.Kind(k).String(), n))
	}
	for st, n := range w.States {
		if n > 0 {
			attrs = append(attrs, slog.Int(components.State(st).String(), n))
		}
	}
	attrs = append(attrs, slog.Int("frozen", w.Frozen), slog.Int("targets", w.Targets))
	return slog.GroupValue(attrs...)
}

// WorldState walks the registry and summarizes it.
func (s *Simulation) WorldState() WorldState {
	w := WorldState{Tick: s.ctx.Tick, SimTime: s.ctx.Now}
	s.reg.Each(func(b systems.Body) {
		if !b.Alive() {
			return
		}
		w.Kinds[b.Kind]++
		w.States[b.Life.State]++
		if a := b.Animal; a != nil {
			if a.Frozen > 0 {
				w.Frozen++
			}
			if a.Target != 0 {
				w.Targets++
			}
		}
	})
	return w
}

// logWorldState logs the current world state.
func (s *Simulation) logWorldState() {
	slog.Info("world", "state", s.WorldState())
}
