package game

import (
	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/inspector"
)

// Inspect returns the tagged component fields of a living entity.
func (s *Simulation) Inspect(id components.EntityID) ([]inspector.Section, bool) {
	b, ok := s.reg.Resolve(id)
	if !ok || !b.Alive() {
		return nil, false
	}
	parts := []any{
		components.Identity{ID: b.ID, Kind: b.Kind},
		b.Pos,
		b.Health,
		b.Life,
	}
	if b.Animal != nil {
		parts = append(parts, b.Animal)
	}
	return inspector.Inspect(parts...), true
}
