package game

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/systems"
	"github.com/pthm-cable/ecosim/telemetry"
)

// Card names accepted by ParseCard.
const (
	CardSpawn  = "spawn"
	CardHeal   = "heal"
	CardHungry = "hungry"
)

const cardQueueSize = 64

var (
	// ErrUnknownCard is returned for card names or kinds the simulation does not know.
	ErrUnknownCard = errors.New("game: unknown card")
	// ErrCardQueueFull is returned by Enqueue when the step loop is behind.
	ErrCardQueueFull = errors.New("game: card queue full")
)

// Card is a world event requested from outside the step loop.
type Card struct {
	Name  string
	Kind  components.Kind // spawn only
	Count int             // entities to spawn or animals to make hungry
}

// ParseCard validates a card request. kind is only read by spawn cards.
func ParseCard(name, kind string, count int) (Card, error) {
	c := Card{Name: name, Count: count}
	switch name {
	case CardSpawn:
		k, err := components.ParseKind(kind)
		if err != nil {
			return Card{}, fmt.Errorf("%w: %v", ErrUnknownCard, err)
		}
		c.Kind = k
		if c.Count <= 0 {
			c.Count = 1
		}
	case CardHungry:
		if c.Count <= 0 {
			c.Count = 1
		}
	case CardHeal:
	default:
		return Card{}, fmt.Errorf("%w: %q", ErrUnknownCard, name)
	}
	return c, nil
}

// Enqueue hands a card to the step loop. It is safe to call from any
// goroutine; the card is applied at the start of the next Advance.
func (s *Simulation) Enqueue(c Card) error {
	select {
	case s.cards <- c:
		return nil
	default:
		return ErrCardQueueFull
	}
}

// applyCards runs every queued card before the step begins.
func (s *Simulation) applyCards() {
	for {
		select {
		case c := <-s.cards:
			if err := s.Apply(c); err != nil {
				slog.Warn("card rejected", "card", c.Name, "error", err)
			}
		default:
			return
		}
	}
}

// Apply runs a card immediately. Only call it between steps.
func (s *Simulation) Apply(c Card) error {
	var n int
	switch c.Name {
	case CardSpawn:
		n = s.SpawnN(c.Kind, c.Count)
	case CardHeal:
		n = s.HealAllAnimals()
	case CardHungry:
		n = s.ForceHungry(c.Count)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCard, c.Name)
	}
	s.metrics.ObserveCard(c.Name)
	if s.logStats {
		slog.Info("card", "name", c.Name, "kind", c.Kind.String(), "affected", n)
	}
	return nil
}

// SpawnN creates up to n entities of kind right away and returns how many
// were created. Population caps still apply.
func (s *Simulation) SpawnN(kind components.Kind, n int) int {
	if kind >= components.KindCount {
		return 0
	}
	for i := 0; i < n; i++ {
		if s.reg.Spawn(kind, s.spawnPoint(kind), 0) == 0 {
			break
		}
	}
	born := s.reg.Flush()
	for _, b := range born {
		s.ctx.Emit(telemetry.NewBirthEvent(s.ctx.Tick, b.ID, 0, b.Kind))
	}
	s.recordEvents()
	return len(born)
}

// HealAllAnimals restores every living animal to full health and returns
// how many were healed.
func (s *Simulation) HealAllAnimals() int {
	n := 0
	for _, kind := range []components.Kind{components.KindRabbit, components.KindFox} {
		for _, id := range s.reg.IDs(kind) {
			if b, ok := s.reg.Resolve(id); ok && b.Alive() {
				systems.Heal(b)
				n++
			}
		}
	}
	return n
}

// ForceHungry sends up to m randomly chosen animals after food and returns
// how many changed state. Animals already feeding, or without food alive,
// are skipped.
func (s *Simulation) ForceHungry(m int) int {
	var candidates []components.EntityID
	for _, kind := range []components.Kind{components.KindRabbit, components.KindFox} {
		for _, id := range s.reg.IDs(kind) {
			if b, ok := s.reg.Resolve(id); ok && b.Alive() && b.Life.State != components.StatePursuingFood {
				candidates = append(candidates, id)
			}
		}
	}
	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	n := 0
	for _, id := range candidates {
		if n >= m {
			break
		}
		if b, ok := s.reg.Resolve(id); ok && systems.ForcePursuit(s.ctx, b) {
			n++
		}
	}
	return n
}
