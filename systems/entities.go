package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/telemetry"
)

// Hooks lets a host application observe entity creation and eviction,
// for example to bind and release textures.
type Hooks interface {
	OnSpawn(id components.EntityID, kind components.Kind, pos components.Position)
	OnRemove(id components.EntityID, kind components.Kind)
}

// NopHooks ignores all callbacks.
type NopHooks struct{}

func (NopHooks) OnSpawn(components.EntityID, components.Kind, components.Position) {}
func (NopHooks) OnRemove(components.EntityID, components.Kind)                     {}

// Template holds the initial component values of a new entity.
// Animal is nil for plants.
type Template struct {
	Health components.Health
	Life   components.Lifecycle
	Animal *components.Animal
}

// Factory builds the components for a new entity of the given kind and
// restarts per-kind timers.
type Factory interface {
	Build(kind components.Kind, pos components.Position) Template
	ResetTimer(b Body, which components.Timer)
}

// Body gives access to the components of one entity. The pointers stay valid
// until the next structural change (Flush or RemoveDead).
type Body struct {
	ID     components.EntityID
	Kind   components.Kind
	Pos    *components.Position
	Vel    *components.Velocity // nil for plants
	Health *components.Health
	Life   *components.Lifecycle
	Animal *components.Animal // nil for plants
}

// Alive reports whether the entity is not in the Dead state.
func (b Body) Alive() bool {
	return b.Life.State != components.StateDead
}

// Birth describes an entity created by Flush.
type Birth struct {
	ID     components.EntityID
	Kind   components.Kind
	Parent components.EntityID
	Pos    components.Position
}

// Removal describes an entity evicted by RemoveDead.
type Removal struct {
	ID     components.EntityID
	Kind   components.Kind
	Cause  telemetry.DeathCause
	Source components.EntityID // killer, when eaten
}

// Registry is the sole owner of all entities. It keeps ark storage, a stable
// id -> entity map, and per-kind id lists in insertion order.
type Registry struct {
	world *ecs.World

	animalMapper *ecs.Map6[
		components.Identity,
		components.Position,
		components.Velocity,
		components.Health,
		components.Lifecycle,
		components.Animal,
	]
	plantMapper *ecs.Map5[
		components.Identity,
		components.Position,
		components.Health,
		components.Lifecycle,
		components.Plant,
	]
	allFilter *ecs.Filter4[
		components.Identity,
		components.Position,
		components.Health,
		components.Lifecycle,
	]

	idMap     *ecs.Map[components.Identity]
	posMap    *ecs.Map[components.Position]
	velMap    *ecs.Map[components.Velocity]
	healthMap *ecs.Map[components.Health]
	lifeMap   *ecs.Map[components.Lifecycle]
	animalMap *ecs.Map[components.Animal]

	handles map[components.EntityID]ecs.Entity
	order   [components.KindCount][]components.EntityID
	live    [components.KindCount]int
	limits  [components.KindCount]int
	nextID  components.EntityID

	pending       []Birth
	pendingByKind [components.KindCount]int
	dying         []Removal

	factory Factory
	hooks   Hooks
}

// NewRegistry creates an empty registry. limits caps the live population per
// kind (0 = unlimited).
func NewRegistry(factory Factory, hooks Hooks, limits [components.KindCount]int) *Registry {
	if hooks == nil {
		hooks = NopHooks{}
	}
	world := ecs.NewWorld()

	return &Registry{
		world: world,
		animalMapper: ecs.NewMap6[
			components.Identity,
			components.Position,
			components.Velocity,
			components.Health,
			components.Lifecycle,
			components.Animal,
		](world),
		plantMapper: ecs.NewMap5[
			components.Identity,
			components.Position,
			components.Health,
			components.Lifecycle,
			components.Plant,
		](world),
		allFilter: ecs.NewFilter4[
			components.Identity,
			components.Position,
			components.Health,
			components.Lifecycle,
		](world),
		idMap:     ecs.NewMap[components.Identity](world),
		posMap:    ecs.NewMap[components.Position](world),
		velMap:    ecs.NewMap[components.Velocity](world),
		healthMap: ecs.NewMap[components.Health](world),
		lifeMap:   ecs.NewMap[components.Lifecycle](world),
		animalMap: ecs.NewMap[components.Animal](world),
		handles:   make(map[components.EntityID]ecs.Entity),
		limits:    limits,
		factory:   factory,
		hooks:     hooks,
	}
}

// Spawn reserves an id and queues an entity of kind at pos. The entity exists
// after the next Flush. Returns 0 when the kind is at its population cap.
func (r *Registry) Spawn(kind components.Kind, pos components.Position, parent components.EntityID) components.EntityID {
	if kind >= components.KindCount {
		return 0
	}
	if limit := r.limits[kind]; limit > 0 && r.live[kind]+r.pendingByKind[kind] >= limit {
		return 0
	}
	r.nextID++
	r.pending = append(r.pending, Birth{ID: r.nextID, Kind: kind, Parent: parent, Pos: pos})
	r.pendingByKind[kind]++
	return r.nextID
}

// Flush creates all queued entities and returns them in request order.
func (r *Registry) Flush() []Birth {
	if len(r.pending) == 0 {
		return nil
	}
	born := r.pending
	r.pending = nil
	r.pendingByKind = [components.KindCount]int{}

	for _, b := range born {
		r.create(b.ID, b.Kind, b.Pos)
		r.hooks.OnSpawn(b.ID, b.Kind, b.Pos)
	}
	return born
}

func (r *Registry) create(id components.EntityID, kind components.Kind, pos components.Position) {
	t := r.factory.Build(kind, pos)
	ident := components.Identity{ID: id, Kind: kind}

	var e ecs.Entity
	if t.Animal != nil {
		vel := components.Velocity{}
		e = r.animalMapper.NewEntity(&ident, &pos, &vel, &t.Health, &t.Life, t.Animal)
	} else {
		e = r.plantMapper.NewEntity(&ident, &pos, &t.Health, &t.Life, &components.Plant{})
	}

	r.handles[id] = e
	r.order[kind] = append(r.order[kind], id)
	r.live[kind]++
}

// Resolve looks up an entity by id. A missing entity is not an error: the
// caller treats it as an invalid target.
func (r *Registry) Resolve(id components.EntityID) (Body, bool) {
	e, ok := r.handles[id]
	if !ok || !r.world.Alive(e) {
		return Body{}, false
	}
	b := Body{
		ID:     id,
		Kind:   r.idMap.Get(e).Kind,
		Pos:    r.posMap.Get(e),
		Health: r.healthMap.Get(e),
		Life:   r.lifeMap.Get(e),
	}
	if r.animalMap.Has(e) {
		b.Animal = r.animalMap.Get(e)
		b.Vel = r.velMap.Get(e)
	}
	return b, true
}

// Locate returns the position and state of an entity without building a Body.
func (r *Registry) Locate(id components.EntityID) (components.Position, components.State, bool) {
	e, ok := r.handles[id]
	if !ok {
		return components.Position{}, components.StateDead, false
	}
	return *r.posMap.Get(e), r.lifeMap.Get(e).State, true
}

// MarkDead moves a living entity to the Dead state and schedules its removal.
func (r *Registry) MarkDead(b Body, cause telemetry.DeathCause, source components.EntityID) {
	if !b.Alive() {
		return
	}
	b.Life.State = components.StateDead
	r.live[b.Kind]--
	r.dying = append(r.dying, Removal{ID: b.ID, Kind: b.Kind, Cause: cause, Source: source})
}

// RemoveDead evicts every entity marked dead and drops references to them
// held by other animals.
func (r *Registry) RemoveDead() []Removal {
	if len(r.dying) == 0 {
		return nil
	}
	removed := r.dying
	r.dying = nil

	// Collect first, then apply: ark forbids structural changes during a query.
	for _, d := range removed {
		e, ok := r.handles[d.ID]
		if !ok {
			continue
		}
		r.world.RemoveEntity(e)
		delete(r.handles, d.ID)
		r.hooks.OnRemove(d.ID, d.Kind)
	}

	for k := range r.order {
		ids := r.order[k][:0]
		for _, id := range r.order[k] {
			if _, ok := r.handles[id]; ok {
				ids = append(ids, id)
			}
		}
		r.order[k] = ids
	}

	r.dropStaleTargets()
	return removed
}

func (r *Registry) dropStaleTargets() {
	for _, kind := range []components.Kind{components.KindRabbit, components.KindFox} {
		for _, id := range r.order[kind] {
			a := r.animalMap.Get(r.handles[id])
			if a.Target == 0 {
				continue
			}
			if _, ok := r.handles[a.Target]; ok {
				continue
			}
			a.ClearTarget()
			// A lost mate ends the attempt for both sides of the pair.
			life := r.lifeMap.Get(r.handles[id])
			if life.State == components.StateReproducing {
				if b, ok := r.Resolve(id); ok {
					r.factory.ResetTimer(b, components.TimerReproduction)
				}
				life.State = components.StateWalking
			}
		}
	}
}

// Remove evicts an entity immediately and returns what was evicted, nil for
// an unknown id. Only call it between ticks.
func (r *Registry) Remove(id components.EntityID) []Removal {
	b, ok := r.Resolve(id)
	if !ok {
		return nil
	}
	r.MarkDead(b, telemetry.CauseRemoved, 0)
	return r.RemoveDead()
}

// IDs returns the ids of a kind in insertion order. The slice must not be modified.
func (r *Registry) IDs(kind components.Kind) []components.EntityID {
	return r.order[kind]
}

// Live returns the number of entities of kind that are not dead.
func (r *Registry) Live(kind components.Kind) int {
	return r.live[kind]
}

// AnyLive reports whether any of the kinds has a living member.
func (r *Registry) AnyLive(kinds []components.Kind) bool {
	for _, k := range kinds {
		if r.live[k] > 0 {
			return true
		}
	}
	return false
}

// Population returns the live count of every kind.
func (r *Registry) Population() [components.KindCount]int {
	return r.live
}

// Len returns the number of entities held, including those awaiting removal.
func (r *Registry) Len() int {
	return len(r.handles)
}

// Pending returns the number of queued spawns.
func (r *Registry) Pending() int {
	return len(r.pending)
}

// RebuildIndex clears idx and inserts every living entity.
func (r *Registry) RebuildIndex(idx *SpatialIndex) {
	idx.Clear()
	query := r.allFilter.Query()
	for query.Next() {
		ident, pos, _, life := query.Get()
		if life.State == components.StateDead {
			continue
		}
		idx.Insert(ident.ID, ident.Kind, pos.X, pos.Y)
	}
}

// Each calls fn for every entity, kinds in declaration order and ids in insertion order.
func (r *Registry) Each(fn func(Body)) {
	for k := range r.order {
		for _, id := range r.order[k] {
			if b, ok := r.Resolve(id); ok {
				fn(b)
			}
		}
	}
}
