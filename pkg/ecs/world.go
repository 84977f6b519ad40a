package ecs

import (
	"iter"

	"github.com/argus-labs/sparseworld/pkg/event"
	"github.com/rs/zerolog"
)

// World owns the entity registry, one ComponentSet per component type, the world-global
// resources, and the serialization tags. A World is meant to be driven from a single goroutine;
// only its change bus may be read from elsewhere.
type World struct {
	entities    entityRegistry
	components  componentTable
	resources   resourceTable
	serializers serializerRegistry

	events *event.Bus[Change]
	logger zerolog.Logger
}

// WorldOption configures a World.
type WorldOption func(*World)

// WithLogger sets the logger used for registration, despawn sweeps, and restores.
func WithLogger(logger zerolog.Logger) WorldOption {
	return func(w *World) {
		w.logger = logger
	}
}

// WithEventBus publishes change notifications to bus instead of a bus owned by the world.
func WithEventBus(bus *event.Bus[Change]) WorldOption {
	return func(w *World) {
		if bus != nil {
			w.events = bus
		}
	}
}

// NewWorld creates an empty World.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		entities:    newEntityRegistry(),
		components:  newComponentTable(),
		resources:   newResourceTable(),
		serializers: newSerializerRegistry(),
		events:      event.NewBus[Change](),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Events returns the bus that receives the world's change notifications.
func (w *World) Events() *event.Bus[Change] {
	return w.events
}

// Spawn creates an entity without any components. It fails with ErrEntityLimit once MaxEntities
// entities are alive.
func (w *World) Spawn() (Entity, error) {
	e, err := w.entities.spawn()
	if err != nil {
		return Entity{}, err
	}
	w.events.Publish(Change{Kind: ChangeSpawned, Entity: e})
	return e, nil
}

// Despawn removes every component of e and frees its slot. Returns false if e was not alive;
// despawning the same handle twice is not an error.
func (w *World) Despawn(e Entity) bool {
	if !w.entities.valid(e) {
		return false
	}

	w.components.each(func(s storage) {
		if s.erase(e) {
			w.events.Publish(Change{Kind: ChangeRemoved, Entity: e, Component: s.typeName()})
		}
	})
	w.entities.despawn(e)

	w.logger.Trace().Stringer("entity", e).Msg("entity despawned")
	w.events.Publish(Change{Kind: ChangeDespawned, Entity: e})
	return true
}

// Alive reports whether e is a live handle.
func (w *World) Alive(e Entity) bool {
	return w.entities.valid(e)
}

// Entities yields every live entity in ascending ID order.
func (w *World) Entities() iter.Seq[Entity] {
	return w.entities.all()
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.entities.len()
}

// -------------------------------------------------------------------------------------------------
// Change notifications
// -------------------------------------------------------------------------------------------------

// ChangeKind identifies what happened to an entity.
type ChangeKind uint8

const (
	ChangeSpawned ChangeKind = iota + 1
	ChangeDespawned
	ChangeInserted
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeSpawned:
		return "spawned"
	case ChangeDespawned:
		return "despawned"
	case ChangeInserted:
		return "inserted"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is published on the world's bus for every spawn, despawn, component insertion, and
// component removal. Component is the Go type name of the component and is empty for spawns and
// despawns. A despawn publishes one ChangeRemoved per component before its ChangeDespawned.
type Change struct {
	Kind      ChangeKind
	Entity    Entity
	Component string
}
