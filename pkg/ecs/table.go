package ecs

import (
	"reflect"

	"github.com/argus-labs/sparseworld/pkg/assert"
)

// componentTable maps a component type to its type-erased ComponentSet. Sets are created on first
// use and live for as long as the world.
type componentTable struct {
	sets  map[reflect.Type]storage
	order []reflect.Type // Creation order, for deterministic sweeps
}

func newComponentTable() componentTable {
	return componentTable{
		sets:  make(map[reflect.Type]storage),
		order: make([]reflect.Type, 0),
	}
}

// get returns the storage for typ.
func (t *componentTable) get(typ reflect.Type) (storage, bool) {
	s, ok := t.sets[typ]
	return s, ok
}

// add stores s under typ. Adding a type twice is a bug in the caller.
func (t *componentTable) add(typ reflect.Type, s storage) {
	_, exists := t.sets[typ]
	assert.That(!exists, "component set for %s already exists", typ)

	t.sets[typ] = s
	t.order = append(t.order, typ)
}

// each yields every storage in creation order.
func (t *componentTable) each(fn func(storage)) {
	for _, typ := range t.order {
		fn(t.sets[typ])
	}
}

// lookupSet returns the set for T without creating it.
func lookupSet[T any](w *World) (*ComponentSet[T], bool) {
	typ := reflect.TypeFor[T]()
	s, ok := w.components.get(typ)
	if !ok {
		return nil, false
	}
	set, ok := s.(*ComponentSet[T])
	assert.That(ok, "component set for %s has the wrong type %T", typ, s)
	return set, true
}

// Register creates the set for T if it doesn't exist yet and returns it.
func Register[T any](w *World) *ComponentSet[T] {
	if set, ok := lookupSet[T](w); ok {
		return set
	}

	set := NewComponentSet[T]()
	w.components.add(reflect.TypeFor[T](), set)
	w.logger.Debug().Str("component", set.name).Msg("component set created")
	return set
}

// Storage returns the set for T. It panics if nothing ever registered or inserted a T, since that
// means the caller asked for a component type the world has never seen.
func Storage[T any](w *World) *ComponentSet[T] {
	set, ok := lookupSet[T](w)
	assert.That(ok, "component %s is not registered", reflect.TypeFor[T]())
	return set
}
