// Package ecs is a sparse-set entity component system. Entities are generational handles, each
// component type lives in its own densely packed ComponentSet, and queries intersect those sets.
//
// The generic functions in this file are the typed entry points into a World:
//
//	w := ecs.NewWorld()
//	e, _ := w.Spawn()
//	_ = ecs.Insert(w, e, Position{X: 1})
//	for e, item := range ecs.NewQuery(w, ecs.Write[Position](), ecs.Read[Velocity]()).Iter() {
//		pos, _ := ecs.RefMut[Position](item)
//		...
//	}
package ecs

import "github.com/argus-labs/sparseworld/pkg/assert"

// Insert sets e's T component, creating the set for T on first use. An existing value is
// overwritten. Returns ErrEntityNotFound if e is not alive.
func Insert[T any](w *World, e Entity, component T) error {
	if !w.entities.valid(e) {
		return ErrEntityNotFound
	}

	set := Register[T](w)
	set.Insert(e, component)
	w.events.Publish(Change{Kind: ChangeInserted, Entity: e, Component: set.name})
	return nil
}

// Remove deletes and returns e's T component. Returns false if e is not alive or has no T.
func Remove[T any](w *World, e Entity) (T, bool) {
	var zero T
	set, ok := lookupSet[T](w)
	if !ok || !w.entities.valid(e) {
		return zero, false
	}

	component, ok := set.Remove(e)
	if !ok {
		return zero, false
	}
	w.events.Publish(Change{Kind: ChangeRemoved, Entity: e, Component: set.name})
	return component, true
}

// Get returns a copy of e's T component.
func Get[T any](w *World, e Entity) (T, bool) {
	set, ok := lookupSet[T](w)
	if !ok {
		var zero T
		return zero, false
	}
	assert.That(set.borrow >= 0, "cannot read %s while it is mutably borrowed", set.name)
	return set.Get(e)
}

// GetMut returns a pointer to e's T component, valid until the next insertion or removal of a T.
func GetMut[T any](w *World, e Entity) (*T, bool) {
	set, ok := lookupSet[T](w)
	if !ok {
		return nil, false
	}
	assert.That(set.borrow == 0, "cannot mutate %s while it is borrowed", set.name)
	return set.Mut(e)
}

// Has reports whether e has a T component.
func Has[T any](w *World, e Entity) bool {
	set, ok := lookupSet[T](w)
	return ok && set.Has(e)
}
