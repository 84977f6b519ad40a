package ecs

import (
	"iter"
	"reflect"
	"slices"

	"github.com/argus-labs/sparseworld/pkg/assert"
	"github.com/kelindar/bitmap"
)

// Access names a component type a query touches and whether it writes to it.
type Access struct {
	typ   reflect.Type
	write bool
}

// Read requests shared access to T.
func Read[T any]() Access {
	return Access{typ: reflect.TypeFor[T]()}
}

// Write requests exclusive access to T.
func Write[T any]() Access {
	return Access{typ: reflect.TypeFor[T](), write: true}
}

// Query matches the entities that have every component in its access list. A Query is cheap to
// build and holds no state between calls; each call recomputes the match against the current
// world.
type Query struct {
	world    *World
	accesses []Access
}

// NewQuery creates a query over accesses. Listing a type twice is a bug in the caller.
func NewQuery(w *World, accesses ...Access) *Query {
	for i, a := range accesses {
		for _, b := range accesses[i+1:] {
			assert.That(a.typ != b.typ, "component %s is listed twice in the query", a.typ)
		}
	}
	return &Query{world: w, accesses: accesses}
}

// resolve returns the sets behind the query in access order. ok is false if the query is empty or
// any component type has no set yet, in which case nothing can match.
func (q *Query) resolve() ([]storage, bool) {
	if len(q.accesses) == 0 {
		return nil, false
	}

	sets := make([]storage, len(q.accesses))
	for i, a := range q.accesses {
		s, ok := q.world.components.get(a.typ)
		if !ok {
			return nil, false
		}
		sets[i] = s
	}
	return sets, true
}

// match intersects the entity sets by ID. Sets are visited smallest first so the candidate bitmap
// starts as small as possible.
func (q *Query) match(sets []storage) bitmap.Bitmap {
	ordered := slices.Clone(sets)
	slices.SortFunc(ordered, func(a, b storage) int {
		return a.len() - b.len()
	})

	var result bitmap.Bitmap
	for _, e := range ordered[0].entities() {
		result.Set(uint32(e.ID))
	}

	for _, s := range ordered[1:] {
		if result.Count() == 0 {
			break
		}
		var other bitmap.Bitmap
		for _, e := range s.entities() {
			other.Set(uint32(e.ID))
		}
		result.And(other)
	}
	return result
}

// each calls fn for every matching entity in ascending ID order until fn returns false. A matching
// ID only counts if the live entity in that slot is present in every set, so leftovers stored under
// an older version never match.
func (q *Query) each(sets []storage, fn func(Entity) bool) {
	candidates := q.match(sets)
	registry := &q.world.entities

	stop := false
	candidates.Range(func(id uint32) {
		if stop {
			return
		}
		// Sets are public, so they may hold IDs the registry never issued.
		if int(id) >= len(registry.slots) {
			return
		}
		e := registry.slots[id]
		if int(e.ID) != int(id) {
			return
		}
		for _, s := range sets {
			if !s.has(e) {
				return
			}
		}
		stop = !fn(e)
	})
}

// Entities returns the matching entities in ascending ID order.
func (q *Query) Entities() []Entity {
	sets, ok := q.resolve()
	if !ok {
		return nil
	}

	result := make([]Entity, 0)
	q.each(sets, func(e Entity) bool {
		result = append(result, e)
		return true
	})
	return result
}

// Len returns the number of matching entities.
func (q *Query) Len() int {
	sets, ok := q.resolve()
	if !ok {
		return 0
	}

	n := 0
	q.each(sets, func(Entity) bool {
		n++
		return true
	})
	return n
}

// Iter yields every matching entity with an Item giving access to its components. The query's sets
// stay borrowed for the whole loop, shared for Read and exclusive for Write, and are released when
// the loop ends or breaks. Inserting into or removing from a borrowed set inside the loop panics.
func (q *Query) Iter() iter.Seq2[Entity, *Item] {
	return func(yield func(Entity, *Item) bool) {
		sets, ok := q.resolve()
		if !ok {
			return
		}

		for i, s := range sets {
			write := q.accesses[i].write
			s.acquire(write)
			defer s.release(write)
		}

		item := &Item{accesses: q.accesses, sets: sets}
		q.each(sets, func(e Entity) bool {
			item.entity = e
			return yield(e, item)
		})
	}
}

// Item is the per-entity view handed out by Query.Iter. It is reused between iterations and must
// not be retained after the loop body returns.
type Item struct {
	entity   Entity
	accesses []Access
	sets     []storage
}

// Entity returns the entity the item currently points at.
func (it *Item) Entity() Entity {
	return it.entity
}

// lookup finds the set for typ and reports whether the query may write to it.
func (it *Item) lookup(typ reflect.Type) (storage, bool, bool) {
	for i, a := range it.accesses {
		if a.typ == typ {
			return it.sets[i], a.write, true
		}
	}
	return nil, false, false
}

// Ref returns a copy of the item's T component. It is absent if T is not part of the query.
func Ref[T any](it *Item) (T, bool) {
	var zero T
	s, _, ok := it.lookup(reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}
	set, ok := s.(*ComponentSet[T])
	assert.That(ok, "component set for %s has the wrong type %T", reflect.TypeFor[T](), s)
	return set.Get(it.entity)
}

// RefMut returns a pointer to the item's T component. It is absent if T is not part of the query
// or was requested with Read.
func RefMut[T any](it *Item) (*T, bool) {
	s, write, ok := it.lookup(reflect.TypeFor[T]())
	if !ok || !write {
		return nil, false
	}
	set, ok := s.(*ComponentSet[T])
	assert.That(ok, "component set for %s has the wrong type %T", reflect.TypeFor[T](), s)
	return set.Mut(it.entity)
}
