package ecs

import (
	"reflect"

	"github.com/argus-labs/sparseworld/pkg/assert"
	"github.com/argus-labs/sparseworld/pkg/codec"
	"github.com/rotisserie/eris"
)

// ComponentSet stores every component of type T in two parallel dense slices, dense for the
// owning entities and values for the payloads, plus a sparse index from entity ID to dense
// position. dense and values always have the same length and for every live entity e,
// dense[sparse[e.ID]] == e.
//
// Removal swaps the last element into the vacated position, so the order of Entities and Values is
// not insertion order and changes on every removal.
//
// A ComponentSet is not safe for concurrent use. Queries borrow it for the duration of a loop: any
// number of shared borrows or a single exclusive borrow. Inserting or removing while it is
// borrowed panics.
type ComponentSet[T any] struct {
	name   string
	sparse sparseSet
	dense  []Entity
	values []T
	borrow int32 // >0 shared borrows, -1 exclusive borrow
}

const exclusiveBorrow = -1

// NewComponentSet creates an empty set for T.
func NewComponentSet[T any]() *ComponentSet[T] {
	const initialCapacity = 16
	return &ComponentSet[T]{
		name:   reflect.TypeFor[T]().String(),
		sparse: newSparseSet(),
		dense:  make([]Entity, 0, initialCapacity),
		values: make([]T, 0, initialCapacity),
	}
}

// Insert stores value for e. If e already has a value it is overwritten in place.
func (s *ComponentSet[T]) Insert(e Entity, value T) {
	assert.That(s.borrow == 0, "cannot insert %s while it is borrowed", s.name)

	if idx, ok := s.sparse.get(e.ID); ok {
		// A leftover entry for an older version of this slot is taken over by e.
		s.dense[idx] = e
		s.values[idx] = value
		return
	}

	s.sparse.set(e.ID, uint32(len(s.dense))) //nolint:gosec // bounded by MaxEntities
	s.dense = append(s.dense, e)
	s.values = append(s.values, value)
}

// Remove deletes and returns e's value. Returns false if e has no value in this set.
func (s *ComponentSet[T]) Remove(e Entity) (T, bool) {
	assert.That(s.borrow == 0, "cannot remove %s while it is borrowed", s.name)

	var zero T
	idx, ok := s.index(e)
	if !ok {
		return zero, false
	}

	removed := s.values[idx]
	last := uint32(len(s.dense) - 1) //nolint:gosec // bounded by MaxEntities

	// Swap the last element into the hole and repoint its sparse entry.
	if idx != last {
		moved := s.dense[last]
		s.dense[idx] = moved
		s.values[idx] = s.values[last]
		s.sparse.set(moved.ID, idx)
	}

	s.values[last] = zero
	s.dense = s.dense[:last]
	s.values = s.values[:last]
	s.sparse.remove(e.ID)

	return removed, true
}

// Get returns a copy of e's value.
func (s *ComponentSet[T]) Get(e Entity) (T, bool) {
	idx, ok := s.index(e)
	if !ok {
		var zero T
		return zero, false
	}
	return s.values[idx], true
}

// Mut returns a pointer to e's value. The pointer is valid until the next Insert or Remove.
func (s *ComponentSet[T]) Mut(e Entity) (*T, bool) {
	idx, ok := s.index(e)
	if !ok {
		return nil, false
	}
	return &s.values[idx], true
}

// Has reports whether e has a value in this set.
func (s *ComponentSet[T]) Has(e Entity) bool {
	_, ok := s.index(e)
	return ok
}

// Entities returns the dense entity slice. It is valid until the next Insert or Remove and must
// not be modified.
func (s *ComponentSet[T]) Entities() []Entity {
	return s.dense
}

// Values returns the dense value slice, parallel to Entities.
func (s *ComponentSet[T]) Values() []T {
	return s.values
}

// Len returns the number of stored values.
func (s *ComponentSet[T]) Len() int {
	return len(s.dense)
}

// index resolves e to its dense position, checking the version so stale handles miss.
func (s *ComponentSet[T]) index(e Entity) (uint32, bool) {
	idx, ok := s.sparse.get(e.ID)
	if !ok || s.dense[idx] != e {
		return 0, false
	}
	return idx, true
}

// -------------------------------------------------------------------------------------------------
// Type-erased storage
// -------------------------------------------------------------------------------------------------

// storage is the type-erased view of a ComponentSet held by the component table. It exposes
// everything the world, queries, and the serializer need without knowing T.
type storage interface {
	typeName() string
	entities() []Entity
	has(e Entity) bool
	erase(e Entity) bool
	len() int
	clear()
	value(e Entity) (any, bool)

	acquire(exclusive bool)
	release(exclusive bool)

	encode() ([]byte, error)
	decode(bz []byte, alive func(Entity) bool) error
}

var _ storage = &ComponentSet[struct{}]{}

func (s *ComponentSet[T]) typeName() string {
	return s.name
}

func (s *ComponentSet[T]) entities() []Entity {
	return s.dense
}

func (s *ComponentSet[T]) has(e Entity) bool {
	return s.Has(e)
}

func (s *ComponentSet[T]) len() int {
	return len(s.dense)
}

func (s *ComponentSet[T]) erase(e Entity) bool {
	_, ok := s.Remove(e)
	return ok
}

func (s *ComponentSet[T]) value(e Entity) (any, bool) {
	return s.Get(e)
}

func (s *ComponentSet[T]) clear() {
	assert.That(s.borrow == 0, "cannot clear %s while it is borrowed", s.name)

	var zero T
	for i := range s.values {
		s.values[i] = zero
	}
	s.dense = s.dense[:0]
	s.values = s.values[:0]
	s.sparse.reset()
}

// acquire takes a shared or exclusive borrow and panics on conflict.
func (s *ComponentSet[T]) acquire(exclusive bool) {
	if exclusive {
		assert.That(s.borrow == 0, "%s is already borrowed", s.name)
		s.borrow = exclusiveBorrow
		return
	}
	assert.That(s.borrow >= 0, "%s is already mutably borrowed", s.name)
	s.borrow++
}

func (s *ComponentSet[T]) release(exclusive bool) {
	if exclusive {
		assert.That(s.borrow == exclusiveBorrow, "%s released without an exclusive borrow", s.name)
		s.borrow = 0
		return
	}
	assert.That(s.borrow > 0, "%s released without a shared borrow", s.name)
	s.borrow--
}

// setState is the persisted form of a ComponentSet.
type setState[T any] struct {
	Entities []Entity `json:"entities"`
	Values   []T      `json:"values"`
}

func (s *ComponentSet[T]) encode() ([]byte, error) {
	bz, err := codec.Encode(setState[T]{Entities: s.dense, Values: s.values})
	if err != nil {
		return nil, eris.Wrapf(err, "failed to serialize %s", s.name)
	}
	return bz, nil
}

// decode replaces the contents of the set. The set is left untouched on error. Every entity must
// satisfy alive and appear at most once.
func (s *ComponentSet[T]) decode(bz []byte, alive func(Entity) bool) error {
	assert.That(s.borrow == 0, "cannot restore %s while it is borrowed", s.name)

	state, err := codec.Decode[setState[T]](bz)
	if err != nil {
		return eris.Wrapf(err, "failed to deserialize %s", s.name)
	}
	if len(state.Entities) != len(state.Values) {
		return eris.Errorf("%s has %d entities but %d values", s.name, len(state.Entities), len(state.Values))
	}

	sparse := newSparseSet()
	for i, e := range state.Entities {
		if !alive(e) {
			return eris.Errorf("%s references dead %s", s.name, e)
		}
		if _, dup := sparse.get(e.ID); dup {
			return eris.Errorf("%s lists %s twice", s.name, e)
		}
		sparse.set(e.ID, uint32(i)) //nolint:gosec // bounded by MaxEntities
	}

	s.sparse = sparse
	s.dense = state.Entities
	s.values = state.Values
	if s.dense == nil {
		s.dense = make([]Entity, 0)
	}
	if s.values == nil {
		s.values = make([]T, 0)
	}
	return nil
}
