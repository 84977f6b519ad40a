package ecs

import (
	"fmt"
	"iter"
	"math"

	"github.com/rotisserie/eris"
)

// Entity is a generational handle to a slot in the world. ID names the slot and Version counts how
// many times the slot has been recycled, so a handle captured before a despawn never matches the
// entity that reuses its slot. Entities are plain values and compare with ==.
type Entity struct {
	ID      uint16 `json:"id"`
	Version uint16 `json:"version"`
}

func (e Entity) String() string {
	return fmt.Sprintf("Entity(%d:%d)", e.ID, e.Version)
}

// MaxEntities is the maximum number of entities alive at the same time. IDs run from 0 to
// MaxEntities-1. Versions are 16 bits wide and wrap after 65536 despawns of the same slot, after
// which a very old handle to that slot becomes valid again.
const MaxEntities = math.MaxUint16

// freeSlot is stored in the ID field of a slot while it waits in the free queue.
const freeSlot = math.MaxUint16

// entityRegistry owns entity identity. For every live slot i, slots[i].ID == i and
// slots[i].Version is the current generation. Despawned slots keep their bumped version, carry
// freeSlot in their ID, and wait in a FIFO queue so the oldest freed slot is reused first.
type entityRegistry struct {
	slots []Entity // Indexed by entity ID
	free  []uint16 // A queue of free slot indices
}

func newEntityRegistry() entityRegistry {
	return entityRegistry{
		slots: make([]Entity, 0, 64),
		free:  make([]uint16, 0),
	}
}

// spawn returns a recycled slot if one is free, otherwise appends a new slot with version 0.
func (r *entityRegistry) spawn() (Entity, error) {
	if len(r.free) > 0 {
		// Pop from the front of the free queue (FIFO).
		id := r.free[0]
		r.free = r.free[1:]
		r.slots[id].ID = id
		return r.slots[id], nil
	}

	if len(r.slots) >= MaxEntities {
		return Entity{}, ErrEntityLimit
	}
	e := Entity{ID: uint16(len(r.slots)), Version: 0} //nolint:gosec // bounded by MaxEntities
	r.slots = append(r.slots, e)
	return e, nil
}

// despawn bumps the slot's version and queues the slot for reuse. Returns false and does nothing
// if e is not alive, so despawning the same handle twice is harmless.
func (r *entityRegistry) despawn(e Entity) bool {
	if !r.valid(e) {
		return false
	}
	r.slots[e.ID].Version++
	r.slots[e.ID].ID = freeSlot
	r.free = append(r.free, e.ID)
	return true
}

// valid reports whether e refers to a live slot at its current version.
func (r *entityRegistry) valid(e Entity) bool {
	return int(e.ID) < len(r.slots) && r.slots[e.ID] == e
}

// all yields every live entity in ascending ID order. Each call walks the registry afresh.
func (r *entityRegistry) all() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for i, slot := range r.slots {
			if int(slot.ID) != i {
				continue
			}
			if !yield(slot) {
				return
			}
		}
	}
}

func (r *entityRegistry) len() int {
	return len(r.slots) - len(r.free)
}

// registryState is the persisted form of the registry. The ID of every slot is implied by its
// position and by membership in Free.
type registryState struct {
	Versions []uint16 `json:"versions"`
	Free     []uint16 `json:"free"`
}

func (r *entityRegistry) state() registryState {
	versions := make([]uint16, len(r.slots))
	for i, slot := range r.slots {
		versions[i] = slot.Version
	}
	free := make([]uint16, len(r.free))
	copy(free, r.free)
	return registryState{Versions: versions, Free: free}
}

// fromState rebuilds a registry from its persisted form. The receiver is only replaced when the
// state is consistent.
func (r *entityRegistry) fromState(s registryState) error {
	if len(s.Versions) > MaxEntities {
		return eris.Errorf("registry has %d slots, limit is %d", len(s.Versions), MaxEntities)
	}

	slots := make([]Entity, len(s.Versions))
	for i, version := range s.Versions {
		slots[i] = Entity{ID: uint16(i), Version: version} //nolint:gosec // bounded above
	}

	free := make([]uint16, 0, len(s.Free))
	for _, id := range s.Free {
		if int(id) >= len(slots) {
			return eris.Errorf("free slot %d out of range", id)
		}
		if slots[id].ID == freeSlot {
			return eris.Errorf("free slot %d listed twice", id)
		}
		slots[id].ID = freeSlot
		free = append(free, id)
	}

	r.slots = slots
	r.free = free
	return nil
}
