package ecs

import (
	"math"

	"github.com/argus-labs/sparseworld/pkg/assert"
)

// sparseSet maps an entity ID to an index into a dense array. Absent keys hold sparseTombstone.
type sparseSet []uint32

const sparseCapacity = 128
const sparseTombstone = math.MaxUint32

// newSparseSet creates a new sparse set.
func newSparseSet() sparseSet {
	s := make(sparseSet, sparseCapacity)
	for i := range sparseCapacity {
		s[i] = sparseTombstone
	}
	return s
}

// get returns the dense index for a key and whether it exists.
func (s *sparseSet) get(key uint16) (uint32, bool) {
	if int(key) >= len(*s) {
		return 0, false
	}

	value := (*s)[key]
	if value == sparseTombstone {
		return 0, false
	}

	return value, true
}

// set stores a dense index for a key, growing the backing slice if needed.
func (s *sparseSet) set(key uint16, value uint32) {
	assert.That(value != sparseTombstone, "dense index %d collides with the tombstone", value)

	if int(key) >= len(*s) {
		// Grow by doubling or to key+1, whichever is larger, and fill the gap with tombstones.
		oldLen := len(*s)
		newLen := max(oldLen*2, int(key)+1)

		newSlice := make(sparseSet, newLen)
		copy(newSlice, *s)
		for i := oldLen; i < newLen; i++ {
			newSlice[i] = sparseTombstone
		}
		*s = newSlice
	}

	(*s)[key] = value
}

// remove sets a key's value to tombstone. Returns true if the key existed.
func (s *sparseSet) remove(key uint16) bool {
	if int(key) >= len(*s) {
		return false
	}

	if (*s)[key] == sparseTombstone {
		return false
	}

	(*s)[key] = sparseTombstone
	return true
}

// reset marks every key absent without shrinking.
func (s *sparseSet) reset() {
	for i := range *s {
		(*s)[i] = sparseTombstone
	}
}
