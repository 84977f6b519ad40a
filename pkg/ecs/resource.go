package ecs

import "reflect"

// resourceTable holds world-global singletons keyed by type. Values are stored behind pointers so
// Resource can hand out stable mutable access.
type resourceTable map[reflect.Type]any

func newResourceTable() resourceTable {
	return make(resourceTable)
}

// SetResource stores value as the world's T resource, replacing any previous one.
func SetResource[T any](w *World, value T) {
	ptr := new(T)
	*ptr = value
	w.resources[reflect.TypeFor[T]()] = ptr
}

// Resource returns a pointer to the world's T resource.
func Resource[T any](w *World) (*T, bool) {
	v, ok := w.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return v.(*T), true //nolint:forcetypeassert // keyed by T
}

// RemoveResource deletes the world's T resource. Returns false if there was none.
func RemoveResource[T any](w *World) bool {
	typ := reflect.TypeFor[T]()
	if _, ok := w.resources[typ]; !ok {
		return false
	}
	delete(w.resources, typ)
	return true
}
