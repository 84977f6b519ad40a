package ecs

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrEntityNotFound is returned when operating on an entity handle that is not alive, either
	// because it was never spawned or because its slot has since been despawned or recycled.
	ErrEntityNotFound = eris.New("entity does not exist")

	// ErrEntityLimit is returned by Spawn once MaxEntities entities are alive at the same time.
	ErrEntityLimit = eris.New("max number of entities exceeded")

	// ErrTagAlreadyRegistered is returned when a serialization tag is already bound to a type.
	ErrTagAlreadyRegistered = eris.New("serialization tag already registered")

	// ErrTagNotRegistered is returned when looking up a serialization tag that is not registered.
	ErrTagNotRegistered = eris.New("serialization tag not registered")

	// ErrTypeAlreadyRegistered is returned when a type is registered under a second tag.
	ErrTypeAlreadyRegistered = eris.New("type already registered under another tag")
)

// RestoreError is returned by World.Deserialize when some component or resource tags could not
// be decoded. Everything else in the snapshot was restored; the failed tags are left empty.
// Components and resources have separate tag namespaces, so their failures are kept apart.
type RestoreError struct {
	Components map[string]error
	Resources  map[string]error
}

func (e *RestoreError) Error() string {
	var sb strings.Builder
	sb.WriteString("failed to restore tags: ")
	n := 0
	write := func(kind string, failed map[string]error) {
		tags := make([]string, 0, len(failed))
		for tag := range failed {
			tags = append(tags, tag)
		}
		slices.Sort(tags)
		for _, tag := range tags {
			if n > 0 {
				sb.WriteString("; ")
			}
			n++
			sb.WriteString(kind)
			sb.WriteString(" ")
			sb.WriteString(tag)
			sb.WriteString(": ")
			sb.WriteString(failed[tag].Error())
		}
	}
	write("component", e.Components)
	write("resource", e.Resources)
	return sb.String()
}

// ComponentFailed reports whether the component tag failed to restore.
func (e *RestoreError) ComponentFailed(tag string) bool {
	_, ok := e.Components[tag]
	return ok
}

// ResourceFailed reports whether the resource tag failed to restore.
func (e *RestoreError) ResourceFailed(tag string) bool {
	_, ok := e.Resources[tag]
	return ok
}

func (e *RestoreError) empty() bool {
	return len(e.Components) == 0 && len(e.Resources) == 0
}
