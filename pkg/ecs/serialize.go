package ecs

import (
	"reflect"

	"github.com/argus-labs/sparseworld/pkg/codec"
	"github.com/rotisserie/eris"
)

// Top-level sections of a serialized world. Each maps to an independently encoded buffer; the
// resources and components sections are themselves envelopes keyed by tag.
const (
	sectionEntities   = "entities"
	sectionResources  = "resources"
	sectionComponents = "components"
)

// serializerRegistry binds stable string tags to component and resource types. Tags, not Go type
// names, key the persisted data so snapshots survive renames and rebuilds. Components and
// resources have separate tag namespaces.
type serializerRegistry struct {
	components     tagBindings
	resources      tagBindings
	resourceCodecs map[string]resourceCodec
}

// tagBindings is a one-to-one mapping between tags and types.
type tagBindings struct {
	types map[string]reflect.Type
	tags  map[reflect.Type]string
}

// resourceCodec converts a *T resource to and from bytes without knowing T.
type resourceCodec struct {
	encode func(ptr any) ([]byte, error)
	decode func(bz []byte) (any, error)
}

func newSerializerRegistry() serializerRegistry {
	return serializerRegistry{
		components:     newTagBindings(),
		resources:      newTagBindings(),
		resourceCodecs: make(map[string]resourceCodec),
	}
}

func newTagBindings() tagBindings {
	return tagBindings{
		types: make(map[string]reflect.Type),
		tags:  make(map[reflect.Type]string),
	}
}

// bind records tag <-> typ. Returns false without an error if this exact binding already exists.
func (b *tagBindings) bind(tag string, typ reflect.Type) (bool, error) {
	if tag == "" {
		return false, eris.New("serialization tag must not be empty")
	}
	if bound, ok := b.types[tag]; ok {
		if bound == typ {
			return false, nil
		}
		return false, eris.Wrapf(ErrTagAlreadyRegistered, "tag %q is bound to %s", tag, bound)
	}
	if bound, ok := b.tags[typ]; ok {
		return false, eris.Wrapf(ErrTypeAlreadyRegistered, "%s is registered as %q", typ, bound)
	}

	b.types[tag] = typ
	b.tags[typ] = tag
	return true, nil
}

// RegisterComponent makes T part of the world's serialized state under tag and creates its set.
// Registering the same type under the same tag again is a no-op.
func RegisterComponent[T any](w *World, tag string) error {
	typ := reflect.TypeFor[T]()
	isNew, err := w.serializers.components.bind(tag, typ)
	if err != nil || !isNew {
		return err
	}

	Register[T](w)
	w.logger.Debug().Str("tag", tag).Str("component", typ.String()).Msg("component registered")
	return nil
}

// RegisterResource makes the T resource part of the world's serialized state under tag.
// Registering the same type under the same tag again is a no-op.
func RegisterResource[T any](w *World, tag string) error {
	typ := reflect.TypeFor[T]()
	isNew, err := w.serializers.resources.bind(tag, typ)
	if err != nil || !isNew {
		return err
	}

	w.serializers.resourceCodecs[tag] = resourceCodec{
		encode: func(ptr any) ([]byte, error) {
			return codec.Encode(ptr.(*T)) //nolint:forcetypeassert // keyed by T
		},
		decode: func(bz []byte) (any, error) {
			value, err := codec.Decode[T](bz)
			if err != nil {
				return nil, err
			}
			return &value, nil
		},
	}
	w.logger.Debug().Str("tag", tag).Str("resource", typ.String()).Msg("resource registered")
	return nil
}

// Serialize encodes the entity registry, every registered resource that is present, and every
// registered component set. Unregistered components and resources are not persisted. The output is
// deterministic for a given world state.
func (w *World) Serialize() ([]byte, error) {
	entities, err := codec.Encode(w.entities.state())
	if err != nil {
		return nil, eris.Wrap(err, "failed to serialize entities")
	}

	resources := make(map[string][]byte, len(w.serializers.resourceCodecs))
	for tag, rc := range w.serializers.resourceCodecs {
		ptr, ok := w.resources[w.serializers.resources.types[tag]]
		if !ok {
			continue
		}
		bz, err := rc.encode(ptr)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to serialize resource %s", tag)
		}
		resources[tag] = bz
	}

	components := make(map[string][]byte, len(w.serializers.components.types))
	for tag, typ := range w.serializers.components.types {
		s, ok := w.components.get(typ)
		if !ok {
			continue
		}
		bz, err := s.encode()
		if err != nil {
			return nil, eris.Wrapf(err, "failed to serialize component %s", tag)
		}
		components[tag] = bz
	}

	return codec.EncodeEnvelope(map[string][]byte{
		sectionEntities:   entities,
		sectionResources:  codec.EncodeEnvelope(resources),
		sectionComponents: codec.EncodeEnvelope(components),
	}), nil
}

// Deserialize replaces the world's entities, its registered resources, and all of its components
// with the contents of data. Components that are not registered for serialization are cleared
// since their entities may no longer exist; unregistered resources are kept.
//
// Subscribers to Events see the restore as the despawn of every previously live entity followed by
// the spawn of every restored entity and the insertion of its components.
//
// A malformed envelope or entity section fails the whole call and leaves the world untouched. Tags
// in data that the world doesn't know are skipped. A tag whose payload fails to decode is left
// empty, the rest of the world is still restored, and the failure is reported in a *RestoreError.
func (w *World) Deserialize(data []byte) error {
	sections, err := codec.DecodeEnvelope(data)
	if err != nil {
		return eris.Wrap(err, "failed to decode snapshot")
	}

	entities, ok := sections[sectionEntities]
	if !ok {
		return eris.New("snapshot has no entities section")
	}
	state, err := codec.Decode[registryState](entities)
	if err != nil {
		return eris.Wrap(err, "failed to deserialize entities")
	}
	registry := newEntityRegistry()
	if err := registry.fromState(state); err != nil {
		return eris.Wrap(err, "invalid entities section")
	}

	resources, err := codec.DecodeEnvelope(sections[sectionResources])
	if err != nil {
		return eris.Wrap(err, "failed to decode resources section")
	}
	components, err := codec.DecodeEnvelope(sections[sectionComponents])
	if err != nil {
		return eris.Wrap(err, "failed to decode components section")
	}

	// Everything below only touches individual tags, so commit the registry now.
	w.announceCleared()
	w.entities = registry
	w.components.each(func(s storage) { s.clear() })

	failed := &RestoreError{
		Components: make(map[string]error),
		Resources:  make(map[string]error),
	}

	for tag, typ := range w.serializers.components.types {
		bz, ok := components[tag]
		if !ok {
			continue
		}
		s, _ := w.components.get(typ)
		if err := s.decode(bz, w.entities.valid); err != nil {
			failed.Components[tag] = err
			w.logger.Warn().Err(err).Str("tag", tag).Msg("component failed to restore")
		}
	}

	for tag, rc := range w.serializers.resourceCodecs {
		typ := w.serializers.resources.types[tag]
		delete(w.resources, typ)
		bz, ok := resources[tag]
		if !ok {
			continue
		}
		ptr, err := rc.decode(bz)
		if err != nil {
			failed.Resources[tag] = err
			w.logger.Warn().Err(err).Str("tag", tag).Msg("resource failed to restore")
			continue
		}
		w.resources[typ] = ptr
	}

	for tag := range components {
		if _, ok := w.serializers.components.types[tag]; !ok {
			w.logger.Debug().Str("tag", tag).Msg("skipping unknown component tag")
		}
	}
	for tag := range resources {
		if _, ok := w.serializers.resources.types[tag]; !ok {
			w.logger.Debug().Str("tag", tag).Msg("skipping unknown resource tag")
		}
	}

	w.announceRestored()

	w.logger.Info().Int("entities", registry.len()).Int("failed", len(failed.Components)+len(failed.Resources)).Msg("world restored")
	if !failed.empty() {
		return failed
	}
	return nil
}

// announceCleared publishes the removals and despawns a restore implies for the current world.
func (w *World) announceCleared() {
	w.components.each(func(s storage) {
		for _, e := range s.entities() {
			w.events.Publish(Change{Kind: ChangeRemoved, Entity: e, Component: s.typeName()})
		}
	})
	for e := range w.entities.all() {
		w.events.Publish(Change{Kind: ChangeDespawned, Entity: e})
	}
}

// announceRestored publishes the spawns and insertions for the restored world.
func (w *World) announceRestored() {
	for e := range w.entities.all() {
		w.events.Publish(Change{Kind: ChangeSpawned, Entity: e})
	}
	w.components.each(func(s storage) {
		for _, e := range s.entities() {
			w.events.Publish(Change{Kind: ChangeInserted, Entity: e, Component: s.typeName()})
		}
	})
}
