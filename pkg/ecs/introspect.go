package ecs

import (
	"reflect"

	"github.com/argus-labs/sparseworld/pkg/codec"
	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
)

// TypeSchemas maps serialization tags to the JSON Schema of the bound type.
type TypeSchemas map[string]map[string]any

// Introspection describes every type registered for serialization.
type Introspection struct {
	Components TypeSchemas `json:"components"`
	Resources  TypeSchemas `json:"resources"`
}

// Introspect returns the JSON Schemas of the tagged component and resource types. Intended for
// dev tooling that needs to read or author snapshots.
func (w *World) Introspect() (Introspection, error) {
	components, err := reflectSchemas(w.serializers.components)
	if err != nil {
		return Introspection{}, eris.Wrap(err, "failed to describe components")
	}
	resources, err := reflectSchemas(w.serializers.resources)
	if err != nil {
		return Introspection{}, eris.Wrap(err, "failed to describe resources")
	}
	return Introspection{Components: components, Resources: resources}, nil
}

func reflectSchemas(bindings tagBindings) (TypeSchemas, error) {
	schemas := make(TypeSchemas, len(bindings.types))
	for tag, typ := range bindings.types {
		reflector := &jsonschema.Reflector{
			Anonymous: true, // Don't add $id based on package path
			// Inline the struct fields directly. Only valid for struct types.
			ExpandedStruct: typ.Kind() == reflect.Struct,
		}
		schema, err := schemaToMap(reflector.ReflectFromType(typ))
		if err != nil {
			return nil, eris.Wrapf(err, "tag %s", tag)
		}
		schemas[tag] = schema
	}
	return schemas, nil
}

// schemaToMap converts a schema to a plain map, dropping the fields every struct schema shares.
func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	bz, err := codec.Encode(schema)
	if err != nil {
		return nil, err
	}
	result, err := codec.Decode[map[string]any](bz)
	if err != nil {
		return nil, err
	}
	delete(result, "$schema")
	if isStruct(schema) {
		delete(result, "type")
		delete(result, "additionalProperties")
	}
	return result, nil
}

func isStruct(schema *jsonschema.Schema) bool {
	return schema.Type == "object" && schema.Properties != nil
}
