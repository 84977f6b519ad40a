package ecs_test

import (
	"testing"

	"github.com/argus-labs/sparseworld/pkg/ecs"
	. "github.com/argus-labs/sparseworld/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorld_Introspect(t *testing.T) {
	t.Parallel()

	w := ecs.NewWorld()
	require.NoError(t, ecs.RegisterComponent[Position](w, "position"))
	require.NoError(t, ecs.RegisterComponent[Health](w, "health"))
	require.NoError(t, ecs.RegisterResource[Gravity](w, "gravity"))
	ecs.Register[PlayerTag](w) // not tagged, not described

	got, err := w.Introspect()
	require.NoError(t, err)

	assert.Len(t, got.Components, 2)
	assert.Len(t, got.Resources, 1)

	position := got.Components["position"]
	require.NotNil(t, position)
	assert.NotContains(t, position, "$schema")
	assert.NotContains(t, position, "type")
	assert.Equal(t, map[string]any{
		"x": map[string]any{"type": "number"},
		"y": map[string]any{"type": "number"},
	}, position["properties"])
	assert.ElementsMatch(t, []any{"x", "y"}, position["required"])

	health := got.Components["health"]["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "integer"}, health["value"])

	gravity := got.Resources["gravity"]["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "number"}, gravity["accel"])
}

func TestWorld_IntrospectEmpty(t *testing.T) {
	t.Parallel()

	got, err := ecs.NewWorld().Introspect()
	require.NoError(t, err)
	assert.Empty(t, got.Components)
	assert.Empty(t, got.Resources)
}
