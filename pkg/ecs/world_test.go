package ecs_test

import (
	"slices"
	"testing"

	"github.com/argus-labs/sparseworld/pkg/ecs"
	"github.com/argus-labs/sparseworld/pkg/event"
	. "github.com/argus-labs/sparseworld/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawn(t *testing.T, w *ecs.World) ecs.Entity {
	t.Helper()
	e, err := w.Spawn()
	require.NoError(t, err)
	return e
}

func TestWorld_RecycledHandleMissesComponents(t *testing.T) {
	t.Parallel()

	w := ecs.NewWorld()
	a := spawn(t, w)
	b := spawn(t, w)
	c := spawn(t, w)
	for _, e := range []ecs.Entity{a, b, c} {
		require.NoError(t, ecs.Insert(w, e, Health{Value: int(e.ID)}))
	}

	require.True(t, w.Despawn(b))
	d := spawn(t, w)
	assert.Equal(t, ecs.Entity{ID: 1, Version: 1}, d)

	require.NoError(t, ecs.Insert(w, d, Health{Value: 99}))
	_, ok := ecs.Get[Health](w, b)
	assert.False(t, ok, "stale handle must not read the recycled slot")
	got, ok := ecs.Get[Health](w, d)
	require.True(t, ok)
	assert.Equal(t, 99, got.Value)
}

func TestWorld_DespawnSweepsComponents(t *testing.T) {
	t.Parallel()

	w := ecs.NewWorld()
	e := spawn(t, w)
	other := spawn(t, w)
	require.NoError(t, ecs.Insert(w, e, Position{X: 1}))
	require.NoError(t, ecs.Insert(w, e, Velocity{X: 2}))
	require.NoError(t, ecs.Insert(w, other, Position{X: 3}))

	require.True(t, w.Despawn(e))
	assert.False(t, w.Despawn(e), "double despawn is a no-op")

	assert.Equal(t, 1, ecs.Storage[Position](w).Len())
	assert.Equal(t, 0, ecs.Storage[Velocity](w).Len())
	assert.Equal(t, []ecs.Entity{other}, ecs.Storage[Position](w).Entities())
	assert.False(t, w.Alive(e))
	assert.Equal(t, 1, w.Len())
}

func TestWorld_InsertOnDeadEntity(t *testing.T) {
	t.Parallel()

	w := ecs.NewWorld()
	e := spawn(t, w)
	w.Despawn(e)

	err := ecs.Insert(w, e, Health{})
	require.ErrorIs(t, err, ecs.ErrEntityNotFound)

	_, ok := ecs.Remove[Health](w, e)
	assert.False(t, ok)
}

func TestWorld_ComponentAccess(t *testing.T) {
	t.Parallel()

	w := ecs.NewWorld()
	e := spawn(t, w)

	assert.False(t, ecs.Has[Health](w, e))
	_, ok := ecs.Get[Health](w, e)
	assert.False(t, ok, "absent type is not an error")
	_, ok = ecs.GetMut[Health](w, e)
	assert.False(t, ok)

	require.NoError(t, ecs.Insert(w, e, Health{Value: 5}))
	assert.True(t, ecs.Has[Health](w, e))

	h, ok := ecs.GetMut[Health](w, e)
	require.True(t, ok)
	h.Value = 6

	removed, ok := ecs.Remove[Health](w, e)
	require.True(t, ok)
	assert.Equal(t, Health{Value: 6}, removed)
	assert.False(t, ecs.Has[Health](w, e))
}

func TestWorld_StorageOfUnknownTypePanics(t *testing.T) {
	t.Parallel()

	w := ecs.NewWorld()
	assert.Panics(t, func() { ecs.Storage[PlayerTag](w) })

	ecs.Register[PlayerTag](w)
	assert.NotPanics(t, func() { ecs.Storage[PlayerTag](w) })
	assert.Same(t, ecs.Register[PlayerTag](w), ecs.Storage[PlayerTag](w))
}

func TestWorld_Entities(t *testing.T) {
	t.Parallel()

	w := ecs.NewWorld()
	var want []ecs.Entity
	for i := range 5 {
		e := spawn(t, w)
		if i%2 == 1 {
			w.Despawn(e)
			continue
		}
		want = append(want, e)
	}

	assert.Equal(t, want, slices.Collect(w.Entities()))
	// The sequence is restartable.
	assert.Equal(t, want, slices.Collect(w.Entities()))
}

func TestWorld_Changes(t *testing.T) {
	t.Parallel()

	bus := event.NewBus[ecs.Change]()
	sub := bus.Subscribe()
	w := ecs.NewWorld(ecs.WithEventBus(bus))
	require.Same(t, bus, w.Events())

	e := spawn(t, w)
	require.NoError(t, ecs.Insert(w, e, Position{}))
	require.NoError(t, ecs.Insert(w, e, Health{}))
	ecs.Remove[Position](w, e)
	w.Despawn(e)

	want := []ecs.Change{
		{Kind: ecs.ChangeSpawned, Entity: e},
		{Kind: ecs.ChangeInserted, Entity: e, Component: "testutils.Position"},
		{Kind: ecs.ChangeInserted, Entity: e, Component: "testutils.Health"},
		{Kind: ecs.ChangeRemoved, Entity: e, Component: "testutils.Position"},
		{Kind: ecs.ChangeRemoved, Entity: e, Component: "testutils.Health"},
		{Kind: ecs.ChangeDespawned, Entity: e},
	}
	assert.Equal(t, want, sub.Read())
	assert.Equal(t, "despawned", ecs.ChangeDespawned.String())
}

func TestWorld_Resources(t *testing.T) {
	t.Parallel()

	w := ecs.NewWorld()
	_, ok := ecs.Resource[Gravity](w)
	assert.False(t, ok)

	ecs.SetResource(w, Gravity{Accel: 9.8})
	g, ok := ecs.Resource[Gravity](w)
	require.True(t, ok)
	g.Accel = 1.6

	g2, _ := ecs.Resource[Gravity](w)
	assert.InDelta(t, 1.6, g2.Accel, 0)

	assert.True(t, ecs.RemoveResource[Gravity](w))
	assert.False(t, ecs.RemoveResource[Gravity](w))
}

func TestEntity_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Entity(3:7)", ecs.Entity{ID: 3, Version: 7}.String())
}
