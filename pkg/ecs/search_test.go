package ecs_test

import (
	"testing"

	"github.com/argus-labs/sparseworld/pkg/ecs"
	. "github.com/argus-labs/sparseworld/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_Validation(t *testing.T) {
	t.Parallel()

	w := newSerializableWorld(t)

	tests := []struct {
		name    string
		params  ecs.SearchParam
		wantErr bool
	}{
		{name: "empty component list", params: ecs.SearchParam{}, wantErr: true},
		{
			name:    "invalid match type",
			params:  ecs.SearchParam{Find: []string{"position"}, Match: "invalid"},
			wantErr: true,
		},
		{
			name:    "unregistered tag",
			params:  ecs.SearchParam{Find: []string{"sprite"}},
			wantErr: true,
		},
		{
			name:    "duplicate tag",
			params:  ecs.SearchParam{Find: []string{"health", "health"}},
			wantErr: true,
		},
		{
			name:    "invalid where clause syntax",
			params:  ecs.SearchParam{Find: []string{"health"}, Where: "health.Value >"},
			wantErr: true,
		},
		{
			name:   "valid params",
			params: ecs.SearchParam{Find: []string{"position"}, Match: ecs.MatchExact, Where: "position.X > 0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.Search(tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	w := newSerializableWorld(t)
	entities := make([]ecs.Entity, 4)
	for i := range entities {
		entities[i] = spawn(t, w)
		require.NoError(t, ecs.Insert(w, entities[i], Health{Value: (i + 1) * 100}))
	}
	// Only the first two also have a position.
	require.NoError(t, ecs.Insert(w, entities[0], Position{X: 1}))
	require.NoError(t, ecs.Insert(w, entities[1], Position{X: -1}))
	// Untagged components don't affect exact matches.
	require.NoError(t, ecs.Insert(w, entities[2], PlayerTag{Nickname: "p"}))

	tests := []struct {
		name   string
		params ecs.SearchParam
		want   []map[string]any
	}{
		{
			name:   "contains",
			params: ecs.SearchParam{Find: []string{"health"}, Where: "health.Value >= 300"},
			want: []map[string]any{
				{"_id": 2, "_version": 0, "health": Health{Value: 300}},
				{"_id": 3, "_version": 0, "health": Health{Value: 400}},
			},
		},
		{
			name:   "exact excludes entities with more tagged components",
			params: ecs.SearchParam{Find: []string{"health"}, Match: ecs.MatchExact},
			want: []map[string]any{
				{"_id": 2, "_version": 0, "health": Health{Value: 300}},
				{"_id": 3, "_version": 0, "health": Health{Value: 400}},
			},
		},
		{
			name:   "intersection with filter on both",
			params: ecs.SearchParam{Find: []string{"position", "health"}, Where: "position.X > 0 && health.Value == 100"},
			want: []map[string]any{
				{"_id": 0, "_version": 0, "position": Position{X: 1}, "health": Health{Value: 100}},
			},
		},
		{
			name:   "filter on entity id",
			params: ecs.SearchParam{Find: []string{"position"}, Where: "_id == 1"},
			want: []map[string]any{
				{"_id": 1, "_version": 0, "position": Position{X: -1}},
			},
		},
		{
			name:   "no match",
			params: ecs.SearchParam{Find: []string{"health"}, Where: "health.Value > 1000"},
			want:   []map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := w.Search(tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearch_NonBoolFilter(t *testing.T) {
	t.Parallel()

	w := newSerializableWorld(t)
	e := spawn(t, w)
	require.NoError(t, ecs.Insert(w, e, Health{Value: 1}))

	// Field access can't be type-checked at compile time, so this only fails when it runs.
	_, err := w.Search(ecs.SearchParam{Find: []string{"health"}, Where: "health.Value"})
	assert.Error(t, err)
}
