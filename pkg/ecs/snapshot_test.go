package ecs_test

import (
	"testing"

	"github.com/argus-labs/component-container/pkg/ecs"
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContainer(t *testing.T) *ecs.Container {
	t.Helper()

	c, err := ecs.NewContainer(ecs.Options{InitialCapacity: 4})
	require.NoError(t, err)
	return c
}

func TestSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	src := newContainer(t)
	var entities []ecs.Entity
	for range 6 {
		entities = append(entities, src.CreateEntity())
	}
	for i, e := range entities {
		_, err := ecs.CreateComponent[ecs.Position](src, e, ecs.Args{"x": "1", "y": "2"})
		require.NoError(t, err)
		if i%2 == 0 {
			_, err = ecs.CreateComponent[ecs.Health](src, e, ecs.Args{"value": "7"})
			require.NoError(t, err)
		}
	}
	src.DeleteEntity(entities[1])
	ecs.DeleteComponent[ecs.Health](src, entities[4])
	h, ok := ecs.GetComponent[ecs.Position](src, entities[3])
	require.True(t, ok)
	handle := h.Handle()

	data, err := src.Snapshot()
	require.NoError(t, err)

	dst := newContainer(t)
	require.NoError(t, dst.Restore(data))

	for i, e := range entities {
		assert.Equal(t, src.EntityExist(e), dst.EntityExist(e), "entity %d", e)
		assert.Equal(t, ecs.ComponentExist[ecs.Health](src, e), ecs.ComponentExist[ecs.Health](dst, e), "entity %d", e)
		if i == 1 {
			continue
		}
		want, ok := ecs.GetComponent[ecs.Position](src, e)
		require.True(t, ok)
		got, ok := ecs.GetComponent[ecs.Position](dst, e)
		require.True(t, ok)
		assert.Equal(t, *want, *got)
	}
	assert.Equal(t, ecs.Stats[ecs.Position](src).Len, ecs.Stats[ecs.Position](dst).Len)

	// Handles survive the round trip.
	got, ok := ecs.GetByHandle[ecs.Position](dst, handle)
	require.True(t, ok)
	assert.Equal(t, entities[3], got.Owner())

	// Ids and handles continue where the source left off.
	assert.Equal(t, src.CreateEntity(), dst.CreateEntity())
	a, err := ecs.CreateComponent[ecs.Health](src, entities[5], nil)
	require.NoError(t, err)
	b, err := ecs.CreateComponent[ecs.Health](dst, entities[5], nil)
	require.NoError(t, err)
	assert.Equal(t, a.Handle(), b.Handle())

	// Membership is rebuilt, so deleting a restored entity clears all of its components.
	dst.DeleteEntity(entities[0])
	assert.False(t, ecs.ComponentExist[ecs.Position](dst, entities[0]))
	assert.False(t, ecs.ComponentExist[ecs.Health](dst, entities[0]))
}

func TestRestore_Rejects(t *testing.T) {
	t.Parallel()

	ecs.Register[ecs.Position]()
	record := func(owner ecs.Entity, handle ecs.Handle) map[string]any {
		return map[string]any{"owner": owner, "handle": handle, "data": map[string]any{"X": 1, "Y": 2}}
	}

	tests := []struct {
		name    string
		snap    map[string]any
		wantErr error
	}{
		{
			name:    "live null entity",
			snap:    map[string]any{"entities": []bool{true, true}, "nextHandle": 1},
			wantErr: ecs.ErrInvalidSnapshot,
		},
		{
			name:    "null next handle",
			snap:    map[string]any{"entities": []bool{false}, "nextHandle": 0},
			wantErr: ecs.ErrInvalidSnapshot,
		},
		{
			name: "unknown component",
			snap: map[string]any{
				"entities":   []bool{false, true},
				"nextHandle": 2,
				"buckets":    []any{map[string]any{"name": "nope", "records": []any{record(1, 1)}}},
			},
			wantErr: ecs.ErrUnknownComponent,
		},
		{
			name: "dead owner",
			snap: map[string]any{
				"entities":   []bool{false, false},
				"nextHandle": 2,
				"buckets":    []any{map[string]any{"name": "position", "records": []any{record(1, 1)}}},
			},
			wantErr: ecs.ErrInvalidSnapshot,
		},
		{
			name: "unsorted owners",
			snap: map[string]any{
				"entities":   []bool{false, true, true},
				"nextHandle": 3,
				"buckets":    []any{map[string]any{"name": "position", "records": []any{record(2, 1), record(1, 2)}}},
			},
			wantErr: ecs.ErrInvalidSnapshot,
		},
		{
			name: "duplicate owner",
			snap: map[string]any{
				"entities":   []bool{false, true},
				"nextHandle": 3,
				"buckets":    []any{map[string]any{"name": "position", "records": []any{record(1, 1), record(1, 2)}}},
			},
			wantErr: ecs.ErrInvalidSnapshot,
		},
		{
			name: "handle out of range",
			snap: map[string]any{
				"entities":   []bool{false, true},
				"nextHandle": 2,
				"buckets":    []any{map[string]any{"name": "position", "records": []any{record(1, 5)}}},
			},
			wantErr: ecs.ErrInvalidSnapshot,
		},
		{
			name: "duplicate bucket",
			snap: map[string]any{
				"entities":   []bool{false, true, true},
				"nextHandle": 3,
				"buckets": []any{
					map[string]any{"name": "position", "records": []any{record(1, 1)}},
					map[string]any{"name": "position", "records": []any{record(2, 2)}},
				},
			},
			wantErr: ecs.ErrInvalidSnapshot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := json.Marshal(tt.snap)
			require.NoError(t, err)

			c := newContainer(t)
			err = c.Restore(data)
			require.Error(t, err)
			assert.True(t, eris.Is(err, tt.wantErr), "got %v", err)

			// A rejected snapshot leaves the container untouched.
			assert.Equal(t, ecs.Entity(1), c.CreateEntity())
			assert.Equal(t, uint64(0), c.MemoryInUse())
		})
	}
}

func TestRestore_RequiresFreshContainer(t *testing.T) {
	t.Parallel()

	src := newContainer(t)
	data, err := src.Snapshot()
	require.NoError(t, err)

	dst := newContainer(t)
	dst.CreateEntity()
	err = dst.Restore(data)
	assert.True(t, eris.Is(err, ecs.ErrContainerNotEmpty), "got %v", err)

	require.Error(t, newContainer(t).Restore([]byte("not json")))
}

func TestRestore_MemoryLimit(t *testing.T) {
	t.Parallel()

	src := newContainer(t)
	for range 3 {
		_, err := ecs.CreateComponent[ecs.Position](src, src.CreateEntity(), ecs.Args{"x": "1", "y": "2"})
		require.NoError(t, err)
	}
	data, err := src.Snapshot()
	require.NoError(t, err)

	dst, err := ecs.NewContainer(ecs.Options{InitialCapacity: 4, MemoryLimit: 1})
	require.NoError(t, err)
	err = dst.Restore(data)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ecs.ErrMemoryLimitExceeded), "got %v", err)
	assert.Equal(t, uint64(0), dst.MemoryInUse())
	assert.False(t, dst.EntityExist(1), "a rejected snapshot leaves the container untouched")
}
