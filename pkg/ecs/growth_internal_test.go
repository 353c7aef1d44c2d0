package ecs

import (
	"bytes"
	"strconv"
	"testing"
	"unsafe"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainer_GrowFromCapacityOne(t *testing.T) {
	t.Parallel()

	c := newTestContainer(t, Options{InitialCapacity: 1, GrowFactor: 16})

	first, err := CreateComponent[Position](c, c.CreateEntity(), Args{"x": "1", "y": "1"})
	require.NoError(t, err)
	stats := Stats[Position](c)
	assert.Equal(t, 1, stats.Capacity)
	assert.Equal(t, 0, stats.Growths)
	firstOwner := first.Owner()

	_, err = CreateComponent[Position](c, c.CreateEntity(), Args{"x": "2", "y": "2"})
	require.NoError(t, err)

	stats = Stats[Position](c)
	assert.Equal(t, 1, stats.Growths)
	assert.Equal(t, 16, stats.Capacity)
	assert.Equal(t, 2, stats.Len)

	// Lookups after growth see the moved record.
	got, ok := GetComponent[Position](c, firstOwner)
	require.True(t, ok)
	assert.InDelta(t, 1.0, got.X, 0)
}

func TestContainer_RepeatedGrowthReadback(t *testing.T) {
	t.Parallel()

	const reallocations = 6
	c := newTestContainer(t, Options{InitialCapacity: 2, GrowFactor: 2})

	// Doubling an initial capacity of 2 six times fits exactly 2 << 6 records.
	n := 2 << reallocations
	entities := make([]Entity, n)
	for i := range entities {
		entities[i] = c.CreateEntity()
	}
	// Insert in descending order so every insertion shifts the whole tail.
	for i := n - 1; i >= 0; i-- {
		_, err := CreateComponent[Health](c, entities[i], Args{"value": strconv.Itoa(i)})
		require.NoError(t, err)
	}

	stats := Stats[Health](c)
	assert.Equal(t, reallocations, stats.Growths)
	assert.Equal(t, n, stats.Capacity)
	assert.Equal(t, n, stats.Len)

	for i, e := range entities {
		h, ok := GetComponent[Health](c, e)
		require.True(t, ok)
		assert.Equal(t, i, h.Value)
	}
	checkSorted(t, c)
}

func TestContainer_AllocationFallback(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	size := uint64(unsafe.Sizeof(Position{}))
	c := newTestContainer(t, Options{
		InitialCapacity: 4,
		GrowFactor:      4,
		MemoryLimit:     2 * size,
		Logger:          &logger,
	})

	// The initial capacity doesn't fit, a single record does.
	_, err := CreateComponent[Position](c, c.CreateEntity(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, Stats[Position](c).Capacity)
	assert.Contains(t, buf.String(), "retrying with capacity 1")

	// Growing by the factor doesn't fit, one more record does.
	_, err = CreateComponent[Position](c, c.CreateEntity(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, Stats[Position](c).Capacity)
	assert.Contains(t, buf.String(), "retrying with one more element")
	assert.Equal(t, 2*size, c.MemoryInUse())

	// Nothing fits anymore.
	e := c.CreateEntity()
	assert.PanicsWithValue(t, exitCode(1), func() {
		_, _ = CreateComponent[Position](c, e, nil)
	})
	assert.Contains(t, buf.String(), `"level":"fatal"`)
	assert.Contains(t, buf.String(), "cannot resize component container, even by 1 element")
}

func TestContainer_AllocationFatal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	c := newTestContainer(t, Options{MemoryLimit: 1, Logger: &logger})

	e := c.CreateEntity()
	assert.PanicsWithValue(t, exitCode(1), func() {
		_, _ = CreateComponent[Position](c, e, nil)
	})
	assert.Contains(t, buf.String(), "cannot create new component container, even for 1 element")
	assert.False(t, Stats[Position](c).Allocated)
}

func TestContainer_MemoryAcrossBuckets(t *testing.T) {
	t.Parallel()

	c := newTestContainer(t, Options{InitialCapacity: 8})
	e := c.CreateEntity()
	_, err := CreateComponent[Position](c, e, nil)
	require.NoError(t, err)
	_, err = CreateComponent[Health](c, e, nil)
	require.NoError(t, err)

	want := 8*uint64(unsafe.Sizeof(Position{})) + 8*uint64(unsafe.Sizeof(Health{}))
	assert.Equal(t, want, c.MemoryInUse())

	// Deleting records doesn't shrink buffers.
	c.DeleteEntity(e)
	assert.Equal(t, want, c.MemoryInUse())
}

func TestContainer_UnallocatableCapacityFallsBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		opts         Options
		wantCapacity int
		wantLog      string
	}{
		{
			name:         "initial capacity beyond address space",
			opts:         Options{InitialCapacity: 1 << 50},
			wantCapacity: 1,
			wantLog:      "retrying with capacity 1",
		},
		{
			name:         "grow factor beyond address space",
			opts:         Options{InitialCapacity: 1, GrowFactor: 1 << 50},
			wantCapacity: 2,
			wantLog:      "retrying with one more element",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := zerolog.New(&buf)
			tt.opts.Logger = &logger
			c := newTestContainer(t, tt.opts)

			for range tt.wantCapacity {
				_, err := CreateComponent[Position](c, c.CreateEntity(), nil)
				require.NoError(t, err)
			}

			stats := Stats[Position](c)
			assert.Equal(t, tt.wantCapacity, stats.Capacity)
			assert.Equal(t, tt.wantCapacity, stats.Len)
			assert.Contains(t, buf.String(), tt.wantLog)
			assert.Equal(t, uint64(tt.wantCapacity)*uint64(stats.ElemSize), c.MemoryInUse())
		})
	}
}
