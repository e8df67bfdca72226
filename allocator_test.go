package ghostmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	x, y int32
}

func TestTypedAllocatorRoundTrip(t *testing.T) {
	m := newTestManager(t, Config{ResidentCap: 3})
	alloc := NewAllocator[point](m)

	h, err := alloc.Allocate(4)
	require.NoError(t, err)
	require.NotNil(t, h)
	require.Equal(t, 4, h.Len())

	for i := 0; i < h.Len(); i++ {
		h.Set(i, point{x: int32(i), y: int32(i * 2)})
	}
	for i := 0; i < h.Len(); i++ {
		got := h.At(i)
		assert.Equal(t, point{x: int32(i), y: int32(i * 2)}, got)
	}

	require.NoError(t, alloc.Deallocate(h))
}

func TestAllocatorEqualComparesManager(t *testing.T) {
	m1 := newTestManager(t, Config{})
	m2 := newTestManager(t, Config{})

	a := NewAllocator[int32](m1)
	b := NewAllocator[int32](m1)
	c := NewAllocator[int32](m2)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestAllocatorAllocateRejectsNonPositiveCount(t *testing.T) {
	m := newTestManager(t, Config{})
	alloc := NewAllocator[int32](m)

	_, err := alloc.Allocate(0)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestAllocatorDeallocateNilIsNoop(t *testing.T) {
	m := newTestManager(t, Config{})
	alloc := NewAllocator[int32](m)
	assert.NoError(t, alloc.Deallocate(nil))
}
