package ghostmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageTableEnsureIsIdempotent(t *testing.T) {
	pt := newPageTable()
	s1 := pt.ensure(0x1000)
	s2 := pt.ensure(0x1000)
	assert.Same(t, s1, s2)
	assert.Equal(t, stateReservedOnly, s1.state)
}

func TestPageTableTouchFrontOrdersLRU(t *testing.T) {
	pt := newPageTable()
	a := pt.ensure(0x1000)
	b := pt.ensure(0x2000)
	pt.touchFront(a)
	pt.touchFront(b)

	back, ok := pt.back()
	require.True(t, ok)
	assert.Equal(t, a.addr, back.addr)

	pt.touchFront(a)
	back, ok = pt.back()
	require.True(t, ok)
	assert.Equal(t, b.addr, back.addr)
}

func TestPageTableSecondBackSkipsTail(t *testing.T) {
	pt := newPageTable()
	a := pt.ensure(0x1000)
	b := pt.ensure(0x2000)
	c := pt.ensure(0x3000)
	pt.touchFront(a) // tail
	pt.touchFront(b)
	pt.touchFront(c) // front

	second, ok := pt.secondBack()
	require.True(t, ok)
	assert.Equal(t, b.addr, second.addr)
}

func TestPageTableRemoveDropsFromLRUAndMap(t *testing.T) {
	pt := newPageTable()
	a := pt.ensure(0x1000)
	pt.touchFront(a)
	require.Equal(t, 1, pt.len())

	pt.remove(0x1000)
	assert.Equal(t, 0, pt.len())
	_, ok := pt.get(0x1000)
	assert.False(t, ok)
}

func TestPageTableSecondBackWithSingleEntry(t *testing.T) {
	pt := newPageTable()
	a := pt.ensure(0x1000)
	pt.touchFront(a)

	_, ok := pt.secondBack()
	assert.False(t, ok)
}
