package ghostmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// T2: refcount equals the number of live handles whose span covers the
// page, at every quiescent point.
func TestAllocDirectoryRefcountTracksOverlappingHandles(t *testing.T) {
	ad := newAllocDirectory()

	span := []uintptr{0x1000, 0x2000}
	ad.register(0xA000, 2*PageSize, span)
	assert.Equal(t, 1, ad.refcountOf(0x1000))
	assert.Equal(t, 1, ad.refcountOf(0x2000))

	ad.register(0xB000, PageSize, []uintptr{0x2000})
	assert.Equal(t, 2, ad.refcountOf(0x2000))

	info, ok := ad.unregister(0xA000)
	require.True(t, ok)
	for _, p := range info.spanPages {
		ad.decref(p)
	}
	assert.Equal(t, 0, ad.refcountOf(0x1000))
	assert.Equal(t, 1, ad.refcountOf(0x2000))
}

func TestAllocDirectoryUnregisterUnknownHandle(t *testing.T) {
	ad := newAllocDirectory()
	_, ok := ad.unregister(0xdead)
	assert.False(t, ok)
}

func TestAllocDirectoryDecrefNeverGoesNegative(t *testing.T) {
	ad := newAllocDirectory()
	assert.Equal(t, 0, ad.decref(0x1000))
	assert.Equal(t, 0, ad.refcountOf(0x1000))
}
