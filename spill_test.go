package ghostmem

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemSpillPutGetErase(t *testing.T) {
	s := newMemSpill()

	loc, err := s.put(0x1000, []byte("hello"))
	require.NoError(t, err)

	data, err := s.get(loc)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	require.NoError(t, s.erase(loc))
	_, err = s.get(loc)
	assert.ErrorIs(t, err, ErrSpillReadFailure)
}

func TestMemSpillPutCopiesInput(t *testing.T) {
	s := newMemSpill()
	src := []byte("mutate-me")
	loc, err := s.put(0x1000, src)
	require.NoError(t, err)

	src[0] = 'X'
	data, err := s.get(loc)
	require.NoError(t, err)
	assert.Equal(t, byte('m'), data[0])
}

// I7: the file backend's next-append offset is monotone non-decreasing
// and equals the file length.
func TestFileSpillOffsetsAreMonotone(t *testing.T) {
	dir := t.TempDir()
	s, err := openFileSpill(filepath.Join(dir, "spill.dat"))
	require.NoError(t, err)
	defer s.close()

	l1, err := s.put(0x1000, []byte("aaaa"))
	require.NoError(t, err)
	l2, err := s.put(0x2000, []byte("bb"))
	require.NoError(t, err)

	f1 := l1.(fileLocator)
	f2 := l2.(fileLocator)
	assert.Equal(t, int64(0), f1.offset)
	assert.Equal(t, int64(4), f2.offset)

	got1, err := s.get(l1)
	require.NoError(t, err)
	assert.Equal(t, []byte("aaaa"), got1)
	got2, err := s.get(l2)
	require.NoError(t, err)
	assert.Equal(t, []byte("bb"), got2)
}

func TestFileSpillEraseNeverReclaimsSpace(t *testing.T) {
	dir := t.TempDir()
	s, err := openFileSpill(filepath.Join(dir, "spill.dat"))
	require.NoError(t, err)
	defer s.close()

	loc, err := s.put(0x1000, []byte("aaaa"))
	require.NoError(t, err)
	before := s.nextOffset
	require.NoError(t, s.erase(loc))
	assert.Equal(t, before, s.nextOffset)
}

func TestOpenFileSpillExclusiveLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spill.dat")

	first, err := openFileSpill(path)
	require.NoError(t, err)
	defer first.close()

	_, err = openFileSpill(path)
	assert.Error(t, err)
}
