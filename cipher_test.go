package ghostmem

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXorKeystreamIsItsOwnInverse(t *testing.T) {
	key, err := newCipherKey()
	require.NoError(t, err)
	defer key.scrub()

	plain := []byte("TOP_SECRET_PATTERN_12345")
	cipherText, err := xorKeystream(key, 0x1000, plain)
	require.NoError(t, err)
	assert.NotEqual(t, plain, cipherText)

	back, err := xorKeystream(key, 0x1000, cipherText)
	require.NoError(t, err)
	assert.Equal(t, plain, back)
}

func TestXorKeystreamDiffersByPageAddress(t *testing.T) {
	key, err := newCipherKey()
	require.NoError(t, err)
	defer key.scrub()

	plain := bytes.Repeat([]byte{0x42}, 64)
	a, err := xorKeystream(key, 0x1000, plain)
	require.NoError(t, err)
	b, err := xorKeystream(key, 0x2000, plain)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCipherKeyScrubZeroesBytes(t *testing.T) {
	key, err := newCipherKey()
	require.NoError(t, err)
	key.scrub()
	assert.Equal(t, [cipherKeySize]byte{}, key.bytes)

	var nilKey *cipherKey
	assert.NotPanics(t, func() { nilKey.scrub() })
}
