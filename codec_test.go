package ghostmem

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnappyCodecRoundTrip(t *testing.T) {
	c := snappyCodec{}
	page := bytes.Repeat([]byte{0xAA}, PageSize)

	compressed, err := c.compress(page)
	require.NoError(t, err)
	assert.Less(t, len(compressed), PageSize)

	out, err := c.decompress(compressed, PageSize)
	require.NoError(t, err)
	assert.Equal(t, page, out)
}

func TestLZ4CodecRoundTripCompressible(t *testing.T) {
	c := lz4Codec{}
	page := bytes.Repeat([]byte{0x01}, PageSize)

	compressed, err := c.compress(page)
	require.NoError(t, err)

	out, err := c.decompress(compressed, PageSize)
	require.NoError(t, err)
	assert.Equal(t, page, out)
}

func TestLZ4CodecRoundTripIncompressible(t *testing.T) {
	c := lz4Codec{}
	page := make([]byte, PageSize)
	for i := range page {
		page[i] = byte(i * 131)
	}

	compressed, err := c.compress(page)
	require.NoError(t, err)

	out, err := c.decompress(compressed, PageSize)
	require.NoError(t, err)
	assert.Equal(t, page, out)
}

func TestCodecForSelectsAlgorithm(t *testing.T) {
	_, ok := codecFor(CompSnappy).(snappyCodec)
	assert.True(t, ok)
	_, ok = codecFor(CompLZ4).(lz4Codec)
	assert.True(t, ok)
}
