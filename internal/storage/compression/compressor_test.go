package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("price-snapshot-"), 64)
	incompressible := []byte{0x01, 0x9f, 0x33, 0xe0}

	for _, name := range Available() {
		c, err := Get(name)
		require.NoError(t, err)

		for _, data := range [][]byte{compressible, incompressible, {}} {
			frame, err := Frame(c, data)
			require.NoError(t, err)

			got, err := Unframe(frame)
			require.NoError(t, err, name)
			assert.Equal(t, len(data), len(got))
			assert.True(t, bytes.Equal(data, got), name)
		}
	}
}

func TestLZ4ShrinksRepetitiveData(t *testing.T) {
	c, err := Get("lz4")
	require.NoError(t, err)

	data := bytes.Repeat([]byte{0, 0, 0, 0, 0, 0, 0, 42}, 256)
	frame, err := Frame(c, data)
	require.NoError(t, err)
	assert.Less(t, len(frame), len(data))
	assert.Equal(t, lz4ID, frame[0])
}

func TestUnframeRejectsGarbage(t *testing.T) {
	_, err := Unframe(nil)
	assert.ErrorIs(t, err, ErrCorruptFrame)

	_, err = Unframe([]byte{0x7f, 0x01, 0x00})
	assert.ErrorIs(t, err, ErrCorruptFrame)

	_, err = Unframe([]byte{noneID, 0x05, 0x00})
	assert.ErrorIs(t, err, ErrCorruptFrame)
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("zstd")
	assert.Error(t, err)
	assert.False(t, IsAvailable("zstd"))
	assert.True(t, IsAvailable("lz4"))
}
