package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Mask   [4]byte `codec:"m"`
	Prices []int64 `codec:"p"`
	Name   string  `codec:"n"`
}

func TestRoundTripKeepsNegativeAndZeroValues(t *testing.T) {
	in := sample{Mask: [4]byte{1, 0, 0, 0x80}, Prices: []int64{0, -5, 1 << 62}, Name: "BTC"}
	data, err := Marshal(in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestUnmarshalGarbage(t *testing.T) {
	var out sample
	assert.Error(t, Unmarshal([]byte{0xc1}, &out))
}
