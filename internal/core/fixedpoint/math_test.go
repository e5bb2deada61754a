package fixedpoint

import (
	"math"
	"testing"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPow10(t *testing.T) {
	v, err := Pow10(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = Pow10(feed.MaxDecimals)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000_000_000_000), v)

	_, err = Pow10(feed.MaxDecimals + 1)
	assert.ErrorIs(t, err, feed.ErrOverflow)
}

func TestCrossPrice(t *testing.T) {
	tests := []struct {
		name        string
		base, quote int64
		decimals    uint32
		want        int64
		wantErr     error
	}{
		{name: "simple", base: 10, quote: 20, decimals: 2, want: 50},
		{name: "floors", base: 10, quote: 3, decimals: 0, want: 3},
		{name: "negative floors down", base: -10, quote: 3, decimals: 0, want: -4},
		{name: "negative quote floors down", base: 10, quote: -3, decimals: 0, want: -4},
		{name: "both negative", base: -10, quote: -3, decimals: 0, want: 3},
		{name: "equal prices give unit", base: 123456, quote: 123456, decimals: 18, want: 1_000_000_000_000_000_000},
		{name: "wide intermediate", base: math.MaxInt64 / 2, quote: math.MaxInt64, decimals: 18, want: 499_999_999_999_999_999},
		{name: "zero base", base: 0, quote: 7, decimals: 14, want: 0},
		{name: "zero quote", base: 7, quote: 0, decimals: 14, wantErr: feed.ErrDivisionByZero},
		{name: "result overflow", base: math.MaxInt64, quote: 1, decimals: 1, wantErr: feed.ErrOverflow},
		{name: "scale overflow", base: 1, quote: 1, decimals: 19, wantErr: feed.ErrOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CrossPrice(tt.base, tt.quote, tt.decimals)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMean(t *testing.T) {
	v, err := Mean([]int64{10, 20, 31})
	require.NoError(t, err)
	assert.Equal(t, int64(20), v)

	v, err = Mean([]int64{math.MaxInt64, math.MaxInt64})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), v)

	v, err = Mean([]int64{-1, -2})
	require.NoError(t, err)
	assert.Equal(t, int64(-2), v)

	_, err = Mean(nil)
	assert.Error(t, err)
}

func TestUnsignedChecks(t *testing.T) {
	v, err := MulU64(1<<32, 1<<31)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<63), v)

	_, err = MulU64(1<<32, 1<<32)
	assert.ErrorIs(t, err, feed.ErrOverflow)

	_, err = AddU64(math.MaxUint64, 1)
	assert.ErrorIs(t, err, feed.ErrOverflow)

	v, err = AddU64(2, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v)
}
