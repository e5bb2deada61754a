package cost

import (
	"math"
	"testing"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		c       Complexity
		periods uint32
		want    uint64
	}{
		{c: Price, periods: 0, want: 10_000_000},
		{c: Price, periods: 1, want: 10_000_000},
		{c: TWAP, periods: 2, want: 18_000_000},
		{c: CrossTWAP, periods: 20, want: 144_000_000},
		{c: CrossPrice, periods: 1, want: 20_000_000},
	}
	for _, tt := range tests {
		got, err := DefaultTable.Estimate(tt.c, tt.periods)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s over %d", tt.c, tt.periods)
	}
}

func TestEstimateEdgeCases(t *testing.T) {
	_, err := DefaultTable.Estimate(PeriodModifier, 1)
	assert.Error(t, err)

	free := Table{0, 0, 5, 0, 0}
	v, err := free.Estimate(TWAP, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v)

	huge := Table{math.MaxUint64, math.MaxUint64, 0, 0, 0}
	_, err = huge.Estimate(Price, 3)
	assert.ErrorIs(t, err, feed.ErrOverflow)
}

func TestParseComplexity(t *testing.T) {
	c, err := ParseComplexity("XTWAP")
	require.NoError(t, err)
	assert.Equal(t, CrossTWAP, c)

	_, err = ParseComplexity("nope")
	assert.Error(t, err)
}
