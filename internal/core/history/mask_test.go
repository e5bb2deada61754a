package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveShiftsByElapsedPeriods(t *testing.T) {
	m := New(2)
	m.Observe(1, []bool{true, true})
	m.Observe(3, []bool{true, false})

	assert.True(t, m.Test(0, 0))
	assert.False(t, m.Test(1, 0))
	assert.False(t, m.Test(0, 1))
	assert.False(t, m.Test(0, 2))
	assert.True(t, m.Test(0, 3))
	assert.True(t, m.Test(1, 3))
}

func TestObserveSamePeriodReplacesInPlace(t *testing.T) {
	m := New(2)
	m.Observe(1, []bool{true, true})
	m.Observe(1, []bool{true, false})
	before := m.Encode()

	m.Observe(0, []bool{true, false})
	assert.Equal(t, before, m.Encode())

	m.Observe(0, []bool{true, true})
	assert.True(t, m.Test(1, 0))
	assert.True(t, m.Test(0, 1))
	assert.False(t, m.Test(0, 2))
}

func TestAdvanceBulkReset(t *testing.T) {
	m := New(3)
	for i := 0; i < 10; i++ {
		m.Observe(1, []bool{true, true, true})
	}
	m.Advance(Capacity)
	for i := 0; i < 3; i++ {
		assert.True(t, m.Empty(i))
	}

	m.Observe(1, []bool{true, true, true})
	// ten years of five minute periods
	m.Observe(10*365*24*12, []bool{false, true, false})
	assert.True(t, m.Empty(0))
	assert.True(t, m.Test(1, 0))
	assert.False(t, m.Test(1, 1))
}

func TestAdvanceDropsOldestBits(t *testing.T) {
	m := New(1)
	m.Observe(1, []bool{true})
	m.Advance(Capacity - 1)
	assert.True(t, m.Test(0, Capacity-1))
	m.Advance(1)
	assert.True(t, m.Empty(0))
}

func TestTestBounds(t *testing.T) {
	m := New(1)
	m.Set(0, true)
	assert.False(t, m.Test(0, Capacity))
	assert.False(t, m.Test(1, 0))
	assert.False(t, m.Test(-1, 0))
}

func TestEncodeDecode(t *testing.T) {
	m := New(2)
	m.Observe(1, []bool{true, false})
	m.Observe(5, []bool{false, true})

	restored, err := Decode(m.Encode())
	require.NoError(t, err)
	assert.Equal(t, m.Bits(0), restored.Bits(0))
	assert.Equal(t, m.Bits(1), restored.Bits(1))
	assert.True(t, restored.Test(0, 5))

	_, err = Decode(make([]byte, 31))
	assert.Error(t, err)
}

func TestGrowAndClone(t *testing.T) {
	m := New(1)
	m.Set(0, true)
	c := m.Clone()
	c.Grow(3)
	c.Set(2, true)

	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 3, c.Len())
	assert.True(t, c.Test(0, 0))
	assert.True(t, c.Empty(1))

	c.Set(0, false)
	assert.True(t, m.Test(0, 0))
}
