// Package history keeps one 256-bit rolling update mask per asset. Bit k of an
// asset's mask is set iff the asset had a price at period latest-k*resolution.
package history

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Capacity is the number of periods a mask can represent.
const Capacity = 256

// MaskBytes is the encoded size of a single mask.
const MaskBytes = 32

var (
	one    = uint256.NewInt(1)
	notOne = new(uint256.Int).Not(one)
)

// Masks holds the masks of every registered asset, indexed like the registry.
type Masks struct {
	masks []uint256.Int
}

// New allocates zeroed masks for n assets.
func New(n int) *Masks {
	return &Masks{masks: make([]uint256.Int, n)}
}

// Decode restores masks from their concatenated big-endian encoding.
func Decode(data []byte) (*Masks, error) {
	if len(data)%MaskBytes != 0 {
		return nil, fmt.Errorf("history: encoded length %d is not a multiple of %d", len(data), MaskBytes)
	}
	m := New(len(data) / MaskBytes)
	for i := range m.masks {
		m.masks[i].SetBytes32(data[i*MaskBytes : (i+1)*MaskBytes])
	}
	return m, nil
}

// Encode returns the concatenated big-endian encoding of every mask.
func (m *Masks) Encode() []byte {
	out := make([]byte, 0, len(m.masks)*MaskBytes)
	for i := range m.masks {
		b := m.masks[i].Bytes32()
		out = append(out, b[:]...)
	}
	return out
}

// Len returns the number of tracked assets.
func (m *Masks) Len() int {
	return len(m.masks)
}

// Grow extends the store to n assets. New assets start with empty history.
func (m *Masks) Grow(n int) {
	for len(m.masks) < n {
		m.masks = append(m.masks, uint256.Int{})
	}
}

// Advance shifts every mask by elapsed periods. Gaps at or beyond Capacity
// clear all masks at once, so the cost is O(assets) for any gap size.
func (m *Masks) Advance(elapsed uint64) {
	if elapsed == 0 {
		return
	}
	if elapsed >= Capacity {
		for i := range m.masks {
			m.masks[i].Clear()
		}
		return
	}
	for i := range m.masks {
		m.masks[i].Lsh(&m.masks[i], uint(elapsed))
	}
}

// Set assigns the newest bit of asset i from explicit presence.
func (m *Masks) Set(i int, present bool) {
	if present {
		m.masks[i].Or(&m.masks[i], one)
	} else {
		m.masks[i].And(&m.masks[i], notOne)
	}
}

// Observe advances by elapsed periods and then records the presence of every
// asset in the newest period. An elapsed value of zero replaces the newest
// period in place.
func (m *Masks) Observe(elapsed uint64, present []bool) {
	m.Advance(elapsed)
	for i := range m.masks {
		m.Set(i, i < len(present) && present[i])
	}
}

// Test reports whether asset i had an update k periods before the latest one.
func (m *Masks) Test(i int, k uint64) bool {
	if i < 0 || i >= len(m.masks) || k >= Capacity {
		return false
	}
	var v uint256.Int
	v.Rsh(&m.masks[i], uint(k))
	return v.Uint64()&1 == 1
}

// Empty reports whether asset i has no recorded updates.
func (m *Masks) Empty(i int) bool {
	return i >= len(m.masks) || m.masks[i].IsZero()
}

// Clone returns an independent copy.
func (m *Masks) Clone() *Masks {
	c := New(len(m.masks))
	copy(c.masks, m.masks)
	return c
}

// Bits returns the raw mask of asset i.
func (m *Masks) Bits(i int) [MaskBytes]byte {
	return m.masks[i].Bytes32()
}
