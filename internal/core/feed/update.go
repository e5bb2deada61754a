package feed

import (
	"fmt"
	"math/bits"
	"sort"
)

// MaskSize is the byte length of an update change mask.
const MaskSize = MaxAssets / 8

// PriceUpdate is one publisher submission. Bit i of Mask marks asset i as
// changed; Prices holds one price per set bit, in ascending asset order.
// Presence is carried by the mask alone, so a zero price is a valid update.
type PriceUpdate struct {
	Mask   [MaskSize]byte `codec:"m" json:"mask"`
	Prices []int64        `codec:"p" json:"prices"`
}

// Entry pairs an asset index with its price.
type Entry struct {
	Index int
	Price int64
}

// NewPriceUpdate builds an update from entries in any order. Indices must be
// unique and below MaxAssets.
func NewPriceUpdate(entries ...Entry) (PriceUpdate, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	var u PriceUpdate
	u.Prices = make([]int64, 0, len(sorted))
	for _, e := range sorted {
		if e.Index < 0 || e.Index >= MaxAssets {
			return PriceUpdate{}, fmt.Errorf("%w: asset index %d out of range", ErrMalformedUpdate, e.Index)
		}
		if u.Changed(e.Index) {
			return PriceUpdate{}, fmt.Errorf("%w: duplicate asset index %d", ErrMalformedUpdate, e.Index)
		}
		u.Mask[e.Index/8] |= 1 << (e.Index % 8)
		u.Prices = append(u.Prices, e.Price)
	}
	return u, nil
}

// FullUpdate marks every asset in prices as changed.
func FullUpdate(prices ...int64) PriceUpdate {
	var u PriceUpdate
	for i := range prices {
		u.Mask[i/8] |= 1 << (i % 8)
	}
	u.Prices = append([]int64(nil), prices...)
	return u
}

// Changed reports whether asset index i is marked in the mask.
func (u PriceUpdate) Changed(i int) bool {
	if i < 0 || i >= MaxAssets {
		return false
	}
	return u.Mask[i/8]&(1<<(i%8)) != 0
}

// Count returns the number of set mask bits.
func (u PriceUpdate) Count() int {
	n := 0
	for _, b := range u.Mask {
		n += bits.OnesCount8(b)
	}
	return n
}

// Empty reports an update that changes nothing.
func (u PriceUpdate) Empty() bool {
	return len(u.Prices) == 0 && u.Count() == 0
}

// Validate checks the update against a registry of assetCount assets.
func (u PriceUpdate) Validate(assetCount int) error {
	if n := u.Count(); n != len(u.Prices) {
		return fmt.Errorf("%w: %d changed assets but %d prices", ErrMalformedUpdate, n, len(u.Prices))
	}
	for i := assetCount; i < MaxAssets; i++ {
		if u.Changed(i) {
			return fmt.Errorf("%w: asset index %d is not registered", ErrMalformedUpdate, i)
		}
	}
	return nil
}

// Price returns the price for asset index i and whether it is present.
// The update must have passed Validate.
func (u PriceUpdate) Price(i int) (int64, bool) {
	if !u.Changed(i) {
		return 0, false
	}
	pos := 0
	for b := 0; b < i/8; b++ {
		pos += bits.OnesCount8(u.Mask[b])
	}
	pos += bits.OnesCount8(u.Mask[i/8] & (1<<(i%8) - 1))
	if pos >= len(u.Prices) {
		return 0, false
	}
	return u.Prices[pos], true
}

// Expand returns dense per-asset prices and presence for assetCount assets.
func (u PriceUpdate) Expand(assetCount int) ([]int64, []bool) {
	prices := make([]int64, assetCount)
	present := make([]bool, assetCount)
	pos := 0
	for i := 0; i < assetCount && pos < len(u.Prices); i++ {
		if u.Changed(i) {
			prices[i] = u.Prices[pos]
			present[i] = true
			pos++
		}
	}
	return prices, present
}
