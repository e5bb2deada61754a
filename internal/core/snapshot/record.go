// Package snapshot stores per-timestamp price records under the legacy and
// consolidated layouts.
package snapshot

import (
	"fmt"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/core/protocol"
)

// Layout selects the storage key scheme for a write.
type Layout uint8

const (
	// LayoutLegacy writes one entry per (timestamp, asset) pair
	LayoutLegacy Layout = iota + 1
	// LayoutConsolidated writes one entry per timestamp
	LayoutConsolidated
)

func (l Layout) String() string {
	switch l {
	case LayoutLegacy:
		return "legacy"
	case LayoutConsolidated:
		return "consolidated"
	default:
		return fmt.Sprintf("Layout(%d)", uint8(l))
	}
}

// LayoutFor maps a protocol version to the layout it writes.
func LayoutFor(v protocol.Version) Layout {
	if v >= protocol.VersionConsolidated {
		return LayoutConsolidated
	}
	return LayoutLegacy
}

// Record is the snapshot at one normalized timestamp. Presence is explicit
// through the update mask, so a stored zero is an observation.
type Record struct {
	Timestamp uint64           `codec:"t"`
	Update    feed.PriceUpdate `codec:"u"`
}

// Price returns the price of asset index i.
func (r *Record) Price(i int) (int64, bool) {
	return r.Update.Price(i)
}
