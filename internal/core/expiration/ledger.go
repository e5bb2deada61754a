// Package expiration tracks how long each asset feed stays paid for.
package expiration

import (
	"fmt"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/core/fixedpoint"
)

// Ledger holds one expiration timestamp per asset index. Values never decrease.
type Ledger struct {
	expirations []uint64
}

// New returns a ledger restored from stored values.
func New(values []uint64) *Ledger {
	return &Ledger{expirations: append([]uint64(nil), values...)}
}

// Len returns the number of allocated slots.
func (l *Ledger) Len() int {
	return len(l.expirations)
}

// Grow allocates slots up to n assets, each starting at initial. A zero
// initial value still allocates the slot.
func (l *Ledger) Grow(n int, initial uint64) {
	for len(l.expirations) < n {
		l.expirations = append(l.expirations, initial)
	}
}

// Get returns the expiration of asset index i.
func (l *Ledger) Get(i int) (uint64, bool) {
	if i < 0 || i >= len(l.expirations) {
		return 0, false
	}
	return l.expirations[i], true
}

// Values returns a copy of every slot.
func (l *Ledger) Values() []uint64 {
	return append([]uint64(nil), l.expirations...)
}

// Clone returns an independent copy.
func (l *Ledger) Clone() *Ledger {
	return New(l.expirations)
}

// Raise moves the expiration of asset i forward to at least until.
func (l *Ledger) Raise(i int, until uint64) {
	if i >= 0 && i < len(l.expirations) && l.expirations[i] < until {
		l.expirations[i] = until
	}
}

// Add pushes the expiration of asset i back by seconds. A sum that does not
// fit in a uint64 leaves the slot unchanged and returns ErrOverflow.
func (l *Ledger) Add(i int, seconds uint64) error {
	if i < 0 || i >= len(l.expirations) {
		return nil
	}
	sum, err := fixedpoint.AddU64(l.expirations[i], seconds)
	if err != nil {
		return fmt.Errorf("%w: expiration %d plus %d", err, l.expirations[i], seconds)
	}
	l.expirations[i] = sum
	return nil
}

// Extension converts a burned amount into seconds of expiration.
func Extension(amount int64, fee feed.FeeConfig) (uint64, error) {
	if !fee.Configured() {
		return 0, feed.ErrFeeNotConfigured
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount %d must be positive", feed.ErrInvalidAmount, amount)
	}
	scaled, err := fixedpoint.MulU64(uint64(amount), fee.ExtensionUnit)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %d overflows", feed.ErrInvalidAmount, amount)
	}
	extension := scaled / fee.Rate
	if extension == 0 {
		return 0, fmt.Errorf("%w: amount %d buys no time at rate %d", feed.ErrInvalidAmount, amount, fee.Rate)
	}
	return extension, nil
}

// Plan computes the expiration asset i would have after burning amount,
// without changing the ledger. Expired slots are extended from now.
func (l *Ledger) Plan(i int, amount int64, now uint64, fee feed.FeeConfig) (uint64, error) {
	current, ok := l.Get(i)
	if !ok {
		return 0, fmt.Errorf("%w: no expiration slot for asset %d", feed.ErrAssetMissing, i)
	}
	extension, err := Extension(amount, fee)
	if err != nil {
		return 0, err
	}
	if current < now {
		current = now
	}
	next, err := fixedpoint.AddU64(current, extension)
	if err != nil {
		return 0, fmt.Errorf("%w: expiration overflows", feed.ErrInvalidAmount)
	}
	return next, nil
}
