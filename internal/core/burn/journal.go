// Package burn records fee token burns for nodes that settle fees off-chain.
package burn

import (
	"context"
	"fmt"
	"sync"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/core/keylet"
	"github.com/LeJamon/goOracled/internal/core/timestamp"
	"github.com/LeJamon/goOracled/internal/storage/database"
	"github.com/LeJamon/goOracled/internal/storage/encoding"
)

// Entry is one recorded burn.
type Entry struct {
	Seq       uint64 `codec:"s" json:"seq"`
	Timestamp uint64 `codec:"t" json:"timestamp"`
	Payer     string `codec:"p" json:"payer"`
	Token     string `codec:"k" json:"token"`
	Amount    int64  `codec:"a" json:"amount"`
}

// Journal is an append-only burn log. Every entry is durable before Burn returns.
type Journal struct {
	mu    sync.Mutex
	db    database.DB
	clock timestamp.Clock
	token string
	next  uint64
}

// NewJournal opens the journal stored in db.
func NewJournal(ctx context.Context, db database.DB, clock timestamp.Clock, token string) (*Journal, error) {
	j := &Journal{db: db, clock: clock, token: token}
	entries, err := j.Entries(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Seq >= j.next {
			j.next = e.Seq + 1
		}
	}
	return j, nil
}

// Burn records amount as destroyed on behalf of payer.
func (j *Journal) Burn(ctx context.Context, payer string, amount int64) error {
	if payer == "" {
		return fmt.Errorf("%w: payer is required", feed.ErrUnauthorized)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: burn of %d", feed.ErrInvalidAmount, amount)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	e := Entry{
		Seq:       j.next,
		Timestamp: j.clock.Now(),
		Payer:     payer,
		Token:     j.token,
		Amount:    amount,
	}
	data, err := encoding.Marshal(e)
	if err != nil {
		return err
	}
	if err := j.db.Write(ctx, keylet.Burn(e.Timestamp, e.Seq), data); err != nil {
		return fmt.Errorf("burn journal: %w", err)
	}
	j.next++
	return nil
}

// Entries returns every recorded burn in time order.
func (j *Journal) Entries(ctx context.Context) ([]Entry, error) {
	start, end := keylet.BurnRange()
	it, err := j.db.Iterator(ctx, start, end)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var entries []Entry
	for it.Next() {
		var e Entry
		if err := encoding.Unmarshal(it.Value(), &e); err != nil {
			return nil, fmt.Errorf("burn journal entry %x: %w", it.Key(), err)
		}
		entries = append(entries, e)
	}
	return entries, it.Error()
}

// Total returns the amount burned by payer.
func (j *Journal) Total(ctx context.Context, payer string) (int64, error) {
	entries, err := j.Entries(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		if e.Payer == payer {
			total += e.Amount
		}
	}
	return total, nil
}

