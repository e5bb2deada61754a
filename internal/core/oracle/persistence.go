package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goOracled/internal/core/cost"
	"github.com/LeJamon/goOracled/internal/core/expiration"
	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/core/history"
	"github.com/LeJamon/goOracled/internal/core/keylet"
	"github.com/LeJamon/goOracled/internal/core/protocol"
	"github.com/LeJamon/goOracled/internal/core/registry"
	"github.com/LeJamon/goOracled/internal/storage/database"
	"github.com/LeJamon/goOracled/internal/storage/encoding"
)

// state is everything besides snapshots that an ingestion or an administrative
// operation may change. Writers build a modified clone, commit it, then swap it in.
type state struct {
	settings    feed.Settings
	registry    *registry.Registry
	masks       *history.Masks
	last        uint64
	marker      protocol.Marker
	expirations *expiration.Ledger
	fee         feed.FeeConfig
	costs       cost.Table
}

func (s *state) clone() *state {
	return &state{
		settings:    s.settings,
		registry:    s.registry.Clone(),
		masks:       s.masks.Clone(),
		last:        s.last,
		marker:      s.marker,
		expirations: s.expirations.Clone(),
		fee:         s.fee,
		costs:       s.costs,
	}
}

// stage returns the operations persisting every part of s.
func (s *state) stage() ([]database.BatchOperation, error) {
	values := []struct {
		key []byte
		v   interface{}
	}{
		{keylet.Settings(), s.settings},
		{keylet.Assets(), s.registry.All()},
		{keylet.Last(), s.last},
		{keylet.Protocol(), s.marker},
		{keylet.Expiration(), s.expirations.Values()},
		{keylet.Fee(), s.fee},
		{keylet.Costs(), s.costs[:]},
	}

	ops := make([]database.BatchOperation, 0, len(values)+1)
	for _, kv := range values {
		data, err := encoding.Marshal(kv.v)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", kv.key, err)
		}
		ops = append(ops, database.Put(kv.key, data))
	}
	ops = append(ops, database.Put(keylet.History(), s.masks.Encode()))
	return ops, nil
}

// loadState restores the persisted state. It returns nil when the store was
// never initialized.
func loadState(ctx context.Context, db database.DB) (*state, error) {
	var settings feed.Settings
	if err := read(ctx, db, keylet.Settings(), &settings); err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var assets []feed.Asset
	if err := read(ctx, db, keylet.Assets(), &assets); err != nil {
		return nil, err
	}
	reg, err := registry.New(assets...)
	if err != nil {
		return nil, fmt.Errorf("restore registry: %w", err)
	}

	raw, err := db.Read(ctx, keylet.History())
	if err != nil {
		return nil, fmt.Errorf("read history masks: %w", err)
	}
	masks, err := history.Decode(raw)
	if err != nil {
		return nil, err
	}
	masks.Grow(reg.Len())

	st := &state{
		settings: settings,
		registry: reg,
		masks:    masks,
		costs:    cost.DefaultTable,
	}
	if err := read(ctx, db, keylet.Last(), &st.last); err != nil {
		return nil, err
	}
	if err := read(ctx, db, keylet.Protocol(), &st.marker); err != nil {
		return nil, err
	}

	var expirations []uint64
	if err := read(ctx, db, keylet.Expiration(), &expirations); err != nil {
		return nil, err
	}
	st.expirations = expiration.New(expirations)
	st.expirations.Grow(reg.Len(), 0)

	if err := optional(ctx, db, keylet.Fee(), &st.fee); err != nil {
		return nil, err
	}
	var costs []uint64
	if err := optional(ctx, db, keylet.Costs(), &costs); err != nil {
		return nil, err
	}
	if len(costs) == len(st.costs) {
		copy(st.costs[:], costs)
	}
	return st, nil
}

func read(ctx context.Context, db database.DB, key []byte, v interface{}) error {
	data, err := db.Read(ctx, key)
	if err != nil {
		return fmt.Errorf("read %q: %w", key, err)
	}
	if err := encoding.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

// optional is read for keys that older stores may lack.
func optional(ctx context.Context, db database.DB, key []byte, v interface{}) error {
	err := read(ctx, db, key, v)
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil
	}
	return err
}
