package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/core/keylet"
	"github.com/LeJamon/goOracled/internal/storage/compression"
	"github.com/LeJamon/goOracled/internal/storage/database"
	"github.com/LeJamon/goOracled/internal/storage/encoding"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is used when the configured cache size is zero.
const DefaultCacheSize = 64

// Options configures a Store.
type Options struct {
	// Compression names the compressor applied to consolidated records
	Compression string
	// CacheSize is the number of records kept in memory
	CacheSize int
}

// Store reads and stages snapshot records. Writes are returned as batch
// operations so the caller can commit them together with the rest of an
// ingestion; Committed must be called once the batch is durable.
type Store struct {
	db         database.DB
	compressor compression.Compressor
	cache      *lru.Cache[uint64, *Record]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewStore creates a Store over db.
func NewStore(db database.DB, opts Options) (*Store, error) {
	if opts.Compression == "" {
		opts.Compression = "none"
	}
	compressor, err := compression.Get(opts.Compression)
	if err != nil {
		return nil, err
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	cache, err := lru.New[uint64, *Record](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, compressor: compressor, cache: cache}, nil
}

// Stage returns the operations writing rec under layout. In the legacy layout
// the entries of assets absent from rec are deleted so a replacement leaves no
// stale prices behind.
func (s *Store) Stage(layout Layout, rec *Record, assetCount int) ([]database.BatchOperation, error) {
	switch layout {
	case LayoutConsolidated:
		raw, err := encoding.Marshal(rec)
		if err != nil {
			return nil, err
		}
		framed, err := compression.Frame(s.compressor, raw)
		if err != nil {
			return nil, err
		}
		return []database.BatchOperation{database.Put(keylet.Snapshot(rec.Timestamp), framed)}, nil

	case LayoutLegacy:
		ops := make([]database.BatchOperation, 0, assetCount)
		for i := 0; i < assetCount; i++ {
			key := keylet.Legacy(rec.Timestamp, i)
			price, ok := rec.Price(i)
			if !ok {
				ops = append(ops, database.Del(key))
				continue
			}
			value, err := encoding.Marshal(price)
			if err != nil {
				return nil, err
			}
			ops = append(ops, database.Put(key, value))
		}
		return ops, nil
	}
	return nil, fmt.Errorf("snapshot: unknown layout %d", layout)
}

// Committed caches rec after its batch was written.
func (s *Store) Committed(rec *Record) {
	s.cache.Add(rec.Timestamp, rec)
}

// Forget drops cached records.
func (s *Store) Forget(timestamps ...uint64) {
	for _, ts := range timestamps {
		s.cache.Remove(ts)
	}
}

// Resize changes the cache capacity.
func (s *Store) Resize(size int) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	s.cache.Resize(size)
}

// Stats returns cache hits and misses.
func (s *Store) Stats() (hits, misses uint64) {
	return s.hits.Load(), s.misses.Load()
}

// Load returns the record at ts. The consolidated layout is probed first and
// the legacy layout second; a miss in both is feed.ErrUnavailable.
func (s *Store) Load(ctx context.Context, ts uint64) (*Record, error) {
	if rec, ok := s.cache.Get(ts); ok {
		s.hits.Add(1)
		return rec, nil
	}
	s.misses.Add(1)

	rec, err := s.loadConsolidated(ctx, ts)
	if errors.Is(err, database.ErrKeyNotFound) {
		rec, err = s.loadLegacy(ctx, ts)
	}
	if err != nil {
		return nil, err
	}
	s.cache.Add(ts, rec)
	return rec, nil
}

// Price returns the price of asset index i at ts.
func (s *Store) Price(ctx context.Context, ts uint64, i int) (int64, error) {
	rec, err := s.Load(ctx, ts)
	if err != nil {
		return 0, err
	}
	price, ok := rec.Price(i)
	if !ok {
		return 0, fmt.Errorf("%w: asset %d at %d", feed.ErrUnavailable, i, ts)
	}
	return price, nil
}

func (s *Store) loadConsolidated(ctx context.Context, ts uint64) (*Record, error) {
	framed, err := s.db.Read(ctx, keylet.Snapshot(ts))
	if err != nil {
		return nil, err
	}
	raw, err := compression.Unframe(framed)
	if err != nil {
		return nil, fmt.Errorf("snapshot %d: %w", ts, err)
	}
	rec := &Record{}
	if err := encoding.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("snapshot %d: %w", ts, err)
	}
	return rec, nil
}

func (s *Store) loadLegacy(ctx context.Context, ts uint64) (*Record, error) {
	start, end := keylet.LegacyTimestamp(ts)
	it, err := s.db.Iterator(ctx, start, end)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var entries []feed.Entry
	for it.Next() {
		_, index, err := keylet.ParseLegacy(it.Key())
		if err != nil {
			return nil, err
		}
		var price int64
		if err := encoding.Unmarshal(it.Value(), &price); err != nil {
			return nil, fmt.Errorf("legacy price %d/%d: %w", ts, index, err)
		}
		entries = append(entries, feed.Entry{Index: index, Price: price})
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no snapshot at %d", feed.ErrUnavailable, ts)
	}

	update, err := feed.NewPriceUpdate(entries...)
	if err != nil {
		return nil, err
	}
	return &Record{Timestamp: ts, Update: update}, nil
}

// StagePrune returns delete operations for at most limit entries older than
// before, in both layouts, plus the timestamps they belonged to.
func (s *Store) StagePrune(ctx context.Context, before uint64, limit int) ([]database.BatchOperation, []uint64, error) {
	if before == 0 || limit <= 0 {
		return nil, nil, nil
	}

	var ops []database.BatchOperation
	seen := make(map[uint64]struct{})
	var timestamps []uint64

	collect := func(start, end []byte, parse func([]byte) (uint64, error)) error {
		it, err := s.db.Iterator(ctx, start, end)
		if err != nil {
			return err
		}
		defer it.Close()
		for len(ops) < limit && it.Next() {
			ts, err := parse(it.Key())
			if err != nil {
				return err
			}
			ops = append(ops, database.Del(it.Key()))
			if _, ok := seen[ts]; !ok {
				seen[ts] = struct{}{}
				timestamps = append(timestamps, ts)
			}
		}
		return it.Error()
	}

	start, end := keylet.SnapshotRange(0, before)
	if err := collect(start, end, keylet.ParseSnapshot); err != nil {
		return nil, nil, err
	}
	start, end = keylet.LegacyRange(0, before)
	err := collect(start, end, func(key []byte) (uint64, error) {
		ts, _, err := keylet.ParseLegacy(key)
		return ts, err
	})
	if err != nil {
		return nil, nil, err
	}
	return ops, timestamps, nil
}
