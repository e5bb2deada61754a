// Package oracle stores price snapshots for a fixed set of assets and answers
// point, windowed, cross and time-weighted price queries over them.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LeJamon/goOracled/internal/core/cost"
	"github.com/LeJamon/goOracled/internal/core/expiration"
	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/core/history"
	"github.com/LeJamon/goOracled/internal/core/protocol"
	"github.com/LeJamon/goOracled/internal/core/registry"
	"github.com/LeJamon/goOracled/internal/core/snapshot"
	"github.com/LeJamon/goOracled/internal/core/timestamp"
	"github.com/LeJamon/goOracled/internal/logging"
	"github.com/LeJamon/goOracled/internal/storage/database"
)

const (
	// DefaultPruneLimit bounds the snapshot entries deleted by one commit
	DefaultPruneLimit = 512

	secondsPerDay = 24 * 60 * 60
)

// Config holds the collaborators of an Oracle.
type Config struct {
	// DB is the backing store (required)
	DB database.DB

	// Clock supplies ledger time; defaults to the system clock
	Clock timestamp.Clock

	Authorizer Authorizer
	Burner     Burner
	Sink       EventSink
	Logger     logging.Logger

	// Compression names the compressor for consolidated snapshots
	Compression string

	// IngestGrace extends the expiration of every changed asset by this
	// many seconds on each ingestion. Zero disables it.
	IngestGrace uint64

	// PruneLimit bounds deletions per commit; defaults to DefaultPruneLimit
	PruneLimit int
}

// InitParams are the immutable settings and initial assets of a new oracle.
type InitParams struct {
	Settings feed.Settings
	Assets   []feed.Asset

	// Fee is optional; extension is disabled until it is configured
	Fee feed.FeeConfig

	// Costs overrides cost.DefaultTable when set
	Costs *cost.Table

	// InitialExpirationDays seeds the expiration of every initial asset
	InitialExpirationDays uint32

	// Protocol is the layout version already present in the store. Zero
	// starts at the latest version.
	Protocol protocol.Version
}

// Oracle is the single writer of price history. Writers are serialized by a
// mutex and readers see the state as of the last committed batch.
type Oracle struct {
	mu sync.RWMutex

	db        database.DB
	snapshots *snapshot.Store
	clock     timestamp.Clock
	auth      Authorizer
	burner    Burner
	sink      EventSink
	log       logging.Logger

	ingestGrace uint64
	pruneLimit  int

	// nil until Init
	state *state
}

// Open restores an oracle from cfg.DB. A store that was never initialized
// opens successfully but only accepts Init.
func Open(ctx context.Context, cfg Config) (*Oracle, error) {
	if cfg.DB == nil {
		return nil, errors.New("oracle: database is required")
	}
	o := &Oracle{
		db:          cfg.DB,
		clock:       cfg.Clock,
		auth:        cfg.Authorizer,
		burner:      cfg.Burner,
		sink:        cfg.Sink,
		log:         cfg.Logger,
		ingestGrace: cfg.IngestGrace,
		pruneLimit:  cfg.PruneLimit,
	}
	if o.clock == nil {
		o.clock = timestamp.SystemClock{}
	}
	if o.auth == nil {
		o.auth = denyAll{}
	}
	if o.burner == nil {
		o.burner = noBurner{}
	}
	if o.sink == nil {
		o.sink = discard{}
	}
	if o.log == nil {
		o.log = logging.Nop()
	}
	o.log = logging.Component(o.log, "oracle")
	if o.pruneLimit <= 0 {
		o.pruneLimit = DefaultPruneLimit
	}

	st, err := loadState(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("oracle: load state: %w", err)
	}
	cacheSize := 0
	if st != nil {
		cacheSize = int(st.settings.CacheSize)
	}
	o.snapshots, err = snapshot.NewStore(cfg.DB, snapshot.Options{
		Compression: cfg.Compression,
		CacheSize:   cacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	o.state = st

	if st != nil {
		o.log.Info("Oracle opened",
			"assets", st.registry.Len(),
			"resolution", st.settings.Resolution,
			"last_timestamp", st.last,
			"protocol", st.marker.Effective(o.clock.Now()).String())
	}
	return o, nil
}

// Initialized reports whether Init has been committed.
func (o *Oracle) Initialized() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state != nil
}

// Init stores the immutable settings and registers the initial assets.
func (o *Oracle) Init(ctx context.Context, p InitParams) error {
	if err := o.auth.RequireAdmin(ctx); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != nil {
		return feed.ErrAlreadyInitialized
	}
	if err := p.Settings.Validate(); err != nil {
		return err
	}
	if len(p.Assets) == 0 {
		return fmt.Errorf("%w: at least one asset is required", feed.ErrConfiguration)
	}
	if p.Fee != (feed.FeeConfig{}) {
		if err := p.Fee.Validate(); err != nil {
			return err
		}
	}

	marker := protocol.NewMarker()
	if p.Protocol != 0 {
		var err error
		if marker, err = protocol.MigrateFrom(p.Protocol); err != nil {
			return fmt.Errorf("%w: %v", feed.ErrConfiguration, err)
		}
	}

	reg, err := registry.New(p.Assets...)
	if err != nil {
		return err
	}

	st := &state{
		settings:    p.Settings,
		registry:    reg,
		masks:       history.New(reg.Len()),
		marker:      marker,
		expirations: expiration.New(nil),
		fee:         p.Fee,
		costs:       cost.DefaultTable,
	}
	if p.Costs != nil {
		st.costs = *p.Costs
	}
	st.expirations.Grow(reg.Len(), o.initialExpiration(p.InitialExpirationDays))

	if err := o.commit(ctx, st, nil); err != nil {
		return err
	}
	o.snapshots.Resize(int(p.Settings.CacheSize))

	o.log.Info("Oracle initialized",
		"base", p.Settings.BaseAsset.String(),
		"decimals", p.Settings.Decimals,
		"resolution", p.Settings.Resolution,
		"assets", reg.Len(),
		"protocol", marker.Version.String())
	return nil
}

// Register adds a single asset and returns its index.
func (o *Oracle) Register(ctx context.Context, asset feed.Asset) (int, error) {
	indexes, err := o.AddAssets(ctx, []feed.Asset{asset}, 0)
	if err != nil {
		return 0, err
	}
	return indexes[0], nil
}

// AddAssets registers assets in order. Either all of them are added or none.
// Each new asset gets an expiration slot seeded with initialExpirationDays.
func (o *Oracle) AddAssets(ctx context.Context, assets []feed.Asset, initialExpirationDays uint32) ([]int, error) {
	if err := o.auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	st, err := o.current()
	if err != nil {
		return nil, err
	}
	next := st.clone()
	indexes, err := next.registry.RegisterAll(assets)
	if err != nil {
		return nil, err
	}
	next.masks.Grow(next.registry.Len())
	next.expirations.Grow(next.registry.Len(), o.initialExpiration(initialExpirationDays))

	if err := o.commit(ctx, next, nil); err != nil {
		return nil, err
	}
	o.log.Info("Assets registered", "added", len(indexes), "total", next.registry.Len())
	return indexes, nil
}

// SetRetentionPeriod changes how long snapshots stay reachable.
func (o *Oracle) SetRetentionPeriod(ctx context.Context, period uint64) error {
	return o.update(ctx, func(next *state) error {
		s := next.settings
		s.RetentionPeriod = period
		if err := s.Validate(); err != nil {
			return err
		}
		next.settings = s
		return nil
	})
}

// SetCacheSize changes the number of snapshots kept in memory.
func (o *Oracle) SetCacheSize(ctx context.Context, size uint32) error {
	err := o.update(ctx, func(next *state) error {
		next.settings.CacheSize = size
		return nil
	})
	if err == nil {
		o.snapshots.Resize(int(size))
	}
	return err
}

// Settings returns the stored settings.
func (o *Oracle) Settings() (feed.Settings, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	st, err := o.current()
	if err != nil {
		return feed.Settings{}, err
	}
	return st.settings, nil
}

// Assets returns the registered assets in index order.
func (o *Oracle) Assets() ([]feed.Asset, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	st, err := o.current()
	if err != nil {
		return nil, err
	}
	return st.registry.All(), nil
}

// LastTimestamp returns the newest stored snapshot timestamp, zero when none.
func (o *Oracle) LastTimestamp() (uint64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	st, err := o.current()
	if err != nil {
		return 0, err
	}
	return st.last, nil
}

// ProtocolVersion returns the layout version in force now.
func (o *Oracle) ProtocolVersion() (protocol.Version, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	st, err := o.current()
	if err != nil {
		return 0, err
	}
	return st.marker.Effective(o.clock.Now()), nil
}

// CacheStats returns snapshot cache hits and misses.
func (o *Oracle) CacheStats() (hits, misses uint64) {
	return o.snapshots.Stats()
}

// current must be called with o.mu held.
func (o *Oracle) current() (*state, error) {
	if o.state == nil {
		return nil, feed.ErrNotInitialized
	}
	return o.state, nil
}

// update applies an administrative change to a clone and commits it.
func (o *Oracle) update(ctx context.Context, change func(next *state) error) error {
	if err := o.auth.RequireAdmin(ctx); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	st, err := o.current()
	if err != nil {
		return err
	}
	next := st.clone()
	if err := change(next); err != nil {
		return err
	}
	return o.commit(ctx, next, nil)
}

// commit writes next together with extra in one batch and swaps it in.
// It must be called with o.mu held.
func (o *Oracle) commit(ctx context.Context, next *state, extra []database.BatchOperation) error {
	ops, err := next.stage()
	if err != nil {
		return err
	}
	ops = append(extra, ops...)
	if err := o.db.Batch(ctx, ops); err != nil {
		return fmt.Errorf("oracle: commit: %w", err)
	}
	o.state = next
	return nil
}

func (o *Oracle) initialExpiration(days uint32) uint64 {
	if days == 0 {
		return 0
	}
	return o.clock.Now() + uint64(days)*secondsPerDay
}
