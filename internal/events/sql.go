package events

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LeJamon/goOracled/internal/core/feed"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLSink appends events to a relational table that outlives snapshot retention.
type SQLSink struct {
	db     *sql.DB
	driver string
	insert string
}

// OpenSQLSink connects to dsn with driver and creates the event table.
func OpenSQLSink(ctx context.Context, driver, dsn string) (*SQLSink, error) {
	var insert string
	switch driver {
	case DriverSQLite:
		insert = `INSERT INTO price_events (asset, asset_index, ts, changed, price) VALUES (?, ?, ?, ?, ?)`
	case DriverPostgres:
		insert = `INSERT INTO price_events (asset, asset_index, ts, changed, price) VALUES ($1, $2, $3, $4, $5)`
	default:
		return nil, fmt.Errorf("unsupported event driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open event database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping event database: %w", err)
	}

	s := &SQLSink{db: db, driver: driver, insert: insert}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLSink) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS price_events (
			asset       TEXT    NOT NULL,
			asset_index INTEGER NOT NULL,
			ts          BIGINT  NOT NULL,
			changed     INTEGER NOT NULL,
			price       BIGINT  NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS price_events_asset_ts ON price_events (asset, ts)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize event schema: %w", err)
		}
	}
	return nil
}

func (s *SQLSink) Emit(ctx context.Context, ev feed.UpdateEvent) error {
	changed := 0
	if ev.Changed {
		changed = 1
	}
	_, err := s.db.ExecContext(ctx, s.insert,
		ev.Asset.String(), ev.Index, int64(ev.Timestamp), changed, ev.Price)
	if err != nil {
		return fmt.Errorf("failed to insert price event: %w", err)
	}
	return nil
}

// History returns the logged events of asset, newest first.
func (s *SQLSink) History(ctx context.Context, asset feed.Asset, limit int) ([]feed.UpdateEvent, error) {
	query := `SELECT asset_index, ts, changed, price FROM price_events WHERE asset = ? ORDER BY ts DESC LIMIT ?`
	if s.driver == DriverPostgres {
		query = `SELECT asset_index, ts, changed, price FROM price_events WHERE asset = $1 ORDER BY ts DESC LIMIT $2`
	}

	rows, err := s.db.QueryContext(ctx, query, asset.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query price events: %w", err)
	}
	defer rows.Close()

	var out []feed.UpdateEvent
	for rows.Next() {
		var (
			ev      feed.UpdateEvent
			ts      int64
			changed int64
		)
		if err := rows.Scan(&ev.Index, &ts, &changed, &ev.Price); err != nil {
			return nil, fmt.Errorf("failed to scan price event: %w", err)
		}
		ev.Asset = asset
		ev.Timestamp = uint64(ts)
		ev.Changed = changed != 0
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *SQLSink) Close() error {
	return s.db.Close()
}
