package oracle

import (
	"context"
	"fmt"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/core/snapshot"
	"github.com/LeJamon/goOracled/internal/core/timestamp"
)

// Ingest stores a price update observed at ts. Every state change of one
// ingestion lands in a single batch; a rejected update changes nothing.
// Ingesting again at the latest timestamp replaces that snapshot.
func (o *Oracle) Ingest(ctx context.Context, update feed.PriceUpdate, ts uint64) error {
	if err := o.auth.RequireAdmin(ctx); err != nil {
		return err
	}
	events, err := o.ingest(ctx, update, ts)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := o.sink.Emit(ctx, ev); err != nil {
			o.log.Warn("Failed to emit price event",
				"asset", ev.Asset.String(), "timestamp", ev.Timestamp, "error", err)
		}
	}
	return nil
}

// ingest commits the update and returns the events to publish.
func (o *Oracle) ingest(ctx context.Context, update feed.PriceUpdate, ts uint64) ([]feed.UpdateEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, err := o.current()
	if err != nil {
		return nil, err
	}
	n := st.registry.Len()
	if err := update.Validate(n); err != nil {
		return nil, err
	}
	now := o.clock.Now()
	res := st.settings.Resolution
	ts = timestamp.Normalize(ts, res)
	switch {
	case ts == 0:
		return nil, feed.ErrInvalidTimestamp
	case ts > now:
		return nil, fmt.Errorf("%w: %d > %d", feed.ErrFutureTimestamp, ts, now)
	case ts < st.last:
		return nil, fmt.Errorf("%w: %d < %d", feed.ErrNonMonotonicUpdate, ts, st.last)
	}
	if update.Empty() {
		return nil, nil
	}

	next := st.clone()
	next.marker, _ = st.marker.Observe(now)
	layout := snapshot.LayoutFor(next.marker.Effective(now))

	// zero elapsed periods replaces the newest one in place
	var elapsed uint64
	switch {
	case st.last == 0:
		elapsed = 1
	case ts > st.last:
		elapsed = timestamp.PeriodsBetween(st.last, ts, res)
	}
	prices, present := update.Expand(n)
	next.masks.Observe(elapsed, present)
	next.last = ts

	if o.ingestGrace > 0 {
		for i, changed := range present {
			if !changed {
				continue
			}
			if err := next.expirations.Add(i, o.ingestGrace); err != nil {
				return nil, fmt.Errorf("ingest grace for asset %d: %w", i, err)
			}
		}
	}

	update.Prices = append([]int64(nil), update.Prices...)
	rec := &snapshot.Record{Timestamp: ts, Update: update}
	ops, err := o.snapshots.Stage(layout, rec, n)
	if err != nil {
		return nil, err
	}
	pruneOps, pruned, err := o.snapshots.StagePrune(ctx, retainedSince(next), o.pruneLimit)
	if err != nil {
		return nil, err
	}
	if err := o.commit(ctx, next, append(ops, pruneOps...)); err != nil {
		return nil, err
	}
	o.snapshots.Committed(rec)
	o.snapshots.Forget(pruned...)

	o.log.Debug("Prices ingested",
		"timestamp", ts,
		"changed", update.Count(),
		"elapsed", elapsed,
		"layout", layout.String(),
		"pruned", len(pruned))

	events := make([]feed.UpdateEvent, n)
	for i, asset := range next.registry.All() {
		events[i] = feed.UpdateEvent{
			Asset:     asset,
			Index:     i,
			Timestamp: ts,
			Changed:   present[i],
			Price:     prices[i],
		}
	}
	return events, nil
}

// Prune deletes snapshots that fell out of the retention window and reports
// how many entries were removed. Ingest prunes too; this serves idle periods.
func (o *Oracle) Prune(ctx context.Context) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, err := o.current()
	if err != nil {
		return 0, err
	}
	ops, pruned, err := o.snapshots.StagePrune(ctx, retainedSince(st), o.pruneLimit)
	if err != nil || len(ops) == 0 {
		return 0, err
	}
	if err := o.db.Batch(ctx, ops); err != nil {
		return 0, fmt.Errorf("oracle: prune: %w", err)
	}
	o.snapshots.Forget(pruned...)
	o.log.Debug("Snapshots pruned", "entries", len(ops), "timestamps", len(pruned))
	return len(ops), nil
}

// retainedSince returns the oldest timestamp still inside the retention
// window, or zero when nothing can be pruned yet.
func retainedSince(st *state) uint64 {
	if st.last == 0 {
		return 0
	}
	keep := st.settings.RetainedPeriods()
	if keep == 0 {
		keep = 1
	}
	span := (keep - 1) * st.settings.Resolution
	if span >= st.last {
		return 0
	}
	return st.last - span
}
