package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/core/fixedpoint"
	"github.com/LeJamon/goOracled/internal/core/history"
	"github.com/LeJamon/goOracled/internal/core/timestamp"
)

// twapGrace is how far past one period the newest TWAP price may lag.
const twapGrace = 60

// loader returns a price for the normalized timestamp ts.
type loader func(ts uint64) (int64, error)

// LastPrice returns the most recent price of asset within the last two
// periods, provided the feed itself is not stale.
func (o *Oracle) LastPrice(ctx context.Context, asset feed.Asset) (feed.PriceData, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st, idx, err := o.resolve(asset)
	if err != nil {
		return feed.PriceData{}, err
	}
	return o.latest(st, func(ts uint64) (int64, error) {
		return o.priceAt(ctx, st, idx, ts)
	})
}

// PriceAt returns the price of asset at the period containing t.
func (o *Oracle) PriceAt(ctx context.Context, asset feed.Asset, t uint64) (feed.PriceData, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st, idx, err := o.resolve(asset)
	if err != nil {
		return feed.PriceData{}, err
	}
	ts := timestamp.Normalize(t, st.settings.Resolution)
	price, err := o.priceAt(ctx, st, idx, ts)
	if err != nil {
		return feed.PriceData{}, err
	}
	return feed.PriceData{Price: price, Timestamp: ts}, nil
}

// Prices returns up to min(n, feed.WindowCap) prices of asset, newest first,
// from the last n periods. Periods without a price are skipped.
func (o *Oracle) Prices(ctx context.Context, asset feed.Asset, n uint32) ([]feed.PriceData, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st, idx, err := o.resolve(asset)
	if err != nil {
		return nil, err
	}
	return o.window(st, n, func(ts uint64) (int64, error) {
		return o.priceAt(ctx, st, idx, ts)
	})
}

// TWAP returns the floored mean of the last min(n, feed.WindowCap) prices of
// asset. Every period of the window must hold a price.
func (o *Oracle) TWAP(ctx context.Context, asset feed.Asset, n uint32) (int64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st, idx, err := o.resolve(asset)
	if err != nil {
		return 0, err
	}
	return o.twap(st, n, func(ts uint64) (int64, error) {
		return o.priceAt(ctx, st, idx, ts)
	})
}

// CrossPrice returns base quoted in quote at the period containing t.
func (o *Oracle) CrossPrice(ctx context.Context, base, quote feed.Asset, t uint64) (feed.PriceData, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st, b, q, err := o.resolvePair(base, quote)
	if err != nil {
		return feed.PriceData{}, err
	}
	ts := timestamp.Normalize(t, st.settings.Resolution)
	price, err := o.crossAt(ctx, st, b, q, ts)
	if err != nil {
		return feed.PriceData{}, err
	}
	return feed.PriceData{Price: price, Timestamp: ts}, nil
}

// CrossLastPrice is LastPrice for the base/quote pair.
func (o *Oracle) CrossLastPrice(ctx context.Context, base, quote feed.Asset) (feed.PriceData, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st, b, q, err := o.resolvePair(base, quote)
	if err != nil {
		return feed.PriceData{}, err
	}
	return o.latest(st, func(ts uint64) (int64, error) {
		return o.crossAt(ctx, st, b, q, ts)
	})
}

// CrossPrices is Prices for the base/quote pair.
func (o *Oracle) CrossPrices(ctx context.Context, base, quote feed.Asset, n uint32) ([]feed.PriceData, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st, b, q, err := o.resolvePair(base, quote)
	if err != nil {
		return nil, err
	}
	return o.window(st, n, func(ts uint64) (int64, error) {
		return o.crossAt(ctx, st, b, q, ts)
	})
}

// CrossTWAP is TWAP for the base/quote pair.
func (o *Oracle) CrossTWAP(ctx context.Context, base, quote feed.Asset, n uint32) (int64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st, b, q, err := o.resolvePair(base, quote)
	if err != nil {
		return 0, err
	}
	return o.twap(st, n, func(ts uint64) (int64, error) {
		return o.crossAt(ctx, st, b, q, ts)
	})
}

func (o *Oracle) resolve(asset feed.Asset) (*state, int, error) {
	st, err := o.current()
	if err != nil {
		return nil, 0, err
	}
	idx, ok := st.registry.IndexOf(asset)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", feed.ErrAssetMissing, asset)
	}
	return st, idx, nil
}

func (o *Oracle) resolvePair(base, quote feed.Asset) (*state, int, int, error) {
	st, b, err := o.resolve(base)
	if err != nil {
		return nil, 0, 0, err
	}
	q, ok := st.registry.IndexOf(quote)
	if !ok {
		return nil, 0, 0, fmt.Errorf("%w: %s", feed.ErrAssetMissing, quote)
	}
	return st, b, q, nil
}

// fresh returns the last timestamp when it is less than two periods old.
func (o *Oracle) fresh(st *state) (uint64, bool) {
	if st.last == 0 {
		return 0, false
	}
	now := o.clock.Now()
	if now > st.last && now-st.last >= 2*st.settings.Resolution {
		return 0, false
	}
	return st.last, true
}

// priceAt reads asset idx at the normalized timestamp ts.
func (o *Oracle) priceAt(ctx context.Context, st *state, idx int, ts uint64) (int64, error) {
	if st.last == 0 || ts > st.last {
		return 0, fmt.Errorf("%w: no snapshot at %d", feed.ErrUnavailable, ts)
	}
	period := (st.last - ts) / st.settings.Resolution
	if period >= history.Capacity || period >= st.settings.RetainedPeriods() {
		return 0, fmt.Errorf("%w: %d is outside the retained history", feed.ErrUnavailable, ts)
	}
	if !st.masks.Test(idx, period) {
		return 0, fmt.Errorf("%w: no update for asset %d at %d", feed.ErrUnavailable, idx, ts)
	}
	return o.snapshots.Price(ctx, ts, idx)
}

// crossAt prices asset b in units of asset q at ts.
func (o *Oracle) crossAt(ctx context.Context, st *state, b, q int, ts uint64) (int64, error) {
	if b == q {
		return fixedpoint.Pow10(st.settings.Decimals)
	}
	base, err := o.priceAt(ctx, st, b, ts)
	if err != nil {
		return 0, err
	}
	quote, err := o.priceAt(ctx, st, q, ts)
	if err != nil {
		return 0, err
	}
	price, err := fixedpoint.CrossPrice(base, quote, st.settings.Decimals)
	if err != nil {
		return 0, fmt.Errorf("cross price at %d: %w", ts, err)
	}
	return price, nil
}

// latest probes the newest two periods.
func (o *Oracle) latest(st *state, load loader) (feed.PriceData, error) {
	last, ok := o.fresh(st)
	if !ok {
		return feed.PriceData{}, fmt.Errorf("%w: feed is stale", feed.ErrUnavailable)
	}
	res := st.settings.Resolution
	for k := uint64(0); k < 2 && k*res < last; k++ {
		ts := last - k*res
		price, err := load(ts)
		if err == nil {
			return feed.PriceData{Price: price, Timestamp: ts}, nil
		}
		if !errors.Is(err, feed.ErrUnavailable) {
			return feed.PriceData{}, err
		}
	}
	return feed.PriceData{}, fmt.Errorf("%w: no recent price", feed.ErrUnavailable)
}

// window walks min(n, feed.WindowCap) periods back from the last timestamp.
// Periods without a price, or with a zero cross quote, are left out.
func (o *Oracle) window(st *state, n uint32, load loader) ([]feed.PriceData, error) {
	last, ok := o.fresh(st)
	if !ok {
		return nil, fmt.Errorf("%w: feed is stale", feed.ErrUnavailable)
	}
	want := n
	if want > feed.WindowCap {
		want = feed.WindowCap
	}

	res := st.settings.Resolution
	out := make([]feed.PriceData, 0, want)
	ts := last
	for i := uint32(0); i < want && ts > 0; i++ {
		price, err := load(ts)
		switch {
		case err == nil:
			out = append(out, feed.PriceData{Price: price, Timestamp: ts})
		case errors.Is(err, feed.ErrUnavailable), errors.Is(err, feed.ErrDivisionByZero):
		default:
			return nil, err
		}
		if ts < res {
			break
		}
		ts -= res
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no prices in the last %d periods", feed.ErrUnavailable, want)
	}
	return out, nil
}

func (o *Oracle) twap(st *state, n uint32, load loader) (int64, error) {
	if n == 0 {
		return 0, fmt.Errorf("%w: empty window", feed.ErrUnavailable)
	}
	prices, err := o.window(st, n, load)
	if err != nil {
		return 0, err
	}
	want := n
	if want > feed.WindowCap {
		want = feed.WindowCap
	}
	if uint32(len(prices)) != want {
		return 0, fmt.Errorf("%w: %d of %d periods have a price", feed.ErrUnavailable, len(prices), want)
	}
	if prices[0].Timestamp+st.settings.Resolution+twapGrace < o.clock.Now() {
		return 0, fmt.Errorf("%w: newest price is stale", feed.ErrUnavailable)
	}

	values := make([]int64, len(prices))
	for i, p := range prices {
		values[i] = p.Price
	}
	return fixedpoint.Mean(values)
}
