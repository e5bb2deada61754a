package oracle

import (
	"context"
	"fmt"

	"github.com/LeJamon/goOracled/internal/core/cost"
	"github.com/LeJamon/goOracled/internal/core/feed"
)

// Expires returns the expiration timestamp of asset, zero when none was set.
func (o *Oracle) Expires(asset feed.Asset) (uint64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st, idx, err := o.resolve(asset)
	if err != nil {
		return 0, err
	}
	exp, _ := st.expirations.Get(idx)
	return exp, nil
}

// Extend burns amount fee tokens from sponsor and pushes the expiration of
// asset forward accordingly. Nothing is burned when the extension is
// rejected, and nothing is recorded when the burn fails.
func (o *Oracle) Extend(ctx context.Context, sponsor string, asset feed.Asset, amount int64) (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, idx, err := o.resolve(asset)
	if err != nil {
		return 0, err
	}
	until, err := st.expirations.Plan(idx, amount, o.clock.Now(), st.fee)
	if err != nil {
		return 0, err
	}
	if err := o.burner.Burn(ctx, sponsor, amount); err != nil {
		return 0, fmt.Errorf("burn %d from %s: %w", amount, sponsor, err)
	}

	next := st.clone()
	next.expirations.Raise(idx, until)
	if err := o.commit(ctx, next, nil); err != nil {
		o.log.Error("Expiration not recorded after burn",
			"sponsor", sponsor, "asset", asset.String(), "amount", amount, "error", err)
		return 0, err
	}
	o.log.Info("Expiration extended",
		"sponsor", sponsor, "asset", asset.String(), "amount", amount, "expires", until)
	return until, nil
}

// FeeConfig returns the stored fee configuration.
func (o *Oracle) FeeConfig() (feed.FeeConfig, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	st, err := o.current()
	if err != nil {
		return feed.FeeConfig{}, err
	}
	return st.fee, nil
}

// SetFeeConfig replaces the fee configuration. Assets that never had an
// expiration get one initialExpirationDays from now.
func (o *Oracle) SetFeeConfig(ctx context.Context, fee feed.FeeConfig, initialExpirationDays uint32) error {
	if err := fee.Validate(); err != nil {
		return err
	}
	initial := o.initialExpiration(initialExpirationDays)
	return o.update(ctx, func(next *state) error {
		next.fee = fee
		if initial == 0 {
			return nil
		}
		for i := 0; i < next.expirations.Len(); i++ {
			if exp, _ := next.expirations.Get(i); exp == 0 {
				next.expirations.Raise(i, initial)
			}
		}
		return nil
	})
}

// Costs returns the invocation cost table.
func (o *Oracle) Costs() (cost.Table, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	st, err := o.current()
	if err != nil {
		return cost.Table{}, err
	}
	return st.costs, nil
}

// SetCosts replaces the invocation cost table.
func (o *Oracle) SetCosts(ctx context.Context, table cost.Table) error {
	return o.update(ctx, func(next *state) error {
		next.costs = table
		return nil
	})
}

// EstimateCost returns the fee of an invocation over periods records. Reads
// are free while no fee is configured.
func (o *Oracle) EstimateCost(c cost.Complexity, periods uint32) (uint64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	st, err := o.current()
	if err != nil {
		return 0, err
	}
	if !st.fee.Configured() {
		return 0, nil
	}
	return st.costs.Estimate(c, periods)
}
