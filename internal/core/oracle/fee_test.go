package oracle

import (
	"errors"
	"math"
	"testing"

	"github.com/LeJamon/goOracled/internal/core/cost"
	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/core/oracle/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dailyFee = feed.FeeConfig{Token: "FEE", Rate: 100, ExtensionUnit: 86400}

func feeFixture(t *testing.T, ctrl *gomock.Controller, fee feed.FeeConfig) (*fixture, *Oracle, *mocks.MockBurner) {
	t.Helper()
	f := newFixture(t, 1000)
	require.NoError(t, f.oracle.Init(f.ctx, InitParams{
		Settings: defaultSettings(),
		Assets:   []feed.Asset{xa, ya},
		Fee:      fee,
	}))
	burner := mocks.NewMockBurner(ctrl)
	return f, f.open(t, Config{Burner: burner}), burner
}

func TestExtend(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f, o, burner := feeFixture(t, ctrl, dailyFee)

	burner.EXPECT().Burn(gomock.Any(), "sponsor", int64(250)).Return(nil)
	until, err := o.Extend(f.ctx, "sponsor", xa, 250)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000+216000), until, "expired slots extend from now")

	burner.EXPECT().Burn(gomock.Any(), "sponsor", int64(100)).Return(nil)
	until, err = o.Extend(f.ctx, "sponsor", xa, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000+216000+86400), until)

	exp, err := f.open(t, Config{}).Expires(xa)
	require.NoError(t, err)
	assert.Equal(t, until, exp, "extension is durable")
}

func TestExtendRejectsWithoutBurning(t *testing.T) {
	huge := feed.FeeConfig{Token: "FEE", Rate: 1, ExtensionUnit: math.MaxUint64 / 2}

	tests := []struct {
		name   string
		fee    feed.FeeConfig
		asset  feed.Asset
		amount int64
		err    error
	}{
		{"zero amount", dailyFee, xa, 0, feed.ErrInvalidAmount},
		{"negative amount", dailyFee, xa, -5, feed.ErrInvalidAmount},
		{"buys no time", feed.FeeConfig{Token: "FEE", Rate: 1_000_000, ExtensionUnit: 1}, xa, 10, feed.ErrInvalidAmount},
		{"multiplication overflows", huge, xa, math.MaxInt64, feed.ErrInvalidAmount},
		{"expiration overflows", huge, xa, 2, feed.ErrInvalidAmount},
		{"fee not configured", feed.FeeConfig{}, xa, 10, feed.ErrFeeNotConfigured},
		{"unknown asset", dailyFee, za, 10, feed.ErrAssetMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			f, o, burner := feeFixture(t, ctrl, tt.fee)
			burner.EXPECT().Burn(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

			_, err := o.Extend(f.ctx, "sponsor", tt.asset, tt.amount)
			assert.ErrorIs(t, err, tt.err)

			if tt.asset == xa {
				exp, err := o.Expires(xa)
				require.NoError(t, err)
				assert.Zero(t, exp)
			}
		})
	}
}

func TestExtendBurnFailureRecordsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f, o, burner := feeFixture(t, ctrl, dailyFee)

	burner.EXPECT().Burn(gomock.Any(), "broke", int64(100)).Return(errors.New("insufficient balance"))
	_, err := o.Extend(f.ctx, "broke", xa, 100)
	assert.Error(t, err)

	exp, err := o.Expires(xa)
	require.NoError(t, err)
	assert.Zero(t, exp)
}

func TestSetFeeConfig(t *testing.T) {
	f := initialized(t, 1000, defaultSettings(), xa, ya)
	o := f.oracle

	cfg, err := o.FeeConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Configured())

	assert.ErrorIs(t, o.SetFeeConfig(f.ctx, feed.FeeConfig{Token: "FEE"}, 0), feed.ErrConfiguration)

	require.NoError(t, o.SetFeeConfig(f.ctx, dailyFee, 3))
	cfg, err = o.FeeConfig()
	require.NoError(t, err)
	assert.Equal(t, dailyFee, cfg)

	exp, err := o.Expires(ya)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000+3*86400), exp)

	// existing expirations are kept
	f.clock.Advance(10)
	require.NoError(t, o.SetFeeConfig(f.ctx, dailyFee, 5))
	exp, err = o.Expires(ya)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000+3*86400), exp)
}

func TestEstimateCost(t *testing.T) {
	f := initialized(t, 1000, defaultSettings(), xa)
	o := f.oracle

	c, err := o.EstimateCost(cost.TWAP, 5)
	require.NoError(t, err)
	assert.Zero(t, c, "free without a fee")

	require.NoError(t, o.SetFeeConfig(f.ctx, dailyFee, 0))
	c, err = o.EstimateCost(cost.Price, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), c)

	c, err = o.EstimateCost(cost.TWAP, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(27_000_000), c)

	custom := cost.Table{0, 1, 2, 3, 4}
	require.NoError(t, o.SetCosts(f.ctx, custom))
	c, err = o.EstimateCost(cost.CrossTWAP, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), c)

	costs, err := f.open(t, Config{}).Costs()
	require.NoError(t, err)
	assert.Equal(t, custom, costs)
}
