package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/LeJamon/goOracled/internal/config"
	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/core/timestamp"
	"github.com/LeJamon/goOracled/internal/di"
	"github.com/LeJamon/goOracled/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNow = 1_700_000_100

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Storage.Backend = "memory"
	cfg.Oracle.Decimals = 2
	cfg.Oracle.Admin = "operator"
	cfg.Oracle.Assets = []string{"BTC", "ETH"}
	cfg.Events.Sinks = []string{"log"}
	cfg.Fee = config.FeeConfig{Token: "XRF", Rate: 1000, ExtensionUnit: 86400}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*app, *timestamp.ManualClock) {
	t.Helper()
	clock := timestamp.NewManualClock(testNow)
	container := di.New()
	container.Register(di.ServiceLogger, logging.Nop())
	container.Register(di.ServiceClock, timestamp.Clock(clock))

	a, err := newApp(context.Background(), cfg, container)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a, clock
}

func initializedApp(t *testing.T) (*app, *timestamp.ManualClock) {
	t.Helper()
	a, clock := newTestApp(t, testConfig(t))
	var out bytes.Buffer
	require.NoError(t, runInit(context.Background(), a, &out))
	assert.Contains(t, out.String(), "Initialized with 2 assets")
	return a, clock
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		decimals uint32
		want     int64
		wantErr  bool
	}{
		{name: "integer", input: "3000", decimals: 2, want: 300000},
		{name: "fraction", input: "64250.25", decimals: 2, want: 6425025},
		{name: "negative", input: "-1.5", decimals: 1, want: -15},
		{name: "zero decimals", input: "42", decimals: 0, want: 42},
		{name: "too precise", input: "1.234", decimals: 2, wantErr: true},
		{name: "not a number", input: "abc", decimals: 2, wantErr: true},
		{name: "overflow", input: "92233720368547758.08", decimals: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePrice(tt.input, tt.decimals)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "64250.25", formatPrice(6425025, 2))
	assert.Equal(t, "-0.05", formatPrice(-5, 2))
	assert.Equal(t, "7", formatPrice(7, 0))
}

func TestInitIsIdempotent(t *testing.T) {
	a, _ := initializedApp(t)

	var out bytes.Buffer
	require.NoError(t, runInit(context.Background(), a, &out))
	assert.Contains(t, out.String(), "already initialized")

	assets, err := a.oracle.Assets()
	require.NoError(t, err)
	assert.Equal(t, []feed.Asset{feed.Other("BTC"), feed.Other("ETH")}, assets)
}

func TestReconcileAppliesOperationalSettings(t *testing.T) {
	a, _ := initializedApp(t)
	a.cfg.Oracle.HistoryRetentionPeriod = 3000
	a.cfg.Oracle.CacheSize = 8

	require.NoError(t, a.reconcile(context.Background()))

	settings, err := a.oracle.Settings()
	require.NoError(t, err)
	assert.Equal(t, uint64(3000), settings.RetentionPeriod)
	assert.Equal(t, uint32(8), settings.CacheSize)
}

func TestIngestAndQuery(t *testing.T) {
	a, _ := initializedApp(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runIngest(ctx, a, &out, []string{"BTC=64250.25", "ETH=3000"}, 0))
	assert.Contains(t, out.String(), "Stored 2 prices at 1700000100")

	out.Reset()
	require.NoError(t, runLastPrice(ctx, a, &out, []string{"BTC"}))
	assert.Contains(t, out.String(), "64250.25")

	out.Reset()
	require.NoError(t, runPriceAt(ctx, a, &out, []string{"ETH", "1700000100"}))
	assert.Contains(t, out.String(), "3000.00")

	out.Reset()
	require.NoError(t, runCrossLastPrice(ctx, a, &out, []string{"BTC", "ETH"}))
	assert.Contains(t, out.String(), "21.41")

	out.Reset()
	require.NoError(t, runTWAP(ctx, a, &out, []string{"BTC", "1"}))
	assert.Equal(t, "64250.25\n", out.String())
}

func TestIngestWindowQueries(t *testing.T) {
	a, clock := initializedApp(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runIngest(ctx, a, &out, []string{"BTC=100", "ETH=50"}, 0))
	clock.Advance(300)
	require.NoError(t, runIngest(ctx, a, &out, []string{"BTC=200", "ETH=50"}, 0))

	out.Reset()
	require.NoError(t, runPrices(ctx, a, &out, []string{"BTC", "5"}))
	assert.Contains(t, out.String(), "200.00")
	assert.Contains(t, out.String(), "100.00")

	out.Reset()
	require.NoError(t, runCrossPrices(ctx, a, &out, []string{"BTC", "ETH", "2"}))
	assert.Contains(t, out.String(), "4.00")
	assert.Contains(t, out.String(), "2.00")

	out.Reset()
	require.NoError(t, runCrossTWAP(ctx, a, &out, []string{"BTC", "ETH", "2"}))
	assert.Equal(t, "3.00\n", out.String())

	out.Reset()
	require.NoError(t, runCrossPrice(ctx, a, &out, []string{"BTC", "ETH", "1700000100"}))
	assert.Contains(t, out.String(), "2.00")
}

func TestIngestRejects(t *testing.T) {
	a, _ := initializedApp(t)
	ctx := context.Background()
	var out bytes.Buffer

	assert.Error(t, runIngest(ctx, a, &out, []string{"BTC"}, 0))
	assert.ErrorIs(t, runIngest(ctx, a, &out, []string{"SOL=1"}, 0), feed.ErrAssetMissing)
	assert.ErrorIs(t, runIngest(ctx, a, &out, []string{"BTC=1"}, testNow+600), feed.ErrFutureTimestamp)

	caller = "intruder"
	t.Cleanup(func() { caller = "" })
	assert.ErrorIs(t, runIngest(ctx, a, &out, []string{"BTC=1"}, 0), feed.ErrUnauthorized)
}

func TestQueryErrors(t *testing.T) {
	a, _ := initializedApp(t)
	ctx := context.Background()
	var out bytes.Buffer

	assert.ErrorIs(t, runLastPrice(ctx, a, &out, []string{"BTC"}), feed.ErrUnavailable)
	assert.Error(t, runPrices(ctx, a, &out, []string{"BTC", "many"}))
	assert.Error(t, runPriceAt(ctx, a, &out, []string{"BTC", "-1"}))
	assert.Error(t, runLastPrice(ctx, a, &out, []string{"not an asset"}))
}

func TestAssetsAddAndList(t *testing.T) {
	a, _ := initializedApp(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runAddAssets(ctx, a, &out, []string{"SOL"}, 1))
	assert.Contains(t, out.String(), "Registered SOL at index 2")

	out.Reset()
	require.NoError(t, runListAssets(a, &out))
	assert.Contains(t, out.String(), "SOL")
	assert.Contains(t, out.String(), "2023-11-15T22:15:00Z")

	assert.ErrorIs(t, runAddAssets(ctx, a, &out, []string{"BTC"}, 0), feed.ErrDuplicateAsset)
}

func TestExtendRecordsBurn(t *testing.T) {
	a, _ := initializedApp(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runExtend(ctx, a, &out, "sponsor-1", []string{"BTC", "2000"}))
	assert.Contains(t, out.String(), "now expires at 1700172900")

	out.Reset()
	require.NoError(t, runExpires(ctx, a, &out, []string{"BTC"}))
	assert.Contains(t, out.String(), "1700172900")

	out.Reset()
	require.NoError(t, runBurns(ctx, a, &out, nil))
	assert.Contains(t, out.String(), "sponsor-1")
	assert.Contains(t, out.String(), "XRF")

	assert.Error(t, runExtend(ctx, a, &out, "sponsor-1", []string{"BTC", "lots"}))
	assert.ErrorIs(t, runExtend(ctx, a, &out, "sponsor-1", []string{"BTC", "0"}), feed.ErrInvalidAmount)
}

func TestBurnsWithoutFee(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fee = config.FeeConfig{}
	a, _ := newTestApp(t, cfg)

	var out bytes.Buffer
	assert.ErrorIs(t, runBurns(context.Background(), a, &out, nil), feed.ErrFeeNotConfigured)
}

func TestCostEstimate(t *testing.T) {
	a, _ := initializedApp(t)

	var out bytes.Buffer
	require.NoError(t, runCost(context.Background(), a, &out, []string{"twap", "5"}))
	assert.Contains(t, out.String(), "twap over 5 periods costs 27000000")

	assert.Error(t, runCost(context.Background(), a, &out, []string{"median", "5"}))
}

func TestInfo(t *testing.T) {
	a, _ := initializedApp(t)

	var out bytes.Buffer
	require.NoError(t, runInfo(a, &out))
	assert.Contains(t, out.String(), "Resolution:       300s")
	assert.Contains(t, out.String(), "1000 XRF per 86400s")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "oracled version 0.1.0-dev")
}
