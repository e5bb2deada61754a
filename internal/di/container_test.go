package di

import (
	"context"
	"errors"
	"testing"

	"github.com/LeJamon/goOracled/internal/config"
	"github.com/LeJamon/goOracled/internal/core/auth"
	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/core/oracle"
	"github.com/LeJamon/goOracled/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeRecorder struct {
	name  string
	order *[]string
	err   error
}

func (c *closeRecorder) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestContainerBuildsOnce(t *testing.T) {
	c := New()
	builds := 0
	c.RegisterBuilder("svc", func(c *Container) (interface{}, error) {
		builds++
		return builds, nil
	})

	first, err := c.Get("svc")
	require.NoError(t, err)
	second, err := c.Get("svc")
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, 1, builds)
}

func TestContainerResolvesDependencies(t *testing.T) {
	c := New()
	c.Register("base", 20)
	c.RegisterBuilder("derived", func(c *Container) (interface{}, error) {
		base, err := c.Get("base")
		if err != nil {
			return nil, err
		}
		return base.(int) + 1, nil
	})

	assert.Equal(t, 21, c.MustGet("derived"))
	assert.Equal(t, []string{"base", "derived"}, c.ServiceNames())
	assert.True(t, c.Has("derived"))
	assert.False(t, c.Has("missing"))
}

func TestContainerErrors(t *testing.T) {
	c := New()
	_, err := c.Get("missing")
	assert.Error(t, err)
	assert.Panics(t, func() { c.MustGet("missing") })

	c.RegisterBuilder("a", func(c *Container) (interface{}, error) { return c.Get("b") })
	c.RegisterBuilder("b", func(c *Container) (interface{}, error) { return c.Get("a") })
	_, err = c.Get("a")
	assert.ErrorContains(t, err, "dependency cycle")

	boom := errors.New("boom")
	c.RegisterBuilder("broken", func(c *Container) (interface{}, error) { return nil, boom })
	_, err = c.Get("broken")
	assert.ErrorIs(t, err, boom)
	_, built := c.services["broken"]
	assert.False(t, built)
}

func TestContainerCloseOrder(t *testing.T) {
	var order []string
	c := New()
	c.RegisterBuilder("first", func(c *Container) (interface{}, error) {
		return &closeRecorder{name: "first", order: &order}, nil
	})
	c.RegisterBuilder("second", func(c *Container) (interface{}, error) {
		if _, err := c.Get("first"); err != nil {
			return nil, err
		}
		return &closeRecorder{name: "second", order: &order, err: errors.New("flush failed")}, nil
	})

	c.MustGet("second")
	c.OnClose(&closeRecorder{name: "extra", order: &order})

	err := c.Close()
	assert.ErrorContains(t, err, "flush failed")
	assert.Equal(t, []string{"extra", "second", "first"}, order)

	require.NoError(t, c.Close())
	assert.Len(t, order, 3)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Storage.Backend = "memory"
	cfg.Oracle.Admin = "operator"
	cfg.Events.Sinks = []string{"log", "websocket"}
	return cfg
}

func TestProviderWiresOracle(t *testing.T) {
	ctx := context.Background()
	c := New()
	c.Register(ServiceLogger, logging.Nop())
	p := NewProvider(ctx, c, testConfig(t))
	require.NoError(t, p.RegisterAll())
	defer c.Close()

	o, err := p.Oracle()
	require.NoError(t, err)
	assert.False(t, o.Initialized())

	settings, err := p.GetConfig().Oracle.Settings()
	require.NoError(t, err)
	err = o.Init(auth.WithCaller(ctx, "operator"), oracle.InitParams{
		Settings: settings,
		Assets:   []feed.Asset{feed.Other("BTC")},
	})
	require.NoError(t, err)

	err = o.Init(auth.WithCaller(ctx, "someone"), oracle.InitParams{Settings: settings})
	assert.ErrorIs(t, err, feed.ErrUnauthorized)

	hub, err := p.Hub()
	require.NoError(t, err)
	assert.NotNil(t, hub)

	journal, err := p.Journal()
	require.NoError(t, err)
	assert.Nil(t, journal)

	server, err := p.RPCServer()
	require.NoError(t, err)
	assert.NotNil(t, server.NewRouter())
}

func TestProviderJournalWithFee(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fee = config.FeeConfig{Token: "XRF", Rate: 10, ExtensionUnit: 60}
	cfg.Events.Sinks = []string{"log"}

	c := New()
	c.Register(ServiceLogger, logging.Nop())
	p := NewProvider(context.Background(), c, cfg)
	require.NoError(t, p.RegisterAll())
	defer c.Close()

	journal, err := p.Journal()
	require.NoError(t, err)
	require.NotNil(t, journal)

	hub, err := p.Hub()
	require.NoError(t, err)
	assert.Nil(t, hub)
}

func TestProviderRejectsBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "rocksdb"

	c := New()
	c.Register(ServiceLogger, logging.Nop())
	p := NewProvider(context.Background(), c, cfg)
	require.NoError(t, p.RegisterAll())

	_, err := p.Oracle()
	assert.Error(t, err)
}
