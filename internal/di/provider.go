package di

import (
	"context"
	"fmt"
	"net/http"

	"github.com/LeJamon/goOracled/internal/config"
	"github.com/LeJamon/goOracled/internal/core/auth"
	"github.com/LeJamon/goOracled/internal/core/burn"
	"github.com/LeJamon/goOracled/internal/core/oracle"
	"github.com/LeJamon/goOracled/internal/core/timestamp"
	"github.com/LeJamon/goOracled/internal/events"
	"github.com/LeJamon/goOracled/internal/logging"
	"github.com/LeJamon/goOracled/internal/rpc"
	"github.com/LeJamon/goOracled/internal/storage"
	"github.com/LeJamon/goOracled/internal/storage/database"
)

// Provider configures and registers services in the container.
type Provider struct {
	ctx       context.Context
	container *Container
	config    *config.Config
}

// NewProvider creates a new service provider. ctx bounds the I/O done while
// building services.
func NewProvider(ctx context.Context, container *Container, cfg *config.Config) *Provider {
	return &Provider{
		ctx:       ctx,
		container: container,
		config:    cfg,
	}
}

// RegisterAll registers all services.
func (p *Provider) RegisterAll() error {
	p.container.Register(ServiceConfig, p.config)

	p.registerCoreBuilders()
	p.registerStorageBuilders()
	p.registerEventBuilders()
	p.registerOracleBuilders()
	return nil
}

func (p *Provider) registerCoreBuilders() {
	if !p.container.Has(ServiceLogger) {
		p.container.RegisterBuilder(ServiceLogger, func(c *Container) (interface{}, error) {
			return logging.New(logging.Options{
				Level:    p.config.Log.Level,
				Encoding: p.config.Log.Encoding,
			})
		})
	}
	if !p.container.Has(ServiceClock) {
		p.container.Register(ServiceClock, timestamp.Clock(timestamp.SystemClock{}))
	}
}

func (p *Provider) registerStorageBuilders() {
	p.container.RegisterBuilder(ServiceDB, func(c *Container) (interface{}, error) {
		db, err := storage.Open(p.config.Storage.Backend, p.config.Storage.Path)
		if err != nil {
			return nil, err
		}
		p.logger(c).Info("Storage opened",
			"backend", p.config.Storage.Backend,
			"path", p.config.Storage.Path)
		return db, nil
	})

	// Burn journal, absent when no fee token is configured
	p.container.RegisterBuilder(ServiceJournal, func(c *Container) (interface{}, error) {
		if !p.config.Fee.Enabled() {
			return nil, nil
		}
		db, err := p.db(c)
		if err != nil {
			return nil, err
		}
		return burn.NewJournal(p.ctx, db, p.clock(c), p.config.Fee.Token)
	})
}

func (p *Provider) registerEventBuilders() {
	// Websocket hub, absent unless the websocket sink is enabled
	p.container.RegisterBuilder(ServiceHub, func(c *Container) (interface{}, error) {
		if !p.config.Events.HasSink("websocket") {
			return nil, nil
		}
		return events.NewHub(p.logger(c)), nil
	})

	p.container.RegisterBuilder(ServiceSinks, func(c *Container) (interface{}, error) {
		log := p.logger(c)
		cfg := p.config.Events

		var sinks events.Multi
		for _, name := range cfg.Sinks {
			switch name {
			case "log":
				sinks = append(sinks, events.NewLogSink(log))
			case events.DriverSQLite, events.DriverPostgres:
				sink, err := events.OpenSQLSink(p.ctx, name, cfg.SQLDSN)
				if err != nil {
					return nil, err
				}
				c.OnClose(sink)
				sinks = append(sinks, sink)
			case "redis":
				sink := events.NewRedisSink(events.RedisOptions{
					Addr:     cfg.RedisAddr,
					Password: cfg.RedisPassword,
					DB:       cfg.RedisDB,
					Stream:   cfg.RedisStream,
					MaxLen:   cfg.RedisMaxLen,
				}, log)
				if err := sink.Ping(p.ctx); err != nil {
					log.Warn("Redis unreachable, events will be retried per update", "addr", cfg.RedisAddr, "error", err)
				}
				c.OnClose(sink)
				sinks = append(sinks, sink)
			case "websocket":
				hub, err := p.Hub()
				if err != nil {
					return nil, err
				}
				sinks = append(sinks, hub)
			default:
				return nil, fmt.Errorf("unknown event sink %q", name)
			}
		}
		return sinks, nil
	})
}

func (p *Provider) registerOracleBuilders() {
	p.container.RegisterBuilder(ServiceOracle, func(c *Container) (interface{}, error) {
		db, err := p.db(c)
		if err != nil {
			return nil, err
		}
		sinks, err := c.Get(ServiceSinks)
		if err != nil {
			return nil, err
		}

		cfg := oracle.Config{
			DB:          db,
			Clock:       p.clock(c),
			Authorizer:  auth.NewAdminAuthorizer(p.config.Oracle.Admin),
			Sink:        sinks.(events.Multi),
			Logger:      p.logger(c),
			Compression: p.config.Storage.Compression,
			IngestGrace: p.config.Oracle.IngestGrace,
			PruneLimit:  p.config.Storage.PruneLimit,
		}
		journal, err := p.Journal()
		if err != nil {
			return nil, err
		}
		if journal != nil {
			cfg.Burner = journal
		}
		return oracle.Open(p.ctx, cfg)
	})

	p.container.RegisterBuilder(ServiceRPC, func(c *Container) (interface{}, error) {
		o, err := p.Oracle()
		if err != nil {
			return nil, err
		}
		hub, err := p.Hub()
		if err != nil {
			return nil, err
		}
		var ws http.Handler
		if hub != nil {
			ws = hub
		}
		return rpc.NewServer(o, ws, p.logger(c)), nil
	})
}

// GetConfig returns the configuration from the container.
func (p *Provider) GetConfig() *config.Config {
	return p.config
}

// Logger returns the root logger.
func (p *Provider) Logger() (logging.Logger, error) {
	l, err := p.container.Get(ServiceLogger)
	if err != nil {
		return nil, err
	}
	return l.(logging.Logger), nil
}

// Clock returns the ledger clock.
func (p *Provider) Clock() timestamp.Clock {
	return p.clock(p.container)
}

// Oracle returns the oracle opened over the configured store.
func (p *Provider) Oracle() (*oracle.Oracle, error) {
	o, err := p.container.Get(ServiceOracle)
	if err != nil {
		return nil, err
	}
	return o.(*oracle.Oracle), nil
}

// Journal returns the burn journal, nil when no fee is configured.
func (p *Provider) Journal() (*burn.Journal, error) {
	j, err := p.container.Get(ServiceJournal)
	if err != nil || j == nil {
		return nil, err
	}
	return j.(*burn.Journal), nil
}

// Hub returns the websocket hub, nil when the websocket sink is disabled.
func (p *Provider) Hub() (*events.Hub, error) {
	h, err := p.container.Get(ServiceHub)
	if err != nil || h == nil {
		return nil, err
	}
	return h.(*events.Hub), nil
}

// RPCServer returns the HTTP query server.
func (p *Provider) RPCServer() (*rpc.Server, error) {
	s, err := p.container.Get(ServiceRPC)
	if err != nil {
		return nil, err
	}
	return s.(*rpc.Server), nil
}

func (p *Provider) logger(c *Container) logging.Logger {
	if l, err := c.Get(ServiceLogger); err == nil {
		return l.(logging.Logger)
	}
	return logging.Nop()
}

func (p *Provider) clock(c *Container) timestamp.Clock {
	return c.MustGet(ServiceClock).(timestamp.Clock)
}

func (p *Provider) db(c *Container) (database.DB, error) {
	db, err := c.Get(ServiceDB)
	if err != nil {
		return nil, err
	}
	return db.(database.DB), nil
}
