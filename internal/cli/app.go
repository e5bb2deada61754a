package cli

import (
	"context"
	"fmt"

	"github.com/LeJamon/goOracled/internal/config"
	"github.com/LeJamon/goOracled/internal/core/auth"
	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/core/oracle"
	"github.com/LeJamon/goOracled/internal/core/timestamp"
	"github.com/LeJamon/goOracled/internal/di"
	"github.com/LeJamon/goOracled/internal/logging"
)

// app is the set of services one command invocation works with.
type app struct {
	cfg       *config.Config
	container *di.Container
	provider  *di.Provider
	log       logging.Logger
	oracle    *oracle.Oracle
}

// newApp wires the services described by cfg. Extra services registered on
// container before the call, such as a test clock, take precedence.
func newApp(ctx context.Context, cfg *config.Config, container *di.Container) (*app, error) {
	if container == nil {
		container = di.New()
	}
	provider := di.NewProvider(ctx, container, cfg)
	if err := provider.RegisterAll(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, container: container, provider: provider}
	var err error
	if a.log, err = provider.Logger(); err != nil {
		return nil, err
	}
	if a.oracle, err = provider.Oracle(); err != nil {
		container.Close()
		return nil, err
	}
	return a, nil
}

// openApp loads the invocation configuration and wires it.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := currentConfig()
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, nil)
}

func (a *app) clock() timestamp.Clock {
	return a.provider.Clock()
}

func (a *app) Close() error {
	return a.container.Close()
}

// admin returns ctx carrying the caller used for administrative operations.
func (a *app) admin(ctx context.Context) context.Context {
	return auth.WithCaller(ctx, callerIdentity(a.cfg))
}

// initialize stores the configured settings and assets unless the store
// already holds them. It reports whether Init ran.
func (a *app) initialize(ctx context.Context) (bool, error) {
	if a.oracle.Initialized() {
		return false, nil
	}
	settings, err := a.cfg.Oracle.Settings()
	if err != nil {
		return false, err
	}
	assets, err := a.cfg.Oracle.ParsedAssets()
	if err != nil {
		return false, err
	}
	err = a.oracle.Init(a.admin(ctx), oracle.InitParams{
		Settings:              settings,
		Assets:                assets,
		Fee:                   a.cfg.Fee.ToFeed(),
		InitialExpirationDays: a.cfg.Oracle.InitialExpirationDays,
		Protocol:              a.cfg.Oracle.ProtocolVersion(),
	})
	if err != nil {
		return false, fmt.Errorf("initialize oracle: %w", err)
	}
	return true, nil
}

// reconcile applies the operational settings that may change after Init.
func (a *app) reconcile(ctx context.Context) error {
	stored, err := a.oracle.Settings()
	if err != nil {
		return err
	}
	ctx = a.admin(ctx)
	if want := a.cfg.Oracle.HistoryRetentionPeriod; want != stored.RetentionPeriod {
		if err := a.oracle.SetRetentionPeriod(ctx, want); err != nil {
			return fmt.Errorf("update retention period: %w", err)
		}
		a.log.Info("Retention period updated", "from", stored.RetentionPeriod, "to", want)
	}
	if want := a.cfg.Oracle.CacheSize; want != stored.CacheSize {
		if err := a.oracle.SetCacheSize(ctx, want); err != nil {
			return fmt.Errorf("update cache size: %w", err)
		}
	}
	if want := a.cfg.Fee.ToFeed(); want.Configured() {
		current, err := a.oracle.FeeConfig()
		if err != nil {
			return err
		}
		if current != want {
			if err := a.oracle.SetFeeConfig(ctx, want, a.cfg.Oracle.InitialExpirationDays); err != nil {
				return fmt.Errorf("update fee: %w", err)
			}
		}
	}
	return nil
}

// indexOf resolves asset against the stored registry.
func (a *app) indexOf(asset feed.Asset) (int, error) {
	assets, err := a.oracle.Assets()
	if err != nil {
		return 0, err
	}
	for i, registered := range assets {
		if registered == asset {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", feed.ErrAssetMissing, asset)
}
