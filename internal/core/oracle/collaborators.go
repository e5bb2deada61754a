package oracle

import (
	"context"
	"fmt"

	"github.com/LeJamon/goOracled/internal/core/feed"
)

//go:generate mockgen -destination=mocks/mock_collaborators.go -package=mocks github.com/LeJamon/goOracled/internal/core/oracle Authorizer,Burner,EventSink

// Authorizer gates administrative operations.
type Authorizer interface {
	RequireAdmin(ctx context.Context) error
}

// Burner destroys fee tokens on behalf of a payer.
type Burner interface {
	Burn(ctx context.Context, payer string, amount int64) error
}

// EventSink receives one event per registered asset after every ingestion.
type EventSink interface {
	Emit(ctx context.Context, ev feed.UpdateEvent) error
}

type denyAll struct{}

func (denyAll) RequireAdmin(context.Context) error {
	return fmt.Errorf("%w: no authorizer configured", feed.ErrUnauthorized)
}

type noBurner struct{}

func (noBurner) Burn(context.Context, string, int64) error {
	return fmt.Errorf("%w: no burner configured", feed.ErrFeeNotConfigured)
}

type discard struct{}

func (discard) Emit(context.Context, feed.UpdateEvent) error { return nil }
