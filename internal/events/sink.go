// Package events delivers per-asset update events to audit and streaming sinks.
package events

import (
	"context"
	"errors"
	"sync"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/logging"
)

// Sink receives one event per registered asset for every committed ingestion.
type Sink interface {
	Emit(ctx context.Context, ev feed.UpdateEvent) error
}

// Multi fans events out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, ev feed.UpdateEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes events to the structured log.
type LogSink struct {
	log logging.Logger
}

func NewLogSink(log logging.Logger) *LogSink {
	return &LogSink{log: logging.Component(log, "events")}
}

func (s *LogSink) Emit(ctx context.Context, ev feed.UpdateEvent) error {
	s.log.Info("price update",
		"asset", ev.Asset.String(),
		"timestamp", ev.Timestamp,
		"changed", ev.Changed,
		"price", ev.Price)
	return nil
}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []feed.UpdateEvent
}

func (r *Recorder) Emit(ctx context.Context, ev feed.UpdateEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []feed.UpdateEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]feed.UpdateEvent(nil), r.events...)
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
