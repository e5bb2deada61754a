package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/logging"
	"github.com/redis/go-redis/v9"
)

// DefaultStreamMaxLen caps the stream when no limit is configured.
const DefaultStreamMaxLen = 10000

// RedisOptions configures the stream sink.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	MaxLen   int64
}

// RedisSink appends events to a Redis stream. Delivery is best-effort: errors
// are logged and never fail the ingestion that produced the event.
type RedisSink struct {
	client *redis.Client
	log    logging.Logger
	stream string
	maxLen int64
}

func NewRedisSink(opts RedisOptions, log logging.Logger) *RedisSink {
	if opts.MaxLen == 0 {
		opts.MaxLen = DefaultStreamMaxLen
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,

		// Connection pool
		PoolSize:     10,
		MinIdleConns: 2,

		// Timeouts
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &RedisSink{
		client: client,
		log:    logging.Component(log, "redis"),
		stream: opts.Stream,
		maxLen: opts.MaxLen,
	}
}

// Ping checks connectivity.
func (s *RedisSink) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

func (s *RedisSink) Emit(ctx context.Context, ev feed.UpdateEvent) error {
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: streamValues(ev),
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		s.log.Warn("Failed to add to Redis stream",
			"stream", s.stream,
			"asset", ev.Asset.String(),
			"error", err)
	}
	return nil
}

func streamValues(ev feed.UpdateEvent) map[string]interface{} {
	return map[string]interface{}{
		"asset":     ev.Asset.String(),
		"index":     strconv.Itoa(ev.Index),
		"timestamp": strconv.FormatUint(ev.Timestamp, 10),
		"changed":   strconv.FormatBool(ev.Changed),
		"price":     strconv.FormatInt(ev.Price, 10),
	}
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
