package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	neturl "net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/logging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type failingSink struct{ err error }

func (f failingSink) Emit(ctx context.Context, ev feed.UpdateEvent) error { return f.err }

func event(symbol string, ts uint64, changed bool, price int64) feed.UpdateEvent {
	return feed.UpdateEvent{Asset: feed.Other(symbol), Timestamp: ts, Changed: changed, Price: price}
}

func TestMultiJoinsErrors(t *testing.T) {
	rec := &Recorder{}
	boom := errors.New("boom")
	m := Multi{rec, failingSink{err: boom}, rec}

	err := m.Emit(context.Background(), event("BTC", 600, true, 0))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, rec.Events(), 2)

	rec.Reset()
	assert.Empty(t, rec.Events())
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSink(logging.FromZap(zap.New(core)))

	require.NoError(t, s.Emit(context.Background(), event("BTC", 600, true, 0)))
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "BTC", fields["asset"])
	assert.Equal(t, int64(0), fields["price"])
	assert.Equal(t, true, fields["changed"])
}

func TestSQLSinkSQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "events.db")
	s, err := OpenSQLSink(ctx, DriverSQLite, dsn)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Emit(ctx, event("BTC", 600, true, 0)))
	require.NoError(t, s.Emit(ctx, event("BTC", 900, false, 0)))
	require.NoError(t, s.Emit(ctx, event("ETH", 900, true, 42)))

	history, err := s.History(ctx, feed.Other("BTC"), 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, uint64(900), history[0].Timestamp)
	assert.False(t, history[0].Changed)
	assert.True(t, history[1].Changed)
	assert.Equal(t, int64(0), history[1].Price)
}

func TestOpenSQLSinkUnknownDriver(t *testing.T) {
	_, err := OpenSQLSink(context.Background(), "mysql", "")
	assert.Error(t, err)
}

func TestRedisSinkIsBestEffort(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := NewRedisSink(RedisOptions{Addr: "127.0.0.1:1", Stream: "oracle:updates"}, logging.FromZap(zap.New(core)))
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, s.Emit(ctx, event("BTC", 600, true, 1)))
	assert.GreaterOrEqual(t, logs.Len(), 1)
	assert.Error(t, s.Ping(ctx))
}

func TestStreamValues(t *testing.T) {
	v := streamValues(event("BTC", 600, true, -3))
	assert.Equal(t, "BTC", v["asset"])
	assert.Equal(t, "600", v["timestamp"])
	assert.Equal(t, "true", v["changed"])
	assert.Equal(t, "-3", v["price"])
}

func TestHubBroadcastsToSubscribers(t *testing.T) {
	hub := NewHub(logging.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	all, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer all.Close()
	eth, _, err := websocket.DefaultDialer.Dial(url+"?asset=ETH", nil)
	require.NoError(t, err)
	defer eth.Close()

	require.Eventually(t, func() bool { return hub.Subscribers() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Emit(context.Background(), event("BTC", 600, true, 0)))
	require.NoError(t, hub.Emit(context.Background(), event("ETH", 600, true, 7)))

	read := func(c *websocket.Conn) message {
		c.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := c.ReadMessage()
		require.NoError(t, err)
		var m message
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}

	m := read(all)
	assert.Equal(t, "BTC", m.Asset)
	assert.Equal(t, "price_update", m.Type)
	assert.Equal(t, "ETH", read(all).Asset)

	m = read(eth)
	assert.Equal(t, "ETH", m.Asset)
	assert.Equal(t, int64(7), m.Price)
}

func TestHubRejectsBadAssetFilter(t *testing.T) {
	hub := NewHub(logging.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?asset=not-valid"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHubFiltersNativeAsset(t *testing.T) {
	hub := NewHub(logging.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	token := feed.Native("C" + strings.Repeat("A", 55))
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?asset=" + neturl.QueryEscape(token.String())
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.mu.RLock()
	for _, sub := range hub.connections {
		assert.Equal(t, token.String(), sub.asset)
	}
	hub.mu.RUnlock()

	require.NoError(t, hub.Emit(context.Background(), event("BTC", 600, true, 1)))
	require.NoError(t, hub.Emit(context.Background(), feed.UpdateEvent{Asset: token, Timestamp: 600, Changed: true, Price: 9}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m message
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, token.String(), m.Asset)
	assert.Equal(t, int64(9), m.Price)
}
