package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/logging"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 256
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Hub streams events to websocket subscribers. A subscriber may pass
// ?asset=<asset> to receive a single asset only.
type Hub struct {
	upgrader    websocket.Upgrader
	log         logging.Logger
	connections map[uint64]*subscriber
	mu          sync.RWMutex
	nextID      atomic.Uint64
}

type subscriber struct {
	id     uint64
	conn   *websocket.Conn
	asset  string
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func NewHub(log logging.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:         logging.Component(log, "hub"),
		connections: make(map[uint64]*subscriber),
	}
}

// ServeHTTP upgrades the request and registers the subscriber.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var asset string
	if raw := r.URL.Query().Get("asset"); raw != "" {
		parsed, err := feed.ParseAsset(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		asset = parsed.String()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscriber{
		id:     h.nextID.Add(1),
		conn:   conn,
		asset:  asset,
		send:   make(chan []byte, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.Lock()
	h.connections[sub.id] = sub
	h.mu.Unlock()

	go h.readLoop(sub)
	go h.writeLoop(sub)
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Emit broadcasts ev. Slow subscribers are skipped rather than blocking ingestion.
func (h *Hub) Emit(ctx context.Context, ev feed.UpdateEvent) error {
	data, err := json.Marshal(eventMessage(ev))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	asset := ev.Asset.String()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.connections {
		if sub.asset != "" && sub.asset != asset {
			continue
		}
		select {
		case sub.send <- data:
		default:
			h.log.Warn("Skipping slow WebSocket subscriber", "id", sub.id)
		}
	}
	return nil
}

// Close disconnects every subscriber.
func (h *Hub) Close() error {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.connections))
	for _, sub := range h.connections {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		h.closeSubscriber(sub)
	}
	return nil
}

// readLoop only services control frames; subscribers never send commands.
func (h *Hub) readLoop(sub *subscriber) {
	defer h.closeSubscriber(sub)

	sub.conn.SetReadLimit(512)
	sub.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("WebSocket read failed", "id", sub.id, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer h.closeSubscriber(sub)

	for {
		select {
		case <-sub.ctx.Done():
			return
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case message := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := sub.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.log.Debug("WebSocket send failed", "id", sub.id, "error", err)
				return
			}
		}
	}
}

func (h *Hub) closeSubscriber(sub *subscriber) {
	sub.once.Do(func() {
		sub.cancel()
		h.mu.Lock()
		delete(h.connections, sub.id)
		h.mu.Unlock()
		sub.conn.Close()
	})
}

type message struct {
	Type      string `json:"type"`
	Asset     string `json:"asset"`
	Timestamp uint64 `json:"timestamp"`
	Changed   bool   `json:"changed"`
	Price     int64  `json:"price"`
}

func eventMessage(ev feed.UpdateEvent) message {
	return message{
		Type:      "price_update",
		Asset:     ev.Asset.String(),
		Timestamp: ev.Timestamp,
		Changed:   ev.Changed,
		Price:     ev.Price,
	}
}
