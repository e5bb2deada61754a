// Package rpc exposes the read side of the oracle over HTTP.
package rpc

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/LeJamon/goOracled/internal/core/cost"
	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/core/protocol"
	"github.com/LeJamon/goOracled/internal/logging"
	"github.com/LeJamon/goOracled/internal/metrics"
	"github.com/gorilla/mux"
)

// Querier is the read API served over HTTP.
type Querier interface {
	Settings() (feed.Settings, error)
	Assets() ([]feed.Asset, error)
	LastTimestamp() (uint64, error)
	ProtocolVersion() (protocol.Version, error)
	Expires(asset feed.Asset) (uint64, error)
	EstimateCost(c cost.Complexity, periods uint32) (uint64, error)

	LastPrice(ctx context.Context, asset feed.Asset) (feed.PriceData, error)
	PriceAt(ctx context.Context, asset feed.Asset, t uint64) (feed.PriceData, error)
	Prices(ctx context.Context, asset feed.Asset, n uint32) ([]feed.PriceData, error)
	TWAP(ctx context.Context, asset feed.Asset, n uint32) (int64, error)

	CrossLastPrice(ctx context.Context, base, quote feed.Asset) (feed.PriceData, error)
	CrossPrice(ctx context.Context, base, quote feed.Asset, t uint64) (feed.PriceData, error)
	CrossPrices(ctx context.Context, base, quote feed.Asset, n uint32) ([]feed.PriceData, error)
	CrossTWAP(ctx context.Context, base, quote feed.Asset, n uint32) (int64, error)

	CacheStats() (hits, misses uint64)
}

// Server routes HTTP requests to a Querier.
type Server struct {
	oracle Querier
	events  http.Handler
	log     logging.Logger
	traffic *metrics.TrafficCount
}

// NewServer creates a server. events serves the websocket feed and may be nil.
func NewServer(oracle Querier, events http.Handler, log logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	return &Server{
		oracle:  oracle,
		events:  events,
		log:     logging.Component(log, "rpc"),
		traffic: metrics.NewTrafficCount(),
	}
}

// NewRouter returns the router with every route registered.
func (s *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.withCORS, s.withAccessLog)

	r.HandleFunc("/api/health", s.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/settings", s.HandleSettings).Methods(http.MethodGet)
	r.HandleFunc("/api/cost", s.HandleCost).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.HandleStats).Methods(http.MethodGet)

	r.HandleFunc("/api/assets", s.HandleAssets).Methods(http.MethodGet)
	r.HandleFunc("/api/assets/{asset}/lastprice", s.HandleLastPrice).Methods(http.MethodGet)
	r.HandleFunc("/api/assets/{asset}/price", s.HandlePrice).Methods(http.MethodGet)
	r.HandleFunc("/api/assets/{asset}/prices", s.HandlePrices).Methods(http.MethodGet)
	r.HandleFunc("/api/assets/{asset}/twap", s.HandleTWAP).Methods(http.MethodGet)
	r.HandleFunc("/api/assets/{asset}/expires", s.HandleExpires).Methods(http.MethodGet)

	r.HandleFunc("/api/cross/{base}/{quote}/lastprice", s.HandleCrossLastPrice).Methods(http.MethodGet)
	r.HandleFunc("/api/cross/{base}/{quote}/price", s.HandleCrossPrice).Methods(http.MethodGet)
	r.HandleFunc("/api/cross/{base}/{quote}/prices", s.HandleCrossPrices).Methods(http.MethodGet)
	r.HandleFunc("/api/cross/{base}/{quote}/twap", s.HandleCrossTWAP).Methods(http.MethodGet)

	if s.events != nil {
		r.Handle("/api/ws", s.events).Methods(http.MethodGet)
	}
	return r
}

// HTTPServer wraps the router in an http.Server listening on addr.
func (s *Server) HTTPServer(addr string, readTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.NewRouter(),
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
	}
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodOptions)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.traffic.AddCount(metrics.Categorize(r.URL.Path), rec.status, rec.bytes)
		s.log.Debug("Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// Traffic returns the request counters.
func (s *Server) Traffic() *metrics.TrafficCount {
	return s.traffic
}

// responseRecorder captures the status and size of a response. It passes
// Hijack through so websocket upgrades keep working.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}
