package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/LeJamon/goOracled/internal/core/cost"
	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/gorilla/mux"
)

var errBadRequest = errors.New("bad request")

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	hits, misses := s.oracle.CacheStats()
	s.writeJSON(w, http.StatusOK, StatsResponse{
		Traffic:     s.traffic.GetAllStats(),
		CacheHits:   hits,
		CacheMisses: misses,
	})
}

func (s *Server) HandleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.oracle.Settings()
	if err != nil {
		s.writeError(w, err)
		return
	}
	last, err := s.oracle.LastTimestamp()
	if err != nil {
		s.writeError(w, err)
		return
	}
	version, err := s.oracle.ProtocolVersion()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SettingsResponse{
		BaseAsset:       settings.BaseAsset.String(),
		Decimals:        settings.Decimals,
		Resolution:      settings.Resolution,
		RetentionPeriod: settings.RetentionPeriod,
		CacheSize:       settings.CacheSize,
		LastTimestamp:   last,
		Protocol:        uint32(version),
	})
}

func (s *Server) HandleAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.oracle.Assets()
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]AssetResponse, len(assets))
	for i, a := range assets {
		exp, err := s.oracle.Expires(a)
		if err != nil {
			s.writeError(w, err)
			return
		}
		out[i] = AssetResponse{Index: i, Asset: a.String(), Expires: exp}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) HandleExpires(w http.ResponseWriter, r *http.Request) {
	asset, err := pathAsset(r, "asset")
	if err != nil {
		s.writeError(w, err)
		return
	}
	exp, err := s.oracle.Expires(asset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"expires": exp})
}

func (s *Server) HandleCost(w http.ResponseWriter, r *http.Request) {
	c, err := cost.ParseComplexity(r.URL.Query().Get("invocation"))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	periods, err := queryUint32(r, "periods", 1)
	if err != nil {
		s.writeError(w, err)
		return
	}
	fee, err := s.oracle.EstimateCost(c, periods)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, CostResponse{Invocation: c.String(), Periods: periods, Cost: fee})
}

func (s *Server) HandleLastPrice(w http.ResponseWriter, r *http.Request) {
	asset, err := pathAsset(r, "asset")
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.oracle.LastPrice(r.Context(), asset)
	s.writePrice(w, p, err)
}

func (s *Server) HandlePrice(w http.ResponseWriter, r *http.Request) {
	asset, err := pathAsset(r, "asset")
	if err != nil {
		s.writeError(w, err)
		return
	}
	ts, err := queryTimestamp(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.oracle.PriceAt(r.Context(), asset, ts)
	s.writePrice(w, p, err)
}

func (s *Server) HandlePrices(w http.ResponseWriter, r *http.Request) {
	asset, err := pathAsset(r, "asset")
	if err != nil {
		s.writeError(w, err)
		return
	}
	n, err := queryUint32(r, "records", 1)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ps, err := s.oracle.Prices(r.Context(), asset, n)
	s.writePrices(w, ps, err)
}

func (s *Server) HandleTWAP(w http.ResponseWriter, r *http.Request) {
	asset, err := pathAsset(r, "asset")
	if err != nil {
		s.writeError(w, err)
		return
	}
	n, err := queryUint32(r, "records", 1)
	if err != nil {
		s.writeError(w, err)
		return
	}
	v, err := s.oracle.TWAP(r.Context(), asset, n)
	s.writeAverage(w, v, n, err)
}

func (s *Server) HandleCrossLastPrice(w http.ResponseWriter, r *http.Request) {
	base, quote, err := pathPair(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.oracle.CrossLastPrice(r.Context(), base, quote)
	s.writePrice(w, p, err)
}

func (s *Server) HandleCrossPrice(w http.ResponseWriter, r *http.Request) {
	base, quote, err := pathPair(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ts, err := queryTimestamp(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.oracle.CrossPrice(r.Context(), base, quote, ts)
	s.writePrice(w, p, err)
}

func (s *Server) HandleCrossPrices(w http.ResponseWriter, r *http.Request) {
	base, quote, err := pathPair(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	n, err := queryUint32(r, "records", 1)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ps, err := s.oracle.CrossPrices(r.Context(), base, quote, n)
	s.writePrices(w, ps, err)
}

func (s *Server) HandleCrossTWAP(w http.ResponseWriter, r *http.Request) {
	base, quote, err := pathPair(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	n, err := queryUint32(r, "records", 1)
	if err != nil {
		s.writeError(w, err)
		return
	}
	v, err := s.oracle.CrossTWAP(r.Context(), base, quote, n)
	s.writeAverage(w, v, n, err)
}

func (s *Server) writePrice(w http.ResponseWriter, p feed.PriceData, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	decimals, err := s.decimals()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPriceResponse(p, decimals))
}

func (s *Server) writePrices(w http.ResponseWriter, ps []feed.PriceData, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	decimals, err := s.decimals()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPriceResponses(ps, decimals))
}

func (s *Server) writeAverage(w http.ResponseWriter, v int64, n uint32, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	decimals, err := s.decimals()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if n > feed.WindowCap {
		n = feed.WindowCap
	}
	s.writeJSON(w, http.StatusOK, AverageResponse{Price: formatPrice(v, decimals), Raw: v, Records: n})
}

func (s *Server) decimals() (uint32, error) {
	settings, err := s.oracle.Settings()
	if err != nil {
		return 0, err
	}
	return settings.Decimals, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("Failed to write response", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, feed.ErrInvalidAsset):
		status, code = http.StatusBadRequest, "bad_request"
	case errors.Is(err, feed.ErrAssetMissing):
		status, code = http.StatusNotFound, "asset_not_found"
	case errors.Is(err, feed.ErrUnavailable):
		status, code = http.StatusNotFound, "unavailable"
	case errors.Is(err, feed.ErrDivisionByZero):
		status, code = http.StatusUnprocessableEntity, "division_by_zero"
	case errors.Is(err, feed.ErrOverflow):
		status, code = http.StatusUnprocessableEntity, "overflow"
	case errors.Is(err, feed.ErrNotInitialized):
		status, code = http.StatusServiceUnavailable, "not_initialized"
	}
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", "error", err)
	}
	s.writeJSON(w, status, ErrorResponse{Error: code, Message: err.Error()})
}

func pathAsset(r *http.Request, name string) (feed.Asset, error) {
	a, err := feed.ParseAsset(mux.Vars(r)[name])
	if err != nil {
		return feed.Asset{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return a, nil
}

func pathPair(r *http.Request) (feed.Asset, feed.Asset, error) {
	base, err := pathAsset(r, "base")
	if err != nil {
		return feed.Asset{}, feed.Asset{}, err
	}
	quote, err := pathAsset(r, "quote")
	if err != nil {
		return feed.Asset{}, feed.Asset{}, err
	}
	return base, quote, nil
}

func queryTimestamp(r *http.Request) (uint64, error) {
	raw := r.URL.Query().Get("timestamp")
	if raw == "" {
		return 0, fmt.Errorf("%w: timestamp is required", errBadRequest)
	}
	ts, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: timestamp: %v", errBadRequest, err)
	}
	return ts, nil
}

func queryUint32(r *http.Request, name string, def uint32) (uint32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", errBadRequest, name, err)
	}
	return uint32(v), nil
}
