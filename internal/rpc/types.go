package rpc

import (
	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/metrics"
	"github.com/shopspring/decimal"
)

// PriceResponse carries a price both as a decimal string and as the raw
// fixed-point integer.
type PriceResponse struct {
	Price     string `json:"price"`
	Raw       int64  `json:"raw"`
	Timestamp uint64 `json:"timestamp"`
}

// AverageResponse is the result of a TWAP query.
type AverageResponse struct {
	Price   string `json:"price"`
	Raw     int64  `json:"raw"`
	Records uint32 `json:"records"`
}

type SettingsResponse struct {
	BaseAsset       string `json:"base_asset"`
	Decimals        uint32 `json:"decimals"`
	Resolution      uint64 `json:"resolution"`
	RetentionPeriod uint64 `json:"retention_period"`
	CacheSize       uint32 `json:"cache_size"`
	LastTimestamp   uint64 `json:"last_timestamp"`
	Protocol        uint32 `json:"protocol_version"`
}

type AssetResponse struct {
	Index   int    `json:"index"`
	Asset   string `json:"asset"`
	Expires uint64 `json:"expires"`
}

type CostResponse struct {
	Invocation string `json:"invocation"`
	Periods    uint32 `json:"periods"`
	Cost       uint64 `json:"cost"`
}

// StatsResponse reports request counters and snapshot cache efficiency.
type StatsResponse struct {
	Traffic     []metrics.Stats `json:"traffic"`
	CacheHits   uint64          `json:"cache_hits"`
	CacheMisses uint64          `json:"cache_misses"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// formatPrice renders a fixed-point price with the given number of decimals.
func formatPrice(price int64, decimals uint32) string {
	return decimal.New(price, -int32(decimals)).StringFixed(int32(decimals))
}

func newPriceResponse(p feed.PriceData, decimals uint32) PriceResponse {
	return PriceResponse{Price: formatPrice(p.Price, decimals), Raw: p.Price, Timestamp: p.Timestamp}
}

func newPriceResponses(ps []feed.PriceData, decimals uint32) []PriceResponse {
	out := make([]PriceResponse, len(ps))
	for i, p := range ps {
		out[i] = newPriceResponse(p, decimals)
	}
	return out
}
