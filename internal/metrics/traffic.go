// Package metrics counts query traffic served by the HTTP API.
package metrics

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Category represents a traffic category for counting.
type Category int

const (
	// CategoryMeta is settings, assets, expiration and cost lookups.
	CategoryMeta Category = iota
	// CategoryPrice is single-asset point reads.
	CategoryPrice
	// CategoryPrices is single-asset windowed reads.
	CategoryPrices
	// CategoryTWAP is single-asset averages.
	CategoryTWAP
	// CategoryCrossPrice is cross-price point reads.
	CategoryCrossPrice
	// CategoryCrossPrices is cross-price windowed reads.
	CategoryCrossPrices
	// CategoryCrossTWAP is cross-price averages.
	CategoryCrossTWAP
	// CategoryStream is websocket subscriptions.
	CategoryStream
	// CategoryUnknown is anything not routed.
	CategoryUnknown
	// CategoryTotal is total traffic.
	CategoryTotal
)

var categoryNames = map[Category]string{
	CategoryMeta:        "meta",
	CategoryPrice:       "price",
	CategoryPrices:      "prices",
	CategoryTWAP:        "twap",
	CategoryCrossPrice:  "crossprice",
	CategoryCrossPrices: "crossprices",
	CategoryCrossTWAP:   "crosstwap",
	CategoryStream:      "stream",
	CategoryUnknown:     "unknown",
	CategoryTotal:       "total",
}

// String returns the string representation of a category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// Categorize maps an API path to its traffic category.
func Categorize(path string) Category {
	path = strings.TrimSuffix(path, "/")
	cross := strings.HasPrefix(path, "/api/cross/")
	last := path[strings.LastIndex(path, "/")+1:]

	switch {
	case path == "/api/ws":
		return CategoryStream
	case !cross && !strings.HasPrefix(path, "/api/"):
		return CategoryUnknown
	}
	switch last {
	case "lastprice", "price":
		if cross {
			return CategoryCrossPrice
		}
		return CategoryPrice
	case "prices":
		if cross {
			return CategoryCrossPrices
		}
		return CategoryPrices
	case "twap":
		if cross {
			return CategoryCrossTWAP
		}
		return CategoryTWAP
	case "health", "settings", "cost", "assets", "expires", "stats":
		return CategoryMeta
	default:
		return CategoryUnknown
	}
}

// Stats holds traffic statistics for a category.
type Stats struct {
	Name        string `json:"name"`
	Requests    uint64 `json:"requests"`
	Failures    uint64 `json:"failures"`
	Unavailable uint64 `json:"unavailable"`
	BytesOut    uint64 `json:"bytes_out"`
}

// atomicStats holds atomic counters for thread-safe updates.
type atomicStats struct {
	requests    atomic.Uint64
	failures    atomic.Uint64
	unavailable atomic.Uint64
	bytesOut    atomic.Uint64
}

func (s *atomicStats) snapshot(cat Category) Stats {
	return Stats{
		Name:        cat.String(),
		Requests:    s.requests.Load(),
		Failures:    s.failures.Load(),
		Unavailable: s.unavailable.Load(),
		BytesOut:    s.bytesOut.Load(),
	}
}

// TrafficCount tracks served requests by category.
type TrafficCount struct {
	mu     sync.RWMutex
	counts map[Category]*atomicStats
}

// NewTrafficCount creates a new TrafficCount.
func NewTrafficCount() *TrafficCount {
	tc := &TrafficCount{counts: make(map[Category]*atomicStats, len(categoryNames))}
	for cat := range categoryNames {
		tc.counts[cat] = &atomicStats{}
	}
	return tc
}

// AddCount records one response. 404 counts as unavailable data, any other
// status of 400 and above as a failure. The total is updated as well.
func (tc *TrafficCount) AddCount(cat Category, status int, bytes int) {
	tc.mu.RLock()
	stats, exists := tc.counts[cat]
	total := tc.counts[CategoryTotal]
	tc.mu.RUnlock()

	if !exists || cat == CategoryTotal {
		return
	}
	for _, s := range []*atomicStats{stats, total} {
		s.requests.Add(1)
		if bytes > 0 {
			s.bytesOut.Add(uint64(bytes))
		}
		switch {
		case status == 404:
			s.unavailable.Add(1)
		case status >= 400:
			s.failures.Add(1)
		}
	}
}

// GetStats returns statistics for a category.
func (tc *TrafficCount) GetStats(cat Category) *Stats {
	tc.mu.RLock()
	stats, exists := tc.counts[cat]
	tc.mu.RUnlock()

	if !exists {
		return nil
	}
	s := stats.snapshot(cat)
	return &s
}

// GetAllStats returns statistics for every category in category order.
func (tc *TrafficCount) GetAllStats() []Stats {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	result := make([]Stats, 0, len(tc.counts))
	cats := make([]Category, 0, len(tc.counts))
	for cat := range tc.counts {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, cat := range cats {
		result = append(result, tc.counts[cat].snapshot(cat))
	}
	return result
}

// GetTotalStats returns the total traffic statistics.
func (tc *TrafficCount) GetTotalStats() *Stats {
	return tc.GetStats(CategoryTotal)
}

// Reset resets all counters.
func (tc *TrafficCount) Reset() {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	for _, stats := range tc.counts {
		stats.requests.Store(0)
		stats.failures.Store(0)
		stats.unavailable.Store(0)
		stats.bytesOut.Store(0)
	}
}
