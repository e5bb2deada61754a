package metrics

import (
	"sync"
	"testing"
)

func TestTrafficCountBasic(t *testing.T) {
	tc := NewTrafficCount()

	tc.AddCount(CategoryPrice, 200, 100)
	tc.AddCount(CategoryPrice, 404, 50)
	tc.AddCount(CategoryPrice, 422, 30)
	tc.AddCount(CategoryTWAP, 200, 20)

	stats := tc.GetStats(CategoryPrice)
	if stats == nil {
		t.Fatal("Stats should not be nil")
	}
	if stats.Requests != 3 {
		t.Errorf("Expected Requests 3, got %d", stats.Requests)
	}
	if stats.BytesOut != 180 {
		t.Errorf("Expected BytesOut 180, got %d", stats.BytesOut)
	}
	if stats.Unavailable != 1 {
		t.Errorf("Expected Unavailable 1, got %d", stats.Unavailable)
	}
	if stats.Failures != 1 {
		t.Errorf("Expected Failures 1, got %d", stats.Failures)
	}

	total := tc.GetTotalStats()
	if total.Requests != 4 || total.BytesOut != 200 {
		t.Errorf("Expected total 4 requests and 200 bytes, got %d and %d", total.Requests, total.BytesOut)
	}
}

func TestTrafficCountCategorize(t *testing.T) {
	tests := []struct {
		path     string
		expected Category
	}{
		{"/api/health", CategoryMeta},
		{"/api/assets", CategoryMeta},
		{"/api/assets/BTC/expires", CategoryMeta},
		{"/api/assets/BTC/lastprice", CategoryPrice},
		{"/api/assets/BTC/price", CategoryPrice},
		{"/api/assets/BTC/prices/", CategoryPrices},
		{"/api/assets/BTC/twap", CategoryTWAP},
		{"/api/cross/BTC/ETH/lastprice", CategoryCrossPrice},
		{"/api/cross/BTC/ETH/prices", CategoryCrossPrices},
		{"/api/cross/BTC/ETH/twap", CategoryCrossTWAP},
		{"/api/ws", CategoryStream},
		{"/favicon.ico", CategoryUnknown},
		{"/api/assets/BTC/median", CategoryUnknown},
	}

	for _, tc := range tests {
		if result := Categorize(tc.path); result != tc.expected {
			t.Errorf("Categorize(%q) = %v, expected %v", tc.path, result, tc.expected)
		}
	}
}

func TestTrafficCountTotalIgnoredAsTarget(t *testing.T) {
	tc := NewTrafficCount()
	tc.AddCount(CategoryTotal, 200, 10)
	if got := tc.GetTotalStats().Requests; got != 0 {
		t.Errorf("Expected direct total count to be ignored, got %d", got)
	}
	if tc.GetStats(Category(99)) != nil {
		t.Error("Unknown category should have no stats")
	}
}

func TestTrafficCountConcurrent(t *testing.T) {
	tc := NewTrafficCount()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tc.AddCount(CategoryCrossTWAP, 200, 1)
			}
		}()
	}
	wg.Wait()

	if got := tc.GetStats(CategoryCrossTWAP).Requests; got != 800 {
		t.Errorf("Expected 800 requests, got %d", got)
	}
}

func TestTrafficCountReset(t *testing.T) {
	tc := NewTrafficCount()
	tc.AddCount(CategoryMeta, 500, 10)
	tc.Reset()

	for _, s := range tc.GetAllStats() {
		if s.Requests != 0 || s.Failures != 0 || s.BytesOut != 0 {
			t.Errorf("Category %s not reset: %+v", s.Name, s)
		}
	}
	if n := len(tc.GetAllStats()); n != len(categoryNames) {
		t.Errorf("Expected %d categories, got %d", len(categoryNames), n)
	}
}
