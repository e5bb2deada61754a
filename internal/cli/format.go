package cli

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/shopspring/decimal"
)

// parsePrice converts a decimal string into a fixed-point price with the
// given number of fractional digits. Extra precision is rejected.
func parsePrice(s string, decimals uint32) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("price %q has more than %d decimals", s, decimals)
	}
	if scaled.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || scaled.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, fmt.Errorf("%w: price %q", feed.ErrOverflow, s)
	}
	return scaled.IntPart(), nil
}

func formatPrice(p int64, decimals uint32) string {
	return decimal.New(p, -int32(decimals)).StringFixed(int32(decimals))
}

func formatTime(ts uint64) string {
	if ts == 0 {
		return "never"
	}
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}

// writePrices prints one row per record, newest first.
func writePrices(out io.Writer, records []feed.PriceData, decimals uint32) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tTIME\tPRICE")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\n", r.Timestamp, formatTime(r.Timestamp), formatPrice(r.Price, decimals))
	}
	return w.Flush()
}
