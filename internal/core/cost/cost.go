// Package cost estimates the fee of a read invocation from its complexity.
package cost

import (
	"fmt"
	"strings"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/core/fixedpoint"
)

// Complexity classifies read invocations. Values index the cost table.
type Complexity int

const (
	// PeriodModifier scales the base cost per extra requested period
	PeriodModifier Complexity = iota
	Price
	TWAP
	CrossPrice
	CrossTWAP
)

// Scale is the fixed-point denominator of the period modifier.
const Scale = 10_000_000

// Table holds the cost of each complexity class, indexed by Complexity.
type Table [5]uint64

// DefaultTable is used until an administrator sets costs.
var DefaultTable = Table{2_000_000, 10_000_000, 15_000_000, 20_000_000, 30_000_000}

var names = map[string]Complexity{
	"price":      Price,
	"twap":       TWAP,
	"crossprice": CrossPrice,
	"xprice":     CrossPrice,
	"crosstwap":  CrossTWAP,
	"xtwap":      CrossTWAP,
}

// ParseComplexity accepts the lower-case invocation names.
func ParseComplexity(s string) (Complexity, error) {
	c, ok := names[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown invocation %q", s)
	}
	return c, nil
}

func (c Complexity) String() string {
	switch c {
	case PeriodModifier:
		return "modifier"
	case Price:
		return "price"
	case TWAP:
		return "twap"
	case CrossPrice:
		return "crossprice"
	case CrossTWAP:
		return "crosstwap"
	default:
		return fmt.Sprintf("Complexity(%d)", int(c))
	}
}

// Estimate returns the fee charged for invocation c over periods records.
// Each period after the first adds modifier/Scale of the base cost.
func (t Table) Estimate(c Complexity, periods uint32) (uint64, error) {
	if c <= PeriodModifier || int(c) >= len(t) {
		return 0, fmt.Errorf("unknown invocation %d", c)
	}
	base := t[c]
	if base == 0 || periods <= 1 || t[PeriodModifier] == 0 {
		return base, nil
	}

	extra, err := fixedpoint.MulU64(uint64(periods-1), t[PeriodModifier])
	if err != nil {
		return 0, err
	}
	factor, err := fixedpoint.AddU64(Scale, extra)
	if err != nil {
		return 0, err
	}
	scaled, err := fixedpoint.MulU64(base, factor)
	if err != nil {
		return 0, fmt.Errorf("%w: cost of %s over %d periods", feed.ErrOverflow, c, periods)
	}
	return scaled / Scale, nil
}
