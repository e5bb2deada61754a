// Package fixedpoint provides checked integer arithmetic for prices and fees.
package fixedpoint

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"

	"github.com/LeJamon/goOracled/internal/core/feed"
)

var (
	bigMaxInt64 = big.NewInt(math.MaxInt64)
	bigMinInt64 = big.NewInt(math.MinInt64)
)

// Pow10 returns 10^exp or ErrOverflow when it does not fit in an int64.
func Pow10(exp uint32) (int64, error) {
	result := int64(1)
	for i := uint32(0); i < exp; i++ {
		if result > math.MaxInt64/10 {
			return 0, fmt.Errorf("%w: 10^%d", feed.ErrOverflow, exp)
		}
		result *= 10
	}
	return result, nil
}

// MulDivFloor computes floor(a*b/c) with a wide intermediate.
func MulDivFloor(a, b, c int64) (int64, error) {
	if c == 0 {
		return 0, feed.ErrDivisionByZero
	}
	num := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	return floorDiv(num, big.NewInt(c))
}

// CrossPrice expresses base in units of quote at the given precision.
func CrossPrice(base, quote int64, decimals uint32) (int64, error) {
	unit, err := Pow10(decimals)
	if err != nil {
		return 0, err
	}
	if quote == 0 {
		return 0, feed.ErrDivisionByZero
	}
	return MulDivFloor(base, unit, quote)
}

// Mean returns the floored arithmetic mean of values.
func Mean(values []int64) (int64, error) {
	if len(values) == 0 {
		return 0, feed.ErrDivisionByZero
	}
	sum := new(big.Int)
	for _, v := range values {
		sum.Add(sum, big.NewInt(v))
	}
	return floorDiv(sum, big.NewInt(int64(len(values))))
}

func floorDiv(num, den *big.Int) (int64, error) {
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	if r.Sign() != 0 && (r.Sign() < 0) != (den.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
	}
	if q.Cmp(bigMaxInt64) > 0 || q.Cmp(bigMinInt64) < 0 {
		return 0, feed.ErrOverflow
	}
	return q.Int64(), nil
}

// MulU64 multiplies with overflow detection.
func MulU64(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, feed.ErrOverflow
	}
	return lo, nil
}

// AddU64 adds with overflow detection.
func AddU64(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, feed.ErrOverflow
	}
	return sum, nil
}
