package feed

import (
	"fmt"
	"math"
)

const (
	// MaxDecimals is the largest precision whose scaling unit fits in an int64
	MaxDecimals = 18

	// MaxAssets bounds the registry; each asset owns one bit in a 256-bit update mask
	MaxAssets = 256

	// HistoryPeriods is the number of periods tracked by each history mask
	HistoryPeriods = 256

	// WindowCap is the largest number of records a windowed read returns
	WindowCap = 20

	// MaxResolution keeps every period span derived from the history, and the
	// two-period staleness bound, inside a uint64
	MaxResolution = math.MaxUint64 / (HistoryPeriods + 2)
)

// Settings is created once at initialization and never mutated afterwards,
// except for the retention period and cache size which are operational knobs.
type Settings struct {
	BaseAsset       Asset  `codec:"b" json:"base_asset"`
	Decimals        uint32 `codec:"d" json:"decimals"`
	Resolution      uint64 `codec:"r" json:"resolution"`
	RetentionPeriod uint64 `codec:"h" json:"retention_period"`
	CacheSize       uint32 `codec:"c" json:"cache_size"`
}

// Validate rejects settings under which derived computations are undefined.
func (s Settings) Validate() error {
	if s.Resolution == 0 {
		return fmt.Errorf("%w: resolution must be positive", ErrConfiguration)
	}
	if s.Resolution > MaxResolution {
		return fmt.Errorf("%w: resolution %d exceeds %d", ErrConfiguration, s.Resolution, uint64(MaxResolution))
	}
	if s.Decimals > MaxDecimals {
		return fmt.Errorf("%w: decimals %d exceeds %d", ErrConfiguration, s.Decimals, MaxDecimals)
	}
	if s.RetentionPeriod < s.Resolution {
		return fmt.Errorf("%w: retention period %d shorter than resolution %d",
			ErrConfiguration, s.RetentionPeriod, s.Resolution)
	}
	if err := s.BaseAsset.Validate(); err != nil {
		return fmt.Errorf("%w: base asset: %v", ErrConfiguration, err)
	}
	return nil
}

// RetainedPeriods is the number of periods a snapshot stays reachable.
func (s Settings) RetainedPeriods() uint64 {
	n := s.RetentionPeriod / s.Resolution
	if n > HistoryPeriods {
		return HistoryPeriods
	}
	return n
}

// FeeConfig converts burned fee tokens into expiration time.
type FeeConfig struct {
	Token string `codec:"t" json:"token"`
	// Rate is the amount of fee tokens buying one ExtensionUnit
	Rate uint64 `codec:"r" json:"rate"`
	// ExtensionUnit is the number of seconds bought by Rate tokens
	ExtensionUnit uint64 `codec:"u" json:"extension_unit"`
}

// Configured reports whether extension is possible.
func (f FeeConfig) Configured() bool {
	return f.Rate > 0 && f.ExtensionUnit > 0
}

// Validate checks a fee configuration submitted by an administrator.
func (f FeeConfig) Validate() error {
	if f.Token == "" {
		return fmt.Errorf("%w: fee token is required", ErrConfiguration)
	}
	if f.Rate == 0 {
		return fmt.Errorf("%w: fee rate must be positive", ErrConfiguration)
	}
	if f.ExtensionUnit == 0 {
		return fmt.Errorf("%w: extension unit must be positive", ErrConfiguration)
	}
	return nil
}
