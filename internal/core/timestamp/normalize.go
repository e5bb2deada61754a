// Package timestamp aligns ledger timestamps to the period grid.
package timestamp

// Normalize rounds t down to a multiple of resolution. A zero resolution is
// rejected when settings are created, so reaching it here is a programming error.
func Normalize(t, resolution uint64) uint64 {
	if resolution == 0 {
		panic("timestamp: zero resolution")
	}
	return t - t%resolution
}

// IsAligned reports whether t already sits on the period grid.
func IsAligned(t, resolution uint64) bool {
	return resolution != 0 && t%resolution == 0
}

// PeriodsBetween returns the number of whole periods from older to newer,
// or zero when newer does not follow older.
func PeriodsBetween(older, newer, resolution uint64) uint64 {
	if newer <= older || resolution == 0 {
		return 0
	}
	return (newer - older) / resolution
}
