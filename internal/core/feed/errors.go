package feed

import "errors"

var (
	// ErrConfiguration is returned when settings are rejected at initialization
	ErrConfiguration = errors.New("invalid configuration")

	// ErrMalformedUpdate is returned when the change mask and the price list disagree
	ErrMalformedUpdate = errors.New("malformed price update")

	// ErrNonMonotonicUpdate is returned for a timestamp older than the last stored one
	ErrNonMonotonicUpdate = errors.New("update timestamp precedes last timestamp")

	// ErrFutureTimestamp is returned for a timestamp ahead of ledger time
	ErrFutureTimestamp = errors.New("update timestamp is in the future")

	// ErrInvalidTimestamp is returned for a timestamp that normalizes to zero
	ErrInvalidTimestamp = errors.New("invalid update timestamp")

	// ErrOverflow is returned when a derived value leaves the working integer width
	ErrOverflow = errors.New("arithmetic overflow")

	// ErrInvalidAmount is returned when an expiration extension cannot be computed
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrDivisionByZero is returned for a cross price against a zero quote price
	ErrDivisionByZero = errors.New("division by zero")

	// ErrUnavailable is returned by read paths when no data exists
	ErrUnavailable = errors.New("price unavailable")

	ErrDuplicateAsset     = errors.New("asset already registered")
	ErrRegistryFull       = errors.New("asset registry is full")
	ErrAssetMissing       = errors.New("asset not registered")
	ErrInvalidAsset       = errors.New("invalid asset")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAlreadyInitialized = errors.New("oracle already initialized")
	ErrNotInitialized     = errors.New("oracle not initialized")
	ErrFeeNotConfigured   = errors.New("fee is not configured")
)

// IsUnavailable reports whether err is a normal read-path miss.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrAssetMissing)
}

// IsArithmetic reports whether err comes from a bounded arithmetic check.
func IsArithmetic(err error) bool {
	return errors.Is(err, ErrOverflow) || errors.Is(err, ErrDivisionByZero) || errors.Is(err, ErrInvalidAmount)
}

// IsRejected reports whether err rejected a write before any state changed.
func IsRejected(err error) bool {
	switch {
	case errors.Is(err, ErrMalformedUpdate),
		errors.Is(err, ErrNonMonotonicUpdate),
		errors.Is(err, ErrFutureTimestamp),
		errors.Is(err, ErrInvalidTimestamp),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrDuplicateAsset),
		errors.Is(err, ErrRegistryFull),
		errors.Is(err, ErrInvalidAsset):
		return true
	}
	return false
}
