package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidDateFormat indicates a date string is not one of
	// YYYY, YYYY-MM, or YYYY-MM-DD, or has out-of-range components.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrInvalidDateRange indicates a date range whose normalized
	// start falls after its normalized end.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrDataLookup indicates a human-provided name resolved to nothing
	// in the graph. Surfaced directly to the caller, never retried.
	ErrDataLookup = errors.New("data lookup failed")

	// ErrInvalidInput indicates malformed or invalid tool input.
	ErrInvalidInput = errors.New("invalid input")
)
