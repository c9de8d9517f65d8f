package core

import "errors"

// Sentinel errors classifying every failure the services return. Callers
// branch with errors.Is; the message wrapped around the sentinel carries the
// user-facing detail.
var (
	// ErrValidation marks rejected input: bad enum values, non-positive
	// quantities, malformed requests.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientStock marks a stock-out or shipment the available
	// quantity cannot cover. The check is per grade and per warehouse regime.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOverLock marks a lock request that would push locked_for_today
	// past current stock.
	ErrOverLock = errors.New("lock exceeds current stock")

	// ErrNotFound marks a missing record, line, or order.
	ErrNotFound = errors.New("not found")
)
