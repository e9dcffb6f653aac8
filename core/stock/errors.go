package stock

import "errors"

var (
	// ErrProductNotFound is returned for an unknown product or a tenant
	// mismatch. Not retryable without caller correction.
	ErrProductNotFound = errors.New("stock: product not found")

	// ErrInsufficientStock is a business-rule violation: not enough
	// available units. Surfaced to the end user, never silently retried.
	ErrInsufficientStock = errors.New("stock: insufficient stock")

	// ErrInvalidReservationState is returned when commit or release is
	// invoked on a reservation already in a terminal state via raw id.
	// Callers that retry should use the source-key variants instead.
	ErrInvalidReservationState = errors.New("stock: reservation not in reserved state")

	// ErrLockTimeout means the per-product advisory lock could not be
	// acquired in time. Transient contention; retryable with backoff.
	ErrLockTimeout = errors.New("stock: timed out waiting for product lock")

	// ErrCounterDrift means the row-locked counters disagree with the
	// reservation being applied. The invariant holds by construction, so
	// this indicates corrupted data and is never floored away silently.
	ErrCounterDrift = errors.New("stock: reserved counter drifted below reservation quantity")
)
