/*
errors.go - Centralized error types for the ledger

PURPOSE:
  All error values in one place for consistency and discoverability.
  The taxonomy has three client-relevant classes:

  1. Not-found     - referenced order/cycle/supplier absent; client error
  2. Invalid input - rejected at the boundary, algorithm never runs
  3. Transaction   - storage abort; whole operation rolled back, retryable

  Nothing here is fatal at the process level. Every failure is scoped to
  one operation invocation and leaves no partial mutation behind.

USAGE:
  if ledger.IsNotFound(err) { ... 404 ... }
  if ledger.IsRetryable(err) { ... retry whole operation ... }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrOrderNotFound is returned when an order code is absent from the
	// active partition.
	ErrOrderNotFound = errors.New("order not found")

	// ErrCycleNotFound is returned when a payment cycle id does not exist.
	ErrCycleNotFound = errors.New("payment cycle not found")

	// ErrSupplierNotFound is returned when a cycle references a supplier
	// row that no longer exists.
	ErrSupplierNotFound = errors.New("supplier not found")

	// ErrCycleAlreadyPaid is returned when confirming a cycle that a
	// previous confirmation already closed. Conflict, not retryable.
	ErrCycleAlreadyPaid = errors.New("payment cycle already paid")

	// ErrInvalidAmount is returned for negative or unparsable monetary
	// input, rejected before any algorithm runs.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrDuplicateSupplier is returned when a supplier name collides with
	// an existing one under the normalized name key.
	ErrDuplicateSupplier = errors.New("duplicate supplier name")

	// ErrDuplicateOrderCode is returned when creating an order whose code
	// already exists in the active partition.
	ErrDuplicateOrderCode = errors.New("duplicate order code")

	// ErrTransactionFailed is returned when a storage transaction aborts.
	// The operation had no effect and may be retried as a whole.
	ErrTransactionFailed = errors.New("transaction failed")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// TransactionError wraps a storage-layer abort with the operation that
// was rolled back.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: transaction rolled back: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return ErrTransactionFailed }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrCycleNotFound) ||
		errors.Is(err, ErrSupplierNotFound)
}

// IsClientError reports whether the error is due to invalid client input
// or a conflict the client can resolve. Not retryable as-is.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrCycleAlreadyPaid) ||
		errors.Is(err, ErrDuplicateSupplier) ||
		errors.Is(err, ErrDuplicateOrderCode)
}

// IsRetryable reports whether retrying the whole operation might succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransactionFailed)
}
