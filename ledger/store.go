/*
store.go - Persistence interfaces for orders, suppliers, and cycles

PURPOSE:
  Defines the boundary between the domain services and the database.
  No business rules live behind these interfaces; they exist so the
  archival and reconciliation services can be unit-tested against the
  in-memory implementation in ledger/store.

PARTITION CONTRACT:
  An order code exists in exactly one of the three partitions at any
  time: active, expired archive, canceled archive. Implementations move
  records between partitions only inside a WithTx callback, and the
  insert happens before the delete - a crash between the two must never
  be observable as data loss.

ORDERING CONTRACT:
  FindOutstanding returns orders oldest-first: registration date
  ascending with NULL dates first, then id ascending. This is the FIFO
  tie-break the payment allocation depends on; unknown dates are treated
  as oldest.

IMPLEMENTATIONS:
  - store/sqlite:      production store
  - ledger/store:      in-memory, for tests and dev
*/
package ledger

import "context"

// =============================================================================
// ORDER STORE
// =============================================================================

// OrderStore persists the three order partitions.
type OrderStore interface {
	// GetActiveByCode returns the active order with the code, or nil when
	// absent.
	GetActiveByCode(ctx context.Context, code string) (*Order, error)

	// ListActive returns the active partition, newest first (descending id).
	ListActive(ctx context.Context) ([]Order, error)

	InsertActive(ctx context.Context, o *Order) error
	UpdateActive(ctx context.Context, o *Order) error

	// DeleteActive removes an order from the active partition only. The
	// caller decides whether an archive insert precedes it.
	DeleteActive(ctx context.Context, code string) error

	// FindOutstanding returns active orders that still owe their supplier:
	// normalized status unpaid, check flag not confirmed, trimmed supplier
	// name equal to the trimmed argument. Ordered per the FIFO contract.
	FindOutstanding(ctx context.Context, supplierName string) ([]Order, error)

	// MarkPaid bulk-flips orders to Paid with a confirmed check flag.
	// The only write path that forces Paid outside manual edit.
	MarkPaid(ctx context.Context, ids []int64) error

	InsertExpired(ctx context.Context, rec *ExpiredOrder) error
	InsertCanceled(ctx context.Context, rec *CanceledOrder) error

	ListExpired(ctx context.Context) ([]ExpiredOrder, error)
	ListCanceled(ctx context.Context) ([]CanceledOrder, error)
}

// =============================================================================
// SUPPLIER LEDGER STORE
// =============================================================================

// SupplierLedgerStore persists supplier masters and payment cycles.
type SupplierLedgerStore interface {
	GetSupplier(ctx context.Context, id string) (*Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	SaveSupplier(ctx context.Context, s *Supplier) error
	DeleteSupplier(ctx context.Context, id string) error

	GetCycle(ctx context.Context, id string) (*PaymentCycle, error)
	ListCycles(ctx context.Context, supplierID string) ([]PaymentCycle, error)

	// HasUnpaidCycle reports whether the supplier has an open cycle other
	// than excludeID. Guards debt rollover against duplicate open balances.
	HasUnpaidCycle(ctx context.Context, supplierID, excludeID string) (bool, error)

	InsertCycle(ctx context.Context, c *PaymentCycle) error
	UpdateCycle(ctx context.Context, c *PaymentCycle) error
}

// =============================================================================
// COMBINED / TRANSACTIONAL STORE
// =============================================================================

// Store is the full persistence surface the domain services consume.
type Store interface {
	OrderStore
	SupplierLedgerStore
}

// TxStore wraps Store with transaction support. Remove and Confirm run
// their whole read-then-write sequence inside one WithTx callback; if fn
// returns an error the transaction rolls back with no partial effect.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
