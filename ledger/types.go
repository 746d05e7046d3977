/*
Package ledger is the core of the order/billing ledger.

PURPOSE:
  This package contains the domain types and algorithms for the order
  lifecycle and supplier-payment reconciliation: deriving an order's
  effective status from calendar arithmetic, moving orders between the
  three storage partitions (active / expired-archive / canceled-archive),
  and allocating a supplier payment against the queue of outstanding
  order costs, oldest first.

KEY CONCEPTS IN THIS FILE (types.go):
  - Order: a resold subscription with cost/price and lifecycle status
  - CheckFlag: a deliberate three-value payment-confirmation domain
  - Supplier: the master record orders reference weakly, by name
  - PaymentCycle: one open-or-closed debt record owed to a supplier

DESIGN PRINCIPLES:
  1. Precision: all money is decimal.Decimal, never float64
  2. Partitions: an order code lives in exactly one partition at a time
  3. Weak reference: Order.SupplierName matches Supplier.Name by value;
     a supplier rename does not cascade, on purpose

SEE ALSO:
  - status.go:    effective-status derivation
  - archival.go:  partition transitions on removal
  - reconcile.go: payment allocation and debt rollover
*/
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ORDER STATUS
// =============================================================================

type OrderStatus string

const (
	StatusUnpaid        OrderStatus = "unpaid"
	StatusPaid          OrderStatus = "paid"
	StatusExpired       OrderStatus = "expired"
	StatusRenewalDue    OrderStatus = "renewal_due"
	StatusRefunded      OrderStatus = "refunded"
	StatusPendingRefund OrderStatus = "pending_refund"
)

// NormalizeStatus maps a stored status string onto its canonical form.
// Stored rows come from years of manual edits; comparisons always go
// through here rather than trusting raw column values.
func NormalizeStatus(s OrderStatus) OrderStatus {
	return OrderStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

// =============================================================================
// CHECK FLAG - Three-value payment confirmation
// =============================================================================

// CheckFlag is a tri-state, not a nullable boolean: Unset means the order
// has not been evaluated or finalized yet, Confirmed means payment to the
// supplier is confirmed, PendingRefund means a refund is owed.
type CheckFlag int

const (
	CheckUnset CheckFlag = iota
	CheckConfirmed
	CheckPendingRefund
)

func (c CheckFlag) String() string {
	switch c {
	case CheckConfirmed:
		return "confirmed"
	case CheckPendingRefund:
		return "pending_refund"
	default:
		return "unset"
	}
}

// ParseCheckFlag is the inverse of String. Input comes from API clients,
// so it tolerates case and surrounding whitespace.
func ParseCheckFlag(s string) (CheckFlag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "confirmed":
		return CheckConfirmed, nil
	case "pending_refund":
		return CheckPendingRefund, nil
	case "unset", "":
		return CheckUnset, nil
	default:
		return CheckUnset, fmt.Errorf("unknown check flag %q", s)
	}
}

// StatusPair is the persisted status and check flag of an order, as a
// unit. DeriveStatus works over pairs so the two fields cannot drift.
type StatusPair struct {
	Status OrderStatus
	Check  CheckFlag
}

// =============================================================================
// ORDER
// =============================================================================

// Order is a resold subscription in the active partition. OrderCode is
// the business identifier and stays stable across the order's lifetime,
// including after it moves into an archive partition.
type Order struct {
	ID           int64
	OrderCode    string
	ProductID    string
	CustomerName string
	ContactInfo  string
	Slot         string
	Note         string

	RegistrationDate *Date
	DurationDays     *int
	ExpiryDate       *Date

	// SupplierName links to Supplier.Name by value. This is a lookup key,
	// not ownership.
	SupplierName string

	Cost  decimal.Decimal
	Price decimal.Decimal

	Status OrderStatus
	Check  CheckFlag
}

// Pair returns the stored status/check-flag pair.
func (o *Order) Pair() StatusPair {
	return StatusPair{Status: o.Status, Check: o.Check}
}

// =============================================================================
// ARCHIVE RECORDS
// =============================================================================

// ExpiredOrder is an order archived because it ran out its term.
type ExpiredOrder struct {
	Order
	ArchivedAt time.Time
}

// CanceledOrder is an order archived mid-term with a refund owed to the
// customer. Status is always PendingRefund and Check is PendingRefund
// until the refund is settled by a manual edit.
type CanceledOrder struct {
	Order
	RefundAmount decimal.Decimal
	CreatedAt    time.Time
}

// RemoveOutcome names which partition absorbed a removed order, if any.
type RemoveOutcome string

const (
	OutcomeHardDeleted      RemoveOutcome = "hard_deleted"
	OutcomeArchivedExpired  RemoveOutcome = "archived_expired"
	OutcomeArchivedCanceled RemoveOutcome = "archived_canceled"
)

// =============================================================================
// SUPPLIER
// =============================================================================

// Supplier is a master record. Name is the match key used by
// Order.SupplierName; uniqueness is enforced case- and
// whitespace-insensitively via NameKey.
type Supplier struct {
	ID          string
	Name        string
	BankAccount string
	BankBin     string
	Active      bool
}

// NameKey is the normalized uniqueness key for a supplier name.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// =============================================================================
// PAYMENT CYCLE
// =============================================================================

type CycleStatus string

const (
	CycleUnpaid CycleStatus = "unpaid"
	CyclePaid   CycleStatus = "paid"
)

// PaymentCycle is one debt round owed to a supplier. ImportAmount is the
// total owed for the round; RoundLabel accumulates one settlement note
// per confirmation, append-only. A supplier has at most one Unpaid cycle
// at a time by construction: new cycles are only created when none is
// open.
type PaymentCycle struct {
	ID           string
	SupplierID   string
	ImportAmount decimal.Decimal
	PaidAmount   decimal.Decimal
	RoundLabel   string
	Status       CycleStatus
}
