/*
archival.go - Order removal and partition transitions

PURPOSE:
  Removing an order is not a plain delete. Depending on its effective
  state the order is either hard-deleted (no financial history worth
  retaining), archived as expired, or archived as canceled with a refund
  owed. The whole decision-and-move runs inside one storage transaction.

DECISION, IN ORDER:
  1. Derive the effective status/check pair first. The hard-delete test
     runs on the DERIVED pair, not the stored columns: an order whose row
     still says Unpaid but whose expiry has crossed the threshold is
     archived as Expired, not discarded. Changing this to stored-field
     evaluation changes which orders are retained.
  2. Effective Unpaid with an unset check flag: hard delete.
  3. Days remaining known and inside the renewal window: expired archive.
  4. Otherwise: canceled archive with a refund (explicit amount, or the
     order's sale price).

ATOMICITY:
  Archive insert happens before the active delete. A crash between the
  two leaves the order visible in two partitions until the transaction
  rolls back - never in zero.
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// RemoveOptions carries optional inputs to Remove.
type RemoveOptions struct {
	// RefundAmount overrides the refund recorded on a canceled archive.
	// When nil the order's sale price is used.
	RefundAmount *decimal.Decimal
}

// RemoveResult reports which partition absorbed the order, plus a
// snapshot of the order as it stood in the active partition.
type RemoveResult struct {
	Outcome  RemoveOutcome
	Snapshot Order
}

// Archiver owns the removal transition for active orders.
type Archiver struct {
	store TxStore
	clock Clock
}

func NewArchiver(store TxStore, clock Clock) *Archiver {
	return &Archiver{store: store, clock: clock}
}

// Remove deletes or archives the active order with the given code.
// Returns ErrOrderNotFound when the code is not in the active partition.
func (a *Archiver) Remove(ctx context.Context, orderCode string, opts RemoveOptions) (*RemoveResult, error) {
	var result *RemoveResult

	err := a.store.WithTx(ctx, func(s Store) error {
		ord, err := s.GetActiveByCode(ctx, orderCode)
		if err != nil {
			return err
		}
		if ord == nil {
			return ErrOrderNotFound
		}

		today := a.clock.Today()
		days := DaysRemaining(ord.ExpiryDate, today)
		effective := DeriveStatus(ord.Pair(), days)

		snapshot := *ord

		if NormalizeStatus(effective.Status) == StatusUnpaid && effective.Check == CheckUnset {
			if err := s.DeleteActive(ctx, orderCode); err != nil {
				return err
			}
			result = &RemoveResult{Outcome: OutcomeHardDeleted, Snapshot: snapshot}
			return nil
		}

		if days != nil && *days < RenewalWindowDays {
			archived := snapshot
			archived.Status = effective.Status
			archived.Check = effective.Check
			rec := &ExpiredOrder{Order: archived, ArchivedAt: a.clock.Now()}
			if err := s.InsertExpired(ctx, rec); err != nil {
				return err
			}
			if err := s.DeleteActive(ctx, orderCode); err != nil {
				return err
			}
			result = &RemoveResult{Outcome: OutcomeArchivedExpired, Snapshot: snapshot}
			return nil
		}

		refund := snapshot.Price
		if opts.RefundAmount != nil {
			refund = *opts.RefundAmount
		}
		archived := snapshot
		archived.Status = StatusPendingRefund
		archived.Check = CheckPendingRefund
		rec := &CanceledOrder{
			Order:        archived,
			RefundAmount: refund,
			CreatedAt:    a.clock.Now(),
		}
		if err := s.InsertCanceled(ctx, rec); err != nil {
			return err
		}
		if err := s.DeleteActive(ctx, orderCode); err != nil {
			return err
		}
		result = &RemoveResult{Outcome: OutcomeArchivedCanceled, Snapshot: snapshot}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
