/*
reconcile.go - Supplier payment reconciliation

PURPOSE:
  Confirming a payment cycle settles the supplier's outstanding orders
  oldest-first against the amount actually paid, then rolls any shortfall
  into a fresh open cycle. FIFO debt settlement is the business rule, not
  an approximation: the marked set is always a prefix of the oldest-first
  ordering.

ALLOCATION:
  Walk the ordered outstanding list accumulating cost; stop as soon as
  the running sum reaches the paid amount. Orders are never split - the
  order that crosses the threshold is included in full, so the consumed
  total may overshoot the paid amount. Callers doing exact accounting
  must account for that overshoot; it is intended behavior.

ROLLOVER:
  remaining = max(0, totalOutstanding - paid), computed from the same
  snapshot the allocation read. A new Unpaid cycle is created only when
  the supplier has no other open cycle, so two confirmations can never
  leave duplicate open balances behind.

SERIALIZATION:
  Confirmations for cycles of the same supplier hold a supplier-scoped
  lock across the whole read-then-write sequence. A second confirmation
  of an already-closed cycle surfaces ErrCycleAlreadyPaid.
*/
package ledger

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfirmOptions carries optional inputs to Confirm.
type ConfirmOptions struct {
	// PaidAmount overrides the cycle's import amount. Negative values are
	// ignored and the import amount is used instead; rejection of garbage
	// input happens at the HTTP boundary, never silently inside here.
	PaidAmount *decimal.Decimal
}

// Reconciler owns payment-cycle confirmation.
type Reconciler struct {
	store TxStore
	clock Clock

	mu        sync.Mutex
	suppliers map[string]*sync.Mutex
}

func NewReconciler(store TxStore, clock Clock) *Reconciler {
	return &Reconciler{
		store:     store,
		clock:     clock,
		suppliers: make(map[string]*sync.Mutex),
	}
}

// supplierLock returns the mutex serializing confirmations for one
// supplier. The rollover check in Confirm reads "does an open cycle
// exist" and later inserts one; without a supplier-scoped lock two
// confirmations for different cycles of the same supplier could both
// read no and both insert.
func (r *Reconciler) supplierLock(supplierID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.suppliers[supplierID]
	if !ok {
		l = &sync.Mutex{}
		r.suppliers[supplierID] = l
	}
	return l
}

// Confirm settles the payment cycle and returns it in its closed state.
// Returns ErrCycleNotFound for an unknown id, ErrCycleAlreadyPaid when a
// prior confirmation already closed it.
func (r *Reconciler) Confirm(ctx context.Context, cycleID string, opts ConfirmOptions) (*PaymentCycle, error) {
	// Resolve the supplier outside the transaction so its lock brackets
	// the whole sequence.
	head, err := r.store.GetCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if head == nil {
		return nil, ErrCycleNotFound
	}

	lock := r.supplierLock(head.SupplierID)
	lock.Lock()
	defer lock.Unlock()

	var out *PaymentCycle
	err = r.store.WithTx(ctx, func(s Store) error {
		cycle, err := s.GetCycle(ctx, cycleID)
		if err != nil {
			return err
		}
		if cycle == nil {
			return ErrCycleNotFound
		}
		if cycle.Status == CyclePaid {
			return ErrCycleAlreadyPaid
		}

		effectivePaid := cycle.ImportAmount
		if opts.PaidAmount != nil && !opts.PaidAmount.IsNegative() {
			effectivePaid = *opts.PaidAmount
		}

		sup, err := s.GetSupplier(ctx, cycle.SupplierID)
		if err != nil {
			return err
		}
		if sup == nil {
			return ErrSupplierNotFound
		}
		// Empty supplier name is valid and matches orders with an empty
		// supplier field.
		supplierName := strings.TrimSpace(sup.Name)

		outstanding, err := s.FindOutstanding(ctx, supplierName)
		if err != nil {
			return err
		}

		totalOutstanding := decimal.Zero
		for _, o := range outstanding {
			totalOutstanding = totalOutstanding.Add(o.Cost)
		}

		runningSum := decimal.Zero
		var toMarkPaid []int64
		for _, o := range outstanding {
			runningSum = runningSum.Add(o.Cost)
			toMarkPaid = append(toMarkPaid, o.ID)
			if runningSum.GreaterThanOrEqual(effectivePaid) {
				break
			}
		}

		if len(toMarkPaid) > 0 {
			if err := s.MarkPaid(ctx, toMarkPaid); err != nil {
				return err
			}
		}

		remaining := totalOutstanding.Sub(effectivePaid)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}

		today := r.clock.Today().String()

		if remaining.IsPositive() {
			open, err := s.HasUnpaidCycle(ctx, cycle.SupplierID, cycle.ID)
			if err != nil {
				return err
			}
			if !open {
				rollover := &PaymentCycle{
					ID:           uuid.NewString(),
					SupplierID:   cycle.SupplierID,
					ImportAmount: remaining,
					PaidAmount:   decimal.Zero,
					RoundLabel:   today,
					Status:       CycleUnpaid,
				}
				if err := s.InsertCycle(ctx, rollover); err != nil {
					return err
				}
			}
		}

		cycle.Status = CyclePaid
		cycle.PaidAmount = effectivePaid
		// Append, never overwrite: the label is the settlement history.
		cycle.RoundLabel = strings.TrimSpace(cycle.RoundLabel + " - " + today)

		if err := s.UpdateCycle(ctx, cycle); err != nil {
			return err
		}
		out = cycle
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
