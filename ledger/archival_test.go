package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/order-ledger/ledger"
	memstore "github.com/warp/order-ledger/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testToday = ledger.NewDate(2026, 3, 10)

func newArchiverFixture() (*ledger.Archiver, *memstore.Memory) {
	st := memstore.NewMemory()
	return ledger.NewArchiver(st, ledger.FrozenClock{Date: testToday}), st
}

func seedActive(t *testing.T, st *memstore.Memory, code string, daysToExpiry int, status ledger.OrderStatus, check ledger.CheckFlag) *ledger.Order {
	t.Helper()
	reg := testToday.AddDays(daysToExpiry - 30)
	expiry := testToday.AddDays(daysToExpiry)
	o := &ledger.Order{
		OrderCode:        code,
		CustomerName:     "Customer " + code,
		RegistrationDate: &reg,
		ExpiryDate:       &expiry,
		SupplierName:     "NetShare Co",
		Cost:             decimal.NewFromInt(62000),
		Price:            decimal.NewFromInt(89000),
		Status:           status,
		Check:            check,
	}
	require.NoError(t, st.InsertActive(context.Background(), o))
	return o
}

// countPartitions returns how many partitions hold the code.
func countPartitions(t *testing.T, st *memstore.Memory, code string) int {
	t.Helper()
	ctx := context.Background()
	n := 0
	if o, _ := st.GetActiveByCode(ctx, code); o != nil {
		n++
	}
	expired, _ := st.ListExpired(ctx)
	for _, rec := range expired {
		if rec.OrderCode == code {
			n++
		}
	}
	canceled, _ := st.ListCanceled(ctx)
	for _, rec := range canceled {
		if rec.OrderCode == code {
			n++
		}
	}
	return n
}

// =============================================================================
// REMOVAL OUTCOME TESTS
// =============================================================================

func TestRemove_UnpaidUnset_HardDeleted(t *testing.T) {
	// GIVEN: An unpaid order with plenty of term left and no check flag
	// WHEN: It is removed
	// THEN: It is hard-deleted, present in no partition
	arch, st := newArchiverFixture()
	seedActive(t, st, "ORD-1", 20, ledger.StatusUnpaid, ledger.CheckUnset)

	res, err := arch.Remove(context.Background(), "ORD-1", ledger.RemoveOptions{})
	require.NoError(t, err)

	assert.Equal(t, ledger.OutcomeHardDeleted, res.Outcome)
	assert.Equal(t, 0, countPartitions(t, st, "ORD-1"))
}

func TestRemove_StoredUnpaidButExpired_Archived(t *testing.T) {
	// GIVEN: A row still stored as unpaid whose expiry has passed
	// WHEN: It is removed
	// THEN: The derived pair wins - it is archived as expired, the
	//       financial record is NOT discarded
	arch, st := newArchiverFixture()
	seedActive(t, st, "ORD-2", -3, ledger.StatusUnpaid, ledger.CheckUnset)

	res, err := arch.Remove(context.Background(), "ORD-2", ledger.RemoveOptions{})
	require.NoError(t, err)

	assert.Equal(t, ledger.OutcomeArchivedExpired, res.Outcome)

	expired, _ := st.ListExpired(context.Background())
	require.Len(t, expired, 1)
	assert.Equal(t, "ORD-2", expired[0].OrderCode)
	// Archive record carries the derived pair, not the stale stored one
	assert.Equal(t, ledger.StatusExpired, expired[0].Status)
	assert.Equal(t, ledger.CheckUnset, expired[0].Check)
}

func TestRemove_PaidInsideRenewalWindow_ArchivedExpired(t *testing.T) {
	// GIVEN: A paid order with 2 days of term left
	// WHEN: It is removed
	// THEN: Expired archive - too close to expiry to owe a refund
	arch, st := newArchiverFixture()
	seedActive(t, st, "ORD-3", 2, ledger.StatusPaid, ledger.CheckConfirmed)

	res, err := arch.Remove(context.Background(), "ORD-3", ledger.RemoveOptions{})
	require.NoError(t, err)

	assert.Equal(t, ledger.OutcomeArchivedExpired, res.Outcome)
	assert.Equal(t, 1, countPartitions(t, st, "ORD-3"))
}

func TestRemove_PaidMidTerm_CanceledWithDefaultRefund(t *testing.T) {
	// GIVEN: A paid order with 20 days of term left
	// WHEN: It is removed without a refund override
	// THEN: Canceled archive, refund defaults to the sale price
	arch, st := newArchiverFixture()
	seedActive(t, st, "ORD-4", 20, ledger.StatusPaid, ledger.CheckConfirmed)

	res, err := arch.Remove(context.Background(), "ORD-4", ledger.RemoveOptions{})
	require.NoError(t, err)
	assert.Equal(t, ledger.OutcomeArchivedCanceled, res.Outcome)

	canceled, _ := st.ListCanceled(context.Background())
	require.Len(t, canceled, 1)
	assert.True(t, canceled[0].RefundAmount.Equal(decimal.NewFromInt(89000)),
		"refund should default to price, got %s", canceled[0].RefundAmount)
	assert.Equal(t, ledger.StatusPendingRefund, canceled[0].Status)
	assert.Equal(t, ledger.CheckPendingRefund, canceled[0].Check)
}

func TestRemove_RefundOverride(t *testing.T) {
	arch, st := newArchiverFixture()
	seedActive(t, st, "ORD-5", 20, ledger.StatusPaid, ledger.CheckConfirmed)

	refund := decimal.NewFromInt(45000)
	res, err := arch.Remove(context.Background(), "ORD-5", ledger.RemoveOptions{RefundAmount: &refund})
	require.NoError(t, err)
	assert.Equal(t, ledger.OutcomeArchivedCanceled, res.Outcome)

	canceled, _ := st.ListCanceled(context.Background())
	require.Len(t, canceled, 1)
	assert.True(t, canceled[0].RefundAmount.Equal(refund))
}

func TestRemove_ZeroRefundOverride_Honored(t *testing.T) {
	// An explicit zero refund is a valid business decision, not "absent".
	arch, st := newArchiverFixture()
	seedActive(t, st, "ORD-6", 20, ledger.StatusPaid, ledger.CheckConfirmed)

	zero := decimal.Zero
	_, err := arch.Remove(context.Background(), "ORD-6", ledger.RemoveOptions{RefundAmount: &zero})
	require.NoError(t, err)

	canceled, _ := st.ListCanceled(context.Background())
	require.Len(t, canceled, 1)
	assert.True(t, canceled[0].RefundAmount.IsZero())
}

func TestRemove_UnknownExpiry_Paid_Canceled(t *testing.T) {
	// Unknown days remaining cannot satisfy the expired-archive branch.
	arch, st := newArchiverFixture()
	o := &ledger.Order{
		OrderCode: "ORD-7",
		Price:     decimal.NewFromInt(89000),
		Status:    ledger.StatusPaid,
		Check:     ledger.CheckConfirmed,
	}
	require.NoError(t, st.InsertActive(context.Background(), o))

	res, err := arch.Remove(context.Background(), "ORD-7", ledger.RemoveOptions{})
	require.NoError(t, err)
	assert.Equal(t, ledger.OutcomeArchivedCanceled, res.Outcome)
}

func TestRemove_UnknownCode_NotFound(t *testing.T) {
	arch, _ := newArchiverFixture()

	_, err := arch.Remove(context.Background(), "NOPE", ledger.RemoveOptions{})
	assert.ErrorIs(t, err, ledger.ErrOrderNotFound)
}

// =============================================================================
// PARTITION EXCLUSIVITY
// =============================================================================

func TestRemove_PartitionExclusivity(t *testing.T) {
	// After any removal the code exists in at most one partition.
	arch, st := newArchiverFixture()

	cases := []struct {
		code  string
		days  int
		pair  ledger.StatusPair
		after int // partitions holding the code post-remove
	}{
		{"EX-1", 20, ledger.StatusPair{Status: ledger.StatusUnpaid, Check: ledger.CheckUnset}, 0},
		{"EX-2", 2, ledger.StatusPair{Status: ledger.StatusPaid, Check: ledger.CheckConfirmed}, 1},
		{"EX-3", 20, ledger.StatusPair{Status: ledger.StatusPaid, Check: ledger.CheckConfirmed}, 1},
	}

	for _, tc := range cases {
		seedActive(t, st, tc.code, tc.days, tc.pair.Status, tc.pair.Check)
		_, err := arch.Remove(context.Background(), tc.code, ledger.RemoveOptions{})
		require.NoError(t, err)
		assert.Equal(t, tc.after, countPartitions(t, st, tc.code), tc.code)
	}
}

func TestRemove_SnapshotIsPreRemovalState(t *testing.T) {
	arch, st := newArchiverFixture()
	seedActive(t, st, "SNAP-1", -3, ledger.StatusUnpaid, ledger.CheckUnset)

	res, err := arch.Remove(context.Background(), "SNAP-1", ledger.RemoveOptions{})
	require.NoError(t, err)

	// Snapshot reflects stored columns, not the derived pair
	assert.Equal(t, ledger.StatusUnpaid, res.Snapshot.Status)
}
