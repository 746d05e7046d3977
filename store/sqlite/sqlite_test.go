package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/order-ledger/ledger"
	"github.com/warp/order-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func date(y int, m time.Month, d int) *ledger.Date {
	dt := ledger.NewDate(y, m, d)
	return &dt
}

func testOrder(code string) *ledger.Order {
	duration := 30
	return &ledger.Order{
		OrderCode:        code,
		ProductID:        "prod-1",
		CustomerName:     "Customer " + code,
		ContactInfo:      "zalo:" + code,
		Slot:             "slot-1",
		RegistrationDate: date(2026, 3, 1),
		DurationDays:     &duration,
		ExpiryDate:       date(2026, 3, 31),
		SupplierName:     "NetShare Co",
		Cost:             decimal.NewFromInt(62000),
		Price:            decimal.NewFromInt(89000),
		Status:           ledger.StatusUnpaid,
		Check:            ledger.CheckUnset,
	}
}

// =============================================================================
// ORDER ROUND-TRIP TESTS
// =============================================================================

func TestOrders_InsertAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	o := testOrder("ORD-1")
	require.NoError(t, st.InsertActive(ctx, o))
	assert.NotZero(t, o.ID, "insert assigns the autoincrement id")

	got, err := st.GetActiveByCode(ctx, "ORD-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, "Customer ORD-1", got.CustomerName)
	assert.True(t, got.Cost.Equal(decimal.NewFromInt(62000)))
	assert.True(t, got.RegistrationDate.Equal(*o.RegistrationDate))
	assert.Equal(t, 30, *got.DurationDays)
	assert.Equal(t, ledger.CheckUnset, got.Check)
}

func TestOrders_GetMissing_ReturnsNil(t *testing.T) {
	st := newTestStore(t)

	got, err := st.GetActiveByCode(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrders_DuplicateCode_Rejected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.InsertActive(ctx, testOrder("DUP")))
	err := st.InsertActive(ctx, testOrder("DUP"))
	assert.ErrorIs(t, err, ledger.ErrDuplicateOrderCode)
}

func TestOrders_UpdateMissing_NotFound(t *testing.T) {
	st := newTestStore(t)

	err := st.UpdateActive(context.Background(), testOrder("GHOST"))
	assert.ErrorIs(t, err, ledger.ErrOrderNotFound)
}

func TestOrders_CheckFlagRoundTrip(t *testing.T) {
	// Unset maps to NULL, Confirmed to 1, PendingRefund to 0.
	st := newTestStore(t)
	ctx := context.Background()

	for i, check := range []ledger.CheckFlag{ledger.CheckUnset, ledger.CheckConfirmed, ledger.CheckPendingRefund} {
		o := testOrder("CHK-" + string(rune('A'+i)))
		o.Check = check
		require.NoError(t, st.InsertActive(ctx, o))

		got, err := st.GetActiveByCode(ctx, o.OrderCode)
		require.NoError(t, err)
		assert.Equal(t, check, got.Check)
	}
}

func TestOrders_NullableFieldsRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	o := &ledger.Order{
		OrderCode: "BARE",
		Cost:      decimal.Zero,
		Price:     decimal.Zero,
		Status:    ledger.StatusUnpaid,
	}
	require.NoError(t, st.InsertActive(ctx, o))

	got, err := st.GetActiveByCode(ctx, "BARE")
	require.NoError(t, err)
	assert.Nil(t, got.RegistrationDate)
	assert.Nil(t, got.DurationDays)
	assert.Nil(t, got.ExpiryDate)
}

// =============================================================================
// OUTSTANDING QUEUE TESTS
// =============================================================================

func TestFindOutstanding_OrderingContract(t *testing.T) {
	// NULL registration dates first, then date ascending, id ascending.
	st := newTestStore(t)
	ctx := context.Background()

	newer := testOrder("NEWER")
	newer.RegistrationDate = date(2026, 3, 5)
	older := testOrder("OLDER")
	older.RegistrationDate = date(2026, 2, 1)
	nodate := testOrder("NODATE")
	nodate.RegistrationDate = nil

	require.NoError(t, st.InsertActive(ctx, newer))
	require.NoError(t, st.InsertActive(ctx, older))
	require.NoError(t, st.InsertActive(ctx, nodate))

	out, err := st.FindOutstanding(ctx, "NetShare Co")
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "NODATE", out[0].OrderCode)
	assert.Equal(t, "OLDER", out[1].OrderCode)
	assert.Equal(t, "NEWER", out[2].OrderCode)
}

func TestFindOutstanding_Filters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	unpaid := testOrder("UNPAID")
	paid := testOrder("PAID")
	paid.Status = ledger.StatusPaid
	paid.Check = ledger.CheckConfirmed
	messy := testOrder("MESSY")
	messy.Status = " Unpaid "
	messy.SupplierName = " NetShare Co  "
	other := testOrder("OTHER")
	other.SupplierName = "Someone Else"

	for _, o := range []*ledger.Order{unpaid, paid, messy, other} {
		require.NoError(t, st.InsertActive(ctx, o))
	}

	out, err := st.FindOutstanding(ctx, "  NetShare Co ")
	require.NoError(t, err)

	codes := make([]string, len(out))
	for i, o := range out {
		codes[i] = o.OrderCode
	}
	assert.ElementsMatch(t, []string{"UNPAID", "MESSY"}, codes)
}

func TestMarkPaid_BulkFlip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := testOrder("A")
	b := testOrder("B")
	c := testOrder("C")
	for _, o := range []*ledger.Order{a, b, c} {
		require.NoError(t, st.InsertActive(ctx, o))
	}

	require.NoError(t, st.MarkPaid(ctx, []int64{a.ID, b.ID}))

	gotA, _ := st.GetActiveByCode(ctx, "A")
	gotC, _ := st.GetActiveByCode(ctx, "C")
	assert.Equal(t, ledger.StatusPaid, gotA.Status)
	assert.Equal(t, ledger.CheckConfirmed, gotA.Check)
	assert.Equal(t, ledger.StatusUnpaid, gotC.Status)

	// Empty id set is a no-op, not an error
	assert.NoError(t, st.MarkPaid(ctx, nil))
}

// =============================================================================
// ARCHIVE PARTITION TESTS
// =============================================================================

func TestArchives_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	base := testOrder("ARC-1")
	base.ID = 77

	exp := &ledger.ExpiredOrder{Order: *base, ArchivedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	exp.Status = ledger.StatusExpired
	require.NoError(t, st.InsertExpired(ctx, exp))

	can := &ledger.CanceledOrder{
		Order:        *testOrder("ARC-2"),
		RefundAmount: decimal.NewFromInt(45000),
		CreatedAt:    time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
	}
	can.ID = 78
	require.NoError(t, st.InsertCanceled(ctx, can))

	expired, err := st.ListExpired(ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, int64(77), expired[0].ID)
	assert.Equal(t, ledger.StatusExpired, expired[0].Status)
	assert.True(t, expired[0].ArchivedAt.Equal(exp.ArchivedAt))

	canceled, err := st.ListCanceled(ctx)
	require.NoError(t, err)
	require.Len(t, canceled, 1)
	assert.True(t, canceled[0].RefundAmount.Equal(decimal.NewFromInt(45000)))
}

// =============================================================================
// TRANSACTION TESTS
// =============================================================================

func TestWithTx_RollbackOnError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(s ledger.Store) error {
		if err := s.InsertActive(ctx, testOrder("TX-1")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := st.GetActiveByCode(ctx, "TX-1")
	require.NoError(t, err)
	assert.Nil(t, got, "insert must roll back with the failed transaction")
}

func TestWithTx_PartitionMoveIsAtomic(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	o := testOrder("MOVE-1")
	require.NoError(t, st.InsertActive(ctx, o))

	err := st.WithTx(ctx, func(s ledger.Store) error {
		rec := &ledger.ExpiredOrder{Order: *o, ArchivedAt: time.Now()}
		if err := s.InsertExpired(ctx, rec); err != nil {
			return err
		}
		return s.DeleteActive(ctx, "MOVE-1")
	})
	require.NoError(t, err)

	active, _ := st.GetActiveByCode(ctx, "MOVE-1")
	assert.Nil(t, active)
	expired, _ := st.ListExpired(ctx)
	assert.Len(t, expired, 1)
}

func TestWithTx_ReadsSeeUncommittedWrites(t *testing.T) {
	// The archival and reconciliation flows read their own writes inside
	// the transaction.
	st := newTestStore(t)
	ctx := context.Background()

	err := st.WithTx(ctx, func(s ledger.Store) error {
		if err := s.InsertActive(ctx, testOrder("SELF-1")); err != nil {
			return err
		}
		got, err := s.GetActiveByCode(ctx, "SELF-1")
		if err != nil {
			return err
		}
		require.NotNil(t, got)
		return nil
	})
	require.NoError(t, err)
}

// =============================================================================
// SUPPLIER / CYCLE TESTS
// =============================================================================

func TestSuppliers_UniqueNameKey(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := &ledger.Supplier{ID: "s1", Name: "NetShare Co", Active: true}
	require.NoError(t, st.SaveSupplier(ctx, a))

	// Same name modulo case and whitespace collides
	b := &ledger.Supplier{ID: "s2", Name: "  netshare co ", Active: true}
	err := st.SaveSupplier(ctx, b)
	assert.ErrorIs(t, err, ledger.ErrDuplicateSupplier)

	// Upsert of the same id is fine
	a.BankAccount = "0123456789"
	require.NoError(t, st.SaveSupplier(ctx, a))

	got, err := st.GetSupplier(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "0123456789", got.BankAccount)
}

func TestCycles_HasUnpaidCycleExcludesSelf(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	c := &ledger.PaymentCycle{
		ID:           "cyc-1",
		SupplierID:   "s1",
		ImportAmount: decimal.NewFromInt(100000),
		PaidAmount:   decimal.Zero,
		Status:       ledger.CycleUnpaid,
	}
	require.NoError(t, st.InsertCycle(ctx, c))

	// The cycle being confirmed must not block its own rollover check
	open, err := st.HasUnpaidCycle(ctx, "s1", "cyc-1")
	require.NoError(t, err)
	assert.False(t, open)

	open, err = st.HasUnpaidCycle(ctx, "s1", "other")
	require.NoError(t, err)
	assert.True(t, open)
}

func TestCycles_UpdateRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	c := &ledger.PaymentCycle{
		ID:           "cyc-1",
		SupplierID:   "s1",
		ImportAmount: decimal.NewFromInt(100000),
		PaidAmount:   decimal.Zero,
		RoundLabel:   "2026-03-01",
		Status:       ledger.CycleUnpaid,
	}
	require.NoError(t, st.InsertCycle(ctx, c))

	c.Status = ledger.CyclePaid
	c.PaidAmount = decimal.NewFromInt(100000)
	c.RoundLabel = "2026-03-01 - 2026-03-10"
	require.NoError(t, st.UpdateCycle(ctx, c))

	got, err := st.GetCycle(ctx, "cyc-1")
	require.NoError(t, err)
	assert.Equal(t, ledger.CyclePaid, got.Status)
	assert.Equal(t, "2026-03-01 - 2026-03-10", got.RoundLabel)

	err = st.UpdateCycle(ctx, &ledger.PaymentCycle{ID: "ghost", ImportAmount: decimal.Zero, PaidAmount: decimal.Zero})
	assert.ErrorIs(t, err, ledger.ErrCycleNotFound)
}

// =============================================================================
// DASHBOARD TESTS
// =============================================================================

func TestDashboardSummary(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := testOrder("D-1")
	b := testOrder("D-2")
	b.RegistrationDate = date(2026, 4, 2)
	require.NoError(t, st.InsertActive(ctx, a))
	require.NoError(t, st.InsertActive(ctx, b))

	can := &ledger.CanceledOrder{
		Order:        *testOrder("D-3"),
		RefundAmount: decimal.NewFromInt(89000),
		CreatedAt:    time.Now(),
	}
	can.ID = 99
	require.NoError(t, st.InsertCanceled(ctx, can))

	cycle := &ledger.PaymentCycle{
		ID:           "cyc-1",
		SupplierID:   "s1",
		ImportAmount: decimal.NewFromInt(150000),
		PaidAmount:   decimal.Zero,
		Status:       ledger.CycleUnpaid,
	}
	require.NoError(t, st.InsertCycle(ctx, cycle))

	sum, err := st.DashboardSummary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.ActiveOrders)
	assert.Equal(t, 0, sum.ExpiredOrders)
	assert.Equal(t, 1, sum.CanceledOrders)
	assert.True(t, sum.TotalCost.Equal(decimal.NewFromInt(124000)))
	assert.True(t, sum.TotalPrice.Equal(decimal.NewFromInt(178000)))
	assert.True(t, sum.OutstandingDebt.Equal(decimal.NewFromInt(150000)))
	assert.True(t, sum.PendingRefunds.Equal(decimal.NewFromInt(89000)))

	require.Len(t, sum.MonthlyRegistrations, 2)
	assert.Equal(t, "2026-03", sum.MonthlyRegistrations[0].Month)
	assert.Equal(t, "2026-04", sum.MonthlyRegistrations[1].Month)
}

// =============================================================================
// CATALOG TESTS
// =============================================================================

func TestCatalogs_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p := sqlite.Product{ID: "p1", Name: "Streaming Premium", Price: decimal.NewFromInt(89000), Note: "1 slot"}
	require.NoError(t, st.SaveProduct(ctx, p))

	products, err := st.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].Price.Equal(p.Price))

	require.NoError(t, st.DeleteProduct(ctx, "p1"))
	products, _ = st.ListProducts(ctx)
	assert.Empty(t, products)

	b := sqlite.Bank{ID: "b1", Name: "VCB", Bin: "970436"}
	require.NoError(t, st.SaveBank(ctx, b))
	banks, err := st.ListBanks(ctx)
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.Equal(t, "970436", banks[0].Bin)
}
