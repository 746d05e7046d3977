package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/order-ledger/ledger"
)

func intPtr(n int) *int { return &n }

// =============================================================================
// DERIVATION RULE TESTS
// =============================================================================

func TestDeriveStatus_Thresholds(t *testing.T) {
	unpaid := ledger.StatusPair{Status: ledger.StatusUnpaid, Check: ledger.CheckUnset}

	cases := []struct {
		name string
		days *int
		want ledger.StatusPair
	}{
		{"unknown expiry keeps stored", nil, unpaid},
		{"well before window keeps stored", intPtr(10), unpaid},
		{"just outside window keeps stored", intPtr(5), unpaid},
		{"window boundary flags renewal", intPtr(4), ledger.StatusPair{Status: ledger.StatusRenewalDue, Check: ledger.CheckUnset}},
		{"inside window flags renewal", intPtr(1), ledger.StatusPair{Status: ledger.StatusRenewalDue, Check: ledger.CheckUnset}},
		{"expiry day expires", intPtr(0), ledger.StatusPair{Status: ledger.StatusExpired, Check: ledger.CheckUnset}},
		{"past expiry expires", intPtr(-30), ledger.StatusPair{Status: ledger.StatusExpired, Check: ledger.CheckUnset}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ledger.DeriveStatus(unpaid, tc.days)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDeriveStatus_PaidIsSticky(t *testing.T) {
	// Paid orders never move to Expired or RenewalDue from calendar
	// arithmetic alone, no matter how far past expiry they are.
	paid := ledger.StatusPair{Status: ledger.StatusPaid, Check: ledger.CheckConfirmed}

	for _, days := range []int{10, 4, 0, -1, -365} {
		got := ledger.DeriveStatus(paid, intPtr(days))
		assert.Equal(t, paid, got, "paid must survive %d days remaining", days)
	}
}

func TestDeriveStatus_PaidStickyUnderMessyStoredValue(t *testing.T) {
	// Stored columns carry years of manual edits; comparison must
	// normalize case and whitespace.
	messy := ledger.StatusPair{Status: "  Paid ", Check: ledger.CheckConfirmed}

	got := ledger.DeriveStatus(messy, intPtr(-5))
	assert.Equal(t, messy, got)
}

func TestDeriveStatus_TransitionResetsCheckFlag(t *testing.T) {
	// A calendar transition discards the stored check flag.
	stored := ledger.StatusPair{Status: ledger.StatusUnpaid, Check: ledger.CheckPendingRefund}

	got := ledger.DeriveStatus(stored, intPtr(0))
	assert.Equal(t, ledger.StatusExpired, got.Status)
	assert.Equal(t, ledger.CheckUnset, got.Check)

	got = ledger.DeriveStatus(stored, intPtr(3))
	assert.Equal(t, ledger.StatusRenewalDue, got.Status)
	assert.Equal(t, ledger.CheckUnset, got.Check)
}

func TestDeriveStatus_Idempotent(t *testing.T) {
	// Deriving twice with the same days must not change the answer.
	stored := ledger.StatusPair{Status: ledger.StatusUnpaid, Check: ledger.CheckUnset}

	once := ledger.DeriveStatus(stored, intPtr(2))
	twice := ledger.DeriveStatus(once, intPtr(2))
	assert.Equal(t, once, twice)
}

// =============================================================================
// DATE ARITHMETIC TESTS
// =============================================================================

func TestDaysRemaining(t *testing.T) {
	today := ledger.NewDate(2026, 3, 10)

	expiry := ledger.NewDate(2026, 3, 15)
	assert.Equal(t, 5, *ledger.DaysRemaining(&expiry, today))

	past := ledger.NewDate(2026, 3, 1)
	assert.Equal(t, -9, *ledger.DaysRemaining(&past, today))

	same := today
	assert.Equal(t, 0, *ledger.DaysRemaining(&same, today))

	assert.Nil(t, ledger.DaysRemaining(nil, today))
}

func TestEffectivePair_UsesExpiryDate(t *testing.T) {
	today := ledger.NewDate(2026, 3, 10)
	expiry := today.AddDays(3)

	o := &ledger.Order{
		OrderCode:  "ORD-1",
		ExpiryDate: &expiry,
		Status:     ledger.StatusUnpaid,
		Check:      ledger.CheckUnset,
	}

	pair := ledger.EffectivePair(o, today)
	assert.Equal(t, ledger.StatusRenewalDue, pair.Status)
}
