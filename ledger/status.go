/*
status.go - Effective status derivation

PURPOSE:
  An order's displayed status is not the stored column: it is derived
  from the stored status/check pair and how many whole days remain until
  expiry. The derivation is a total function - no I/O, no errors - so
  every caller (handlers, archival, the nightly refresh) computes the
  same answer from the same inputs.

RULES:
  - Unknown days remaining: stored pair unchanged
  - Paid is sticky: calendar transitions never override it
  - <= 0 days: Expired, check flag reset to unset
  - <= 4 days: RenewalDue, check flag reset to unset
  - otherwise: stored pair unchanged
*/
package ledger

// RenewalWindowDays is the threshold below which an order is flagged for
// renewal rather than left at its stored status.
const RenewalWindowDays = 4

// DeriveStatus computes the effective status/check pair.
func DeriveStatus(stored StatusPair, daysRemaining *int) StatusPair {
	if daysRemaining == nil {
		return stored
	}
	if NormalizeStatus(stored.Status) == StatusPaid {
		return stored
	}
	switch {
	case *daysRemaining <= 0:
		return StatusPair{Status: StatusExpired, Check: CheckUnset}
	case *daysRemaining <= RenewalWindowDays:
		return StatusPair{Status: StatusRenewalDue, Check: CheckUnset}
	default:
		return stored
	}
}

// EffectivePair derives the pair for an order given today's date.
func EffectivePair(o *Order, today Date) StatusPair {
	return DeriveStatus(o.Pair(), DaysRemaining(o.ExpiryDate, today))
}
