/*
clock.go - Business-calendar time

PURPOSE:
  All lifecycle arithmetic runs on whole calendar days in a fixed
  business timezone. Domain code never reads ambient time; "today" is
  threaded in through the Clock interface so status derivation and
  archival decisions stay deterministic and testable.
*/
package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar date without time of day
// =============================================================================

// Date is a calendar date. The zero value is "no date".
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(other Date) bool { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool  { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool  { return d.normalize().After(other.normalize()) }
func (d Date) IsZero() bool           { return d.Time.IsZero() }

func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// DaysRemaining returns the whole days from today until expiry, or nil
// when the expiry date is unknown. Negative means already past.
func DaysRemaining(expiry *Date, today Date) *int {
	if expiry == nil || expiry.IsZero() {
		return nil
	}
	n := DaysBetween(today, *expiry)
	return &n
}

// =============================================================================
// CLOCK - Source of "today" in the business timezone
// =============================================================================

// Clock supplies the current business date and wall time. Today is what
// the lifecycle math uses; Now stamps archive records.
type Clock interface {
	Today() Date
	Now() time.Time
}

// FixedZoneClock reads the system clock in one fixed business timezone.
type FixedZoneClock struct {
	loc *time.Location
}

// NewFixedZoneClock builds a clock for an IANA timezone name, e.g.
// "Asia/Ho_Chi_Minh".
func NewFixedZoneClock(tz string) (*FixedZoneClock, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid business timezone %q: %w", tz, err)
	}
	return &FixedZoneClock{loc: loc}, nil
}

func (c *FixedZoneClock) Today() Date {
	now := time.Now().In(c.loc)
	return NewDate(now.Year(), now.Month(), now.Day())
}

func (c *FixedZoneClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// FrozenClock always reports the same date and instant. Test helper.
type FrozenClock struct {
	Date    Date
	Instant time.Time
}

func (c FrozenClock) Today() Date { return c.Date }

func (c FrozenClock) Now() time.Time {
	if c.Instant.IsZero() {
		return c.Date.Time
	}
	return c.Instant
}
