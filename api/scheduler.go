/*
scheduler.go - Automated status refresh scheduler

PURPOSE:
  Runs a nightly job that re-derives every active order's status from
  its expiry date and persists the result. Reads always derive on the
  fly; the nightly sweep keeps the stored column usable for raw SQL
  reporting and for the supplier debt scan.

DESIGN:
  - robfig/cron with a daily 02:00 schedule in the business timezone
  - Skips orders whose stored pair already matches the derived pair
  - RunNow() triggers an immediate sweep (admin/testing)

USAGE:
  scheduler := NewStatusScheduler(store, clock)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - ledger/status.go: derivation rules
*/
package api

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
	"github.com/warp/order-ledger/ledger"
	"github.com/warp/order-ledger/store/sqlite"
)

// statusRefreshSpec runs after midnight so date rollover in the business
// timezone has settled.
const statusRefreshSpec = "0 2 * * *"

// StatusScheduler persists derived order statuses on a nightly cadence.
type StatusScheduler struct {
	Store *sqlite.Store
	Clock ledger.Clock

	cron *cron.Cron
}

// NewStatusScheduler creates a scheduler bound to the clock's timezone.
func NewStatusScheduler(store *sqlite.Store, clock ledger.Clock) *StatusScheduler {
	c := cron.New(cron.WithLocation(clock.Now().Location()))
	return &StatusScheduler{
		Store: store,
		Clock: clock,
		cron:  c,
	}
}

// Start registers the nightly job and begins the cron loop.
func (s *StatusScheduler) Start() error {
	if _, err := s.cron.AddFunc(statusRefreshSpec, func() {
		s.RunNow(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[Scheduler] Started, status refresh at %q", statusRefreshSpec)
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *StatusScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[Scheduler] Stopped")
}

// RunNow performs one status sweep immediately.
func (s *StatusScheduler) RunNow(ctx context.Context) {
	today := s.Clock.Today()

	orders, err := s.Store.ListActive(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing orders: %v", err)
		return
	}

	updated := 0
	for i := range orders {
		o := orders[i]
		derived := ledger.EffectivePair(&o, today)
		if derived == o.Pair() {
			continue
		}

		o.Status = derived.Status
		o.Check = derived.Check
		if err := s.Store.UpdateActive(ctx, &o); err != nil {
			log.Printf("[Scheduler] Error updating %s: %v", o.OrderCode, err)
			continue
		}
		updated++
	}

	if updated > 0 {
		log.Printf("[Scheduler] Status sweep: %d of %d orders updated", updated, len(orders))
	}
}
