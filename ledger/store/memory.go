// Package store provides an in-memory ledger.TxStore for tests and dev.
//
// Semantics mirror the production SQLite store: partition moves, the
// outstanding-order ordering contract, and WithTx rollback on error
// (implemented by snapshotting state before the callback runs).
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/order-ledger/ledger"
)

type Memory struct {
	mu sync.Mutex
	st state
}

type state struct {
	nextOrderID int64
	active      map[string]ledger.Order // keyed by order code
	expired     []ledger.ExpiredOrder
	canceled    []ledger.CanceledOrder
	suppliers   map[string]ledger.Supplier
	cycles      map[string]ledger.PaymentCycle
	cycleSeq    []string // insertion order, for stable listings
}

func NewMemory() *Memory {
	return &Memory{st: state{
		nextOrderID: 1,
		active:      make(map[string]ledger.Order),
		suppliers:   make(map[string]ledger.Supplier),
		cycles:      make(map[string]ledger.PaymentCycle),
	}}
}

func (s *state) clone() state {
	cp := state{
		nextOrderID: s.nextOrderID,
		active:      make(map[string]ledger.Order, len(s.active)),
		expired:     append([]ledger.ExpiredOrder(nil), s.expired...),
		canceled:    append([]ledger.CanceledOrder(nil), s.canceled...),
		suppliers:   make(map[string]ledger.Supplier, len(s.suppliers)),
		cycles:      make(map[string]ledger.PaymentCycle, len(s.cycles)),
		cycleSeq:    append([]string(nil), s.cycleSeq...),
	}
	for k, v := range s.active {
		cp.active[k] = v
	}
	for k, v := range s.suppliers {
		cp.suppliers[k] = v
	}
	for k, v := range s.cycles {
		cp.cycles[k] = v
	}
	return cp
}

// =============================================================================
// ORDER STORE
// =============================================================================

func (m *Memory) GetActiveByCode(_ context.Context, code string) (*ledger.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.getActiveByCode(code)
}

func (s *state) getActiveByCode(code string) (*ledger.Order, error) {
	o, ok := s.active[code]
	if !ok {
		return nil, nil
	}
	cp := o
	return &cp, nil
}

func (m *Memory) ListActive(_ context.Context) ([]ledger.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.listActive()
}

func (s *state) listActive() ([]ledger.Order, error) {
	out := make([]ledger.Order, 0, len(s.active))
	for _, o := range s.active {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) InsertActive(_ context.Context, o *ledger.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.insertActive(o)
}

func (s *state) insertActive(o *ledger.Order) error {
	if _, exists := s.active[o.OrderCode]; exists {
		return ledger.ErrDuplicateOrderCode
	}
	if o.ID == 0 {
		o.ID = s.nextOrderID
		s.nextOrderID++
	} else if o.ID >= s.nextOrderID {
		s.nextOrderID = o.ID + 1
	}
	s.active[o.OrderCode] = *o
	return nil
}

func (m *Memory) UpdateActive(_ context.Context, o *ledger.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.updateActive(o)
}

func (s *state) updateActive(o *ledger.Order) error {
	if _, ok := s.active[o.OrderCode]; !ok {
		return ledger.ErrOrderNotFound
	}
	s.active[o.OrderCode] = *o
	return nil
}

func (m *Memory) DeleteActive(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.deleteActive(code)
}

func (s *state) deleteActive(code string) error {
	if _, ok := s.active[code]; !ok {
		return ledger.ErrOrderNotFound
	}
	delete(s.active, code)
	return nil
}

func (m *Memory) FindOutstanding(_ context.Context, supplierName string) ([]ledger.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.findOutstanding(supplierName)
}

func (s *state) findOutstanding(supplierName string) ([]ledger.Order, error) {
	want := strings.TrimSpace(supplierName)
	var out []ledger.Order
	for _, o := range s.active {
		if ledger.NormalizeStatus(o.Status) != ledger.StatusUnpaid {
			continue
		}
		if o.Check == ledger.CheckConfirmed {
			continue
		}
		if strings.TrimSpace(o.SupplierName) != want {
			continue
		}
		out = append(out, o)
	}
	// Oldest first, unknown registration dates oldest of all, id as the
	// final tie-break.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.RegistrationDate == nil && b.RegistrationDate != nil:
			return true
		case a.RegistrationDate != nil && b.RegistrationDate == nil:
			return false
		case a.RegistrationDate != nil && b.RegistrationDate != nil:
			if !a.RegistrationDate.Equal(*b.RegistrationDate) {
				return a.RegistrationDate.Before(*b.RegistrationDate)
			}
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (m *Memory) MarkPaid(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.markPaid(ids)
}

func (s *state) markPaid(ids []int64) error {
	idset := make(map[int64]bool, len(ids))
	for _, id := range ids {
		idset[id] = true
	}
	for code, o := range s.active {
		if idset[o.ID] {
			o.Status = ledger.StatusPaid
			o.Check = ledger.CheckConfirmed
			s.active[code] = o
		}
	}
	return nil
}

func (m *Memory) InsertExpired(_ context.Context, rec *ledger.ExpiredOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.insertExpired(rec)
}

func (s *state) insertExpired(rec *ledger.ExpiredOrder) error {
	s.expired = append(s.expired, *rec)
	return nil
}

func (m *Memory) InsertCanceled(_ context.Context, rec *ledger.CanceledOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.insertCanceled(rec)
}

func (s *state) insertCanceled(rec *ledger.CanceledOrder) error {
	s.canceled = append(s.canceled, *rec)
	return nil
}

func (m *Memory) ListExpired(_ context.Context) ([]ledger.ExpiredOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ledger.ExpiredOrder(nil), m.st.expired...), nil
}

func (m *Memory) ListCanceled(_ context.Context) ([]ledger.CanceledOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ledger.CanceledOrder(nil), m.st.canceled...), nil
}

// =============================================================================
// SUPPLIER LEDGER STORE
// =============================================================================

func (m *Memory) GetSupplier(_ context.Context, id string) (*ledger.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.getSupplier(id)
}

func (s *state) getSupplier(id string) (*ledger.Supplier, error) {
	sup, ok := s.suppliers[id]
	if !ok {
		return nil, nil
	}
	cp := sup
	return &cp, nil
}

func (m *Memory) ListSuppliers(_ context.Context) ([]ledger.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ledger.Supplier, 0, len(m.st.suppliers))
	for _, sup := range m.st.suppliers {
		out = append(out, sup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) SaveSupplier(_ context.Context, sup *ledger.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.saveSupplier(sup)
}

func (s *state) saveSupplier(sup *ledger.Supplier) error {
	key := ledger.NameKey(sup.Name)
	for id, existing := range s.suppliers {
		if id != sup.ID && ledger.NameKey(existing.Name) == key {
			return ledger.ErrDuplicateSupplier
		}
	}
	s.suppliers[sup.ID] = *sup
	return nil
}

func (m *Memory) DeleteSupplier(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.suppliers[id]; !ok {
		return ledger.ErrSupplierNotFound
	}
	delete(m.st.suppliers, id)
	return nil
}

func (m *Memory) GetCycle(_ context.Context, id string) (*ledger.PaymentCycle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.getCycle(id)
}

func (s *state) getCycle(id string) (*ledger.PaymentCycle, error) {
	c, ok := s.cycles[id]
	if !ok {
		return nil, nil
	}
	cp := c
	return &cp, nil
}

func (m *Memory) ListCycles(_ context.Context, supplierID string) ([]ledger.PaymentCycle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.listCycles(supplierID)
}

func (s *state) listCycles(supplierID string) ([]ledger.PaymentCycle, error) {
	var out []ledger.PaymentCycle
	for _, id := range s.cycleSeq {
		c := s.cycles[id]
		if supplierID == "" || c.SupplierID == supplierID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Memory) HasUnpaidCycle(_ context.Context, supplierID, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.hasUnpaidCycle(supplierID, excludeID)
}

func (s *state) hasUnpaidCycle(supplierID, excludeID string) (bool, error) {
	for id, c := range s.cycles {
		if id == excludeID {
			continue
		}
		if c.SupplierID == supplierID && c.Status == ledger.CycleUnpaid {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) InsertCycle(_ context.Context, c *ledger.PaymentCycle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.insertCycle(c)
}

func (s *state) insertCycle(c *ledger.PaymentCycle) error {
	s.cycles[c.ID] = *c
	s.cycleSeq = append(s.cycleSeq, c.ID)
	return nil
}

func (m *Memory) UpdateCycle(_ context.Context, c *ledger.PaymentCycle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.updateCycle(c)
}

func (s *state) updateCycle(c *ledger.PaymentCycle) error {
	if _, ok := s.cycles[c.ID]; !ok {
		return ledger.ErrCycleNotFound
	}
	s.cycles[c.ID] = *c
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn against the live state under the store lock. On error
// the pre-callback snapshot is restored, so a failed callback has no
// partial effect.
func (m *Memory) WithTx(_ context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.st.clone()
	if err := fn(&txView{st: &m.st}); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

// txView exposes the state as a ledger.Store without re-locking.
type txView struct {
	st *state
}

func (t *txView) GetActiveByCode(_ context.Context, code string) (*ledger.Order, error) {
	return t.st.getActiveByCode(code)
}
func (t *txView) ListActive(context.Context) ([]ledger.Order, error) { return t.st.listActive() }
func (t *txView) InsertActive(_ context.Context, o *ledger.Order) error {
	return t.st.insertActive(o)
}
func (t *txView) UpdateActive(_ context.Context, o *ledger.Order) error {
	return t.st.updateActive(o)
}
func (t *txView) DeleteActive(_ context.Context, code string) error { return t.st.deleteActive(code) }
func (t *txView) FindOutstanding(_ context.Context, name string) ([]ledger.Order, error) {
	return t.st.findOutstanding(name)
}
func (t *txView) MarkPaid(_ context.Context, ids []int64) error { return t.st.markPaid(ids) }
func (t *txView) InsertExpired(_ context.Context, rec *ledger.ExpiredOrder) error {
	return t.st.insertExpired(rec)
}
func (t *txView) InsertCanceled(_ context.Context, rec *ledger.CanceledOrder) error {
	return t.st.insertCanceled(rec)
}
func (t *txView) ListExpired(context.Context) ([]ledger.ExpiredOrder, error) {
	return append([]ledger.ExpiredOrder(nil), t.st.expired...), nil
}
func (t *txView) ListCanceled(context.Context) ([]ledger.CanceledOrder, error) {
	return append([]ledger.CanceledOrder(nil), t.st.canceled...), nil
}
func (t *txView) GetSupplier(_ context.Context, id string) (*ledger.Supplier, error) {
	return t.st.getSupplier(id)
}
func (t *txView) ListSuppliers(context.Context) ([]ledger.Supplier, error) {
	out := make([]ledger.Supplier, 0, len(t.st.suppliers))
	for _, sup := range t.st.suppliers {
		out = append(out, sup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
func (t *txView) SaveSupplier(_ context.Context, sup *ledger.Supplier) error {
	return t.st.saveSupplier(sup)
}
func (t *txView) DeleteSupplier(_ context.Context, id string) error {
	if _, ok := t.st.suppliers[id]; !ok {
		return ledger.ErrSupplierNotFound
	}
	delete(t.st.suppliers, id)
	return nil
}
func (t *txView) GetCycle(_ context.Context, id string) (*ledger.PaymentCycle, error) {
	return t.st.getCycle(id)
}
func (t *txView) ListCycles(_ context.Context, supplierID string) ([]ledger.PaymentCycle, error) {
	return t.st.listCycles(supplierID)
}
func (t *txView) HasUnpaidCycle(_ context.Context, supplierID, excludeID string) (bool, error) {
	return t.st.hasUnpaidCycle(supplierID, excludeID)
}
func (t *txView) InsertCycle(_ context.Context, c *ledger.PaymentCycle) error {
	return t.st.insertCycle(c)
}
func (t *txView) UpdateCycle(_ context.Context, c *ledger.PaymentCycle) error {
	return t.st.updateCycle(c)
}
