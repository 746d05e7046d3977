/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates orders, suppliers,
	and payment cycles that demonstrate specific features.

AVAILABLE SCENARIOS:

	starter-book:    A small book of active orders in various states
	renewal-window:  Orders inside and outside the renewal window
	supplier-debt:   Unpaid orders plus an open payment cycle, ready
	                 for a confirm to demonstrate FIFO allocation
	refund-queue:    Canceled archive entries awaiting refunds

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Seed catalogs (products, banks)
 3. Seed orders/suppliers/cycles for the scenario

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "supplier-debt"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Router wiring, writeJSON/writeError
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/order-ledger/ledger"
	"github.com/warp/order-ledger/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "starter-book",
		Name:        "Starter Book",
		Description: "A small book of active orders in various states",
	},
	{
		ID:          "renewal-window",
		Name:        "Renewal Window",
		Description: "Orders inside and outside the renewal-due window",
	},
	{
		ID:          "supplier-debt",
		Name:        "Supplier Debt",
		Description: "Unpaid orders and an open payment cycle ready to confirm",
	},
	{
		ID:          "refund-queue",
		Name:        "Refund Queue",
		Description: "Canceled orders awaiting customer refunds",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.loadedScenario()
	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          current,
		Name:        current,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.setCurrentScenario("")

	var err error
	switch req.ScenarioID {
	case "starter-book":
		err = h.loadStarterBook(ctx)
	case "renewal-window":
		err = h.loadRenewalWindow(ctx)
	case "supplier-debt":
		err = h.loadSupplierDebt(ctx)
	case "refund-queue":
		err = h.loadRefundQueue(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.setCurrentScenario(req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
	})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) seedCatalogs(ctx context.Context) (productID string, err error) {
	product := sqlite.Product{
		ID:    uuid.NewString(),
		Name:  "Streaming Premium (1 slot)",
		Price: decimal.NewFromInt(89000),
		Note:  "Shared family plan slot",
	}
	if err := h.Store.SaveProduct(ctx, product); err != nil {
		return "", err
	}
	if err := h.Store.SaveBank(ctx, sqlite.Bank{ID: uuid.NewString(), Name: "VCB", Bin: "970436"}); err != nil {
		return "", err
	}
	if err := h.Store.SaveBank(ctx, sqlite.Bank{ID: uuid.NewString(), Name: "TPBank", Bin: "970423"}); err != nil {
		return "", err
	}
	return product.ID, nil
}

func (h *Handler) seedOrder(ctx context.Context, productID, code, supplier string, registeredDaysAgo, durationDays int, status ledger.OrderStatus, check ledger.CheckFlag) error {
	today := h.Clock.Today()
	reg := today.AddDays(-registeredDaysAgo)
	expiry := reg.AddDays(durationDays)
	duration := durationDays

	o := ledger.Order{
		OrderCode:        code,
		ProductID:        productID,
		CustomerName:     "Customer " + code,
		ContactInfo:      "zalo:" + code,
		Slot:             "slot-1",
		RegistrationDate: &reg,
		DurationDays:     &duration,
		ExpiryDate:       &expiry,
		SupplierName:     supplier,
		Cost:             decimal.NewFromInt(62000),
		Price:            decimal.NewFromInt(89000),
		Status:           status,
		Check:            check,
	}
	return h.Store.InsertActive(ctx, &o)
}

func (h *Handler) loadStarterBook(ctx context.Context) error {
	productID, err := h.seedCatalogs(ctx)
	if err != nil {
		return err
	}

	seeds := []struct {
		code     string
		agoDays  int
		duration int
		status   ledger.OrderStatus
		check    ledger.CheckFlag
	}{
		{"ORD-1001", 5, 30, ledger.StatusUnpaid, ledger.CheckUnset},
		{"ORD-1002", 12, 30, ledger.StatusPaid, ledger.CheckConfirmed},
		{"ORD-1003", 20, 30, ledger.StatusUnpaid, ledger.CheckUnset},
		{"ORD-1004", 2, 90, ledger.StatusPaid, ledger.CheckConfirmed},
	}
	for _, s := range seeds {
		if err := h.seedOrder(ctx, productID, s.code, "NetShare Co", s.agoDays, s.duration, s.status, s.check); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadRenewalWindow(ctx context.Context) error {
	productID, err := h.seedCatalogs(ctx)
	if err != nil {
		return err
	}

	// 30-day terms registered so they land at 2, 4, and 10 days remaining
	for _, s := range []struct {
		code    string
		agoDays int
	}{
		{"RNW-2001", 28}, // 2 days left: renewal due
		{"RNW-2002", 26}, // 4 days left: renewal due (boundary)
		{"RNW-2003", 20}, // 10 days left: untouched
	} {
		if err := h.seedOrder(ctx, productID, s.code, "NetShare Co", s.agoDays, 30, ledger.StatusPaid, ledger.CheckConfirmed); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadSupplierDebt(ctx context.Context) error {
	productID, err := h.seedCatalogs(ctx)
	if err != nil {
		return err
	}

	sup := ledger.Supplier{
		ID:          uuid.NewString(),
		Name:        "NetShare Co",
		BankAccount: "0123456789",
		BankBin:     "970436",
		Active:      true,
	}
	if err := h.Store.SaveSupplier(ctx, &sup); err != nil {
		return err
	}

	// Three unpaid orders at 62000 each: a 150000 payment covers the
	// first two and part of the third.
	for i, code := range []string{"DBT-3001", "DBT-3002", "DBT-3003"} {
		if err := h.seedOrder(ctx, productID, code, sup.Name, 10-i, 30, ledger.StatusUnpaid, ledger.CheckUnset); err != nil {
			return err
		}
	}

	cycle := ledger.PaymentCycle{
		ID:           uuid.NewString(),
		SupplierID:   sup.ID,
		ImportAmount: decimal.NewFromInt(150000),
		RoundLabel:   h.Clock.Today().String(),
		Status:       ledger.CycleUnpaid,
	}
	return h.Store.InsertCycle(ctx, &cycle)
}

func (h *Handler) loadRefundQueue(ctx context.Context) error {
	productID, err := h.seedCatalogs(ctx)
	if err != nil {
		return err
	}

	today := h.Clock.Today()
	for i, code := range []string{"RFD-4001", "RFD-4002"} {
		reg := today.AddDays(-15 - i)
		expiry := reg.AddDays(30)
		duration := 30
		rec := ledger.CanceledOrder{
			Order: ledger.Order{
				ID:               int64(9000 + i),
				OrderCode:        code,
				ProductID:        productID,
				CustomerName:     "Customer " + code,
				RegistrationDate: &reg,
				DurationDays:     &duration,
				ExpiryDate:       &expiry,
				SupplierName:     "NetShare Co",
				Cost:             decimal.NewFromInt(62000),
				Price:            decimal.NewFromInt(89000),
				Status:           ledger.StatusPendingRefund,
				Check:            ledger.CheckPendingRefund,
			},
			RefundAmount: decimal.NewFromInt(89000),
			CreatedAt:    time.Now(),
		}
		if err := h.Store.InsertCanceled(ctx, &rec); err != nil {
			return err
		}
	}
	return nil
}
