/*
handlers.go - HTTP API handlers for the order ledger

PURPOSE:
  Exposes the order lifecycle and supplier-payment engine via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic in the ledger package.

ENDPOINTS:
  Orders:
    GET    /api/orders                 List active orders (derived status)
    POST   /api/orders                 Create order
    GET    /api/orders/{code}          Get order by code
    PUT    /api/orders/{code}          Update order
    DELETE /api/orders/{code}          Remove order (delete or archive)
    POST   /api/orders/{code}/renew    Forward renewal to upstream gateway

  Archives:
    GET    /api/archives/expired       Expired archive
    GET    /api/archives/canceled      Canceled archive (refund queue)

  Suppliers & payments:
    GET    /api/suppliers              List suppliers
    POST   /api/suppliers              Create supplier
    GET    /api/suppliers/{id}         Get supplier
    PUT    /api/suppliers/{id}         Update supplier
    DELETE /api/suppliers/{id}         Delete supplier
    GET    /api/suppliers/{id}/cycles  List payment cycles
    POST   /api/cycles                 Open a debt round
    POST   /api/cycles/{id}/confirm    Confirm payment (FIFO allocation)

  Catalogs:
    GET/POST /api/products, DELETE /api/products/{id}
    GET/POST /api/banks,    DELETE /api/banks/{id}

  Dashboard:
    GET    /api/dashboard              Counts and money aggregates

ERROR HANDLING:
  Domain errors map to HTTP status via writeDomainError:
  - 400: invalid input (bad dates, unparsable amounts, duplicates)
  - 404: unknown order code, cycle id, supplier id
  - 409: cycle already confirmed
  - 500: transaction begin/commit failures, everything else

SECURITY NOTE:
  No authentication middleware. This service sits behind the back-office
  reverse proxy which terminates auth.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/order-ledger/ledger"
	"github.com/warp/order-ledger/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Clock      ledger.Clock
	Archiver   *ledger.Archiver
	Reconciler *ledger.Reconciler
	Renewals   ledger.RenewalGateway

	// Track currently loaded scenario. Guarded by scenarioMu: scenario
	// loads and resets run on concurrent request goroutines.
	scenarioMu      sync.Mutex
	currentScenario string
}

func (h *Handler) setCurrentScenario(id string) {
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()
	h.currentScenario = id
}

func (h *Handler) loadedScenario() string {
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()
	return h.currentScenario
}

// NewHandler wires the domain services over the given store.
func NewHandler(store *sqlite.Store, clock ledger.Clock) *Handler {
	return &Handler{
		Store:      store,
		Clock:      clock,
		Archiver:   ledger.NewArchiver(store, clock),
		Reconciler: ledger.NewReconciler(store, clock),
		Renewals:   ledger.NoopRenewalGateway{},
	}
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// ListOrders returns all active orders with today's derived status.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.ListActive(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
		return
	}

	today := h.Clock.Today()
	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o, today)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetOrder returns a single active order by code.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	o, err := h.Store.GetActiveByCode(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get order", err)
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "Order not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toOrderDTO(*o, h.Clock.Today()))
}

// CreateOrder inserts a new active order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req SaveOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.OrderCode) == "" {
		writeError(w, http.StatusBadRequest, "order_code is required", nil)
		return
	}

	o, err := orderFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.Store.InsertActive(r.Context(), o); err != nil {
		if errors.Is(err, ledger.ErrDuplicateOrderCode) {
			writeError(w, http.StatusConflict, "Order code already exists", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderDTO(*o, h.Clock.Today()))
}

// UpdateOrder updates an existing active order.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req SaveOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.OrderCode = code

	existing, err := h.Store.GetActiveByCode(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load order", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Order not found", nil)
		return
	}

	o, err := orderFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	o.ID = existing.ID

	// Fields absent from the body keep their stored values. An edit to a
	// note must never flip a Paid/Confirmed order back into the
	// outstanding-debt queue.
	if req.Status == "" {
		o.Status = existing.Status
	}
	if req.Check == nil {
		o.Check = existing.Check
	}

	if err := h.Store.UpdateActive(r.Context(), o); err != nil {
		writeDomainError(w, "Failed to update order", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderDTO(*o, h.Clock.Today()))
}

// RemoveOrder removes an active order. Depending on the derived status
// the order is hard-deleted, moved to the expired archive, or moved to
// the canceled archive with a refund.
func (h *Handler) RemoveOrder(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var opts ledger.RemoveOptions
	if r.Body != nil && r.ContentLength != 0 {
		var req RemoveOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		if req.RefundAmount != nil {
			amount, err := parseMoney(*req.RefundAmount)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid refund_amount", err)
				return
			}
			if amount.IsNegative() {
				writeError(w, http.StatusBadRequest, "refund_amount must not be negative", ledger.ErrInvalidAmount)
				return
			}
			opts.RefundAmount = &amount
		}
	}

	result, err := h.Archiver.Remove(r.Context(), code, opts)
	if err != nil {
		writeDomainError(w, "Failed to remove order", err)
		return
	}

	writeJSON(w, http.StatusOK, RemoveOrderResponse{
		OrderCode: code,
		Outcome:   string(result.Outcome),
	})
}

// RenewOrder forwards a renewal request to the upstream gateway.
func (h *Handler) RenewOrder(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req RenewOrderRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	o, err := h.Store.GetActiveByCode(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get order", err)
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "Order not found", nil)
		return
	}

	result, err := h.Renewals.Renew(r.Context(), o.OrderCode, ledger.RenewalOptions{
		DurationDays: req.DurationDays,
		Note:         req.Note,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, "Renewal gateway error", err)
		return
	}

	// Fire-and-forget notification; errors are the gateway's problem
	go h.Renewals.Notify(context.Background(), o.OrderCode, result)

	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// ARCHIVE HANDLERS
// =============================================================================

// ListExpired returns the expired archive, newest first.
func (h *Handler) ListExpired(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListExpired(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list expired orders", err)
		return
	}

	dtos := make([]ExpiredOrderDTO, len(records))
	for i, rec := range records {
		dtos[i] = toExpiredDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListCanceled returns the canceled archive (refund queue), newest first.
func (h *Handler) ListCanceled(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListCanceled(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list canceled orders", err)
		return
	}

	dtos := make([]CanceledOrderDTO, len(records))
	for i, rec := range records {
		dtos[i] = toCanceledDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SUPPLIER HANDLERS
// =============================================================================

// ListSuppliers returns all suppliers.
func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.Store.ListSuppliers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list suppliers", err)
		return
	}

	dtos := make([]SupplierDTO, len(suppliers))
	for i, s := range suppliers {
		dtos[i] = toSupplierDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSupplier returns a single supplier.
func (h *Handler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s, err := h.Store.GetSupplier(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get supplier", err)
		return
	}
	if s == nil {
		writeError(w, http.StatusNotFound, "Supplier not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toSupplierDTO(*s))
}

// CreateSupplier creates a new supplier.
func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req SaveSupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	sup := ledger.Supplier{
		ID:          uuid.NewString(),
		Name:        req.Name,
		BankAccount: req.BankAccount,
		BankBin:     req.BankBin,
		Active:      true,
	}
	if req.Active != nil {
		sup.Active = *req.Active
	}

	if err := h.Store.SaveSupplier(r.Context(), &sup); err != nil {
		if errors.Is(err, ledger.ErrDuplicateSupplier) {
			writeError(w, http.StatusConflict, "Supplier name already exists", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create supplier", err)
		return
	}

	writeJSON(w, http.StatusCreated, toSupplierDTO(sup))
}

// UpdateSupplier updates an existing supplier.
func (h *Handler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.Store.GetSupplier(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get supplier", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Supplier not found", nil)
		return
	}

	var req SaveSupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Name != "" {
		existing.Name = req.Name
	}
	existing.BankAccount = req.BankAccount
	existing.BankBin = req.BankBin
	if req.Active != nil {
		existing.Active = *req.Active
	}

	if err := h.Store.SaveSupplier(r.Context(), existing); err != nil {
		if errors.Is(err, ledger.ErrDuplicateSupplier) {
			writeError(w, http.StatusConflict, "Supplier name already exists", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update supplier", err)
		return
	}

	writeJSON(w, http.StatusOK, toSupplierDTO(*existing))
}

// DeleteSupplier deletes a supplier.
func (h *Handler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteSupplier(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete supplier", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// PAYMENT CYCLE HANDLERS
// =============================================================================

// ListCycles returns payment cycles for a supplier.
func (h *Handler) ListCycles(w http.ResponseWriter, r *http.Request) {
	supplierID := chi.URLParam(r, "id")

	cycles, err := h.Store.ListCycles(r.Context(), supplierID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payment cycles", err)
		return
	}

	dtos := make([]PaymentCycleDTO, len(cycles))
	for i, c := range cycles {
		dtos[i] = toCycleDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCycle opens a new debt round for a supplier.
func (h *Handler) CreateCycle(w http.ResponseWriter, r *http.Request) {
	var req CreateCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sup, err := h.Store.GetSupplier(r.Context(), req.SupplierID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get supplier", err)
		return
	}
	if sup == nil {
		writeError(w, http.StatusNotFound, "Supplier not found", nil)
		return
	}

	amount, err := parseMoney(req.ImportAmount)
	if err != nil || amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid import_amount", err)
		return
	}

	label := req.RoundLabel
	if label == "" {
		label = h.Clock.Today().String()
	}

	cycle := ledger.PaymentCycle{
		ID:           uuid.NewString(),
		SupplierID:   req.SupplierID,
		ImportAmount: amount,
		RoundLabel:   label,
		Status:       ledger.CycleUnpaid,
	}

	if err := h.Store.InsertCycle(r.Context(), &cycle); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create payment cycle", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCycleDTO(cycle))
}

// ConfirmCycle confirms payment of a cycle: marks the oldest outstanding
// orders paid up to the paid amount and rolls leftover debt into a new
// cycle when this was the supplier's last open round.
func (h *Handler) ConfirmCycle(w http.ResponseWriter, r *http.Request) {
	cycleID := chi.URLParam(r, "id")

	var opts ledger.ConfirmOptions
	if r.Body != nil && r.ContentLength != 0 {
		var req ConfirmCycleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		if req.PaidAmount != nil {
			amount, err := parseMoney(*req.PaidAmount)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid paid_amount", err)
				return
			}
			if amount.IsNegative() {
				writeError(w, http.StatusBadRequest, "paid_amount must not be negative", ledger.ErrInvalidAmount)
				return
			}
			opts.PaidAmount = &amount
		}
	}

	cycle, err := h.Reconciler.Confirm(r.Context(), cycleID, opts)
	if err != nil {
		writeDomainError(w, "Failed to confirm payment cycle", err)
		return
	}

	writeJSON(w, http.StatusOK, toCycleDTO(*cycle))
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListProducts returns the product catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Store.ListProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}

	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProduct creates or updates a product.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req SaveProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	price, err := parseMoney(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid price", err)
		return
	}

	p := sqlite.Product{
		ID:    uuid.NewString(),
		Name:  req.Name,
		Price: price,
		Note:  req.Note,
	}
	if err := h.Store.SaveProduct(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save product", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

// DeleteProduct deletes a product.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete product", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListBanks returns the bank catalog.
func (h *Handler) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.Store.ListBanks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list banks", err)
		return
	}

	dtos := make([]BankDTO, len(banks))
	for i, b := range banks {
		dtos[i] = toBankDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBank creates or updates a bank.
func (h *Handler) CreateBank(w http.ResponseWriter, r *http.Request) {
	var req SaveBankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	b := sqlite.Bank{ID: uuid.NewString(), Name: req.Name, Bin: req.Bin}
	if err := h.Store.SaveBank(r.Context(), b); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save bank", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBankDTO(b))
}

// DeleteBank deletes a bank.
func (h *Handler) DeleteBank(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteBank(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete bank", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// DASHBOARD HANDLER
// =============================================================================

// GetDashboard returns counts and money aggregates for the dashboard.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Store.DashboardSummary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(summary))
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.setCurrentScenario("")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func orderFromRequest(req SaveOrderRequest) (*ledger.Order, error) {
	cost, err := parseMoney(req.Cost)
	if err != nil {
		return nil, errors.New("invalid cost")
	}
	price, err := parseMoney(req.Price)
	if err != nil {
		return nil, errors.New("invalid price")
	}

	o := &ledger.Order{
		OrderCode:    strings.TrimSpace(req.OrderCode),
		ProductID:    req.ProductID,
		CustomerName: req.CustomerName,
		ContactInfo:  req.ContactInfo,
		Slot:         req.Slot,
		Note:         req.Note,
		DurationDays: req.DurationDays,
		SupplierName: req.SupplierName,
		Cost:         cost,
		Price:        price,
		Status:       ledger.StatusUnpaid,
		Check:        ledger.CheckUnset,
	}

	if req.Status != "" {
		o.Status = ledger.NormalizeStatus(ledger.OrderStatus(req.Status))
	}
	if req.Check != nil {
		flag, err := ledger.ParseCheckFlag(*req.Check)
		if err != nil {
			return nil, errors.New("invalid check (use confirmed, pending_refund, or unset)")
		}
		o.Check = flag
	}

	if req.RegistrationDate != nil && *req.RegistrationDate != "" {
		d, err := ledger.ParseDate(*req.RegistrationDate)
		if err != nil {
			return nil, errors.New("invalid registration_date (use YYYY-MM-DD)")
		}
		o.RegistrationDate = &d
	}
	if req.ExpiryDate != nil && *req.ExpiryDate != "" {
		d, err := ledger.ParseDate(*req.ExpiryDate)
		if err != nil {
			return nil, errors.New("invalid expiry_date (use YYYY-MM-DD)")
		}
		o.ExpiryDate = &d
	}

	// Derive expiry from registration + duration when absent
	if o.ExpiryDate == nil && o.RegistrationDate != nil && o.DurationDays != nil {
		d := o.RegistrationDate.AddDays(*o.DurationDays)
		o.ExpiryDate = &d
	}

	return o, nil
}

// writeDomainError maps domain errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrCycleAlreadyPaid):
		writeError(w, http.StatusConflict, message, err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
