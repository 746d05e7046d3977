/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY FIELDS:
  Monetary values cross the wire as decimal strings ("125000.50"),
  never JSON numbers. Clients must treat them as opaque decimals.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: Domain model
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/order-ledger/ledger"
	"github.com/warp/order-ledger/store/sqlite"
)

// =============================================================================
// ORDER TYPES
// =============================================================================

// OrderDTO represents an active order in API responses. Status and check
// are the effective (derived) values as of today, not the raw stored pair.
type OrderDTO struct {
	ID               int64   `json:"id"`
	OrderCode        string  `json:"order_code"`
	ProductID        string  `json:"product_id,omitempty"`
	CustomerName     string  `json:"customer_name,omitempty"`
	ContactInfo      string  `json:"contact_info,omitempty"`
	Slot             string  `json:"slot,omitempty"`
	Note             string  `json:"note,omitempty"`
	RegistrationDate *string `json:"registration_date,omitempty"`
	DurationDays     *int    `json:"duration_days,omitempty"`
	ExpiryDate       *string `json:"expiry_date,omitempty"`
	DaysRemaining    *int    `json:"days_remaining,omitempty"`
	SupplierName     string  `json:"supplier_name,omitempty"`
	Cost             string  `json:"cost"`
	Price            string  `json:"price"`
	Status           string  `json:"status"`
	Check            string  `json:"check"`
}

// SaveOrderRequest creates or updates an active order.
type SaveOrderRequest struct {
	OrderCode        string  `json:"order_code"`
	ProductID        string  `json:"product_id,omitempty"`
	CustomerName     string  `json:"customer_name,omitempty"`
	ContactInfo      string  `json:"contact_info,omitempty"`
	Slot             string  `json:"slot,omitempty"`
	Note             string  `json:"note,omitempty"`
	RegistrationDate *string `json:"registration_date,omitempty"`
	DurationDays     *int    `json:"duration_days,omitempty"`
	ExpiryDate       *string `json:"expiry_date,omitempty"`
	SupplierName     string  `json:"supplier_name,omitempty"`
	Cost             string  `json:"cost"`
	Price            string  `json:"price"`
	Status           string  `json:"status,omitempty"`
	Check            *string `json:"check,omitempty"`
}

// RemoveOrderRequest carries the optional refund override for DELETE.
type RemoveOrderRequest struct {
	RefundAmount *string `json:"refund_amount,omitempty"`
}

// RemoveOrderResponse reports which partition the order ended up in.
type RemoveOrderResponse struct {
	OrderCode string `json:"order_code"`
	Outcome   string `json:"outcome"`
}

// ExpiredOrderDTO represents a row in the expired archive.
type ExpiredOrderDTO struct {
	OrderDTO
	ArchivedAt string `json:"archived_at"`
}

// CanceledOrderDTO represents a row in the canceled archive.
type CanceledOrderDTO struct {
	OrderDTO
	RefundAmount string `json:"refund_amount"`
	CreatedAt    string `json:"created_at"`
}

// RenewOrderRequest asks the renewal gateway to extend an order.
type RenewOrderRequest struct {
	DurationDays *int   `json:"duration_days,omitempty"`
	Note         string `json:"note,omitempty"`
}

// =============================================================================
// SUPPLIER / PAYMENT TYPES
// =============================================================================

// SupplierDTO represents a supplier in API responses.
type SupplierDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	BankAccount string `json:"bank_account,omitempty"`
	BankBin     string `json:"bank_bin,omitempty"`
	Active      bool   `json:"active"`
}

// SaveSupplierRequest creates or updates a supplier.
type SaveSupplierRequest struct {
	Name        string `json:"name"`
	BankAccount string `json:"bank_account,omitempty"`
	BankBin     string `json:"bank_bin,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

// PaymentCycleDTO represents a debt round.
type PaymentCycleDTO struct {
	ID           string `json:"id"`
	SupplierID   string `json:"supplier_id"`
	ImportAmount string `json:"import_amount"`
	PaidAmount   string `json:"paid_amount"`
	RoundLabel   string `json:"round_label,omitempty"`
	Status       string `json:"status"`
}

// CreateCycleRequest opens a new debt round for a supplier.
type CreateCycleRequest struct {
	SupplierID   string `json:"supplier_id"`
	ImportAmount string `json:"import_amount"`
	RoundLabel   string `json:"round_label,omitempty"`
}

// ConfirmCycleRequest carries the optional paid-amount override.
type ConfirmCycleRequest struct {
	PaidAmount *string `json:"paid_amount,omitempty"`
}

// =============================================================================
// CATALOG TYPES
// =============================================================================

// ProductDTO represents a catalog product.
type ProductDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Note  string `json:"note,omitempty"`
}

// SaveProductRequest creates or updates a product.
type SaveProductRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Note  string `json:"note,omitempty"`
}

// BankDTO represents a bank catalog entry.
type BankDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Bin  string `json:"bin,omitempty"`
}

// SaveBankRequest creates or updates a bank.
type SaveBankRequest struct {
	Name string `json:"name"`
	Bin  string `json:"bin,omitempty"`
}

// =============================================================================
// DASHBOARD TYPES
// =============================================================================

// DashboardDTO is the one-shot aggregate for the dashboard page.
type DashboardDTO struct {
	ActiveOrders         int             `json:"active_orders"`
	ExpiredOrders        int             `json:"expired_orders"`
	CanceledOrders       int             `json:"canceled_orders"`
	TotalCost            string          `json:"total_cost"`
	TotalPrice           string          `json:"total_price"`
	OutstandingDebt      string          `json:"outstanding_debt"`
	PendingRefunds       string          `json:"pending_refunds"`
	MonthlyRegistrations []MonthCountDTO `json:"monthly_registrations"`
}

type MonthCountDTO struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toOrderDTO(o ledger.Order, today ledger.Date) OrderDTO {
	days := ledger.DaysRemaining(o.ExpiryDate, today)
	pair := ledger.EffectivePair(&o, today)

	dto := OrderDTO{
		ID:            o.ID,
		OrderCode:     o.OrderCode,
		ProductID:     o.ProductID,
		CustomerName:  o.CustomerName,
		ContactInfo:   o.ContactInfo,
		Slot:          o.Slot,
		Note:          o.Note,
		DurationDays:  o.DurationDays,
		DaysRemaining: days,
		SupplierName:  o.SupplierName,
		Cost:          o.Cost.String(),
		Price:         o.Price.String(),
		Status:        string(pair.Status),
		Check:         pair.Check.String(),
	}
	if o.RegistrationDate != nil {
		s := o.RegistrationDate.String()
		dto.RegistrationDate = &s
	}
	if o.ExpiryDate != nil {
		s := o.ExpiryDate.String()
		dto.ExpiryDate = &s
	}
	return dto
}

// toStoredOrderDTO skips derivation; archive rows keep their frozen pair.
func toStoredOrderDTO(o ledger.Order) OrderDTO {
	dto := OrderDTO{
		ID:           o.ID,
		OrderCode:    o.OrderCode,
		ProductID:    o.ProductID,
		CustomerName: o.CustomerName,
		ContactInfo:  o.ContactInfo,
		Slot:         o.Slot,
		Note:         o.Note,
		DurationDays: o.DurationDays,
		SupplierName: o.SupplierName,
		Cost:         o.Cost.String(),
		Price:        o.Price.String(),
		Status:       string(o.Status),
		Check:        o.Check.String(),
	}
	if o.RegistrationDate != nil {
		s := o.RegistrationDate.String()
		dto.RegistrationDate = &s
	}
	if o.ExpiryDate != nil {
		s := o.ExpiryDate.String()
		dto.ExpiryDate = &s
	}
	return dto
}

func toExpiredDTO(rec ledger.ExpiredOrder) ExpiredOrderDTO {
	return ExpiredOrderDTO{
		OrderDTO:   toStoredOrderDTO(rec.Order),
		ArchivedAt: rec.ArchivedAt.UTC().Format(time.RFC3339),
	}
}

func toCanceledDTO(rec ledger.CanceledOrder) CanceledOrderDTO {
	return CanceledOrderDTO{
		OrderDTO:     toStoredOrderDTO(rec.Order),
		RefundAmount: rec.RefundAmount.String(),
		CreatedAt:    rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toSupplierDTO(s ledger.Supplier) SupplierDTO {
	return SupplierDTO{
		ID:          s.ID,
		Name:        s.Name,
		BankAccount: s.BankAccount,
		BankBin:     s.BankBin,
		Active:      s.Active,
	}
}

func toCycleDTO(c ledger.PaymentCycle) PaymentCycleDTO {
	return PaymentCycleDTO{
		ID:           c.ID,
		SupplierID:   c.SupplierID,
		ImportAmount: c.ImportAmount.String(),
		PaidAmount:   c.PaidAmount.String(),
		RoundLabel:   c.RoundLabel,
		Status:       string(c.Status),
	}
}

func toProductDTO(p sqlite.Product) ProductDTO {
	return ProductDTO{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price.String(),
		Note:  p.Note,
	}
}

func toBankDTO(b sqlite.Bank) BankDTO {
	return BankDTO{ID: b.ID, Name: b.Name, Bin: b.Bin}
}

func toDashboardDTO(s *sqlite.DashboardSummary) DashboardDTO {
	dto := DashboardDTO{
		ActiveOrders:    s.ActiveOrders,
		ExpiredOrders:   s.ExpiredOrders,
		CanceledOrders:  s.CanceledOrders,
		TotalCost:       s.TotalCost.String(),
		TotalPrice:      s.TotalPrice.String(),
		OutstandingDebt: s.OutstandingDebt.String(),
		PendingRefunds:  s.PendingRefunds.String(),
	}
	for _, mc := range s.MonthlyRegistrations {
		dto.MonthlyRegistrations = append(dto.MonthlyRegistrations, MonthCountDTO{Month: mc.Month, Count: mc.Count})
	}
	return dto
}

// parseMoney parses a decimal string from a request body. Empty means zero.
func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
