// Package procurement manages purchase orders and goods receipt. Receiving
// stock is the only inbound path into the ledger besides manual adjustments.
package procurement

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status tracks a purchase order through its lifecycle.
type Status string

const (
	StatusDraft             Status = "DRAFT"
	StatusOrdered           Status = "ORDERED"
	StatusPartiallyReceived Status = "PARTIALLY_RECEIVED"
	StatusReceived          Status = "RECEIVED"
	StatusCancelled         Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusDraft:             {StatusOrdered, StatusCancelled},
	StatusOrdered:           {StatusPartiallyReceived, StatusReceived, StatusCancelled},
	StatusPartiallyReceived: {StatusPartiallyReceived, StatusReceived},
}

// CanTransition reports whether the order may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PurchaseOrder is an order placed with a supplier.
type PurchaseOrder struct {
	ID           int64           `json:"id"`
	OrderNumber  string          `json:"order_number"`
	SupplierID   int64           `json:"supplier_id"`
	Status       Status          `json:"status"`
	OrderDate    time.Time       `json:"order_date"`
	ExpectedDate *time.Time      `json:"expected_date,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	VATAmount    decimal.Decimal `json:"vat_amount"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Lines        []POLine        `json:"lines,omitempty"`
}

// POLine is one product position on a purchase order. QuantityReceived
// accumulates across partial receipts and never exceeds Quantity.
type POLine struct {
	ID               int64           `json:"id"`
	PurchaseOrderID  int64           `json:"purchase_order_id"`
	ProductID        int64           `json:"product_id"`
	Quantity         int64           `json:"quantity"`
	QuantityReceived int64           `json:"quantity_received"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	LineTotal        decimal.Decimal `json:"line_total"`
}

// Outstanding returns the quantity still to be received.
func (l POLine) Outstanding() int64 {
	return l.Quantity - l.QuantityReceived
}

var (
	ErrPONotFound      = errors.New("procurement: purchase order not found")
	ErrInvalidStatus   = errors.New("procurement: invalid status transition")
	ErrEmptyOrder      = errors.New("procurement: order needs at least one line")
	ErrInvalidLine     = errors.New("procurement: invalid order line")
	ErrLineNotFound    = errors.New("procurement: order line not found")
	ErrOverReceipt     = errors.New("procurement: receipt exceeds outstanding quantity")
	ErrNothingReceived = errors.New("procurement: receipt has no quantities")
)
