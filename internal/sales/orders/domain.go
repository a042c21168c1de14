package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status tracks a sales order through its lifecycle.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusShipped   Status = "SHIPPED"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusCancelled},
	StatusApproved: {StatusShipped, StatusCancelled},
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

// SalesOrder is a customer order with its lines and VAT totals.
type SalesOrder struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  int64           `json:"customer_id"`
	Status      Status          `json:"status"`
	OrderDate   time.Time       `json:"order_date"`
	Notes       string          `json:"notes,omitempty"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	VATAmount   decimal.Decimal `json:"vat_amount"`
	Total       decimal.Decimal `json:"total"`
	ShippedAt   *time.Time      `json:"shipped_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Lines       []OrderLine     `json:"lines,omitempty"`
}

// OrderLine is one product position on a sales order.
type OrderLine struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

var (
	ErrOrderNotFound  = errors.New("sales: order not found")
	ErrInvalidStatus  = errors.New("sales: invalid status transition")
	ErrEmptyOrder     = errors.New("sales: order needs at least one line")
	ErrInvalidLine    = errors.New("sales: invalid order line")
	ErrInvalidOrderID = errors.New("sales: invalid order id")
)
