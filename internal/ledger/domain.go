package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Kind enumerates supported stock movement kinds.
type Kind string

const (
	// KindIn represents an inbound receipt (purchases, goods received).
	KindIn Kind = "IN"
	// KindOut represents an outbound issue (sales, shipments).
	KindOut Kind = "OUT"
	// KindAdjustmentIn corrects the count upward after a stock take.
	KindAdjustmentIn Kind = "ADJUSTMENT_IN"
	// KindAdjustmentOut corrects the count downward after a stock take.
	KindAdjustmentOut Kind = "ADJUSTMENT_OUT"
	// KindTransferIn tags the destination half of a warehouse transfer.
	KindTransferIn Kind = "TRANSFER_IN"
	// KindTransferOut tags the source half of a warehouse transfer.
	KindTransferOut Kind = "TRANSFER_OUT"
	// KindDamaged writes off damaged or expired stock.
	KindDamaged Kind = "DAMAGED"
	// KindReturned books a customer return back into stock.
	KindReturned Kind = "RETURNED"
)

// Direction returns +1 for kinds that increase on-hand quantity and -1 for
// kinds that decrease it. Unknown kinds return 0 and must be rejected with
// Valid before any write.
func (k Kind) Direction() int64 {
	switch k {
	case KindIn, KindAdjustmentIn, KindTransferIn, KindReturned:
		return 1
	case KindOut, KindAdjustmentOut, KindTransferOut, KindDamaged:
		return -1
	}
	return 0
}

// Valid reports whether k is a member of the closed movement kind set.
func (k Kind) Valid() bool {
	return k.Direction() != 0
}

// Movement is an immutable audit record of one stock quantity change.
// QuantityAfter always equals QuantityBefore + Direction(Kind) * Quantity.
type Movement struct {
	ID             int64           `json:"id"`
	ProductID      int64           `json:"product_id"`
	Kind           Kind            `json:"movement_type"`
	Quantity       int64           `json:"quantity"`
	QuantityBefore int64           `json:"quantity_before"`
	QuantityAfter  int64           `json:"quantity_after"`
	Reference      string          `json:"reference"`
	Notes          string          `json:"notes,omitempty"`
	WarehouseCode  string          `json:"warehouse,omitempty"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	ActorID        string          `json:"actor_id,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// MovementInput describes a single stock mutation request.
type MovementInput struct {
	ProductID     int64
	Kind          Kind
	Quantity      int64
	Reference     string
	WarehouseCode string
	Notes         string
	UnitCost      decimal.Decimal
	ActorID       string
}

// TransferInput describes a warehouse-to-warehouse transfer request.
type TransferInput struct {
	ProductID     int64
	Quantity      int64
	FromWarehouse string
	ToWarehouse   string
	Notes         string
	ActorID       string
}

// MovementFilter narrows movement history queries.
type MovementFilter struct {
	ProductID int64
	From      time.Time
	To        time.Time
	Limit     int
}

// SummaryRow aggregates movement activity per product over a window.
type SummaryRow struct {
	ProductID     int64  `json:"product_id"`
	ProductName   string `json:"product_name"`
	ProductSKU    string `json:"product_sku"`
	StockIn       int64  `json:"stock_in"`
	StockOut      int64  `json:"stock_out"`
	NetMovement   int64  `json:"net_movement"`
	MovementCount int64  `json:"movement_count"`
}

// ErrProductNotFound indicates the referenced product does not exist.
var ErrProductNotFound = errors.New("ledger: product not found")

// ErrInsufficientStock triggered when a movement would drive quantity negative.
var ErrInsufficientStock = errors.New("ledger: insufficient stock")

// ErrInvalidQuantity indicates a zero or negative quantity magnitude.
var ErrInvalidQuantity = errors.New("ledger: quantity must be positive")

// ErrInvalidArgument indicates a malformed request caught before any write.
var ErrInvalidArgument = errors.New("ledger: invalid argument")

// ErrMovementNotFound indicates the requested movement record does not exist.
var ErrMovementNotFound = errors.New("ledger: movement not found")
