package ledger

import "github.com/shopspring/decimal"

// ApplyMovementRequest is the payload for POST /products/{id}/stock.
type ApplyMovementRequest struct {
	MovementType string          `json:"movement_type" validate:"required"`
	Quantity     int64           `json:"quantity" validate:"required,gt=0"`
	Reference    string          `json:"reference" validate:"omitempty,max=100"`
	Warehouse    string          `json:"warehouse" validate:"omitempty,max=20"`
	Notes        string          `json:"notes" validate:"omitempty,max=500"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// StockCountRequest is the payload for POST /products/{id}/stock/count.
type StockCountRequest struct {
	Quantity  int64  `json:"quantity" validate:"gte=0"`
	Reference string `json:"reference" validate:"omitempty,max=100"`
}

// TransferRequest is the payload for POST /transfers.
type TransferRequest struct {
	ProductID     int64  `json:"product_id" validate:"required,gt=0"`
	Quantity      int64  `json:"quantity" validate:"required,gt=0"`
	FromWarehouse string `json:"from_warehouse" validate:"required,max=20"`
	ToWarehouse   string `json:"to_warehouse" validate:"required,max=20,nefield=FromWarehouse"`
	Notes         string `json:"notes" validate:"omitempty,max=500"`
}

// TransferResponse pairs the two halves of a completed transfer.
type TransferResponse struct {
	Out Movement `json:"out"`
	In  Movement `json:"in"`
}
