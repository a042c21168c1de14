package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a stocked item. Quantity is the on-hand count and is
// only ever written by the stock ledger; product CRUD never touches it.
type Product struct {
	ID            int64           `json:"id"`
	SKU           string          `json:"sku"`
	Barcode       string          `json:"barcode,omitempty"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	CategoryID    int64           `json:"category_id"`
	SupplierID    int64           `json:"supplier_id,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	Quantity      int64           `json:"quantity"`
	MinStockLevel int64           `json:"min_stock_level"`
	MaxStockLevel int64           `json:"max_stock_level"`
	ReorderLevel  int64           `json:"reorder_level"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// View decorates a product with derived pricing and stock state.
type View struct {
	Product
	UnitPriceInclVAT decimal.Decimal `json:"unit_price_incl_vat"`
	StockValue       decimal.Decimal `json:"stock_value"`
	IsLowStock       bool            `json:"is_low_stock"`
	IsOutOfStock     bool            `json:"is_out_of_stock"`
}
