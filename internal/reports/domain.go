// Package reports produces stock level reports and the dashboard summary.
package reports

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ValuationBasis selects the price used to value stock.
type ValuationBasis string

const (
	// BasisCost values stock at purchase cost.
	BasisCost ValuationBasis = "cost"
	// BasisRetail values stock at selling price.
	BasisRetail ValuationBasis = "retail"
)

// Valid reports whether b is a known basis.
func (b ValuationBasis) Valid() bool {
	return b == BasisCost || b == BasisRetail
}

// StockItem is one row on a stock level report.
type StockItem struct {
	ProductID     int64           `json:"product_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	CategoryName  string          `json:"category_name"`
	Quantity      int64           `json:"quantity"`
	MinStockLevel int64           `json:"min_stock_level"`
	MaxStockLevel int64           `json:"max_stock_level"`
	ReorderLevel  int64           `json:"reorder_level"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	StockValue    decimal.Decimal `json:"stock_value"`
}

// ValuationRow is one product's contribution to total stock value.
type ValuationRow struct {
	ProductID  int64           `json:"product_id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Quantity   int64           `json:"quantity"`
	UnitValue  decimal.Decimal `json:"unit_value"`
	StockValue decimal.Decimal `json:"stock_value"`
}

// Valuation is the full stock valuation report.
type Valuation struct {
	Basis          ValuationBasis  `json:"basis"`
	Rows           []ValuationRow  `json:"rows"`
	TotalValue     decimal.Decimal `json:"total_value"`
	TotalFormatted string          `json:"total_formatted"`
}

// DashboardStats is the landing page summary block.
type DashboardStats struct {
	TotalProducts       int64           `json:"total_products"`
	ActiveProducts      int64           `json:"active_products"`
	TotalStockValue     decimal.Decimal `json:"total_stock_value"`
	StockValueFormatted string          `json:"stock_value_formatted"`
	LowStockCount       int64           `json:"low_stock_count"`
	OutOfStockCount     int64           `json:"out_of_stock_count"`
	MovementsToday      int64           `json:"movements_today"`
	PendingSalesOrders  int64           `json:"pending_sales_orders"`
	OpenPurchaseOrders  int64           `json:"open_purchase_orders"`
}

// ErrInvalidBasis indicates an unknown valuation basis.
var ErrInvalidBasis = errors.New("reports: invalid valuation basis")
