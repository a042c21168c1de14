package products

import "github.com/shopspring/decimal"

// ProductForm is the create/update payload.
type ProductForm struct {
	SKU           string          `json:"sku"`
	Barcode       string          `json:"barcode"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	CategoryID    int64           `json:"category_id"`
	SupplierID    int64           `json:"supplier_id"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	MinStockLevel int64           `json:"min_stock_level"`
	MaxStockLevel int64           `json:"max_stock_level"`
	ReorderLevel  int64           `json:"reorder_level"`
	IsActive      bool            `json:"is_active"`
}

func (f ProductForm) toProduct() Product {
	return Product{
		SKU:           f.SKU,
		Barcode:       f.Barcode,
		Name:          f.Name,
		Description:   f.Description,
		CategoryID:    f.CategoryID,
		SupplierID:    f.SupplierID,
		UnitPrice:     f.UnitPrice,
		CostPrice:     f.CostPrice,
		MinStockLevel: f.MinStockLevel,
		MaxStockLevel: f.MaxStockLevel,
		ReorderLevel:  f.ReorderLevel,
		IsActive:      f.IsActive,
	}
}
