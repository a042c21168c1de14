// Package settings stores the single application-wide configuration row:
// company identity, VAT defaults and stock alert thresholds.
package settings

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Settings is the singleton configuration record.
type Settings struct {
	CompanyName           string          `json:"company_name"`
	CompanyAddress        string          `json:"company_address"`
	CompanyPhone          string          `json:"company_phone"`
	CompanyEmail          string          `json:"company_email"`
	CompanyVATNumber      string          `json:"company_vat_number"`
	CurrencyCode          string          `json:"currency_code"`
	DefaultVATRate        decimal.Decimal `json:"default_vat_rate"`
	EnableVATCalculation  bool            `json:"enable_vat_calculation"`
	LowStockThreshold     int64           `json:"low_stock_threshold"`
	ReorderPointThreshold int64           `json:"reorder_point_threshold"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// Defaults returns the settings used until the row is first saved.
func Defaults() Settings {
	return Settings{
		CompanyName:           "SA StockMaster",
		CurrencyCode:          "ZAR",
		DefaultVATRate:        decimal.RequireFromString("0.15"),
		EnableVATCalculation:  true,
		LowStockThreshold:     10,
		ReorderPointThreshold: 20,
	}
}

// ErrInvalidSettings indicates a rejected settings update.
var ErrInvalidSettings = errors.New("settings: invalid settings")
