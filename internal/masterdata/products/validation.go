package products

import (
	"fmt"
	"strings"

	"github.com/sa-stockmaster/sa-stockmaster/internal/masterdata/shared"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("%w: sku", shared.ErrRequiredField)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	if p.CategoryID <= 0 {
		return fmt.Errorf("%w: category_id", shared.ErrRequiredField)
	}
	if p.UnitPrice.IsNegative() || p.CostPrice.IsNegative() {
		return fmt.Errorf("%w: prices cannot be negative", shared.ErrValidation)
	}
	if p.MinStockLevel < 0 || p.MaxStockLevel < 0 || p.ReorderLevel < 0 {
		return fmt.Errorf("%w: stock thresholds cannot be negative", shared.ErrValidation)
	}
	if p.MaxStockLevel > 0 && p.MaxStockLevel < p.MinStockLevel {
		return fmt.Errorf("%w: max stock level below min stock level", shared.ErrValidation)
	}
	return nil
}
