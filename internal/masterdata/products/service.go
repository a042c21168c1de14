package products

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sa-stockmaster/sa-stockmaster/internal/masterdata/shared"
	"github.com/sa-stockmaster/sa-stockmaster/internal/settings"
	"github.com/sa-stockmaster/sa-stockmaster/internal/vat"
)

// SettingsPort supplies the VAT rate and stock thresholds for enrichment.
type SettingsPort interface {
	Get(ctx context.Context) (settings.Settings, error)
}

type Service struct {
	repo     Repository
	settings SettingsPort
}

func NewService(repo Repository, settings SettingsPort) *Service {
	return &Service{repo: repo, settings: settings}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]View, int, error) {
	filters.Normalize()
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, 0, err
	}
	filters.LowStockThreshold = cfg.LowStockThreshold
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	views := make([]View, 0, len(items))
	for _, p := range items {
		views = append(views, s.enrich(p, cfg))
	}
	return views, total, nil
}

func (s *Service) Get(ctx context.Context, id int64) (View, error) {
	if id <= 0 {
		return View{}, shared.ErrInvalidID
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return View{}, err
	}
	return s.enrich(p, cfg), nil
}

func (s *Service) GetBySKU(ctx context.Context, sku string) (View, error) {
	p, err := s.repo.GetBySKU(ctx, sku)
	if err != nil {
		return View{}, err
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return View{}, err
	}
	return s.enrich(p, cfg), nil
}

func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, product)
}

func (s *Service) Update(ctx context.Context, id int64, product Product) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := s.validate(product); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, product)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) enrich(p Product, cfg settings.Settings) View {
	v := View{Product: p}
	if cfg.EnableVATCalculation {
		v.UnitPriceInclVAT = vat.PriceInclVAT(p.UnitPrice, cfg.DefaultVATRate)
	} else {
		v.UnitPriceInclVAT = p.UnitPrice
	}
	v.StockValue = p.CostPrice.Mul(decimal.NewFromInt(p.Quantity))
	threshold := p.MinStockLevel
	if threshold <= 0 {
		threshold = cfg.LowStockThreshold
	}
	v.IsOutOfStock = p.Quantity == 0
	v.IsLowStock = !v.IsOutOfStock && p.Quantity <= threshold
	return v
}
