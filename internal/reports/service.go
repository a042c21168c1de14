package reports

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sa-stockmaster/sa-stockmaster/internal/settings"
)

// RepositoryPort abstracts report queries for service.
type RepositoryPort interface {
	LowStock(ctx context.Context, fallbackThreshold int64) ([]StockItem, error)
	OutOfStock(ctx context.Context) ([]StockItem, error)
	Overstocked(ctx context.Context) ([]StockItem, error)
	Valuation(ctx context.Context, basis ValuationBasis) ([]ValuationRow, error)
	TotalProducts(ctx context.Context) (int64, error)
	ActiveProducts(ctx context.Context) (int64, error)
	LowStockCount(ctx context.Context, fallbackThreshold int64) (int64, error)
	OutOfStockCount(ctx context.Context) (int64, error)
	MovementsToday(ctx context.Context) (int64, error)
	PendingSalesOrders(ctx context.Context) (int64, error)
	OpenPurchaseOrders(ctx context.Context) (int64, error)
	TotalStockValue(ctx context.Context) (string, error)
}

// SettingsPort supplies thresholds and the display currency.
type SettingsPort interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Service assembles stock reports and the dashboard summary.
type Service struct {
	repo     RepositoryPort
	settings SettingsPort
	cache    *Cache
	log      *slog.Logger
}

// NewService builds Service. cache may be nil.
func NewService(repo RepositoryPort, settings SettingsPort, cache *Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, settings: settings, cache: cache, log: log}
}

// LowStock lists products at or below their minimum stock level.
func (s *Service) LowStock(ctx context.Context) ([]StockItem, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.LowStock(ctx, cfg.LowStockThreshold)
}

// OutOfStock lists empty products.
func (s *Service) OutOfStock(ctx context.Context) ([]StockItem, error) {
	return s.repo.OutOfStock(ctx)
}

// Overstocked lists products holding above their maximum stock level.
func (s *Service) Overstocked(ctx context.Context) ([]StockItem, error) {
	return s.repo.Overstocked(ctx)
}

// Valuation values all stock at the chosen basis.
func (s *Service) Valuation(ctx context.Context, basis ValuationBasis) (Valuation, error) {
	if basis == "" {
		basis = BasisCost
	}
	if !basis.Valid() {
		return Valuation{}, fmt.Errorf("%w: %q", ErrInvalidBasis, basis)
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return Valuation{}, err
	}
	rows, err := s.repo.Valuation(ctx, basis)
	if err != nil {
		return Valuation{}, err
	}
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.StockValue)
	}
	return Valuation{
		Basis:          basis,
		Rows:           rows,
		TotalValue:     total,
		TotalFormatted: formatAmount(cfg.CurrencyCode, total),
	}, nil
}

// Dashboard assembles the summary block. Aggregates run in parallel and the
// result is cached for the configured TTL.
func (s *Service) Dashboard(ctx context.Context) (DashboardStats, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "dashboard")
	if err != nil {
		return DashboardStats{}, err
	}
	var stats DashboardStats
	err = s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (any, error) {
		return s.loadDashboard(ctx)
	})
	return stats, err
}

func (s *Service) loadDashboard(ctx context.Context) (DashboardStats, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return DashboardStats{}, err
	}

	var stats DashboardStats
	var totalValue string

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.TotalProducts, err = s.repo.TotalProducts(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.ActiveProducts, err = s.repo.ActiveProducts(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.LowStockCount, err = s.repo.LowStockCount(ctx, cfg.LowStockThreshold)
		return err
	})
	g.Go(func() error {
		var err error
		stats.OutOfStockCount, err = s.repo.OutOfStockCount(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.MovementsToday, err = s.repo.MovementsToday(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.PendingSalesOrders, err = s.repo.PendingSalesOrders(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.OpenPurchaseOrders, err = s.repo.OpenPurchaseOrders(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		totalValue, err = s.repo.TotalStockValue(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardStats{}, err
	}

	stats.TotalStockValue, err = decimal.NewFromString(totalValue)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("reports: parse stock value %q: %w", totalValue, err)
	}
	stats.StockValueFormatted = formatAmount(cfg.CurrencyCode, stats.TotalStockValue)
	return stats, nil
}

// HandleStockChanged invalidates cached reports after a stock mutation.
func (s *Service) HandleStockChanged(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.log.Warn("report cache bump failed", "error", err)
	}
}

// formatAmount renders an amount with the currency symbol and grouped digits,
// e.g. "ZAR 1,234,567.89".
func formatAmount(code string, amount decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	value, _ := amount.Round(2).Float64()
	unit, err := currency.ParseISO(code)
	if err != nil {
		return p.Sprintf("%s %.2f", code, value)
	}
	return p.Sprintf("%v", currency.Symbol(unit.Amount(value)))
}
