package reports

import (
	"context"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/sa-stockmaster/sa-stockmaster/internal/settings"
)

type mockRepo struct {
	lowItems       []StockItem
	lowCalls       int
	lowThreshold   int64
	outItems       []StockItem
	overItems      []StockItem
	overCalls      int
	valuationRows  []ValuationRow
	valuationBasis ValuationBasis
	totalValue     string
	dashCalls      int
}

func (m *mockRepo) LowStock(ctx context.Context, fallbackThreshold int64) ([]StockItem, error) {
	m.lowCalls++
	m.lowThreshold = fallbackThreshold
	return m.lowItems, nil
}

func (m *mockRepo) OutOfStock(ctx context.Context) ([]StockItem, error) {
	return m.outItems, nil
}

func (m *mockRepo) Overstocked(ctx context.Context) ([]StockItem, error) {
	m.overCalls++
	return m.overItems, nil
}

func (m *mockRepo) Valuation(ctx context.Context, basis ValuationBasis) ([]ValuationRow, error) {
	m.valuationBasis = basis
	return m.valuationRows, nil
}

func (m *mockRepo) TotalProducts(ctx context.Context) (int64, error) {
	m.dashCalls++
	return 120, nil
}

func (m *mockRepo) ActiveProducts(ctx context.Context) (int64, error)  { return 110, nil }
func (m *mockRepo) OutOfStockCount(ctx context.Context) (int64, error) { return 4, nil }
func (m *mockRepo) MovementsToday(ctx context.Context) (int64, error)  { return 17, nil }

func (m *mockRepo) LowStockCount(ctx context.Context, fallbackThreshold int64) (int64, error) {
	return 9, nil
}

func (m *mockRepo) PendingSalesOrders(ctx context.Context) (int64, error) { return 3, nil }
func (m *mockRepo) OpenPurchaseOrders(ctx context.Context) (int64, error) { return 2, nil }

func (m *mockRepo) TotalStockValue(ctx context.Context) (string, error) {
	return m.totalValue, nil
}

type fixedSettings struct {
	cfg settings.Settings
}

func (f fixedSettings) Get(ctx context.Context) (settings.Settings, error) {
	return f.cfg, nil
}

func newTestService(t *testing.T, repo *mockRepo) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	cfg := settings.Defaults()
	svc := NewService(repo, fixedSettings{cfg: cfg}, cache, slog.New(slog.DiscardHandler))
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func TestDashboardCaches(t *testing.T) {
	repo := &mockRepo{totalValue: "145230.50"}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	stats, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard error: %v", err)
	}
	if stats.TotalProducts != 120 || stats.LowStockCount != 9 || stats.OutOfStockCount != 4 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if !stats.TotalStockValue.Equal(decimal.RequireFromString("145230.50")) {
		t.Fatalf("unexpected stock value %s", stats.TotalStockValue)
	}
	if stats.StockValueFormatted == "" {
		t.Fatalf("expected formatted stock value")
	}
	if repo.dashCalls != 1 {
		t.Fatalf("expected 1 repo pass, got %d", repo.dashCalls)
	}

	// Second call should hit cache.
	if _, err := svc.Dashboard(ctx); err != nil {
		t.Fatalf("cached dashboard error: %v", err)
	}
	if repo.dashCalls != 1 {
		t.Fatalf("expected cached result, repo called %d times", repo.dashCalls)
	}

	// A stock change invalidates the cached block.
	svc.HandleStockChanged(ctx)
	if _, err := svc.Dashboard(ctx); err != nil {
		t.Fatalf("refreshed dashboard error: %v", err)
	}
	if repo.dashCalls != 2 {
		t.Fatalf("expected repo to refresh, calls %d", repo.dashCalls)
	}
}

func TestLowStockUsesConfiguredThreshold(t *testing.T) {
	repo := &mockRepo{
		lowItems: []StockItem{{ProductID: 1, SKU: "SKU-001", Name: "Widget", Quantity: 3}},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	items, err := svc.LowStock(context.Background())
	if err != nil {
		t.Fatalf("low stock error: %v", err)
	}
	if len(items) != 1 || items[0].SKU != "SKU-001" {
		t.Fatalf("unexpected items %#v", items)
	}
	if repo.lowThreshold != settings.Defaults().LowStockThreshold {
		t.Fatalf("expected default threshold, got %d", repo.lowThreshold)
	}
}

func TestOverstocked(t *testing.T) {
	repo := &mockRepo{
		overItems: []StockItem{{ProductID: 9, SKU: "SKU-009", Quantity: 900, MaxStockLevel: 200}},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	items, err := svc.Overstocked(context.Background())
	if err != nil {
		t.Fatalf("overstocked error: %v", err)
	}
	if len(items) != 1 || items[0].SKU != "SKU-009" {
		t.Fatalf("unexpected items %#v", items)
	}
	if repo.overCalls != 1 {
		t.Fatalf("expected 1 repo call, got %d", repo.overCalls)
	}
}

func TestValuation(t *testing.T) {
	repo := &mockRepo{
		valuationRows: []ValuationRow{
			{ProductID: 1, SKU: "SKU-001", Quantity: 10, UnitValue: decimal.RequireFromString("12.50"), StockValue: decimal.RequireFromString("125.00")},
			{ProductID: 2, SKU: "SKU-002", Quantity: 4, UnitValue: decimal.RequireFromString("99.99"), StockValue: decimal.RequireFromString("399.96")},
		},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	report, err := svc.Valuation(context.Background(), BasisRetail)
	if err != nil {
		t.Fatalf("valuation error: %v", err)
	}
	if repo.valuationBasis != BasisRetail {
		t.Fatalf("expected retail basis, got %s", repo.valuationBasis)
	}
	if !report.TotalValue.Equal(decimal.RequireFromString("524.96")) {
		t.Fatalf("unexpected total %s", report.TotalValue)
	}
	if report.TotalFormatted == "" {
		t.Fatalf("expected formatted total")
	}

	// Empty basis defaults to cost.
	report, err = svc.Valuation(context.Background(), "")
	if err != nil {
		t.Fatalf("default basis error: %v", err)
	}
	if report.Basis != BasisCost {
		t.Fatalf("expected cost basis, got %s", report.Basis)
	}

	if _, err := svc.Valuation(context.Background(), "liquidation"); err == nil {
		t.Fatalf("expected invalid basis error")
	}
}
