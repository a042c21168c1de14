package products

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sa-stockmaster/sa-stockmaster/internal/masterdata/shared"
	"github.com/sa-stockmaster/sa-stockmaster/internal/settings"
)

type memoryRepo struct {
	products map[int64]Product
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]Product)}
}

func (r *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) GetBySKU(ctx context.Context, sku string) (Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return Product{}, shared.ErrNotFound
}

func (r *memoryRepo) Create(ctx context.Context, product Product) (Product, error) {
	for _, p := range r.products {
		if p.SKU == product.SKU {
			return Product{}, shared.ErrDuplicate
		}
	}
	r.nextID++
	product.ID = r.nextID
	product.Quantity = 0
	r.products[product.ID] = product
	return product, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, product Product) error {
	existing, ok := r.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	product.ID = id
	product.Quantity = existing.Quantity
	r.products[id] = product
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

type fakeSettings struct {
	cfg settings.Settings
}

func (f fakeSettings) Get(ctx context.Context) (settings.Settings, error) {
	return f.cfg, nil
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, fakeSettings{cfg: settings.Defaults()})
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Product{Name: "Widget", CategoryID: 1})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, Product{SKU: "WID-1", CategoryID: 1})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, Product{SKU: "WID-1", Name: "Widget"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, Product{
		SKU: "WID-1", Name: "Widget", CategoryID: 1,
		UnitPrice: decimal.RequireFromString("-1"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, Product{
		SKU: "WID-1", Name: "Widget", CategoryID: 1,
		MinStockLevel: 20, MaxStockLevel: 5,
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	p, err := svc.Create(ctx, Product{SKU: "WID-1", Name: "Widget", CategoryID: 1, IsActive: true})
	require.NoError(t, err)
	require.NotZero(t, p.ID)
	require.EqualValues(t, 0, p.Quantity)

	_, err = svc.Create(ctx, Product{SKU: "WID-1", Name: "Other", CategoryID: 1})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateNeverTouchesQuantity(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, Product{SKU: "WID-1", Name: "Widget", CategoryID: 1})
	require.NoError(t, err)

	// Simulate ledger activity behind the CRUD layer's back.
	stocked := repo.products[p.ID]
	stocked.Quantity = 42
	repo.products[p.ID] = stocked

	err = svc.Update(ctx, p.ID, Product{SKU: "WID-1", Name: "Widget v2", CategoryID: 1, Quantity: 999})
	require.NoError(t, err)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Widget v2", got.Name)
	require.EqualValues(t, 42, got.Quantity)
}

func TestEnrichment(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, Product{
		SKU: "WID-1", Name: "Widget", CategoryID: 1,
		UnitPrice: decimal.RequireFromString("100.00"),
		CostPrice: decimal.RequireFromString("60.00"),
	})
	require.NoError(t, err)

	stocked := repo.products[p.ID]
	stocked.Quantity = 5
	repo.products[p.ID] = stocked

	view, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, view.UnitPriceInclVAT.Equal(decimal.RequireFromString("115.00")), view.UnitPriceInclVAT)
	require.True(t, view.StockValue.Equal(decimal.RequireFromString("300.00")), view.StockValue)
	// Quantity 5 is at or below the default threshold of 10.
	require.True(t, view.IsLowStock)
	require.False(t, view.IsOutOfStock)

	stocked.Quantity = 0
	repo.products[p.ID] = stocked
	view, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, view.IsOutOfStock)
	require.False(t, view.IsLowStock)

	// A product-level minimum overrides the settings threshold.
	stocked.Quantity = 12
	stocked.MinStockLevel = 3
	repo.products[p.ID] = stocked
	view, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, view.IsLowStock)

	stocked.Quantity = 3
	repo.products[p.ID] = stocked
	view, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, view.IsLowStock)
}
