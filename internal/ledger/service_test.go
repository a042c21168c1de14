package ledger

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	products  map[int64]ProductStock
	movements []Movement
	nextID    int64
}

type memoryTx struct {
	repo       *memoryRepo
	quantities map[int64]int64
	inserted   []Movement
}

func newMemoryRepo(products ...ProductStock) *memoryRepo {
	r := &memoryRepo{products: make(map[int64]ProductStock)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

// WithTx stages writes and applies them only when fn succeeds, mirroring
// transaction rollback semantics.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{repo: r, quantities: make(map[int64]int64)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for id, qty := range tx.quantities {
		p := r.products[id]
		p.Quantity = qty
		r.products[id] = p
	}
	r.movements = append(r.movements, tx.inserted...)
	return nil
}

func (tx *memoryTx) GetProductForUpdate(ctx context.Context, productID int64) (ProductStock, error) {
	p, ok := tx.repo.products[productID]
	if !ok {
		return ProductStock{}, ErrProductNotFound
	}
	if qty, ok := tx.quantities[productID]; ok {
		p.Quantity = qty
	}
	return p, nil
}

func (tx *memoryTx) UpdateProductQuantity(ctx context.Context, productID, quantity int64) error {
	if _, ok := tx.repo.products[productID]; !ok {
		return ErrProductNotFound
	}
	tx.quantities[productID] = quantity
	return nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	tx.repo.nextID++
	m.ID = tx.repo.nextID
	tx.inserted = append(tx.inserted, m)
	return m, nil
}

func (r *memoryRepo) GetMovement(ctx context.Context, id int64) (Movement, error) {
	for _, m := range r.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return Movement{}, ErrMovementNotFound
}

func (r *memoryRepo) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	var out []Movement
	for i := len(r.movements) - 1; i >= 0; i-- {
		m := r.movements[i]
		if filter.ProductID != 0 && m.ProductID != filter.ProductID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *memoryRepo) MovementsByReference(ctx context.Context, reference string) ([]Movement, error) {
	var out []Movement
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].Reference == reference {
			out = append(out, r.movements[i])
		}
	}
	return out, nil
}

func (r *memoryRepo) MovementSummary(ctx context.Context, from, to time.Time) ([]SummaryRow, error) {
	return nil, nil
}

func (r *memoryRepo) CurrentQuantity(ctx context.Context, productID int64) (int64, error) {
	p, ok := r.products[productID]
	if !ok {
		return 0, ErrProductNotFound
	}
	return p.Quantity, nil
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, slog.New(slog.DiscardHandler))
}

func TestApplyMovementDirections(t *testing.T) {
	repo := newMemoryRepo(ProductStock{ID: 1, SKU: "WID-1", Name: "Widget", Quantity: 100})
	svc := newTestService(repo)
	ctx := context.Background()

	cases := []struct {
		kind  Kind
		qty   int64
		after int64
	}{
		{KindIn, 50, 150},
		{KindOut, 30, 120},
		{KindAdjustmentIn, 5, 125},
		{KindAdjustmentOut, 10, 115},
		{KindDamaged, 15, 100},
		{KindReturned, 20, 120},
	}
	for _, tc := range cases {
		m, err := svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Kind: tc.kind, Quantity: tc.qty})
		require.NoError(t, err, tc.kind)
		require.Equal(t, tc.after, m.QuantityAfter, tc.kind)
		require.Equal(t, m.QuantityBefore+tc.kind.Direction()*tc.qty, m.QuantityAfter, tc.kind)

		qty, err := svc.CurrentQuantity(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, tc.after, qty, tc.kind)
	}
	require.Len(t, repo.movements, len(cases))
}

func TestApplyMovementRejectsOverdraw(t *testing.T) {
	repo := newMemoryRepo(ProductStock{ID: 1, Quantity: 10})
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Kind: KindOut, Quantity: 11})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// The failed attempt must leave no trace.
	qty, err := svc.CurrentQuantity(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 10, qty)
	require.Empty(t, repo.movements)

	// Draining to exactly zero is allowed.
	m, err := svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Kind: KindOut, Quantity: 10})
	require.NoError(t, err)
	require.EqualValues(t, 0, m.QuantityAfter)
}

func TestApplyMovementValidation(t *testing.T) {
	repo := newMemoryRepo(ProductStock{ID: 1, Quantity: 10})
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Kind: "LOST", Quantity: 1})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Kind: KindIn, Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Kind: KindIn, Quantity: -5})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.ApplyMovement(ctx, MovementInput{ProductID: 99, Kind: KindIn, Quantity: 5})
	require.ErrorIs(t, err, ErrProductNotFound)

	require.Empty(t, repo.movements)
}

func TestApplyMovementCostFallback(t *testing.T) {
	cost := decimal.RequireFromString("12.50")
	repo := newMemoryRepo(ProductStock{ID: 1, Quantity: 10, Cost: cost})
	svc := newTestService(repo)
	ctx := context.Background()

	// No unit cost supplied: the product's cost price is used.
	m, err := svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Kind: KindOut, Quantity: 4})
	require.NoError(t, err)
	require.True(t, m.UnitCost.Equal(cost))
	require.True(t, m.TotalCost.Equal(decimal.RequireFromString("50.00")))

	// Explicit unit cost wins.
	m, err = svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Kind: KindIn, Quantity: 2, UnitCost: decimal.RequireFromString("15.00")})
	require.NoError(t, err)
	require.True(t, m.TotalCost.Equal(decimal.RequireFromString("30.00")))
}

func TestSetAbsoluteQuantity(t *testing.T) {
	repo := newMemoryRepo(ProductStock{ID: 1, Quantity: 40})
	svc := newTestService(repo)
	ctx := context.Background()

	m, err := svc.SetAbsoluteQuantity(ctx, 1, 55, "COUNT-1", "alice")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, KindAdjustmentIn, m.Kind)
	require.EqualValues(t, 15, m.Quantity)
	require.EqualValues(t, 40, m.QuantityBefore)
	require.EqualValues(t, 55, m.QuantityAfter)

	m, err = svc.SetAbsoluteQuantity(ctx, 1, 30, "COUNT-2", "alice")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, KindAdjustmentOut, m.Kind)
	require.EqualValues(t, 25, m.Quantity)

	// Matching count writes nothing.
	m, err = svc.SetAbsoluteQuantity(ctx, 1, 30, "COUNT-3", "alice")
	require.NoError(t, err)
	require.Nil(t, m)
	require.Len(t, repo.movements, 2)

	_, err = svc.SetAbsoluteQuantity(ctx, 1, -1, "COUNT-4", "alice")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTransfer(t *testing.T) {
	repo := newMemoryRepo(ProductStock{ID: 1, Quantity: 20, Cost: decimal.NewFromInt(3)})
	svc := newTestService(repo)
	ctx := context.Background()

	out, in, err := svc.Transfer(ctx, TransferInput{ProductID: 1, Quantity: 8, FromWarehouse: "JHB", ToWarehouse: "CPT"})
	require.NoError(t, err)

	require.Equal(t, KindTransferOut, out.Kind)
	require.Equal(t, KindTransferIn, in.Kind)
	require.EqualValues(t, 20, out.QuantityBefore)
	require.EqualValues(t, 12, out.QuantityAfter)
	require.EqualValues(t, 12, in.QuantityBefore)
	require.EqualValues(t, 20, in.QuantityAfter)
	require.Equal(t, "JHB", out.WarehouseCode)
	require.Equal(t, "CPT", in.WarehouseCode)

	// Both halves share one correlation id.
	require.NotEmpty(t, out.CorrelationID)
	require.Equal(t, out.CorrelationID, in.CorrelationID)
	_, err = uuid.Parse(out.CorrelationID)
	require.NoError(t, err)

	// Aggregate quantity is unchanged.
	qty, err := svc.CurrentQuantity(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 20, qty)
	require.Len(t, repo.movements, 2)
}

func TestTransferValidation(t *testing.T) {
	repo := newMemoryRepo(ProductStock{ID: 1, Quantity: 5})
	svc := newTestService(repo)
	ctx := context.Background()

	_, _, err := svc.Transfer(ctx, TransferInput{ProductID: 1, Quantity: 6, FromWarehouse: "JHB", ToWarehouse: "CPT"})
	require.ErrorIs(t, err, ErrInsufficientStock)

	_, _, err = svc.Transfer(ctx, TransferInput{ProductID: 1, Quantity: 5, FromWarehouse: "JHB", ToWarehouse: "jhb"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = svc.Transfer(ctx, TransferInput{ProductID: 1, Quantity: 5, FromWarehouse: "", ToWarehouse: "CPT"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = svc.Transfer(ctx, TransferInput{ProductID: 1, Quantity: 0, FromWarehouse: "JHB", ToWarehouse: "CPT"})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	require.Empty(t, repo.movements)
}

func TestMovementsByReference(t *testing.T) {
	repo := newMemoryRepo(ProductStock{ID: 1, Quantity: 100})
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Kind: KindOut, Quantity: 3, Reference: "SO-001"})
	require.NoError(t, err)
	_, err = svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Kind: KindOut, Quantity: 2, Reference: "SO-001"})
	require.NoError(t, err)
	_, err = svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Kind: KindOut, Quantity: 1, Reference: "SO-002"})
	require.NoError(t, err)

	movements, err := svc.MovementsByReference(ctx, "SO-001")
	require.NoError(t, err)
	require.Len(t, movements, 2)

	_, err = svc.MovementsByReference(ctx, "  ")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSumOfDeltasMatchesQuantity(t *testing.T) {
	repo := newMemoryRepo(ProductStock{ID: 1, Quantity: 0})
	svc := newTestService(repo)
	ctx := context.Background()

	steps := []struct {
		kind Kind
		qty  int64
	}{
		{KindIn, 100},
		{KindOut, 25},
		{KindReturned, 5},
		{KindDamaged, 10},
		{KindAdjustmentOut, 2},
		{KindIn, 40},
	}
	for _, s := range steps {
		_, err := svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Kind: s.kind, Quantity: s.qty})
		require.NoError(t, err)
	}

	var total int64
	for _, m := range repo.movements {
		total += m.Kind.Direction() * m.Quantity
	}
	qty, err := svc.CurrentQuantity(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, qty, total)

	// Each record's snapshots are internally consistent.
	for _, m := range repo.movements {
		require.Equal(t, m.QuantityAfter, m.QuantityBefore+m.Kind.Direction()*m.Quantity)
	}
}
