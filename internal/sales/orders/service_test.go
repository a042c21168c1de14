package orders

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sa-stockmaster/sa-stockmaster/internal/ledger"
	"github.com/sa-stockmaster/sa-stockmaster/internal/settings"
)

type memoryRepo struct {
	orders map[int64]SalesOrder
	nextID int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: make(map[int64]SalesOrder)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (SalesOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return SalesOrder{}, ErrOrderNotFound
	}
	return o, nil
}

func (r *memoryRepo) List(ctx context.Context, status Status, customerID int64, limit int) ([]SalesOrder, error) {
	var out []SalesOrder
	for _, o := range r.orders {
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *memoryRepo) NextOrderNumber(ctx context.Context, date time.Time) (string, error) {
	return fmt.Sprintf("SO-%s-%04d", date.Format("20060102"), len(r.orders)+1), nil
}

func (tx *memoryTx) CreateOrder(ctx context.Context, order SalesOrder) (int64, error) {
	tx.repo.nextID++
	order.ID = tx.repo.nextID
	tx.repo.orders[order.ID] = order
	return order.ID, nil
}

func (tx *memoryTx) InsertLine(ctx context.Context, line OrderLine) (int64, error) {
	o := tx.repo.orders[line.OrderID]
	line.ID = int64(len(o.Lines) + 1)
	o.Lines = append(o.Lines, line)
	tx.repo.orders[line.OrderID] = o
	return line.ID, nil
}

func (tx *memoryTx) GetOrderForUpdate(ctx context.Context, id int64) (SalesOrder, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryTx) UpdateStatus(ctx context.Context, id int64, status Status, shippedAt *time.Time) error {
	o, ok := tx.repo.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	if shippedAt != nil {
		o.ShippedAt = shippedAt
	}
	tx.repo.orders[id] = o
	return nil
}

type fakeLedger struct {
	applied [][]ledger.MovementInput
	fail    error
}

func (f *fakeLedger) ApplyMovements(ctx context.Context, inputs []ledger.MovementInput) ([]ledger.Movement, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.applied = append(f.applied, inputs)
	return make([]ledger.Movement, len(inputs)), nil
}

type fakeSettings struct{}

func (fakeSettings) Get(ctx context.Context) (settings.Settings, error) {
	return settings.Defaults(), nil
}

func newTestService(repo *memoryRepo, stock *fakeLedger) *Service {
	return NewService(repo, stock, fakeSettings{}, slog.New(slog.DiscardHandler))
}

func createOrder(t *testing.T, svc *Service) SalesOrder {
	t.Helper()
	order, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 7,
		Lines: []LineInput{
			{ProductID: 1, Quantity: 3, UnitPrice: decimal.RequireFromString("100.00")},
			{ProductID: 2, Quantity: 1, UnitPrice: decimal.RequireFromString("49.99")},
		},
	})
	require.NoError(t, err)
	return order
}

func TestCreateComputesVATTotals(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &fakeLedger{})

	order := createOrder(t, svc)
	require.Equal(t, StatusPending, order.Status)
	require.Len(t, order.Lines, 2)
	require.True(t, order.Subtotal.Equal(decimal.RequireFromString("349.99")), order.Subtotal)
	// 15% of 349.99 is 52.4985, rounded to 52.50.
	require.True(t, order.VATAmount.Equal(decimal.RequireFromString("52.50")), order.VATAmount)
	require.True(t, order.Total.Equal(decimal.RequireFromString("402.49")), order.Total)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &fakeLedger{})
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{CustomerID: 7})
	require.ErrorIs(t, err, ErrEmptyOrder)

	_, err = svc.Create(ctx, CreateInput{
		CustomerID: 7,
		Lines:      []LineInput{{ProductID: 1, Quantity: 0}},
	})
	require.ErrorIs(t, err, ErrInvalidLine)

	_, err = svc.Create(ctx, CreateInput{
		Lines: []LineInput{{ProductID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrInvalidLine)
}

func TestStatusFlow(t *testing.T) {
	stock := &fakeLedger{}
	svc := newTestService(newMemoryRepo(), stock)
	ctx := context.Background()

	order := createOrder(t, svc)

	// Pending orders cannot ship.
	_, err := svc.Ship(ctx, order.ID, "alice")
	require.ErrorIs(t, err, ErrInvalidStatus)
	require.Empty(t, stock.applied)

	approved, err := svc.Approve(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)

	// Approving again is rejected.
	_, err = svc.Approve(ctx, order.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)

	shipped, err := svc.Ship(ctx, order.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, StatusShipped, shipped.Status)
	require.NotNil(t, shipped.ShippedAt)

	// Shipped orders cannot cancel or re-ship.
	_, err = svc.Cancel(ctx, order.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.Ship(ctx, order.ID, "alice")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestShipIssuesStockPerLine(t *testing.T) {
	stock := &fakeLedger{}
	svc := newTestService(newMemoryRepo(), stock)
	ctx := context.Background()

	order := createOrder(t, svc)
	_, err := svc.Approve(ctx, order.ID)
	require.NoError(t, err)
	_, err = svc.Ship(ctx, order.ID, "alice")
	require.NoError(t, err)

	require.Len(t, stock.applied, 1)
	batch := stock.applied[0]
	require.Len(t, batch, 2)
	for _, input := range batch {
		require.Equal(t, ledger.KindOut, input.Kind)
		require.Equal(t, order.OrderNumber, input.Reference)
		require.Equal(t, "alice", input.ActorID)
	}
	require.EqualValues(t, 3, batch[0].Quantity)
	require.EqualValues(t, 1, batch[1].Quantity)
}

func TestShipAbortsWhenStockShort(t *testing.T) {
	stock := &fakeLedger{fail: ledger.ErrInsufficientStock}
	repo := newMemoryRepo()
	svc := newTestService(repo, stock)
	ctx := context.Background()

	order := createOrder(t, svc)
	_, err := svc.Approve(ctx, order.ID)
	require.NoError(t, err)

	_, err = svc.Ship(ctx, order.ID, "alice")
	require.ErrorIs(t, err, ledger.ErrInsufficientStock)

	// The order stays approved and can ship later.
	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, got.Status)
	require.Nil(t, got.ShippedAt)
}
