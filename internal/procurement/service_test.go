package procurement

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
	orders map[int64]PurchaseOrder
	nextID int64
	lineID int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: make(map[int64]PurchaseOrder)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	po, ok := r.orders[id]
	if !ok {
		return PurchaseOrder{}, ErrPONotFound
	}
	return po, nil
}

func (r *memoryRepo) List(ctx context.Context, status Status, supplierID int64, limit int) ([]PurchaseOrder, error) {
	var out []PurchaseOrder
	for _, po := range r.orders {
		out = append(out, po)
	}
	return out, nil
}

func (r *memoryRepo) NextOrderNumber(ctx context.Context, date time.Time) (string, error) {
	return fmt.Sprintf("PO-%s-%04d", date.Format("20060102"), len(r.orders)+1), nil
}

func (tx *memoryTx) CreatePO(ctx context.Context, po PurchaseOrder) (int64, error) {
	tx.repo.nextID++
	po.ID = tx.repo.nextID
	tx.repo.orders[po.ID] = po
	return po.ID, nil
}

func (tx *memoryTx) InsertLine(ctx context.Context, line POLine) (int64, error) {
	tx.repo.lineID++
	line.ID = tx.repo.lineID
	po := tx.repo.orders[line.PurchaseOrderID]
	po.Lines = append(po.Lines, line)
	tx.repo.orders[line.PurchaseOrderID] = po
	return line.ID, nil
}

func (tx *memoryTx) GetPOForUpdate(ctx context.Context, id int64) (PurchaseOrder, error) {
	po, err := tx.repo.Get(ctx, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	lines := make([]POLine, len(po.Lines))
	copy(lines, po.Lines)
	po.Lines = lines
	return po, nil
}

func (tx *memoryTx) UpdateStatus(ctx context.Context, id int64, status Status) error {
	po, ok := tx.repo.orders[id]
	if !ok {
		return ErrPONotFound
	}
	po.Status = status
	tx.repo.orders[id] = po
	return nil
}

func (tx *memoryTx) AddReceivedQuantity(ctx context.Context, lineID, quantity int64) error {
	for id, po := range tx.repo.orders {
		for i := range po.Lines {
			if po.Lines[i].ID == lineID {
				if po.Lines[i].QuantityReceived+quantity > po.Lines[i].Quantity {
					return ErrOverReceipt
				}
				po.Lines[i].QuantityReceived += quantity
				tx.repo.orders[id] = po
				return nil
			}
		}
	}
	return ErrLineNotFound
}

type fakeLedger struct {
	applied [][]ledger.MovementInput
}

func (f *fakeLedger) ApplyMovements(ctx context.Context, inputs []ledger.MovementInput) ([]ledger.Movement, error) {
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

func createPO(t *testing.T, svc *Service) PurchaseOrder {
	t.Helper()
	po, err := svc.Create(context.Background(), CreateInput{
		SupplierID: 3,
		Lines: []LineInput{
			{ProductID: 1, Quantity: 10, UnitCost: decimal.RequireFromString("60.00")},
			{ProductID: 2, Quantity: 4, UnitCost: decimal.RequireFromString("25.00")},
		},
	})
	require.NoError(t, err)
	return po
}

func TestCreateComputesTotals(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &fakeLedger{})

	po := createPO(t, svc)
	require.Equal(t, StatusDraft, po.Status)
	require.True(t, po.Subtotal.Equal(decimal.RequireFromString("700.00")), po.Subtotal)
	require.True(t, po.VATAmount.Equal(decimal.RequireFromString("105.00")), po.VATAmount)
	require.True(t, po.Total.Equal(decimal.RequireFromString("805.00")), po.Total)
}

func TestReceiveFullOrder(t *testing.T) {
	stock := &fakeLedger{}
	repo := newMemoryRepo()
	svc := newTestService(repo, stock)
	ctx := context.Background()

	po := createPO(t, svc)

	// Draft orders cannot receive.
	_, err := svc.Receive(ctx, po.ID, []ReceiptLine{{LineID: po.Lines[0].ID, Quantity: 1}}, "bob")
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Place(ctx, po.ID)
	require.NoError(t, err)

	received, err := svc.Receive(ctx, po.ID, []ReceiptLine{
		{LineID: po.Lines[0].ID, Quantity: 10},
		{LineID: po.Lines[1].ID, Quantity: 4},
	}, "bob")
	require.NoError(t, err)
	require.Equal(t, StatusReceived, received.Status)

	require.Len(t, stock.applied, 1)
	batch := stock.applied[0]
	require.Len(t, batch, 2)
	require.Equal(t, ledger.KindIn, batch[0].Kind)
	require.Equal(t, po.OrderNumber, batch[0].Reference)
	require.True(t, batch[0].UnitCost.Equal(decimal.RequireFromString("60.00")))
}

func TestPartialReceipts(t *testing.T) {
	stock := &fakeLedger{}
	repo := newMemoryRepo()
	svc := newTestService(repo, stock)
	ctx := context.Background()

	po := createPO(t, svc)
	_, err := svc.Place(ctx, po.ID)
	require.NoError(t, err)

	partial, err := svc.Receive(ctx, po.ID, []ReceiptLine{{LineID: po.Lines[0].ID, Quantity: 6}}, "bob")
	require.NoError(t, err)
	require.Equal(t, StatusPartiallyReceived, partial.Status)

	// Receiving more than outstanding is rejected.
	_, err = svc.Receive(ctx, po.ID, []ReceiptLine{{LineID: po.Lines[0].ID, Quantity: 5}}, "bob")
	require.ErrorIs(t, err, ErrOverReceipt)

	// Completing both lines finishes the order.
	done, err := svc.Receive(ctx, po.ID, []ReceiptLine{
		{LineID: po.Lines[0].ID, Quantity: 4},
		{LineID: po.Lines[1].ID, Quantity: 4},
	}, "bob")
	require.NoError(t, err)
	require.Equal(t, StatusReceived, done.Status)
	require.Len(t, stock.applied, 2)
}

func TestReceiveUnknownLine(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &fakeLedger{})
	ctx := context.Background()

	po := createPO(t, svc)
	_, err := svc.Place(ctx, po.ID)
	require.NoError(t, err)

	_, err = svc.Receive(ctx, po.ID, []ReceiptLine{{LineID: 999, Quantity: 1}}, "bob")
	require.ErrorIs(t, err, ErrLineNotFound)

	_, err = svc.Receive(ctx, po.ID, nil, "bob")
	require.ErrorIs(t, err, ErrNothingReceived)
}

func TestCancelFlow(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &fakeLedger{})
	ctx := context.Background()

	po := createPO(t, svc)
	cancelled, err := svc.Cancel(ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)

	// Cancelled orders are terminal.
	_, err = svc.Place(ctx, po.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)
}
