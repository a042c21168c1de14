package procurement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sa-stockmaster/sa-stockmaster/internal/ledger"
	"github.com/sa-stockmaster/sa-stockmaster/internal/settings"
	"github.com/sa-stockmaster/sa-stockmaster/internal/vat"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (PurchaseOrder, error)
	List(ctx context.Context, status Status, supplierID int64, limit int) ([]PurchaseOrder, error)
	NextOrderNumber(ctx context.Context, date time.Time) (string, error)
}

// LedgerPort books received stock. The batch is atomic.
type LedgerPort interface {
	ApplyMovements(ctx context.Context, inputs []ledger.MovementInput) ([]ledger.Movement, error)
}

// SettingsPort supplies the VAT rate for order totals.
type SettingsPort interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Service coordinates purchase order lifecycle and goods receipt.
type Service struct {
	repo     RepositoryPort
	stock    LedgerPort
	settings SettingsPort
	log      *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, stock LedgerPort, settings SettingsPort, log *slog.Logger) *Service {
	return &Service{repo: repo, stock: stock, settings: settings, log: log}
}

// LineInput is one requested purchase order position.
type LineInput struct {
	ProductID int64
	Quantity  int64
	UnitCost  decimal.Decimal
}

// CreateInput describes a new purchase order.
type CreateInput struct {
	SupplierID   int64
	OrderDate    time.Time
	ExpectedDate *time.Time
	Notes        string
	Lines        []LineInput
}

// ReceiptLine requests receipt of a quantity against an order line.
type ReceiptLine struct {
	LineID   int64
	Quantity int64
}

// Create stores a draft purchase order with VAT totals.
func (s *Service) Create(ctx context.Context, input CreateInput) (PurchaseOrder, error) {
	if input.SupplierID <= 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: supplier required", ErrInvalidLine)
	}
	if len(input.Lines) == 0 {
		return PurchaseOrder{}, ErrEmptyOrder
	}
	for _, l := range input.Lines {
		if l.ProductID <= 0 || l.Quantity <= 0 || l.UnitCost.IsNegative() {
			return PurchaseOrder{}, ErrInvalidLine
		}
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return PurchaseOrder{}, err
	}
	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now().UTC()
	}
	number, err := s.repo.NextOrderNumber(ctx, orderDate)
	if err != nil {
		return PurchaseOrder{}, err
	}

	subtotal := decimal.Zero
	lines := make([]POLine, 0, len(input.Lines))
	for _, l := range input.Lines {
		lineTotal := l.UnitCost.Mul(decimal.NewFromInt(l.Quantity)).RoundBank(2)
		subtotal = subtotal.Add(lineTotal)
		lines = append(lines, POLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
			LineTotal: lineTotal,
		})
	}
	vatAmount := decimal.Zero
	if cfg.EnableVATCalculation {
		vatAmount = vat.Amount(subtotal, cfg.DefaultVATRate)
	}

	po := PurchaseOrder{
		OrderNumber:  number,
		SupplierID:   input.SupplierID,
		Status:       StatusDraft,
		OrderDate:    orderDate,
		ExpectedDate: input.ExpectedDate,
		Notes:        input.Notes,
		Subtotal:     subtotal,
		VATAmount:    vatAmount,
		Total:        subtotal.Add(vatAmount),
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreatePO(ctx, po)
		if err != nil {
			return err
		}
		po.ID = id
		for i := range lines {
			lines[i].PurchaseOrderID = id
			lineID, err := tx.InsertLine(ctx, lines[i])
			if err != nil {
				return err
			}
			lines[i].ID = lineID
		}
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	po.Lines = lines
	s.log.Info("purchase order created",
		slog.String("order", po.OrderNumber),
		slog.Int64("supplier_id", po.SupplierID))
	return po, nil
}

// Get returns a purchase order with its lines.
func (s *Service) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	if id <= 0 {
		return PurchaseOrder{}, ErrPONotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns purchase orders newest first.
func (s *Service) List(ctx context.Context, status Status, supplierID int64, limit int) ([]PurchaseOrder, error) {
	return s.repo.List(ctx, status, supplierID, limit)
}

// Place moves a draft order to ordered.
func (s *Service) Place(ctx context.Context, id int64) (PurchaseOrder, error) {
	return s.transition(ctx, id, StatusOrdered)
}

// Cancel voids a draft or ordered purchase order.
func (s *Service) Cancel(ctx context.Context, id int64) (PurchaseOrder, error) {
	return s.transition(ctx, id, StatusCancelled)
}

// Receive books received quantities into stock at the line's unit cost. A
// receipt may cover part of the order; the order moves to RECEIVED once every
// line is fully received, otherwise PARTIALLY_RECEIVED.
func (s *Service) Receive(ctx context.Context, id int64, receipts []ReceiptLine, actorID string) (PurchaseOrder, error) {
	if id <= 0 {
		return PurchaseOrder{}, ErrPONotFound
	}
	if len(receipts) == 0 {
		return PurchaseOrder{}, ErrNothingReceived
	}
	for _, rl := range receipts {
		if rl.LineID <= 0 || rl.Quantity <= 0 {
			return PurchaseOrder{}, fmt.Errorf("%w: receipt quantities must be positive", ErrInvalidLine)
		}
	}

	var received PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPOForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po.Status != StatusOrdered && po.Status != StatusPartiallyReceived {
			return fmt.Errorf("%w: cannot receive in status %s", ErrInvalidStatus, po.Status)
		}
		linesByID := make(map[int64]*POLine, len(po.Lines))
		for i := range po.Lines {
			linesByID[po.Lines[i].ID] = &po.Lines[i]
		}

		inputs := make([]ledger.MovementInput, 0, len(receipts))
		for _, rl := range receipts {
			line, ok := linesByID[rl.LineID]
			if !ok {
				return fmt.Errorf("%w: line %d", ErrLineNotFound, rl.LineID)
			}
			if rl.Quantity > line.Outstanding() {
				return fmt.Errorf("%w: line %d has %d outstanding, got %d",
					ErrOverReceipt, line.ID, line.Outstanding(), rl.Quantity)
			}
			if err := tx.AddReceivedQuantity(ctx, line.ID, rl.Quantity); err != nil {
				return err
			}
			line.QuantityReceived += rl.Quantity
			inputs = append(inputs, ledger.MovementInput{
				ProductID: line.ProductID,
				Kind:      ledger.KindIn,
				Quantity:  rl.Quantity,
				Reference: po.OrderNumber,
				Notes:     fmt.Sprintf("Goods receipt for %s", po.OrderNumber),
				UnitCost:  line.UnitCost,
				ActorID:   actorID,
			})
		}
		if _, err := s.stock.ApplyMovements(ctx, inputs); err != nil {
			return err
		}

		next := StatusReceived
		for _, line := range po.Lines {
			if line.Outstanding() > 0 {
				next = StatusPartiallyReceived
				break
			}
		}
		if err := tx.UpdateStatus(ctx, id, next); err != nil {
			return err
		}
		po.Status = next
		received = po
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.log.Info("purchase order receipt booked",
		slog.String("order", received.OrderNumber),
		slog.String("status", string(received.Status)))
	return received, nil
}

func (s *Service) transition(ctx context.Context, id int64, next Status) (PurchaseOrder, error) {
	if id <= 0 {
		return PurchaseOrder{}, ErrPONotFound
	}
	var result PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPOForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !po.Status.CanTransition(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, po.Status, next)
		}
		if err := tx.UpdateStatus(ctx, id, next); err != nil {
			return err
		}
		po.Status = next
		result = po
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	return result, nil
}
