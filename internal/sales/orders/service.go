package orders

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
	Get(ctx context.Context, id int64) (SalesOrder, error)
	List(ctx context.Context, status Status, customerID int64, limit int) ([]SalesOrder, error)
	NextOrderNumber(ctx context.Context, date time.Time) (string, error)
}

// LedgerPort issues stock when an order ships. The batch is atomic, a single
// line without stock aborts the whole shipment.
type LedgerPort interface {
	ApplyMovements(ctx context.Context, inputs []ledger.MovementInput) ([]ledger.Movement, error)
}

// SettingsPort supplies the VAT rate for order totals.
type SettingsPort interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Service coordinates sales order lifecycle and stock issue on shipment.
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

// LineInput is one requested order position.
type LineInput struct {
	ProductID int64
	Quantity  int64
	UnitPrice decimal.Decimal
}

// CreateInput describes a new sales order.
type CreateInput struct {
	CustomerID int64
	OrderDate  time.Time
	Notes      string
	Lines      []LineInput
}

// Create prices the lines, computes VAT totals and stores the order as
// pending. Stock is not touched until shipment.
func (s *Service) Create(ctx context.Context, input CreateInput) (SalesOrder, error) {
	if input.CustomerID <= 0 {
		return SalesOrder{}, fmt.Errorf("%w: customer required", ErrInvalidLine)
	}
	if len(input.Lines) == 0 {
		return SalesOrder{}, ErrEmptyOrder
	}
	for _, l := range input.Lines {
		if l.ProductID <= 0 || l.Quantity <= 0 || l.UnitPrice.IsNegative() {
			return SalesOrder{}, ErrInvalidLine
		}
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return SalesOrder{}, err
	}
	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now().UTC()
	}
	number, err := s.repo.NextOrderNumber(ctx, orderDate)
	if err != nil {
		return SalesOrder{}, err
	}

	subtotal := decimal.Zero
	lines := make([]OrderLine, 0, len(input.Lines))
	for _, l := range input.Lines {
		lineTotal := l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)).RoundBank(2)
		subtotal = subtotal.Add(lineTotal)
		lines = append(lines, OrderLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: lineTotal,
		})
	}
	vatAmount := decimal.Zero
	if cfg.EnableVATCalculation {
		vatAmount = vat.Amount(subtotal, cfg.DefaultVATRate)
	}

	order := SalesOrder{
		OrderNumber: number,
		CustomerID:  input.CustomerID,
		Status:      StatusPending,
		OrderDate:   orderDate,
		Notes:       input.Notes,
		Subtotal:    subtotal,
		VATAmount:   vatAmount,
		Total:       subtotal.Add(vatAmount),
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id
		for i := range lines {
			lines[i].OrderID = id
			lineID, err := tx.InsertLine(ctx, lines[i])
			if err != nil {
				return err
			}
			lines[i].ID = lineID
		}
		return nil
	})
	if err != nil {
		return SalesOrder{}, err
	}
	order.Lines = lines
	s.log.Info("sales order created",
		slog.String("order", order.OrderNumber),
		slog.Int64("customer_id", order.CustomerID),
		slog.Int("lines", len(lines)))
	return order, nil
}

// Get returns an order with its lines.
func (s *Service) Get(ctx context.Context, id int64) (SalesOrder, error) {
	if id <= 0 {
		return SalesOrder{}, ErrInvalidOrderID
	}
	return s.repo.Get(ctx, id)
}

// List returns orders newest first.
func (s *Service) List(ctx context.Context, status Status, customerID int64, limit int) ([]SalesOrder, error) {
	return s.repo.List(ctx, status, customerID, limit)
}

// Approve moves a pending order to approved.
func (s *Service) Approve(ctx context.Context, id int64) (SalesOrder, error) {
	return s.transition(ctx, id, StatusApproved, nil)
}

// Cancel voids a pending or approved order. Shipped orders cannot be
// cancelled, their stock has already left.
func (s *Service) Cancel(ctx context.Context, id int64) (SalesOrder, error) {
	return s.transition(ctx, id, StatusCancelled, nil)
}

// Ship issues stock for every line and marks the order shipped. The stock
// issue is a single atomic batch under the order's reference.
func (s *Service) Ship(ctx context.Context, id int64, actorID string) (SalesOrder, error) {
	if id <= 0 {
		return SalesOrder{}, ErrInvalidOrderID
	}
	var shipped SalesOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !order.Status.CanTransition(StatusShipped) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, order.Status, StatusShipped)
		}
		inputs := make([]ledger.MovementInput, 0, len(order.Lines))
		for _, line := range order.Lines {
			inputs = append(inputs, ledger.MovementInput{
				ProductID: line.ProductID,
				Kind:      ledger.KindOut,
				Quantity:  line.Quantity,
				Reference: order.OrderNumber,
				Notes:     fmt.Sprintf("Shipment for %s", order.OrderNumber),
				ActorID:   actorID,
			})
		}
		if _, err := s.stock.ApplyMovements(ctx, inputs); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := tx.UpdateStatus(ctx, id, StatusShipped, &now); err != nil {
			return err
		}
		order.Status = StatusShipped
		order.ShippedAt = &now
		shipped = order
		return nil
	})
	if err != nil {
		return SalesOrder{}, err
	}
	s.log.Info("sales order shipped", slog.String("order", shipped.OrderNumber))
	return shipped, nil
}

func (s *Service) transition(ctx context.Context, id int64, next Status, shippedAt *time.Time) (SalesOrder, error) {
	if id <= 0 {
		return SalesOrder{}, ErrInvalidOrderID
	}
	var result SalesOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !order.Status.CanTransition(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, order.Status, next)
		}
		if err := tx.UpdateStatus(ctx, id, next, shippedAt); err != nil {
			return err
		}
		order.Status = next
		result = order
		return nil
	})
	if err != nil {
		return SalesOrder{}, err
	}
	return result, nil
}
