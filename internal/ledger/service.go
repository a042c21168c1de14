package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetMovement(ctx context.Context, id int64) (Movement, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)
	MovementsByReference(ctx context.Context, reference string) ([]Movement, error)
	MovementSummary(ctx context.Context, from, to time.Time) ([]SummaryRow, error)
	CurrentQuantity(ctx context.Context, productID int64) (int64, error)
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, productID int64) (ProductStock, error)
	UpdateProductQuantity(ctx context.Context, productID, quantity int64) error
	InsertMovement(ctx context.Context, m Movement) (Movement, error)
}

// ProductStock is the locked product row a mutation operates on.
type ProductStock struct {
	ID       int64
	SKU      string
	Name     string
	Quantity int64
	Cost     decimal.Decimal
}

// Service coordinates stock mutations and movement history reads.
type Service struct {
	repo        RepositoryPort
	log         *slog.Logger
	integration IntegrationHandler
}

// NewService builds Service.
func NewService(repo RepositoryPort, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SetIntegrationHandler injects the stock change hooks.
func (s *Service) SetIntegrationHandler(handler IntegrationHandler) {
	s.integration = handler
}

func (s *Service) notifyStockChanged(ctx context.Context) {
	if s.integration != nil {
		s.integration.HandleStockChanged(ctx)
	}
}

// ApplyMovement atomically changes a product's on-hand quantity and records
// the movement. The product row is locked for the duration of the transaction
// so the before/after snapshot pair is exact under concurrency.
func (s *Service) ApplyMovement(ctx context.Context, input MovementInput) (Movement, error) {
	if input.ProductID == 0 {
		return Movement{}, fmt.Errorf("%w: product id required", ErrInvalidArgument)
	}
	if !input.Kind.Valid() {
		return Movement{}, fmt.Errorf("%w: unknown movement type %q", ErrInvalidArgument, input.Kind)
	}
	if input.Quantity <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	if input.UnitCost.IsNegative() {
		return Movement{}, fmt.Errorf("%w: unit cost cannot be negative", ErrInvalidArgument)
	}

	var recorded Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		delta := input.Kind.Direction() * input.Quantity
		after := product.Quantity + delta
		if after < 0 {
			return fmt.Errorf("%w: product %d has %d, requested %d",
				ErrInsufficientStock, product.ID, product.Quantity, input.Quantity)
		}
		if err := tx.UpdateProductQuantity(ctx, product.ID, after); err != nil {
			return err
		}
		unitCost := input.UnitCost
		if unitCost.IsZero() {
			unitCost = product.Cost
		}
		m := Movement{
			ProductID:      product.ID,
			Kind:           input.Kind,
			Quantity:       input.Quantity,
			QuantityBefore: product.Quantity,
			QuantityAfter:  after,
			Reference:      input.Reference,
			Notes:          input.Notes,
			WarehouseCode:  input.WarehouseCode,
			UnitCost:       unitCost,
			TotalCost:      unitCost.Mul(decimal.NewFromInt(input.Quantity)),
			ActorID:        input.ActorID,
			OccurredAt:     time.Now().UTC(),
		}
		recorded, err = tx.InsertMovement(ctx, m)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.log.Info("stock movement applied",
		slog.Int64("product_id", recorded.ProductID),
		slog.String("type", string(recorded.Kind)),
		slog.Int64("quantity", recorded.Quantity),
		slog.Int64("after", recorded.QuantityAfter))
	s.notifyStockChanged(ctx)
	return recorded, nil
}

// ApplyMovements books a batch of movements in a single transaction. Either
// every movement is applied or none are; the first failure aborts the batch.
func (s *Service) ApplyMovements(ctx context.Context, inputs []MovementInput) ([]Movement, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidArgument)
	}
	for _, input := range inputs {
		if input.ProductID == 0 {
			return nil, fmt.Errorf("%w: product id required", ErrInvalidArgument)
		}
		if !input.Kind.Valid() {
			return nil, fmt.Errorf("%w: unknown movement type %q", ErrInvalidArgument, input.Kind)
		}
		if input.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	recorded := make([]Movement, 0, len(inputs))
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, input := range inputs {
			product, err := tx.GetProductForUpdate(ctx, input.ProductID)
			if err != nil {
				return err
			}
			delta := input.Kind.Direction() * input.Quantity
			after := product.Quantity + delta
			if after < 0 {
				return fmt.Errorf("%w: product %d has %d, requested %d",
					ErrInsufficientStock, product.ID, product.Quantity, input.Quantity)
			}
			if err := tx.UpdateProductQuantity(ctx, product.ID, after); err != nil {
				return err
			}
			unitCost := input.UnitCost
			if unitCost.IsZero() {
				unitCost = product.Cost
			}
			m, err := tx.InsertMovement(ctx, Movement{
				ProductID:      product.ID,
				Kind:           input.Kind,
				Quantity:       input.Quantity,
				QuantityBefore: product.Quantity,
				QuantityAfter:  after,
				Reference:      input.Reference,
				Notes:          input.Notes,
				WarehouseCode:  input.WarehouseCode,
				UnitCost:       unitCost,
				TotalCost:      unitCost.Mul(decimal.NewFromInt(input.Quantity)),
				ActorID:        input.ActorID,
				OccurredAt:     time.Now().UTC(),
			})
			if err != nil {
				return err
			}
			recorded = append(recorded, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("stock movement batch applied", slog.Int("count", len(recorded)))
	s.notifyStockChanged(ctx)
	return recorded, nil
}

// SetAbsoluteQuantity records a stock count result. It computes the delta
// against the locked row and books it as an adjustment. A count matching the
// current quantity writes nothing and returns a nil movement.
func (s *Service) SetAbsoluteQuantity(ctx context.Context, productID, counted int64, reference, actorID string) (*Movement, error) {
	if productID == 0 {
		return nil, fmt.Errorf("%w: product id required", ErrInvalidArgument)
	}
	if counted < 0 {
		return nil, fmt.Errorf("%w: counted quantity cannot be negative", ErrInvalidArgument)
	}

	var recorded *Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		delta := counted - product.Quantity
		if delta == 0 {
			return nil
		}
		kind := KindAdjustmentIn
		if delta < 0 {
			kind = KindAdjustmentOut
			delta = -delta
		}
		if err := tx.UpdateProductQuantity(ctx, product.ID, counted); err != nil {
			return err
		}
		m := Movement{
			ProductID:      product.ID,
			Kind:           kind,
			Quantity:       delta,
			QuantityBefore: product.Quantity,
			QuantityAfter:  counted,
			Reference:      reference,
			Notes:          fmt.Sprintf("Stock count set to %d", counted),
			UnitCost:       product.Cost,
			TotalCost:      product.Cost.Mul(decimal.NewFromInt(delta)),
			ActorID:        actorID,
			OccurredAt:     time.Now().UTC(),
		}
		inserted, err := tx.InsertMovement(ctx, m)
		if err != nil {
			return err
		}
		recorded = &inserted
		return nil
	})
	if err != nil {
		return nil, err
	}
	if recorded == nil {
		s.log.Debug("stock count matched current quantity", slog.Int64("product_id", productID))
		return nil, nil
	}
	s.notifyStockChanged(ctx)
	return recorded, nil
}

// Transfer moves stock between warehouses. The aggregate product quantity is
// unchanged; the pair of movements shares a correlation id so both halves can
// be found together. The source must hold enough stock for the quantity moved.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (Movement, Movement, error) {
	if input.ProductID == 0 {
		return Movement{}, Movement{}, fmt.Errorf("%w: product id required", ErrInvalidArgument)
	}
	if input.Quantity <= 0 {
		return Movement{}, Movement{}, ErrInvalidQuantity
	}
	from := strings.TrimSpace(input.FromWarehouse)
	to := strings.TrimSpace(input.ToWarehouse)
	if from == "" || to == "" {
		return Movement{}, Movement{}, fmt.Errorf("%w: source and destination warehouse required", ErrInvalidArgument)
	}
	if strings.EqualFold(from, to) {
		return Movement{}, Movement{}, fmt.Errorf("%w: source and destination warehouse must differ", ErrInvalidArgument)
	}

	var outMove, inMove Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if product.Quantity < input.Quantity {
			return fmt.Errorf("%w: product %d has %d, requested %d",
				ErrInsufficientStock, product.ID, product.Quantity, input.Quantity)
		}
		correlation := uuid.NewString()
		now := time.Now().UTC()
		ref := fmt.Sprintf("TRF-%s-%s", from, to)
		cost := product.Cost.Mul(decimal.NewFromInt(input.Quantity))

		outMove, err = tx.InsertMovement(ctx, Movement{
			ProductID:      product.ID,
			Kind:           KindTransferOut,
			Quantity:       input.Quantity,
			QuantityBefore: product.Quantity,
			QuantityAfter:  product.Quantity - input.Quantity,
			Reference:      ref,
			Notes:          input.Notes,
			WarehouseCode:  from,
			CorrelationID:  correlation,
			UnitCost:       product.Cost,
			TotalCost:      cost,
			ActorID:        input.ActorID,
			OccurredAt:     now,
		})
		if err != nil {
			return err
		}
		inMove, err = tx.InsertMovement(ctx, Movement{
			ProductID:      product.ID,
			Kind:           KindTransferIn,
			Quantity:       input.Quantity,
			QuantityBefore: product.Quantity - input.Quantity,
			QuantityAfter:  product.Quantity,
			Reference:      ref,
			Notes:          input.Notes,
			WarehouseCode:  to,
			CorrelationID:  correlation,
			UnitCost:       product.Cost,
			TotalCost:      cost,
			ActorID:        input.ActorID,
			OccurredAt:     now,
		})
		return err
	})
	if err != nil {
		return Movement{}, Movement{}, err
	}
	s.log.Info("stock transferred",
		slog.Int64("product_id", input.ProductID),
		slog.Int64("quantity", input.Quantity),
		slog.String("from", from),
		slog.String("to", to))
	s.notifyStockChanged(ctx)
	return outMove, inMove, nil
}

// CurrentQuantity returns the product's on-hand quantity.
func (s *Service) CurrentQuantity(ctx context.Context, productID int64) (int64, error) {
	if productID == 0 {
		return 0, fmt.Errorf("%w: product id required", ErrInvalidArgument)
	}
	return s.repo.CurrentQuantity(ctx, productID)
}

// GetMovement returns a single movement record.
func (s *Service) GetMovement(ctx context.Context, id int64) (Movement, error) {
	return s.repo.GetMovement(ctx, id)
}

// MovementsFor lists a product's movement history, newest first.
func (s *Service) MovementsFor(ctx context.Context, productID int64, limit int) ([]Movement, error) {
	if productID == 0 {
		return nil, fmt.Errorf("%w: product id required", ErrInvalidArgument)
	}
	return s.repo.ListMovements(ctx, MovementFilter{ProductID: productID, Limit: limit})
}

// RecentMovements lists movements across all products, newest first.
func (s *Service) RecentMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	return s.repo.ListMovements(ctx, filter)
}

// MovementsByReference lists all movements booked under one reference.
func (s *Service) MovementsByReference(ctx context.Context, reference string) ([]Movement, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference required", ErrInvalidArgument)
	}
	return s.repo.MovementsByReference(ctx, reference)
}

// Summary aggregates in/out activity per product over a window.
func (s *Service) Summary(ctx context.Context, from, to time.Time) ([]SummaryRow, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, fmt.Errorf("%w: window end before start", ErrInvalidArgument)
	}
	return s.repo.MovementSummary(ctx, from, to)
}
