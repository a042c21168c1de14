package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for the stock ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepo{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (t *txRepo) GetProductForUpdate(ctx context.Context, productID int64) (ProductStock, error) {
	query := `
		SELECT id, sku, name, quantity, cost_price
		FROM products
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`
	var p ProductStock
	err := t.tx.QueryRow(ctx, query, productID).Scan(&p.ID, &p.SKU, &p.Name, &p.Quantity, &p.Cost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductStock{}, ErrProductNotFound
		}
		return ProductStock{}, fmt.Errorf("ledger: lock product %d: %w", productID, err)
	}
	return p, nil
}

func (t *txRepo) UpdateProductQuantity(ctx context.Context, productID, quantity int64) error {
	query := `
		UPDATE products
		SET quantity = $2, updated_at = now()
		WHERE id = $1
	`
	tag, err := t.tx.Exec(ctx, query, productID, quantity)
	if err != nil {
		return fmt.Errorf("ledger: update quantity for product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (t *txRepo) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	query := `
		INSERT INTO stock_movements (
			product_id, movement_type, quantity, quantity_before, quantity_after,
			reference, notes, warehouse_code, correlation_id,
			unit_cost, total_cost, actor_id, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, '')::uuid, $10, $11, NULLIF($12, ''), $13)
		RETURNING id
	`
	err := t.tx.QueryRow(ctx, query,
		m.ProductID, string(m.Kind), m.Quantity, m.QuantityBefore, m.QuantityAfter,
		m.Reference, m.Notes, m.WarehouseCode, m.CorrelationID,
		m.UnitCost, m.TotalCost, m.ActorID, m.OccurredAt,
	).Scan(&m.ID)
	if err != nil {
		return Movement{}, fmt.Errorf("ledger: insert movement: %w", err)
	}
	return m, nil
}

const movementColumns = `
	sm.id, sm.product_id, sm.movement_type, sm.quantity, sm.quantity_before, sm.quantity_after,
	sm.reference, COALESCE(sm.notes, ''), COALESCE(sm.warehouse_code, ''),
	COALESCE(sm.correlation_id::text, ''), sm.unit_cost, sm.total_cost,
	COALESCE(sm.actor_id, ''), sm.occurred_at
`

func scanMovement(row pgx.Row) (Movement, error) {
	var m Movement
	err := row.Scan(
		&m.ID, &m.ProductID, &m.Kind, &m.Quantity, &m.QuantityBefore, &m.QuantityAfter,
		&m.Reference, &m.Notes, &m.WarehouseCode,
		&m.CorrelationID, &m.UnitCost, &m.TotalCost,
		&m.ActorID, &m.OccurredAt,
	)
	return m, err
}

// GetMovement returns a single movement record by id.
func (r *Repository) GetMovement(ctx context.Context, id int64) (Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements sm WHERE sm.id = $1`
	m, err := scanMovement(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Movement{}, ErrMovementNotFound
		}
		return Movement{}, fmt.Errorf("ledger: get movement %d: %w", id, err)
	}
	return m, nil
}

// ListMovements returns movement history newest first. A zero ProductID lists
// across all products; zero time bounds are open ended.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements sm
		WHERE ($1 = 0 OR sm.product_id = $1)
		  AND ($2::timestamptz IS NULL OR sm.occurred_at >= $2)
		  AND ($3::timestamptz IS NULL OR sm.occurred_at <= $3)
		ORDER BY sm.occurred_at DESC, sm.id DESC
		LIMIT $4
	`
	rows, err := r.pool.Query(ctx, query,
		filter.ProductID, nullableTime(filter.From), nullableTime(filter.To), limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: list movements: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

// MovementsByReference returns every movement booked under a reference,
// newest first.
func (r *Repository) MovementsByReference(ctx context.Context, reference string) ([]Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements sm
		WHERE sm.reference = $1
		ORDER BY sm.occurred_at DESC, sm.id DESC
	`
	rows, err := r.pool.Query(ctx, query, reference)
	if err != nil {
		return nil, fmt.Errorf("ledger: movements by reference: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

// MovementSummary aggregates per-product in/out totals over a window.
func (r *Repository) MovementSummary(ctx context.Context, from, to time.Time) ([]SummaryRow, error) {
	query := `
		SELECT p.id, p.name, p.sku,
		       COALESCE(SUM(sm.quantity) FILTER (WHERE sm.quantity_after > sm.quantity_before), 0),
		       COALESCE(SUM(sm.quantity) FILTER (WHERE sm.quantity_after < sm.quantity_before), 0),
		       COUNT(sm.id)
		FROM stock_movements sm
		JOIN products p ON p.id = sm.product_id
		WHERE ($1::timestamptz IS NULL OR sm.occurred_at >= $1)
		  AND ($2::timestamptz IS NULL OR sm.occurred_at <= $2)
		GROUP BY p.id, p.name, p.sku
		ORDER BY COUNT(sm.id) DESC, p.id
	`
	rows, err := r.pool.Query(ctx, query, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, fmt.Errorf("ledger: movement summary: %w", err)
	}
	defer rows.Close()

	var out []SummaryRow
	for rows.Next() {
		var row SummaryRow
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.ProductSKU,
			&row.StockIn, &row.StockOut, &row.MovementCount); err != nil {
			return nil, err
		}
		row.NetMovement = row.StockIn - row.StockOut
		out = append(out, row)
	}
	return out, rows.Err()
}

// CurrentQuantity returns the product's on-hand quantity.
func (r *Repository) CurrentQuantity(ctx context.Context, productID int64) (int64, error) {
	query := `SELECT quantity FROM products WHERE id = $1 AND deleted_at IS NULL`
	var qty int64
	if err := r.pool.QueryRow(ctx, query, productID).Scan(&qty); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("ledger: current quantity for product %d: %w", productID, err)
	}
	return qty, nil
}

func collectMovements(rows pgx.Rows) ([]Movement, error) {
	var out []Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
