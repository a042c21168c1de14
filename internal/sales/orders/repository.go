package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for sales orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreateOrder(ctx context.Context, order SalesOrder) (int64, error)
	InsertLine(ctx context.Context, line OrderLine) (int64, error)
	GetOrderForUpdate(ctx context.Context, id int64) (SalesOrder, error)
	UpdateStatus(ctx context.Context, id int64, status Status, shippedAt *time.Time) error
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

func (t *txRepo) CreateOrder(ctx context.Context, order SalesOrder) (int64, error) {
	query := `
		INSERT INTO sales_orders (order_number, customer_id, status, order_date, notes,
			subtotal, vat_amount, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		order.OrderNumber, order.CustomerID, string(order.Status), order.OrderDate,
		order.Notes, order.Subtotal, order.VATAmount, order.Total, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("sales: create order: %w", err)
	}
	return id, nil
}

func (t *txRepo) InsertLine(ctx context.Context, line OrderLine) (int64, error) {
	query := `
		INSERT INTO sales_order_lines (order_id, product_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		line.OrderID, line.ProductID, line.Quantity, line.UnitPrice, line.LineTotal,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("sales: insert line: %w", err)
	}
	return id, nil
}

func (t *txRepo) GetOrderForUpdate(ctx context.Context, id int64) (SalesOrder, error) {
	query := orderSelect + ` WHERE so.id = $1 FOR UPDATE`
	o, err := scanOrder(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SalesOrder{}, ErrOrderNotFound
		}
		return SalesOrder{}, fmt.Errorf("sales: lock order %d: %w", id, err)
	}
	o.Lines, err = queryLines(ctx, t.tx, id)
	return o, err
}

func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status, shippedAt *time.Time) error {
	query := `UPDATE sales_orders SET status = $2, shipped_at = COALESCE($3, shipped_at), updated_at = now() WHERE id = $1`
	tag, err := t.tx.Exec(ctx, query, id, string(status), shippedAt)
	if err != nil {
		return fmt.Errorf("sales: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

const orderSelect = `
	SELECT so.id, so.order_number, so.customer_id, so.status, so.order_date,
	       COALESCE(so.notes, ''), so.subtotal, so.vat_amount, so.total,
	       so.shipped_at, so.created_at, so.updated_at
	FROM sales_orders so
`

func scanOrder(row pgx.Row) (SalesOrder, error) {
	var o SalesOrder
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.Status, &o.OrderDate,
		&o.Notes, &o.Subtotal, &o.VATAmount, &o.Total,
		&o.ShippedAt, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q queryer, orderID int64) ([]OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, line_total
		FROM sales_order_lines
		WHERE order_id = $1
		ORDER BY id
	`
	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Get returns an order with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (SalesOrder, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, orderSelect+` WHERE so.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SalesOrder{}, ErrOrderNotFound
		}
		return SalesOrder{}, fmt.Errorf("sales: get order %d: %w", id, err)
	}
	o.Lines, err = queryLines(ctx, r.pool, id)
	return o, err
}

// List returns orders newest first, optionally filtered by status or customer.
func (r *Repository) List(ctx context.Context, status Status, customerID int64, limit int) ([]SalesOrder, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := orderSelect + `
		WHERE ($1 = '' OR so.status = $1)
		  AND ($2 = 0 OR so.customer_id = $2)
		ORDER BY so.created_at DESC, so.id DESC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, string(status), customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("sales: list orders: %w", err)
	}
	defer rows.Close()

	var out []SalesOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// NextOrderNumber allocates a sequential order number for the day.
func (r *Repository) NextOrderNumber(ctx context.Context, date time.Time) (string, error) {
	prefix := "SO-" + date.Format("20060102")
	query := `
		SELECT COUNT(*) + 1
		FROM sales_orders
		WHERE order_number LIKE $1 || '-%'
	`
	var seq int
	if err := r.pool.QueryRow(ctx, query, prefix).Scan(&seq); err != nil {
		return "", fmt.Errorf("sales: next order number: %w", err)
	}
	return fmt.Sprintf("%s-%04d", prefix, seq), nil
}
