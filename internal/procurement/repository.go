package procurement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for procurement.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreatePO(ctx context.Context, po PurchaseOrder) (int64, error)
	InsertLine(ctx context.Context, line POLine) (int64, error)
	GetPOForUpdate(ctx context.Context, id int64) (PurchaseOrder, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	AddReceivedQuantity(ctx context.Context, lineID, quantity int64) error
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

func (t *txRepo) CreatePO(ctx context.Context, po PurchaseOrder) (int64, error) {
	query := `
		INSERT INTO purchase_orders (order_number, supplier_id, status, order_date,
			expected_date, notes, subtotal, vat_amount, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		po.OrderNumber, po.SupplierID, string(po.Status), po.OrderDate,
		po.ExpectedDate, po.Notes, po.Subtotal, po.VATAmount, po.Total, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("procurement: create po: %w", err)
	}
	return id, nil
}

func (t *txRepo) InsertLine(ctx context.Context, line POLine) (int64, error) {
	query := `
		INSERT INTO purchase_order_lines (purchase_order_id, product_id, quantity,
			quantity_received, unit_cost, line_total)
		VALUES ($1, $2, $3, 0, $4, $5)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		line.PurchaseOrderID, line.ProductID, line.Quantity, line.UnitCost, line.LineTotal,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("procurement: insert line: %w", err)
	}
	return id, nil
}

func (t *txRepo) GetPOForUpdate(ctx context.Context, id int64) (PurchaseOrder, error) {
	query := poSelect + ` WHERE po.id = $1 FOR UPDATE`
	po, err := scanPO(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, ErrPONotFound
		}
		return PurchaseOrder{}, fmt.Errorf("procurement: lock po %d: %w", id, err)
	}
	po.Lines, err = queryLines(ctx, t.tx, id)
	return po, err
}

func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE purchase_orders SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status))
	if err != nil {
		return fmt.Errorf("procurement: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPONotFound
	}
	return nil
}

func (t *txRepo) AddReceivedQuantity(ctx context.Context, lineID, quantity int64) error {
	query := `
		UPDATE purchase_order_lines
		SET quantity_received = quantity_received + $2
		WHERE id = $1 AND quantity_received + $2 <= quantity
	`
	tag, err := t.tx.Exec(ctx, query, lineID, quantity)
	if err != nil {
		return fmt.Errorf("procurement: add received quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOverReceipt
	}
	return nil
}

const poSelect = `
	SELECT po.id, po.order_number, po.supplier_id, po.status, po.order_date,
	       po.expected_date, COALESCE(po.notes, ''), po.subtotal, po.vat_amount,
	       po.total, po.created_at, po.updated_at
	FROM purchase_orders po
`

func scanPO(row pgx.Row) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := row.Scan(&po.ID, &po.OrderNumber, &po.SupplierID, &po.Status, &po.OrderDate,
		&po.ExpectedDate, &po.Notes, &po.Subtotal, &po.VATAmount,
		&po.Total, &po.CreatedAt, &po.UpdatedAt)
	return po, err
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q queryer, poID int64) ([]POLine, error) {
	query := `
		SELECT id, purchase_order_id, product_id, quantity, quantity_received, unit_cost, line_total
		FROM purchase_order_lines
		WHERE purchase_order_id = $1
		ORDER BY id
	`
	rows, err := q.Query(ctx, query, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []POLine
	for rows.Next() {
		var l POLine
		if err := rows.Scan(&l.ID, &l.PurchaseOrderID, &l.ProductID, &l.Quantity,
			&l.QuantityReceived, &l.UnitCost, &l.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Get returns a purchase order with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	po, err := scanPO(r.pool.QueryRow(ctx, poSelect+` WHERE po.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, ErrPONotFound
		}
		return PurchaseOrder{}, fmt.Errorf("procurement: get po %d: %w", id, err)
	}
	po.Lines, err = queryLines(ctx, r.pool, id)
	return po, err
}

// List returns purchase orders newest first, optionally filtered.
func (r *Repository) List(ctx context.Context, status Status, supplierID int64, limit int) ([]PurchaseOrder, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := poSelect + `
		WHERE ($1 = '' OR po.status = $1)
		  AND ($2 = 0 OR po.supplier_id = $2)
		ORDER BY po.created_at DESC, po.id DESC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, string(status), supplierID, limit)
	if err != nil {
		return nil, fmt.Errorf("procurement: list pos: %w", err)
	}
	defer rows.Close()

	var out []PurchaseOrder
	for rows.Next() {
		po, err := scanPO(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, po)
	}
	return out, rows.Err()
}

// NextOrderNumber allocates a sequential order number for the day.
func (r *Repository) NextOrderNumber(ctx context.Context, date time.Time) (string, error) {
	prefix := "PO-" + date.Format("20060102")
	var seq int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) + 1 FROM purchase_orders WHERE order_number LIKE $1 || '-%'`,
		prefix).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("procurement: next order number: %w", err)
	}
	return fmt.Sprintf("%s-%04d", prefix, seq), nil
}
