package reports

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs report queries against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const stockItemSelect = `
	SELECT p.id, p.sku, p.name, COALESCE(c.name, ''), p.quantity,
	       p.min_stock_level, p.max_stock_level, p.reorder_level,
	       p.cost_price, p.cost_price * p.quantity
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	WHERE p.deleted_at IS NULL AND p.is_active
`

func (r *Repository) collectStockItems(ctx context.Context, query string, args ...any) ([]StockItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockItem
	for rows.Next() {
		var item StockItem
		if err := rows.Scan(&item.ProductID, &item.SKU, &item.Name, &item.CategoryName,
			&item.Quantity, &item.MinStockLevel, &item.MaxStockLevel, &item.ReorderLevel,
			&item.CostPrice, &item.StockValue); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// LowStock lists products at or below their minimum stock level but not
// empty. Products without their own minimum fall back to the threshold.
func (r *Repository) LowStock(ctx context.Context, fallbackThreshold int64) ([]StockItem, error) {
	query := stockItemSelect + `
		AND p.quantity > 0
		AND p.quantity <= CASE WHEN p.min_stock_level > 0 THEN p.min_stock_level ELSE $1 END
		ORDER BY p.quantity, p.name
	`
	items, err := r.collectStockItems(ctx, query, fallbackThreshold)
	if err != nil {
		return nil, fmt.Errorf("reports: low stock: %w", err)
	}
	return items, nil
}

// OutOfStock lists products with zero on-hand quantity.
func (r *Repository) OutOfStock(ctx context.Context) ([]StockItem, error) {
	query := stockItemSelect + ` AND p.quantity = 0 ORDER BY p.name`
	items, err := r.collectStockItems(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reports: out of stock: %w", err)
	}
	return items, nil
}

// Overstocked lists products holding more than their maximum stock level.
// Products without a maximum are skipped.
func (r *Repository) Overstocked(ctx context.Context) ([]StockItem, error) {
	query := stockItemSelect + `
		AND p.max_stock_level > 0
		AND p.quantity > p.max_stock_level
		ORDER BY p.quantity - p.max_stock_level DESC, p.name
	`
	items, err := r.collectStockItems(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reports: overstocked: %w", err)
	}
	return items, nil
}

// Valuation returns every stocked product priced at the chosen basis.
func (r *Repository) Valuation(ctx context.Context, basis ValuationBasis) ([]ValuationRow, error) {
	priceCol := "p.cost_price"
	if basis == BasisRetail {
		priceCol = "p.unit_price"
	}
	query := `
		SELECT p.id, p.sku, p.name, p.quantity, ` + priceCol + `, ` + priceCol + ` * p.quantity
		FROM products p
		WHERE p.deleted_at IS NULL AND p.quantity > 0
		ORDER BY ` + priceCol + ` * p.quantity DESC, p.name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reports: valuation: %w", err)
	}
	defer rows.Close()

	var out []ValuationRow
	for rows.Next() {
		var row ValuationRow
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.Name, &row.Quantity,
			&row.UnitValue, &row.StockValue); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountRow is a single-value aggregate used by the dashboard.
func (r *Repository) countRow(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&n)
	if err != nil && err != pgx.ErrNoRows {
		return 0, err
	}
	return n, nil
}

func (r *Repository) TotalProducts(ctx context.Context) (int64, error) {
	return r.countRow(ctx, `SELECT COUNT(*) FROM products WHERE deleted_at IS NULL`)
}

func (r *Repository) ActiveProducts(ctx context.Context) (int64, error) {
	return r.countRow(ctx, `SELECT COUNT(*) FROM products WHERE deleted_at IS NULL AND is_active`)
}

func (r *Repository) LowStockCount(ctx context.Context, fallbackThreshold int64) (int64, error) {
	return r.countRow(ctx, `
		SELECT COUNT(*) FROM products
		WHERE deleted_at IS NULL AND is_active AND quantity > 0
		  AND quantity <= CASE WHEN min_stock_level > 0 THEN min_stock_level ELSE $1 END
	`, fallbackThreshold)
}

func (r *Repository) OutOfStockCount(ctx context.Context) (int64, error) {
	return r.countRow(ctx, `
		SELECT COUNT(*) FROM products
		WHERE deleted_at IS NULL AND is_active AND quantity = 0
	`)
}

func (r *Repository) MovementsToday(ctx context.Context) (int64, error) {
	return r.countRow(ctx, `
		SELECT COUNT(*) FROM stock_movements
		WHERE occurred_at >= date_trunc('day', now())
	`)
}

func (r *Repository) PendingSalesOrders(ctx context.Context) (int64, error) {
	return r.countRow(ctx, `SELECT COUNT(*) FROM sales_orders WHERE status IN ('PENDING', 'APPROVED')`)
}

func (r *Repository) OpenPurchaseOrders(ctx context.Context) (int64, error) {
	return r.countRow(ctx, `SELECT COUNT(*) FROM purchase_orders WHERE status IN ('ORDERED', 'PARTIALLY_RECEIVED')`)
}

// TotalStockValue sums cost value across active products.
func (r *Repository) TotalStockValue(ctx context.Context) (string, error) {
	var total string
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(cost_price * quantity), 0)::text
		FROM products WHERE deleted_at IS NULL AND is_active
	`).Scan(&total)
	if err != nil {
		return "", fmt.Errorf("reports: total stock value: %w", err)
	}
	return total, nil
}
