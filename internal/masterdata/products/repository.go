package products

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sa-stockmaster/sa-stockmaster/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	GetBySKU(ctx context.Context, sku string) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const productColumns = `id, sku, COALESCE(barcode, ''), name, COALESCE(description, ''),
	category_id, COALESCE(supplier_id, 0), unit_price, cost_price, quantity,
	min_stock_level, max_stock_level, reorder_level, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Barcode, &p.Name, &p.Description,
		&p.CategoryID, &p.SupplierID, &p.UnitPrice, &p.CostPrice, &p.Quantity,
		&p.MinStockLevel, &p.MaxStockLevel, &p.ReorderLevel, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	where := ` WHERE deleted_at IS NULL`
	args := []any{}
	argCount := 0

	if filters.CategoryID != nil {
		argCount++
		where += ` AND category_id = $` + strconv.Itoa(argCount)
		args = append(args, *filters.CategoryID)
	}
	if filters.SupplierID != nil {
		argCount++
		where += ` AND supplier_id = $` + strconv.Itoa(argCount)
		args = append(args, *filters.SupplierID)
	}
	if filters.Search != "" {
		argCount++
		ph := `$` + strconv.Itoa(argCount)
		where += ` AND (name ILIKE ` + ph + ` OR sku ILIKE ` + ph + ` OR barcode ILIKE ` + ph + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.IsActive != nil {
		argCount++
		where += ` AND is_active = $` + strconv.Itoa(argCount)
		args = append(args, *filters.IsActive)
	}
	if filters.LowStock {
		argCount++
		where += ` AND quantity > 0 AND quantity <= CASE WHEN min_stock_level > 0 THEN min_stock_level ELSE $` +
			strconv.Itoa(argCount) + ` END`
		args = append(args, filters.LowStockThreshold)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND deleted_at IS NULL`
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) GetBySKU(ctx context.Context, sku string) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1 AND deleted_at IS NULL`
	p, err := scanProduct(r.db.QueryRow(ctx, query, sku))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	query := `
		INSERT INTO products (sku, barcode, name, description, category_id, supplier_id,
			unit_price, cost_price, quantity, min_stock_level, max_stock_level,
			reorder_level, is_active, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, NULLIF($6, 0), $7, $8, 0, $9, $10, $11, $12, $13, $13)
		RETURNING id
	`
	now := time.Now().UTC()
	err := r.db.QueryRow(ctx, query,
		product.SKU, product.Barcode, product.Name, product.Description,
		product.CategoryID, product.SupplierID, product.UnitPrice, product.CostPrice,
		product.MinStockLevel, product.MaxStockLevel, product.ReorderLevel,
		product.IsActive, now,
	).Scan(&product.ID)
	if err != nil {
		return Product{}, shared.MapDBError(err)
	}
	product.Quantity = 0
	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

// Update writes every editable column. Quantity is deliberately absent, it
// belongs to the stock ledger.
func (r *repository) Update(ctx context.Context, id int64, product Product) error {
	query := `
		UPDATE products
		SET sku = $1, barcode = NULLIF($2, ''), name = $3, description = $4,
		    category_id = $5, supplier_id = NULLIF($6, 0),
		    unit_price = $7, cost_price = $8, min_stock_level = $9,
		    max_stock_level = $10, reorder_level = $11,
		    is_active = $12, updated_at = $13
		WHERE id = $14 AND deleted_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query,
		product.SKU, product.Barcode, product.Name, product.Description,
		product.CategoryID, product.SupplierID,
		product.UnitPrice, product.CostPrice, product.MinStockLevel,
		product.MaxStockLevel, product.ReorderLevel,
		product.IsActive, time.Now().UTC(), id,
	)
	if err != nil {
		return shared.MapDBError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete soft deletes so historical movements keep a valid product reference.
func (r *repository) Delete(ctx context.Context, id int64) error {
	query := `UPDATE products SET deleted_at = now(), is_active = false WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "sku":
		return "sku " + dir
	case "name":
		return "name " + dir
	case "unit_price":
		return "unit_price " + dir
	case "quantity":
		return "quantity " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "name " + dir
	}
}
