package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists the settings singleton in PostgreSQL. The table holds
// at most one row, keyed by a fixed id.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const singletonID = 1

// Get returns the stored settings, or the defaults when nothing was saved yet.
func (r *Repository) Get(ctx context.Context) (Settings, error) {
	query := `
		SELECT company_name, company_address, company_phone, company_email,
		       company_vat_number, currency_code, default_vat_rate,
		       enable_vat_calculation, low_stock_threshold, reorder_point_threshold,
		       updated_at
		FROM settings
		WHERE id = $1
	`
	var s Settings
	err := r.pool.QueryRow(ctx, query, singletonID).Scan(
		&s.CompanyName, &s.CompanyAddress, &s.CompanyPhone, &s.CompanyEmail,
		&s.CompanyVATNumber, &s.CurrencyCode, &s.DefaultVATRate,
		&s.EnableVATCalculation, &s.LowStockThreshold, &s.ReorderPointThreshold,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Defaults(), nil
		}
		return Settings{}, fmt.Errorf("settings: get: %w", err)
	}
	return s, nil
}

// Save upserts the singleton row.
func (r *Repository) Save(ctx context.Context, s Settings) error {
	query := `
		INSERT INTO settings (
			id, company_name, company_address, company_phone, company_email,
			company_vat_number, currency_code, default_vat_rate,
			enable_vat_calculation, low_stock_threshold, reorder_point_threshold,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			company_address = EXCLUDED.company_address,
			company_phone = EXCLUDED.company_phone,
			company_email = EXCLUDED.company_email,
			company_vat_number = EXCLUDED.company_vat_number,
			currency_code = EXCLUDED.currency_code,
			default_vat_rate = EXCLUDED.default_vat_rate,
			enable_vat_calculation = EXCLUDED.enable_vat_calculation,
			low_stock_threshold = EXCLUDED.low_stock_threshold,
			reorder_point_threshold = EXCLUDED.reorder_point_threshold,
			updated_at = now()
	`
	_, err := r.pool.Exec(ctx, query,
		singletonID, s.CompanyName, s.CompanyAddress, s.CompanyPhone, s.CompanyEmail,
		s.CompanyVATNumber, s.CurrencyCode, s.DefaultVATRate,
		s.EnableVATCalculation, s.LowStockThreshold, s.ReorderPointThreshold,
	)
	if err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}
