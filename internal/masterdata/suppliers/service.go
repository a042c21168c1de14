package suppliers

import (
	"context"
	"fmt"
	"strings"

	"github.com/sa-stockmaster/sa-stockmaster/internal/masterdata/shared"
	"github.com/sa-stockmaster/sa-stockmaster/internal/vat"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	if err := s.validate(&supplier); err != nil {
		return Supplier{}, err
	}
	return s.repo.Create(ctx, supplier)
}

func (s *Service) Update(ctx context.Context, id int64, supplier Supplier) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := s.validate(&supplier); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, supplier)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) validate(supplier *Supplier) error {
	if strings.TrimSpace(supplier.Name) == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	if supplier.VATNumber != "" {
		if !vat.IsValidNumber(supplier.VATNumber) {
			return fmt.Errorf("%w: malformed VAT number", shared.ErrValidation)
		}
		supplier.VATNumber = vat.FormatNumber(supplier.VATNumber)
	}
	if supplier.PaymentTerms < 0 {
		return fmt.Errorf("%w: payment terms cannot be negative", shared.ErrValidation)
	}
	return nil
}
