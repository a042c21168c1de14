package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sa-stockmaster/sa-stockmaster/internal/vat"
)

// RepositoryPort abstracts settings persistence.
type RepositoryPort interface {
	Get(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

// Service guards reads and writes of the settings singleton.
type Service struct {
	repo RepositoryPort
	log  *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Get returns the current settings.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	return s.repo.Get(ctx)
}

var maxVATRate = decimal.NewFromInt(1)

// Update validates and persists new settings, returning the stored value.
func (s *Service) Update(ctx context.Context, in Settings) (Settings, error) {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	if in.CompanyName == "" {
		return Settings{}, fmt.Errorf("%w: company name required", ErrInvalidSettings)
	}
	if in.DefaultVATRate.IsNegative() || in.DefaultVATRate.GreaterThanOrEqual(maxVATRate) {
		return Settings{}, fmt.Errorf("%w: vat rate must be in [0, 1)", ErrInvalidSettings)
	}
	if in.CompanyVATNumber != "" {
		if !vat.IsValidNumber(in.CompanyVATNumber) {
			return Settings{}, fmt.Errorf("%w: malformed VAT number", ErrInvalidSettings)
		}
		in.CompanyVATNumber = vat.FormatNumber(in.CompanyVATNumber)
	}
	if in.CurrencyCode == "" {
		in.CurrencyCode = "ZAR"
	}
	in.CurrencyCode = strings.ToUpper(strings.TrimSpace(in.CurrencyCode))
	if len(in.CurrencyCode) != 3 {
		return Settings{}, fmt.Errorf("%w: currency code must be ISO 4217", ErrInvalidSettings)
	}
	if in.LowStockThreshold < 0 || in.ReorderPointThreshold < 0 {
		return Settings{}, fmt.Errorf("%w: thresholds cannot be negative", ErrInvalidSettings)
	}
	if err := s.repo.Save(ctx, in); err != nil {
		return Settings{}, err
	}
	s.log.Info("settings updated", slog.String("company", in.CompanyName))
	return s.repo.Get(ctx)
}
