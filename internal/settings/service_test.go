package settings

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	stored *Settings
}

func (r *memoryRepo) Get(ctx context.Context) (Settings, error) {
	if r.stored == nil {
		return Defaults(), nil
	}
	return *r.stored, nil
}

func (r *memoryRepo) Save(ctx context.Context, s Settings) error {
	r.stored = &s
	return nil
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, slog.New(slog.DiscardHandler))
}

func TestGetReturnsDefaultsUntilSaved(t *testing.T) {
	svc := newTestService(&memoryRepo{})

	s, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ZAR", s.CurrencyCode)
	require.True(t, s.DefaultVATRate.Equal(decimal.RequireFromString("0.15")))
	require.True(t, s.EnableVATCalculation)
	require.EqualValues(t, 10, s.LowStockThreshold)
}

func TestUpdateValidSettings(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)

	in := Defaults()
	in.CompanyName = "  Ubuntu Trading (Pty) Ltd "
	in.CompanyVATNumber = "vat 412 345 6789"
	in.CurrencyCode = "zar"
	in.DefaultVATRate = decimal.RequireFromString("0.155")

	saved, err := svc.Update(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "Ubuntu Trading (Pty) Ltd", saved.CompanyName)
	require.Equal(t, "VAT4123456789", saved.CompanyVATNumber)
	require.Equal(t, "ZAR", saved.CurrencyCode)
	require.True(t, saved.DefaultVATRate.Equal(decimal.RequireFromString("0.155")))
	require.NotNil(t, repo.stored)
}

func TestUpdateRejectsBadInput(t *testing.T) {
	svc := newTestService(&memoryRepo{})
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"empty company name", func(s *Settings) { s.CompanyName = "  " }},
		{"negative vat rate", func(s *Settings) { s.DefaultVATRate = decimal.RequireFromString("-0.01") }},
		{"vat rate of one", func(s *Settings) { s.DefaultVATRate = decimal.NewFromInt(1) }},
		{"malformed vat number", func(s *Settings) { s.CompanyVATNumber = "412345678" }},
		{"bad currency code", func(s *Settings) { s.CurrencyCode = "RAND" }},
		{"negative threshold", func(s *Settings) { s.LowStockThreshold = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := Defaults()
			tc.mutate(&in)
			_, err := svc.Update(ctx, in)
			require.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}
