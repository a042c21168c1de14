// Package vat implements South African VAT price arithmetic.
//
// All amounts are decimal values rounded to 2 fraction digits using
// round-half-even (banker's rounding). Functions are pure and assume
// non-negative prices and a rate in [0, 1); callers validate inputs.
package vat

import (
	"strings"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// PriceInclVAT converts a VAT-exclusive price to a VAT-inclusive price.
func PriceInclVAT(priceExcl, rate decimal.Decimal) decimal.Decimal {
	return priceExcl.Mul(one.Add(rate)).RoundBank(2)
}

// PriceExclVAT converts a VAT-inclusive price back to a VAT-exclusive price.
func PriceExclVAT(priceIncl, rate decimal.Decimal) decimal.Decimal {
	return priceIncl.DivRound(one.Add(rate), 4).RoundBank(2)
}

// Amount returns the VAT portion for a VAT-exclusive price.
func Amount(priceExcl, rate decimal.Decimal) decimal.Decimal {
	return priceExcl.Mul(rate).RoundBank(2)
}

// Breakdown splits an amount into its exclusive, VAT and inclusive parts.
type Breakdown struct {
	AmountExclVAT decimal.Decimal `json:"amount_excl_vat"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	AmountInclVAT decimal.Decimal `json:"amount_incl_vat"`
	Rate          decimal.Decimal `json:"rate"`
}

// ComputeBreakdown derives a full VAT breakdown from a single amount.
// When amountIncludesVAT is true the VAT part is the exact difference so the
// exclusive and VAT amounts always sum back to the input.
func ComputeBreakdown(amount, rate decimal.Decimal, amountIncludesVAT bool) Breakdown {
	if amountIncludesVAT {
		excl := PriceExclVAT(amount, rate)
		return Breakdown{
			AmountExclVAT: excl,
			VATAmount:     amount.Sub(excl),
			AmountInclVAT: amount,
			Rate:          rate,
		}
	}
	vatAmount := Amount(amount, rate)
	return Breakdown{
		AmountExclVAT: amount,
		VATAmount:     vatAmount,
		AmountInclVAT: amount.Add(vatAmount),
		Rate:          rate,
	}
}

// IsValidNumber reports whether s is a valid South African VAT registration
// number: an optional literal "VAT" prefix followed by exactly 10 digits.
// Spaces are ignored, so "VAT 412 345 6789" is accepted.
func IsValidNumber(s string) bool {
	s = normalizeNumber(s)
	if s == "" {
		return false
	}
	s = strings.TrimPrefix(s, "VAT")
	if len(s) != 10 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatNumber returns the canonical "VAT##########" form when the input is a
// valid registration number, otherwise the trimmed input unchanged.
func FormatNumber(s string) string {
	normalized := normalizeNumber(s)
	if normalized == "" {
		return ""
	}
	if !IsValidNumber(normalized) {
		return strings.ToUpper(strings.TrimSpace(s))
	}
	return "VAT" + strings.TrimPrefix(normalized, "VAT")
}

func normalizeNumber(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), " ", "")
}
