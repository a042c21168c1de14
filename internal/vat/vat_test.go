package vat

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPriceInclVAT(t *testing.T) {
	rate := dec("0.15")

	require.True(t, dec("115.00").Equal(PriceInclVAT(dec("100"), rate)))
	require.True(t, dec("0").Equal(PriceInclVAT(dec("0"), rate)))
	require.True(t, dec("11.49").Equal(PriceInclVAT(dec("9.99"), rate)))
}

func TestPriceExclVAT(t *testing.T) {
	rate := dec("0.15")

	require.True(t, dec("100.00").Equal(PriceExclVAT(dec("115"), rate)))
	require.True(t, dec("86.96").Equal(PriceExclVAT(dec("100"), rate)))
}

func TestAmount(t *testing.T) {
	require.True(t, dec("15.00").Equal(Amount(dec("100"), dec("0.15"))))
	require.True(t, dec("0").Equal(Amount(dec("100"), dec("0"))))
}

func TestRoundHalfEven(t *testing.T) {
	// 10.125 * 1 stays on a half-cent boundary; banker's rounding goes to even.
	require.Equal(t, "10.12", dec("10.125").RoundBank(2).StringFixed(2))
	require.Equal(t, "10.14", dec("10.135").RoundBank(2).StringFixed(2))
}

func TestRoundTripWithinOneCent(t *testing.T) {
	oneCent := dec("0.01")
	rates := []string{"0", "0.05", "0.14", "0.15", "0.19", "0.25"}
	prices := []string{"0", "0.01", "1", "9.99", "100", "12345.67", "999999.99"}

	for _, r := range rates {
		for _, p := range prices {
			rate, price := dec(r), dec(p)
			back := PriceExclVAT(PriceInclVAT(price, rate), rate)
			diff := back.Sub(price).Abs()
			require.True(t, diff.LessThanOrEqual(oneCent),
				"price %s rate %s came back as %s", p, r, back)
		}
	}
}

func TestComputeBreakdown(t *testing.T) {
	rate := dec("0.15")

	incl := ComputeBreakdown(dec("115"), rate, true)
	require.True(t, dec("100.00").Equal(incl.AmountExclVAT))
	require.True(t, dec("15.00").Equal(incl.VATAmount))
	require.True(t, incl.AmountExclVAT.Add(incl.VATAmount).Equal(incl.AmountInclVAT))

	excl := ComputeBreakdown(dec("100"), rate, false)
	require.True(t, dec("15.00").Equal(excl.VATAmount))
	require.True(t, dec("115.00").Equal(excl.AmountInclVAT))
}

func TestIsValidNumber(t *testing.T) {
	valid := []string{"4123456789", "VAT4123456789", " vat4123456789 ", "VAT 412 345 6789", "0000000000"}
	for _, s := range valid {
		require.True(t, IsValidNumber(s), "expected %q to be valid", s)
	}

	invalid := []string{"", "   ", "412345678", "41234567890", "VAT412345678X", "VATVAT4123456789"}
	for _, s := range invalid {
		require.False(t, IsValidNumber(s), "expected %q to be invalid", s)
	}
}

func TestFormatNumber(t *testing.T) {
	require.Equal(t, "VAT4123456789", FormatNumber("4123456789"))
	require.Equal(t, "VAT4123456789", FormatNumber(" vat4123456789 "))
	require.Equal(t, "", FormatNumber("   "))
	require.Equal(t, "NOT-A-VAT-NO", FormatNumber("not-a-vat-no"))
}
