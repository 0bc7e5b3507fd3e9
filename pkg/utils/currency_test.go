package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCurrencyCode(t *testing.T) {
	assert.Equal(t, "USD", NormalizeCurrencyCode(" usd "))
	assert.Equal(t, "EUR", NormalizeCurrencyCode("eur"))
	assert.Equal(t, "", NormalizeCurrencyCode("US"))
	assert.Equal(t, "", NormalizeCurrencyCode("USDT"))
	assert.Equal(t, "", NormalizeCurrencyCode("U1D"))
	assert.Equal(t, "", NormalizeCurrencyCode("XYZ"))
	assert.Equal(t, "", NormalizeCurrencyCode(""))
}

func TestConvertCurrency_SameCode(t *testing.T) {
	amount, ok := ConvertCurrency(19.999, "USD", "USD")
	assert.True(t, ok)
	assert.Equal(t, 20.0, amount)
}

func TestConvertCurrency_ToUSD(t *testing.T) {
	amount, ok := ConvertCurrency(100, "EUR", "USD")
	assert.True(t, ok)
	assert.Equal(t, 108.0, amount)

	amount, ok = ConvertCurrency(1000, "JPY", "USD")
	assert.True(t, ok)
	assert.Equal(t, 6.7, amount)
}

func TestConvertCurrency_UnknownCodeFallsBackToUSD(t *testing.T) {
	// An unrecognized source code is treated as USD
	amount, ok := ConvertCurrency(42.5, "???", "USD")
	assert.True(t, ok)
	assert.Equal(t, 42.5, amount)
}

func TestConvertCurrency_RoundTripStays(t *testing.T) {
	toUSD, ok := ConvertCurrency(100, "GBP", "USD")
	assert.True(t, ok)
	back, ok := ConvertCurrency(toUSD, "USD", "GBP")
	assert.True(t, ok)
	assert.InDelta(t, 100, back, 0.01)
}

func TestConvertCurrencyWithMetadata(t *testing.T) {
	res, ok := ConvertCurrencyWithMetadata(50, "CAD", "USD")
	assert.True(t, ok)
	assert.Equal(t, 37.0, res.Amount)
	assert.Equal(t, "USD", res.Currency)
	assert.InDelta(t, 0.74, res.RateUsed, 1e-9)
}

func TestConvertCurrency_HalfUpRounding(t *testing.T) {
	// 0.125 is exactly representable, so the tie rounds up rather than to even
	amount, ok := ConvertCurrency(0.125, "USD", "USD")
	assert.True(t, ok)
	assert.Equal(t, 0.13, amount)
}
