package utils

import (
	"math"
	"strings"
)

// DefaultCurrencyRates maps ISO currency codes to their USD-conversion multiplier.
// Static reference rates; amounts are converted through USD.
var DefaultCurrencyRates = map[string]float64{
	"USD": 1,
	"EUR": 1.08,
	"GBP": 1.27,
	"CAD": 0.74,
	"AUD": 0.66,
	"JPY": 0.0067,
	"CNY": 0.14,
	"INR": 0.012,
	"MXN": 0.058,
}

// ConversionResult carries a converted amount with the rate that produced it.
type ConversionResult struct {
	Amount   float64
	Currency string
	RateUsed float64
}

// NormalizeCurrencyCode validates and uppercases an ISO 4217 code.
// Returns "" for anything that is not a known 3-letter alpha code.
func NormalizeCurrencyCode(code string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if len(trimmed) != 3 {
		return ""
	}
	for _, r := range trimmed {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	if _, ok := DefaultCurrencyRates[trimmed]; !ok {
		return ""
	}
	return trimmed
}

// ConvertCurrency converts an amount between currencies using the static
// reference rates. Unknown codes fall back to USD; a missing or non-positive
// rate yields ok=false. The result is rounded half-up to 2 decimal places.
func ConvertCurrency(amount float64, fromCurrency, toCurrency string) (float64, bool) {
	res, ok := ConvertCurrencyWithMetadata(amount, fromCurrency, toCurrency)
	if !ok {
		return 0, false
	}
	return res.Amount, true
}

// ConvertCurrencyWithMetadata is ConvertCurrency plus the effective rate used.
func ConvertCurrencyWithMetadata(amount float64, fromCurrency, toCurrency string) (ConversionResult, bool) {
	src := NormalizeCurrencyCode(fromCurrency)
	if src == "" {
		src = "USD"
	}
	dst := NormalizeCurrencyCode(toCurrency)
	if dst == "" {
		dst = "USD"
	}

	if src == dst {
		return ConversionResult{
			Amount:   roundHalfUp(amount, 2),
			Currency: dst,
			RateUsed: 1,
		}, true
	}

	srcRate, srcOK := DefaultCurrencyRates[src]
	dstRate, dstOK := DefaultCurrencyRates[dst]
	if !srcOK || !dstOK || srcRate <= 0 || dstRate <= 0 {
		return ConversionResult{}, false
	}

	converted := amount * srcRate / dstRate
	return ConversionResult{
		Amount:   roundHalfUp(converted, 2),
		Currency: dst,
		RateUsed: srcRate / dstRate,
	}, true
}

func roundHalfUp(value float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	if value < 0 {
		return -math.Floor(-value*scale+0.5) / scale
	}
	return math.Floor(value*scale+0.5) / scale
}
