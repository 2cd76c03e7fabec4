package decimal

import (
	"github.com/shopspring/decimal"
)

// CentPlaces is the number of decimal places kept for BRL amounts.
const CentPlaces = 2

// Zero is decimal zero
var Zero = decimal.Zero

var hundred = decimal.NewFromInt(100)

// FromInt creates decimal from int
func FromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// FromFloat creates decimal from float without rounding
func FromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// FromString parses decimal from string
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// MustFromString parses decimal from string, panics on error.
// Meant for table constants.
func MustFromString(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// RoundCents rounds half away from zero to centavos
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentPlaces)
}

// Percent computes amount * (rate/100) rounded to centavos
func Percent(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(ratePercent).Div(hundred).Round(CentPlaces)
}

// Clamp bounds d to [lo, hi]
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// Sum sums decimals and rounds the result to centavos
func Sum(values ...decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result.Round(CentPlaces)
}

// IsPositive returns true if decimal is greater than zero
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(Zero)
}

// Float converts to float64 for JSON payloads
func Float(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
