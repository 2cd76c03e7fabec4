package tables

import (
	"github.com/shopspring/decimal"

	money "github.com/rezonia/fiscal-br/internal/decimal"
)

// SimplesCeiling is the trailing 12-month revenue limit of Simples Nacional
var SimplesCeiling = money.FromInt(4800000)

// Bracket is one row of the Simples Nacional table. Both bounds are inclusive.
type Bracket struct {
	Index       int
	Lower       decimal.Decimal
	Upper       decimal.Decimal
	NominalRate decimal.Decimal
	Deduction   decimal.Decimal
}

// Contains reports whether revenue falls within [Lower, Upper]
func (b Bracket) Contains(revenue decimal.Decimal) bool {
	return revenue.GreaterThanOrEqual(b.Lower) && revenue.LessThanOrEqual(b.Upper)
}

// Anexo I (Comércio), LC 123/2006 as amended by LC 155/2016.
// Each row starts one centavo above the previous upper bound.
var simplesAnexoI = []Bracket{
	{1, money.FromInt(0), money.FromInt(180000), money.MustFromString("4.00"), money.FromInt(0)},
	{2, money.MustFromString("180000.01"), money.FromInt(360000), money.MustFromString("7.30"), money.FromInt(5940)},
	{3, money.MustFromString("360000.01"), money.FromInt(720000), money.MustFromString("9.50"), money.FromInt(13860)},
	{4, money.MustFromString("720000.01"), money.FromInt(1800000), money.MustFromString("10.70"), money.FromInt(22500)},
	{5, money.MustFromString("1800000.01"), money.FromInt(3600000), money.MustFromString("14.30"), money.FromInt(87300)},
	{6, money.MustFromString("3600000.01"), money.FromInt(4800000), money.MustFromString("19.00"), money.FromInt(378000)},
}

// SimplesBrackets returns a copy of the Anexo I table in ascending order
func SimplesBrackets() []Bracket {
	out := make([]Bracket, len(simplesAnexoI))
	copy(out, simplesAnexoI)
	return out
}

// FindBracket selects the row containing revenue. The revenue is rounded to
// centavos first so that sub-cent values cannot fall between two rows.
func FindBracket(revenue decimal.Decimal) (Bracket, bool) {
	r := money.RoundCents(revenue)
	for _, b := range simplesAnexoI {
		if b.Contains(r) {
			return b, true
		}
	}
	return Bracket{}, false
}
