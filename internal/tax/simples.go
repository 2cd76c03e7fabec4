package tax

import (
	"github.com/shopspring/decimal"

	money "github.com/rezonia/fiscal-br/internal/decimal"
	"github.com/rezonia/fiscal-br/internal/tables"
)

// SimplesCeilingNote is returned when revenue exceeds the Simples ceiling
const SimplesCeilingNote = "Receita excede o limite do Simples Nacional (R$ 4.800.000,00). " +
	"Empresa deve migrar para Lucro Presumido ou Real."

// SimplesResult is the outcome of a Simples Nacional computation
type SimplesResult struct {
	Bracket       int // 1-based; 0 when the ceiling is exceeded
	NominalRate   decimal.Decimal
	EffectiveRate decimal.Decimal
	Tax           decimal.Decimal
	Exceeded      bool
	Note          string
}

// SimplesNacional computes the monthly Simples Nacional (Anexo I) tax from
// the trailing 12-month revenue and the month's revenue.
//
//	effective = ((rbt12 × nominal/100) − deduction) / rbt12 × 100
//	tax       = month × effective/100
//
// The effective rate is rounded to two places before it is applied.
func SimplesNacional(revenue12m, monthRevenue decimal.Decimal) SimplesResult {
	if revenue12m.GreaterThan(tables.SimplesCeiling) {
		return SimplesResult{
			NominalRate:   money.Zero,
			EffectiveRate: money.Zero,
			Tax:           money.Zero,
			Exceeded:      true,
			Note:          SimplesCeilingNote,
		}
	}

	bracket, ok := tables.FindBracket(revenue12m)
	if !ok {
		// only reachable for negative revenue
		first := tables.SimplesBrackets()[0]
		return SimplesResult{
			Bracket:       first.Index,
			NominalRate:   first.NominalRate,
			EffectiveRate: first.NominalRate,
			Tax:           money.Percent(monthRevenue, first.NominalRate),
		}
	}

	effective := EffectiveRate(revenue12m, bracket)

	return SimplesResult{
		Bracket:       bracket.Index,
		NominalRate:   bracket.NominalRate,
		EffectiveRate: effective,
		Tax:           money.Percent(monthRevenue, effective),
	}
}

// EffectiveRate applies the bracket deduction to the nominal rate. With no
// revenue the deduction term is undefined and the nominal rate is returned.
func EffectiveRate(revenue12m decimal.Decimal, b tables.Bracket) decimal.Decimal {
	if revenue12m.IsZero() {
		return b.NominalRate
	}
	gross := revenue12m.Mul(b.NominalRate).Div(decimal.NewFromInt(100))
	return gross.Sub(b.Deduction).Div(revenue12m).Mul(decimal.NewFromInt(100)).Round(money.CentPlaces)
}
