package tax

import (
	"github.com/shopspring/decimal"

	money "github.com/rezonia/fiscal-br/internal/decimal"
	"github.com/rezonia/fiscal-br/internal/tables"
)

// PISCOFINSRegime selects the default PIS/COFINS rates
type PISCOFINSRegime string

const (
	RegimeCumulative    PISCOFINSRegime = "cumulativo"
	RegimeNonCumulative PISCOFINSRegime = "nao_cumulativo"
)

// Label returns the human name of the regime
func (r PISCOFINSRegime) Label() string {
	if r == RegimeCumulative {
		return "Cumulativo (Lucro Presumido)"
	}
	return "Não-Cumulativo (Lucro Real)"
}

// Default rates (percent) per regime
var (
	cumulativePIS       = money.MustFromString("0.65")
	cumulativeCOFINS    = money.MustFromString("3.00")
	nonCumulativePIS    = money.MustFromString("1.65")
	nonCumulativeCOFINS = money.MustFromString("7.60")
)

// Component is one tax line: rate (percent) and amount
type Component struct {
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

// PISCOFINSResult is the outcome of a PIS/COFINS computation
type PISCOFINSResult struct {
	PIS    Component
	COFINS Component
	Total  decimal.Decimal
	Regime string
}

// PISCOFINS computes PIS and COFINS on amount. When ncm is known and both of
// its rates are non-zero they are used; otherwise the regime defaults apply.
// A zero NCM rate is treated like a missing NCM.
func PISCOFINS(amount decimal.Decimal, regime PISCOFINSRegime, ncm string) PISCOFINSResult {
	pisRate, cofinsRate := classificationRates(ncm)

	if pisRate.IsZero() || cofinsRate.IsZero() {
		pisRate, cofinsRate = regimeRates(regime)
	}

	pis := money.Percent(amount, pisRate)
	cofins := money.Percent(amount, cofinsRate)

	return PISCOFINSResult{
		PIS:    Component{Rate: pisRate, Amount: pis},
		COFINS: Component{Rate: cofinsRate, Amount: cofins},
		Total:  money.Sum(pis, cofins),
		Regime: regime.Label(),
	}
}

func classificationRates(ncm string) (decimal.Decimal, decimal.Decimal) {
	if ncm == "" {
		return money.Zero, money.Zero
	}
	c, err := tables.LookupNCM(ncm)
	if err != nil {
		return money.Zero, money.Zero
	}
	return c.PIS, c.COFINS
}

func regimeRates(regime PISCOFINSRegime) (decimal.Decimal, decimal.Decimal) {
	if regime == RegimeCumulative {
		return cumulativePIS, cumulativeCOFINS
	}
	return nonCumulativePIS, nonCumulativeCOFINS
}
