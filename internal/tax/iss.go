package tax

import (
	"fmt"

	"github.com/shopspring/decimal"

	money "github.com/rezonia/fiscal-br/internal/decimal"
)

// Legal ISS range, LC 116/2003 and EC 37/2002
var (
	ISSMinRate = money.FromInt(2)
	ISSMaxRate = money.FromInt(5)
)

// ISSGenericNote accompanies a rate that needed no adjustment
const ISSGenericNote = "Cálculo baseado na alíquota informada. Verifique a legislação municipal."

// ISSResult is the outcome of an ISS computation
type ISSResult struct {
	Rate         decimal.Decimal
	Amount       decimal.Decimal
	Municipality string
	Adjusted     bool
	Note         string
}

// ISS computes the service tax, clamping rate into [2, 5]. The municipality
// is passed through untouched.
func ISS(amount, rate decimal.Decimal, municipality string) ISSResult {
	applied := money.Clamp(rate, ISSMinRate, ISSMaxRate)

	result := ISSResult{
		Rate:         applied,
		Amount:       money.Percent(amount, applied),
		Municipality: municipality,
		Note:         ISSGenericNote,
	}

	if !applied.Equal(rate) {
		result.Adjusted = true
		result.Note = fmt.Sprintf("Alíquota ajustada para %s%% (limites legais: %s%% a %s%%)",
			applied, ISSMinRate, ISSMaxRate)
	}

	return result
}
