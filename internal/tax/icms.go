// Package tax implements the Brazilian tax calculators: ICMS, PIS/COFINS,
// Simples Nacional, ISS and the NF aggregate. Every calculator is a pure
// function of its arguments and the static tables; monetary values are
// rounded half away from zero to centavos right after each multiplication.
package tax

import (
	"github.com/shopspring/decimal"

	money "github.com/rezonia/fiscal-br/internal/decimal"
	"github.com/rezonia/fiscal-br/internal/tables"
)

// OperationType labels an ICMS computation
type OperationType string

const (
	OperationIntrastate           OperationType = "Interna"
	OperationInterstate           OperationType = "Interestadual"
	OperationInterstateFinalBuyer OperationType = "Interestadual (Consumidor Final)"
)

// ICMSResult is the outcome of an ICMS computation
type ICMSResult struct {
	Rate      decimal.Decimal
	Amount    decimal.Decimal
	Operation OperationType
	Difal     *Difal // set only for interstate sales to a final consumer
}

// Difal is the rate differential owed to the destination UF
type Difal struct {
	InterstateRate decimal.Decimal
	InternalRate   decimal.Decimal
	Amount         decimal.Decimal
}

// ICMS computes the goods tax of an operation from origin to destination.
// Amounts are not checked for sign; zero or negative values flow through.
func ICMS(amount decimal.Decimal, origin, destination string, finalConsumer bool) ICMSResult {
	origin = tables.NormalizeUF(origin)
	destination = tables.NormalizeUF(destination)

	if origin == destination {
		rate := tables.ICMSRateOrDefault(origin)
		return ICMSResult{
			Rate:      rate,
			Amount:    money.Percent(amount, rate),
			Operation: OperationIntrastate,
		}
	}

	rate := InterstateRate(origin, destination)
	result := ICMSResult{
		Rate:      rate,
		Amount:    money.Percent(amount, rate),
		Operation: OperationInterstate,
	}

	if finalConsumer {
		internal := tables.ICMSRateOrDefault(destination)
		result.Operation = OperationInterstateFinalBuyer
		result.Difal = &Difal{
			InterstateRate: rate,
			InternalRate:   internal,
			Amount:         money.Percent(amount, internal.Sub(rate)),
		}
	}

	return result
}

// InterstateRate returns 7% for shipments into the N/NE/CO+ES group and 12%
// otherwise. Shipments leaving that group always pay 12%.
func InterstateRate(origin, destination string) decimal.Decimal {
	if tables.InLowerDevelopmentGroup(origin) {
		return tables.InterstateRateStandard
	}
	if tables.InLowerDevelopmentGroup(destination) {
		return tables.InterstateRateReduced
	}
	return tables.InterstateRateStandard
}
