// Package tables holds the static fiscal reference data: ICMS rates per UF,
// the Simples Nacional brackets, NCM classifications and CFOP codes.
//
// Tables are built once at package init and never written afterwards; the
// accessors hand out copies so callers cannot mutate them.
package tables

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	money "github.com/rezonia/fiscal-br/internal/decimal"
)

// DefaultICMSRate applies when the UF is unknown
var DefaultICMSRate = money.FromInt(18)

// Interstate ICMS rates (Resolução do Senado 22/1989)
var (
	InterstateRateReduced  = money.FromInt(7)
	InterstateRateStandard = money.FromInt(12)
)

// internal ICMS rate per UF
var icmsRates = map[string]decimal.Decimal{
	"AC": money.FromInt(19), "AL": money.FromInt(19), "AP": money.FromInt(18),
	"AM": money.FromInt(20), "BA": money.MustFromString("20.5"), "CE": money.FromInt(20),
	"DF": money.FromInt(20), "ES": money.FromInt(17), "GO": money.FromInt(19),
	"MA": money.FromInt(22), "MT": money.FromInt(17), "MS": money.FromInt(17),
	"MG": money.FromInt(18), "PA": money.FromInt(19), "PB": money.FromInt(20),
	"PR": money.MustFromString("19.5"), "PE": money.MustFromString("20.5"), "PI": money.FromInt(21),
	"RJ": money.FromInt(22), "RN": money.FromInt(20), "RS": money.FromInt(17),
	"RO": money.MustFromString("19.5"), "RR": money.FromInt(20), "SC": money.FromInt(17),
	"SP": money.FromInt(18), "SE": money.FromInt(19), "TO": money.FromInt(20),
}

// North, Northeast and Centre-West plus ES. Goods shipped from the South and
// Southeast into these states pay the reduced interstate rate.
var lowerDevelopmentGroup = map[string]bool{
	"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true, "DF": true,
	"ES": true, "GO": true, "MA": true, "MT": true, "MS": true, "PA": true, "PB": true,
	"PE": true, "PI": true, "RN": true, "RO": true, "RR": true, "SE": true, "TO": true,
}

// IBGE numeric UF codes, as found in the first two digits of an NF-e key
var ibgeCodes = map[string]string{
	"11": "RO", "12": "AC", "13": "AM", "14": "RR", "15": "PA", "16": "AP", "17": "TO",
	"21": "MA", "22": "PI", "23": "CE", "24": "RN", "25": "PB", "26": "PE", "27": "AL",
	"28": "SE", "29": "BA", "31": "MG", "32": "ES", "33": "RJ", "35": "SP", "41": "PR",
	"42": "SC", "43": "RS", "50": "MS", "51": "MT", "52": "GO", "53": "DF",
}

// NormalizeUF upper-cases and trims a UF abbreviation
func NormalizeUF(uf string) string {
	return strings.ToUpper(strings.TrimSpace(uf))
}

// ICMSRate returns the internal ICMS rate of a UF
func ICMSRate(uf string) (decimal.Decimal, bool) {
	rate, ok := icmsRates[NormalizeUF(uf)]
	return rate, ok
}

// ICMSRateOrDefault returns the internal rate, or DefaultICMSRate for unknown UFs
func ICMSRateOrDefault(uf string) decimal.Decimal {
	if rate, ok := ICMSRate(uf); ok {
		return rate
	}
	return DefaultICMSRate
}

// InLowerDevelopmentGroup reports whether the UF belongs to the N/NE/CO+ES group
func InLowerDevelopmentGroup(uf string) bool {
	return lowerDevelopmentGroup[NormalizeUF(uf)]
}

// IsJurisdiction reports whether uf is one of the 27 federated units
func IsJurisdiction(uf string) bool {
	_, ok := icmsRates[NormalizeUF(uf)]
	return ok
}

// Jurisdictions returns the 27 UF abbreviations, sorted
func Jurisdictions() []string {
	ufs := make([]string, 0, len(icmsRates))
	for uf := range icmsRates {
		ufs = append(ufs, uf)
	}
	sort.Strings(ufs)
	return ufs
}

// UFByIBGECode maps a two-digit IBGE code to its UF abbreviation
func UFByIBGECode(code string) (string, bool) {
	uf, ok := ibgeCodes[code]
	return uf, ok
}
