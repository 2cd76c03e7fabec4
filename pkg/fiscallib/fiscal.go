package fiscallib

import (
	"github.com/shopspring/decimal"

	"github.com/rezonia/fiscal-br/internal/document"
	"github.com/rezonia/fiscal-br/internal/tables"
	"github.com/rezonia/fiscal-br/internal/tax"
)

// ValidateCPF checks the length and check digits of a CPF
func ValidateCPF(cpf string) DocumentResult {
	return document.ValidateCPF(cpf)
}

// ValidateCNPJ checks the length and check digits of a CNPJ
func ValidateCNPJ(cnpj string) DocumentResult {
	return document.ValidateCNPJ(cnpj)
}

// ValidateAccessKey checks and decomposes a 44-digit NF-e access key
func ValidateAccessKey(key string) KeyResult {
	return document.ValidateAccessKey(key)
}

// DetectKind guesses whether s is a CPF, a CNPJ or an access key
func DetectKind(s string) Kind {
	return document.DetectKind(s)
}

// ICMS computes ICMS for a goods operation, with DIFAL for interstate sales
// to final consumers.
func ICMS(amount decimal.Decimal, origin, destination string, finalConsumer bool) ICMSResult {
	return tax.ICMS(amount, origin, destination, finalConsumer)
}

// PISCOFINS computes PIS and COFINS. A known NCM overrides the regime rates.
func PISCOFINS(amount decimal.Decimal, regime PISCOFINSRegime, ncm string) PISCOFINSResult {
	return tax.PISCOFINS(amount, regime, ncm)
}

// SimplesNacional computes the monthly DAS from the Anexo I brackets
func SimplesNacional(revenue12m, monthRevenue decimal.Decimal) SimplesResult {
	return tax.SimplesNacional(revenue12m, monthRevenue)
}

// ISS computes the municipal service tax
func ISS(amount, rate decimal.Decimal, municipality string) ISSResult {
	return tax.ISS(amount, rate, municipality)
}

// CalculateInvoice computes every tax of a product NF
func CalculateInvoice(in InvoiceInput) InvoiceTaxes {
	return tax.CalculateInvoice(in)
}

// LookupNCM returns the classification of an 8-digit NCM code
func LookupNCM(code string) (Classification, error) {
	return tables.LookupNCM(code)
}

// LookupCFOP returns the operation described by a 4-digit CFOP
func LookupCFOP(code string) (Operation, error) {
	return tables.LookupCFOP(code)
}

// Jurisdictions lists the 27 UF abbreviations
func Jurisdictions() []string {
	return tables.Jurisdictions()
}
