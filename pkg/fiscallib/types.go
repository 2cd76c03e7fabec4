// Package fiscallib provides a public API over the Brazilian fiscal rules.
//
// It exposes document validators (CPF, CNPJ, NF-e access key), the tax
// calculators (ICMS with DIFAL, PIS/COFINS, Simples Nacional, ISS and the
// composite NF computation), the NCM and CFOP reference tables and NF-e XML
// validation.
//
// Example usage:
//
//	r := fiscallib.ValidateCNPJ("11.222.333/0001-81")
//	if r.Valid {
//	    fmt.Println(r.Formatted)
//	}
//
//	icms := fiscallib.ICMS(decimal.NewFromInt(1000), "SP", "BA", true)
//	fmt.Println(icms.Amount, icms.Difal.Amount)
package fiscallib

import (
	"github.com/rezonia/fiscal-br/internal/document"
	"github.com/rezonia/fiscal-br/internal/model"
	"github.com/rezonia/fiscal-br/internal/processor"
	"github.com/rezonia/fiscal-br/internal/tables"
	"github.com/rezonia/fiscal-br/internal/tax"
)

// Re-export document types
type (
	DocumentResult = document.Result
	KeyResult      = document.KeyResult
	AccessKey      = document.AccessKey
	Kind           = document.Kind
)

// Re-export document kinds
const (
	KindCPF       = document.KindCPF
	KindCNPJ      = document.KindCNPJ
	KindAccessKey = document.KindAccessKey
	KindUnknown   = document.KindUnknown
)

// Re-export calculator types
type (
	ICMSResult      = tax.ICMSResult
	Difal           = tax.Difal
	PISCOFINSResult = tax.PISCOFINSResult
	PISCOFINSRegime = tax.PISCOFINSRegime
	SimplesResult   = tax.SimplesResult
	ISSResult       = tax.ISSResult
	InvoiceInput    = tax.InvoiceInput
	InvoiceTaxes    = tax.InvoiceTaxes
	CompanyRegime   = tax.CompanyRegime
)

// Re-export regimes
const (
	RegimeCumulative     = tax.RegimeCumulative
	RegimeNonCumulative  = tax.RegimeNonCumulative
	RegimeSimples        = tax.RegimeSimples
	RegimeLucroPresumido = tax.RegimeLucroPresumido
	RegimeLucroReal      = tax.RegimeLucroReal
)

// Re-export reference table types
type (
	Classification = tables.Classification
	Operation      = tables.Operation
	Bracket        = tables.Bracket
)

// Re-export NF-e types
type (
	Invoice = model.Invoice
	Party   = model.Party
	Item    = model.Item
	Totals  = model.Totals
	Layout  = model.Layout
	Report  = processor.Report
)

// Re-export error types
type (
	ParseError    = model.ParseError
	ToolError     = model.ToolError
	ArgumentError = model.ArgumentError
	RegistryError = model.RegistryError
)
