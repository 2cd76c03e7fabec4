package tax

import (
	"github.com/shopspring/decimal"

	money "github.com/rezonia/fiscal-br/internal/decimal"
	"github.com/rezonia/fiscal-br/internal/tables"
)

// CompanyRegime is the tax regime of the issuing company
type CompanyRegime string

const (
	RegimeSimples        CompanyRegime = "simples"
	RegimeLucroPresumido CompanyRegime = "lucro_presumido"
	RegimeLucroReal      CompanyRegime = "lucro_real"
)

// Label returns the human name of the regime
func (r CompanyRegime) Label() string {
	switch r {
	case RegimeSimples:
		return "Simples Nacional"
	case RegimeLucroPresumido:
		return "Lucro Presumido"
	default:
		return "Lucro Real"
	}
}

// PISCOFINSRegime maps the company regime onto the PIS/COFINS regime
func (r CompanyRegime) PISCOFINSRegime() PISCOFINSRegime {
	if r == RegimeLucroPresumido {
		return RegimeCumulative
	}
	return RegimeNonCumulative
}

// InvoiceInput describes a product NF
type InvoiceInput struct {
	ProductAmount decimal.Decimal
	Freight       decimal.Decimal
	Origin        string
	Destination   string
	NCM           string
	Regime        CompanyRegime
}

// InvoiceTaxes is the full tax breakdown of an NF
type InvoiceTaxes struct {
	Base         decimal.Decimal
	ICMS         ICMSResult
	PIS          Component
	COFINS       Component
	IPI          *Component // nil unless the NCM is known and the IPI amount is positive
	TotalTaxes   decimal.Decimal
	InvoiceTotal decimal.Decimal
	Regime       string
}

// CalculateInvoice aggregates ICMS, PIS, COFINS and IPI over product plus
// freight. Simples Nacional companies collect PIS/COFINS inside the DAS, so
// both components are zero for them.
func CalculateInvoice(in InvoiceInput) InvoiceTaxes {
	base := in.ProductAmount.Add(in.Freight)

	icms := ICMS(base, in.Origin, in.Destination, false)

	var pis, cofins Component
	if in.Regime == RegimeSimples {
		pis = Component{Rate: money.Zero, Amount: money.Zero}
		cofins = Component{Rate: money.Zero, Amount: money.Zero}
	} else {
		pc := PISCOFINS(base, in.Regime.PISCOFINSRegime(), in.NCM)
		pis, cofins = pc.PIS, pc.COFINS
	}

	ipiAmount := money.Zero
	var ipi *Component
	if in.NCM != "" {
		if c, err := tables.LookupNCM(in.NCM); err == nil {
			ipiAmount = money.Percent(base, c.IPI)
			if money.IsPositive(ipiAmount) {
				ipi = &Component{Rate: c.IPI, Amount: ipiAmount}
			}
		}
	}

	return InvoiceTaxes{
		Base:         base,
		ICMS:         icms,
		PIS:          pis,
		COFINS:       cofins,
		IPI:          ipi,
		TotalTaxes:   money.Sum(icms.Amount, pis.Amount, cofins.Amount, ipiAmount),
		InvoiceTotal: money.Sum(base, ipiAmount),
		Regime:       in.Regime.Label(),
	}
}
