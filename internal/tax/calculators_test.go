package tax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/fiscal-br/internal/tax"
)

func TestPISCOFINS(t *testing.T) {
	tests := []struct {
		name      string
		regime    tax.PISCOFINSRegime
		ncm       string
		pisRate   string
		cofinRate string
		pis       string
		cofins    string
		total     string
	}{
		{"cumulative defaults", tax.RegimeCumulative, "", "0.65", "3", "6.5", "30", "36.5"},
		{"non-cumulative defaults", tax.RegimeNonCumulative, "", "1.65", "7.6", "16.5", "76", "92.5"},
		{"ncm rates win over regime", tax.RegimeCumulative, "22030000", "2.5", "11.75", "25", "117.5", "142.5"},
		{"punctuated ncm", tax.RegimeCumulative, "8471.30.19", "1.65", "7.6", "16.5", "76", "92.5"},
		{"zero-rate ncm falls back to regime", tax.RegimeCumulative, "02011000", "0.65", "3", "6.5", "30", "36.5"},
		{"unknown ncm falls back", tax.RegimeNonCumulative, "99999999", "1.65", "7.6", "16.5", "76", "92.5"},
		{"malformed ncm falls back", tax.RegimeNonCumulative, "123", "1.65", "7.6", "16.5", "76", "92.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tax.PISCOFINS(d("1000"), tt.regime, tt.ncm)
			assertDecimal(t, tt.pisRate, result.PIS.Rate)
			assertDecimal(t, tt.cofinRate, result.COFINS.Rate)
			assertDecimal(t, tt.pis, result.PIS.Amount)
			assertDecimal(t, tt.cofins, result.COFINS.Amount)
			assertDecimal(t, tt.total, result.Total)
			assert.Equal(t, tt.regime.Label(), result.Regime)
		})
	}
}

func TestPISCOFINS_RoundsEachComponent(t *testing.T) {
	// 333.33 × 0.65% = 2.166645 → 2.17; × 3% = 9.9999 → 10.00
	result := tax.PISCOFINS(d("333.33"), tax.RegimeCumulative, "")
	assertDecimal(t, "2.17", result.PIS.Amount)
	assertDecimal(t, "10", result.COFINS.Amount)
	assertDecimal(t, "12.17", result.Total)
}

func TestPISCOFINSRegime_Label(t *testing.T) {
	assert.Equal(t, "Cumulativo (Lucro Presumido)", tax.RegimeCumulative.Label())
	assert.Equal(t, "Não-Cumulativo (Lucro Real)", tax.RegimeNonCumulative.Label())
}

func TestSimplesNacional(t *testing.T) {
	tests := []struct {
		name      string
		revenue   string
		month     string
		bracket   int
		nominal   string
		effective string
		tax       string
	}{
		// ((500000 × 9.5%) − 13860) / 500000 = 6.728% → 6.73; 50000 × 6.73% = 3365
		{"third bracket", "500000", "50000", 3, "9.5", "6.73", "3365"},
		{"first bracket has no deduction", "100000", "10000", 1, "4", "4", "400"},
		{"first bracket upper bound", "180000", "15000", 1, "4", "4", "600"},
		{"second bracket lower bound", "180000.01", "15000", 2, "7.3", "4", "600"},
		// (912000 − 378000) / 4800000 = 11.125% → 11.13
		{"ceiling is inclusive", "4800000", "400000", 6, "19", "11.13", "44520"},
		{"fifth bracket", "2000000", "200000", 5, "14.3", "9.94", "19880"},
		{"zero revenue uses nominal rate", "0", "1000", 1, "4", "4", "40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tax.SimplesNacional(d(tt.revenue), d(tt.month))
			assert.False(t, result.Exceeded)
			assert.Empty(t, result.Note)
			assert.Equal(t, tt.bracket, result.Bracket)
			assertDecimal(t, tt.nominal, result.NominalRate)
			assertDecimal(t, tt.effective, result.EffectiveRate)
			assertDecimal(t, tt.tax, result.Tax)
		})
	}
}

func TestSimplesNacional_CeilingExceeded(t *testing.T) {
	result := tax.SimplesNacional(d("5000000"), d("100000"))

	assert.True(t, result.Exceeded)
	assert.Equal(t, 0, result.Bracket)
	assert.True(t, result.NominalRate.IsZero())
	assert.True(t, result.EffectiveRate.IsZero())
	assert.True(t, result.Tax.IsZero())
	assert.Equal(t, tax.SimplesCeilingNote, result.Note)

	result = tax.SimplesNacional(d("4800000.01"), d("1"))
	assert.True(t, result.Exceeded)
}

func TestSimplesNacional_NegativeRevenueFallback(t *testing.T) {
	result := tax.SimplesNacional(d("-1"), d("1000"))

	assert.Equal(t, 1, result.Bracket)
	assertDecimal(t, "4", result.NominalRate)
	assertDecimal(t, "4", result.EffectiveRate)
	assertDecimal(t, "40", result.Tax)
}

func TestSimplesNacional_Idempotent(t *testing.T) {
	assert.Equal(t,
		tax.SimplesNacional(d("777777.77"), d("55555.55")),
		tax.SimplesNacional(d("777777.77"), d("55555.55")))
}

func TestISS(t *testing.T) {
	tests := []struct {
		name     string
		rate     string
		applied  string
		amount   string
		adjusted bool
		note     string
	}{
		{"above range clamps to 5", "10", "5", "50", true, "Alíquota ajustada para 5% (limites legais: 2% a 5%)"},
		{"below range clamps to 2", "1", "2", "20", true, "Alíquota ajustada para 2% (limites legais: 2% a 5%)"},
		{"within range", "3", "3", "30", false, tax.ISSGenericNote},
		{"fractional rate", "2.5", "2.5", "25", false, tax.ISSGenericNote},
		{"upper bound inclusive", "5", "5", "50", false, tax.ISSGenericNote},
		{"lower bound inclusive", "2", "2", "20", false, tax.ISSGenericNote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tax.ISS(d("1000"), d(tt.rate), "São Paulo")
			assertDecimal(t, tt.applied, result.Rate)
			assertDecimal(t, tt.amount, result.Amount)
			assert.Equal(t, tt.adjusted, result.Adjusted)
			assert.Equal(t, tt.note, result.Note)
			assert.Equal(t, "São Paulo", result.Municipality)
		})
	}
}

func TestPISCOFINS_Idempotent(t *testing.T) {
	assert.Equal(t,
		tax.PISCOFINS(d("1234.56"), tax.RegimeNonCumulative, "22030000"),
		tax.PISCOFINS(d("1234.56"), tax.RegimeNonCumulative, "22030000"))
}

func TestISS_Idempotent(t *testing.T) {
	assert.Equal(t,
		tax.ISS(d("987.65"), d("7"), "Campinas"),
		tax.ISS(d("987.65"), d("7"), "Campinas"))
}

func TestISS_NoMunicipality(t *testing.T) {
	result := tax.ISS(d("1000"), d("3"), "")
	assert.Empty(t, result.Municipality)
}

func TestCalculateInvoice_LucroReal(t *testing.T) {
	result := tax.CalculateInvoice(tax.InvoiceInput{
		ProductAmount: d("1000"),
		Freight:       d("100"),
		Origin:        "SP",
		Destination:   "RJ",
		NCM:           "85287200",
		Regime:        tax.RegimeLucroReal,
	})

	assertDecimal(t, "1100", result.Base)
	assertDecimal(t, "12", result.ICMS.Rate)
	assertDecimal(t, "132", result.ICMS.Amount)
	assert.Equal(t, tax.OperationInterstate, result.ICMS.Operation)
	assert.Nil(t, result.ICMS.Difal)
	assertDecimal(t, "18.15", result.PIS.Amount)
	assertDecimal(t, "83.6", result.COFINS.Amount)
	require.NotNil(t, result.IPI)
	assertDecimal(t, "5", result.IPI.Rate)
	assertDecimal(t, "55", result.IPI.Amount)
	assertDecimal(t, "288.75", result.TotalTaxes)
	assertDecimal(t, "1155", result.InvoiceTotal)
	assert.Equal(t, "Lucro Real", result.Regime)
}

func TestCalculateInvoice_Simples(t *testing.T) {
	result := tax.CalculateInvoice(tax.InvoiceInput{
		ProductAmount: d("1000"),
		Origin:        "SP",
		Destination:   "SP",
		Regime:        tax.RegimeSimples,
	})

	assertDecimal(t, "1000", result.Base)
	assertDecimal(t, "180", result.ICMS.Amount)
	assert.True(t, result.PIS.Amount.IsZero())
	assert.True(t, result.PIS.Rate.IsZero())
	assert.True(t, result.COFINS.Amount.IsZero())
	assert.Nil(t, result.IPI)
	assertDecimal(t, "180", result.TotalTaxes)
	assertDecimal(t, "1000", result.InvoiceTotal)
	assert.Equal(t, "Simples Nacional", result.Regime)
}

func TestCalculateInvoice_NegativeBaseOmitsIPI(t *testing.T) {
	result := tax.CalculateInvoice(tax.InvoiceInput{
		ProductAmount: d("-100"),
		Origin:        "SP",
		Destination:   "SP",
		NCM:           "85287200",
		Regime:        tax.RegimeSimples,
	})

	assert.Nil(t, result.IPI)
	assertDecimal(t, "-18", result.ICMS.Amount)
	// the negative IPI still counts in the totals
	assertDecimal(t, "-23", result.TotalTaxes)
	assertDecimal(t, "-105", result.InvoiceTotal)
}

func TestCalculateInvoice_Idempotent(t *testing.T) {
	in := tax.InvoiceInput{
		ProductAmount: d("1999.99"),
		Freight:       d("35.10"),
		Origin:        "MG",
		Destination:   "BA",
		NCM:           "64039990",
		Regime:        tax.RegimeLucroPresumido,
	}
	assert.Equal(t, tax.CalculateInvoice(in), tax.CalculateInvoice(in))
}

func TestCalculateInvoice_LucroPresumido(t *testing.T) {
	tests := []struct {
		name   string
		ncm    string
		pis    string
		cofins string
		total  string
	}{
		// NCM rates apply even in the cumulative regime; IPI 0% is omitted
		{"ncm with zero ipi", "84713019", "16.5", "76", "212.5"},
		// all-zero NCM falls back to cumulative defaults
		{"zero-rate ncm", "02011000", "6.5", "30", "156.5"},
		{"no ncm", "", "6.5", "30", "156.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tax.CalculateInvoice(tax.InvoiceInput{
				ProductAmount: d("1000"),
				Origin:        "SP",
				Destination:   "MG",
				NCM:           tt.ncm,
				Regime:        tax.RegimeLucroPresumido,
			})

			assertDecimal(t, "120", result.ICMS.Amount)
			assertDecimal(t, tt.pis, result.PIS.Amount)
			assertDecimal(t, tt.cofins, result.COFINS.Amount)
			assert.Nil(t, result.IPI)
			assertDecimal(t, tt.total, result.TotalTaxes)
			assertDecimal(t, "1000", result.InvoiceTotal)
			assert.Equal(t, "Lucro Presumido", result.Regime)
		})
	}
}

func TestCompanyRegime_PISCOFINSRegime(t *testing.T) {
	assert.Equal(t, tax.RegimeCumulative, tax.RegimeLucroPresumido.PISCOFINSRegime())
	assert.Equal(t, tax.RegimeNonCumulative, tax.RegimeLucroReal.PISCOFINSRegime())
}
