package tables_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/fiscal-br/internal/tables"
)

func TestJurisdictions(t *testing.T) {
	ufs := tables.Jurisdictions()
	require.Len(t, ufs, 27)
	assert.Equal(t, "AC", ufs[0])
	assert.Equal(t, "TO", ufs[26])

	for _, uf := range ufs {
		rate, ok := tables.ICMSRate(uf)
		require.True(t, ok, uf)
		assert.True(t, rate.IsPositive(), uf)
	}
}

func TestICMSRate(t *testing.T) {
	tests := []struct {
		uf       string
		expected string
		found    bool
	}{
		{"SP", "18", true},
		{"RJ", "22", true},
		{"ba", "20.5", true},
		{" pr ", "19.5", true},
		{"XX", "18", false},
		{"", "18", false},
	}

	for _, tt := range tests {
		t.Run(tt.uf, func(t *testing.T) {
			_, ok := tables.ICMSRate(tt.uf)
			assert.Equal(t, tt.found, ok)
			got := tables.ICMSRateOrDefault(tt.uf)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)), "got %s", got)
		})
	}
}

func TestLowerDevelopmentGroup(t *testing.T) {
	for _, uf := range []string{"BA", "ES", "DF", "am", "TO"} {
		assert.True(t, tables.InLowerDevelopmentGroup(uf), uf)
	}
	for _, uf := range []string{"SP", "RJ", "MG", "PR", "SC", "RS", "XX"} {
		assert.False(t, tables.InLowerDevelopmentGroup(uf), uf)
	}
}

func TestUFByIBGECode(t *testing.T) {
	uf, ok := tables.UFByIBGECode("35")
	require.True(t, ok)
	assert.Equal(t, "SP", uf)

	_, ok = tables.UFByIBGECode("99")
	assert.False(t, ok)

	// every IBGE code maps to a known jurisdiction
	for _, code := range []string{"11", "12", "13", "14", "15", "16", "17", "21", "22", "23", "24", "25", "26",
		"27", "28", "29", "31", "32", "33", "35", "41", "42", "43", "50", "51", "52", "53"} {
		uf, ok := tables.UFByIBGECode(code)
		require.True(t, ok, code)
		assert.True(t, tables.IsJurisdiction(uf), uf)
	}
}

func TestSimplesBrackets_PartitionDomain(t *testing.T) {
	brackets := tables.SimplesBrackets()
	require.Len(t, brackets, 6)

	cent := decimal.RequireFromString("0.01")
	assert.True(t, brackets[0].Lower.IsZero(), "first row must start at zero")
	assert.True(t, brackets[len(brackets)-1].Upper.Equal(tables.SimplesCeiling), "last row must end at the ceiling")

	for i, b := range brackets {
		assert.Equal(t, i+1, b.Index)
		assert.True(t, b.Lower.LessThan(b.Upper), "row %d is empty", b.Index)
		if i > 0 {
			prev := brackets[i-1]
			assert.True(t, b.Lower.Equal(prev.Upper.Add(cent)),
				"row %d must start one centavo above row %d (gap or overlap)", b.Index, prev.Index)
			assert.True(t, b.NominalRate.GreaterThan(prev.NominalRate))
		}
	}
}

func TestSimplesBrackets_ReturnsCopy(t *testing.T) {
	brackets := tables.SimplesBrackets()
	brackets[0].NominalRate = decimal.NewFromInt(99)

	again := tables.SimplesBrackets()
	assert.True(t, again[0].NominalRate.Equal(decimal.NewFromInt(4)))
}

func TestFindBracket(t *testing.T) {
	tests := []struct {
		revenue string
		index   int
		found   bool
	}{
		{"0", 1, true},
		{"180000", 1, true},
		{"180000.004", 1, true},
		{"180000.005", 2, true},
		{"180000.01", 2, true},
		{"500000", 3, true},
		{"720000.01", 4, true},
		{"3600000", 5, true},
		{"4800000", 6, true},
		{"4800000.01", 0, false},
		{"-1", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.revenue, func(t *testing.T) {
			b, ok := tables.FindBracket(decimal.RequireFromString(tt.revenue))
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.index, b.Index)
		})
	}
}

func TestLookupNCM(t *testing.T) {
	c, err := tables.LookupNCM("8528.72.00")
	require.NoError(t, err)
	assert.Equal(t, "85287200", c.Code)
	assert.Equal(t, "Televisores LED/LCD", c.Description)
	assert.True(t, c.IPI.Equal(decimal.NewFromInt(5)))
	assert.True(t, c.PIS.Equal(decimal.RequireFromString("1.65")))
	assert.True(t, c.COFINS.Equal(decimal.RequireFromString("7.6")))

	_, err = tables.LookupNCM("12345678")
	assert.ErrorIs(t, err, tables.ErrNCMNotFound)

	_, err = tables.LookupNCM("1234")
	assert.ErrorIs(t, err, tables.ErrNCMLength)
}

func TestNCMCodes(t *testing.T) {
	codes := tables.NCMCodes()
	require.Len(t, codes, 10)
	assert.Equal(t, "02011000", codes[0])
	for _, code := range codes {
		assert.Len(t, code, tables.NCMLength)
	}
}

func TestNCMCatalog(t *testing.T) {
	catalog := tables.NCMCatalog()
	require.Len(t, catalog, 10)
	assert.Equal(t, "84713019", catalog[0])
	assert.Equal(t, "10059010", catalog[9])
	assert.ElementsMatch(t, tables.NCMCodes(), catalog)
}

func TestLookupCFOP(t *testing.T) {
	op, err := tables.LookupCFOP("6108")
	require.NoError(t, err)
	assert.Equal(t, "Venda a consumidor final", op.Description)
	assert.Equal(t, tables.DirectionOutbound, op.Direction)
	assert.Equal(t, tables.ScopeInterstate, op.Scope)

	op, err = tables.LookupCFOP("1.102")
	require.NoError(t, err)
	assert.Equal(t, tables.DirectionInbound, op.Direction)
	assert.Equal(t, tables.ScopeIntrastate, op.Scope)

	_, err = tables.LookupCFOP("9999")
	assert.ErrorIs(t, err, tables.ErrCFOPNotFound)

	_, err = tables.LookupCFOP("51")
	assert.ErrorIs(t, err, tables.ErrCFOPLength)
}

func TestCFOPCodes_FirstDigitMatchesRecord(t *testing.T) {
	for _, code := range tables.CFOPCodes() {
		op, err := tables.LookupCFOP(code)
		require.NoError(t, err)

		switch code[0] {
		case '1':
			assert.Equal(t, tables.DirectionInbound, op.Direction, code)
			assert.Equal(t, tables.ScopeIntrastate, op.Scope, code)
		case '2':
			assert.Equal(t, tables.DirectionInbound, op.Direction, code)
			assert.Equal(t, tables.ScopeInterstate, op.Scope, code)
		case '5':
			assert.Equal(t, tables.DirectionOutbound, op.Direction, code)
			assert.Equal(t, tables.ScopeIntrastate, op.Scope, code)
		case '6':
			assert.Equal(t, tables.DirectionOutbound, op.Direction, code)
			assert.Equal(t, tables.ScopeInterstate, op.Scope, code)
		}
	}
}
