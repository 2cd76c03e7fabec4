package tables

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	money "github.com/rezonia/fiscal-br/internal/decimal"
)

// NCMLength is the number of digits of a full NCM code
const NCMLength = 8

var (
	ErrNCMLength   = errors.New("NCM deve ter 8 dígitos")
	ErrNCMNotFound = errors.New("NCM não encontrado na base local")
)

// Classification is an NCM entry with its federal tax rates (percent)
type Classification struct {
	Code        string
	Description string
	IPI         decimal.Decimal
	PIS         decimal.Decimal
	COFINS      decimal.Decimal
}

func ncm(code, desc, ipi, pis, cofins string) Classification {
	return Classification{
		Code:        code,
		Description: desc,
		IPI:         money.MustFromString(ipi),
		PIS:         money.MustFromString(pis),
		COFINS:      money.MustFromString(cofins),
	}
}

var ncmEntries = []Classification{
	ncm("84713019", "Computadores portáteis (notebooks)", "0", "1.65", "7.6"),
	ncm("85171231", "Telefones celulares", "0", "1.65", "7.6"),
	ncm("85287200", "Televisores LED/LCD", "5", "1.65", "7.6"),
	ncm("64039990", "Calçados de couro", "10", "1.65", "7.6"),
	ncm("22030000", "Cerveja de malte", "6", "2.5", "11.75"),
	ncm("21069010", "Preparações alimentícias (suplementos)", "0", "1.65", "7.6"),
	ncm("33049990", "Cosméticos e produtos de beleza", "7", "1.65", "7.6"),
	ncm("94032000", "Móveis de metal", "5", "1.65", "7.6"),
	ncm("02011000", "Carne bovina fresca (carcaças)", "0", "0", "0"),
	ncm("10059010", "Milho em grão", "0", "0", "0"),
}

var ncmTable = indexNCM(ncmEntries...)

func indexNCM(entries ...Classification) map[string]Classification {
	m := make(map[string]Classification, len(entries))
	for _, e := range entries {
		m[e.Code] = e
	}
	return m
}

// LookupNCM finds a classification. Punctuation in code is ignored
// ("8471.30.19" works). A miss is reported as ErrNCMNotFound, a malformed
// code as ErrNCMLength.
func LookupNCM(code string) (Classification, error) {
	clean := digitsOnly(code)
	if len(clean) != NCMLength {
		return Classification{}, ErrNCMLength
	}
	c, ok := ncmTable[clean]
	if !ok {
		return Classification{}, fmt.Errorf("%w: %s", ErrNCMNotFound, clean)
	}
	return c, nil
}

// NCMCodes lists the known codes, sorted
func NCMCodes() []string {
	codes := make([]string, 0, len(ncmTable))
	for code := range ncmTable {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// NCMCatalog lists the known codes in catalogue order, the order used when
// reporting available codes to a caller.
func NCMCatalog() []string {
	codes := make([]string, len(ncmEntries))
	for i, e := range ncmEntries {
		codes[i] = e.Code
	}
	return codes
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
