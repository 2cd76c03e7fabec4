package document

import (
	"strconv"

	"github.com/rezonia/fiscal-br/internal/tables"
)

// Document models carried in positions 20..21 of the key
var modelNames = map[string]string{
	"55": "NFe",
	"65": "NFCe",
}

// AccessKey is the decomposition of a valid 44-digit NF-e access key
type AccessKey struct {
	UF           string // IBGE numeric code, e.g. "35"
	UFAbbrev     string // "SP"; empty when the code is not a known UF
	Emission     string // MM/YYYY
	IssuerCNPJ   string // formatted
	Model        string
	Series       string
	Number       string // without leading zeros
	EmissionType string
	NumericCode  string
	CheckDigit   string
}

// KeyResult is the outcome of an access key validation
type KeyResult struct {
	Valid   bool
	Details *AccessKey
	Err     error
}

// ValidateAccessKey checks the check digit of an NF-e access key and the
// issuer CNPJ embedded in it.
func ValidateAccessKey(key string) KeyResult {
	clean := Clean(key)

	if len(clean) != AccessKeyLength {
		return KeyResult{Err: ErrKeyLength}
	}

	if mod11CheckDigit(clean[:43]) != digitAt(clean, 43) {
		return KeyResult{Err: ErrKeyCheckDigit}
	}

	issuer := ValidateCNPJ(clean[6:20])
	if !issuer.Valid {
		return KeyResult{Err: ErrKeyIssuerCNPJ}
	}

	return KeyResult{Valid: true, Details: decompose(clean, issuer.Formatted)}
}

// AccessKeyCheckDigit computes the check digit for the first 43 digits of a
// key. It returns -1 when prefix is not 43 digits long.
func AccessKeyCheckDigit(prefix string) int {
	clean := Clean(prefix)
	if len(clean) != AccessKeyLength-1 {
		return -1
	}
	return mod11CheckDigit(clean)
}

func decompose(clean, issuerFormatted string) *AccessKey {
	uf := clean[0:2]
	yy, _ := strconv.Atoi(clean[2:4])
	month := clean[4:6]

	model := clean[20:22]
	if name, ok := modelNames[model]; ok {
		model = name
	}

	// nine digits always fit an int
	number, _ := strconv.Atoi(clean[25:34])

	abbrev, _ := tables.UFByIBGECode(uf)

	return &AccessKey{
		UF:           uf,
		UFAbbrev:     abbrev,
		Emission:     month + "/" + strconv.Itoa(2000+yy),
		IssuerCNPJ:   issuerFormatted,
		Model:        model,
		Series:       clean[22:25],
		Number:       strconv.Itoa(number),
		EmissionType: clean[34:35],
		NumericCode:  clean[35:43],
		CheckDigit:   clean[43:44],
	}
}
