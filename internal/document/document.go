// Package document validates Brazilian fiscal identifiers: CPF, CNPJ and the
// 44-digit NF-e access key. Validation is structural only (length and check
// digits); nothing here consults a government registry.
package document

import (
	"errors"
	"strings"
)

// Validation failures. Results carry one of these in Err.
var (
	ErrCPFLength   = errors.New("CPF deve ter 11 dígitos")
	ErrCPFRepeated = errors.New("CPF inválido (dígitos repetidos)")

	ErrCNPJLength   = errors.New("CNPJ deve ter 14 dígitos")
	ErrCNPJRepeated = errors.New("CNPJ inválido (dígitos repetidos)")

	ErrFirstCheckDigit  = errors.New("Primeiro dígito verificador inválido")
	ErrSecondCheckDigit = errors.New("Segundo dígito verificador inválido")

	ErrKeyLength     = errors.New("Chave deve ter 44 dígitos")
	ErrKeyCheckDigit = errors.New("Dígito verificador inválido")
	ErrKeyIssuerCNPJ = errors.New("CNPJ do emitente inválido na chave")
)

// Kind identifies a document type
type Kind string

const (
	KindCPF       Kind = "cpf"
	KindCNPJ      Kind = "cnpj"
	KindAccessKey Kind = "chave_nfe"
	KindUnknown   Kind = "unknown"
)

// Lengths of the normalized documents
const (
	CPFLength       = 11
	CNPJLength      = 14
	AccessKeyLength = 44
)

// Result is the outcome of a CPF or CNPJ validation. Formatted holds the
// punctuated form when Valid, and the cleaned digits otherwise.
type Result struct {
	Valid     bool
	Formatted string
	Err       error
}

// Clean strips every character that is not an ASCII digit
func Clean(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// DetectKind guesses the document type from its cleaned length
func DetectKind(s string) Kind {
	switch len(Clean(s)) {
	case CPFLength:
		return KindCPF
	case CNPJLength:
		return KindCNPJ
	case AccessKeyLength:
		return KindAccessKey
	default:
		return KindUnknown
	}
}

func allSameDigit(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

func digitAt(s string, i int) int {
	return int(s[i] - '0')
}

func invalid(clean string, err error) Result {
	return Result{Valid: false, Formatted: clean, Err: err}
}
