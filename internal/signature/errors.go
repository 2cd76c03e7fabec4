package signature

import (
	"errors"
	"fmt"
)

// Error codes for signature verification
const (
	ErrCodeNoSignature      = "NO_SIGNATURE"
	ErrCodeMalformed        = "MALFORMED_SIGNATURE"
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
	ErrCodeCertExpired      = "CERT_EXPIRED"
	ErrCodeCertNotYetValid  = "CERT_NOT_YET_VALID"
	ErrCodeCertRevoked      = "CERT_REVOKED"
	ErrCodeChainInvalid     = "CHAIN_INVALID"
	ErrCodeOCSPUnavailable  = "OCSP_UNAVAILABLE"
)

// SignatureError represents a signature verification failure
type SignatureError struct {
	Code    string
	Field   string
	Message string
	Cause   error
}

func (e *SignatureError) Error() string {
	if e.Field != "" && e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Code, e.Field, e.Message, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *SignatureError) Unwrap() error {
	return e.Cause
}

// Is matches another *SignatureError by code
func (e *SignatureError) Is(target error) bool {
	t, ok := target.(*SignatureError)
	return ok && t.Code == e.Code
}

// NewSignatureError creates a new signature error
func NewSignatureError(code, field, message string, cause error) *SignatureError {
	return &SignatureError{
		Code:    code,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// ErrNoSignature is returned when the document carries no Signature for the
// signed element.
func ErrNoSignature() *SignatureError {
	return NewSignatureError(ErrCodeNoSignature, "", "documento sem assinatura digital", nil)
}

// ErrMalformed is returned when the Signature or its certificate cannot be read
func ErrMalformed(field string, cause error) *SignatureError {
	return NewSignatureError(ErrCodeMalformed, field, "assinatura malformada", cause)
}

// ErrInvalidSignature is returned when the digest or signature value does not
// match the signed content.
func ErrInvalidSignature(cause error) *SignatureError {
	return NewSignatureError(ErrCodeInvalidSignature, "signature", "assinatura não confere com o conteúdo", cause)
}

// ErrCertExpired is returned when the certificate expired before the signing time
func ErrCertExpired(subject string) *SignatureError {
	return NewSignatureError(ErrCodeCertExpired, "certificate", fmt.Sprintf("certificado expirado na data de emissão: %s", subject), nil)
}

// ErrCertNotYetValid is returned when the certificate starts after the signing time
func ErrCertNotYetValid(subject string) *SignatureError {
	return NewSignatureError(ErrCodeCertNotYetValid, "certificate", fmt.Sprintf("certificado ainda não válido na data de emissão: %s", subject), nil)
}

// ErrCertRevoked is returned when OCSP reports the certificate revoked
func ErrCertRevoked(subject string) *SignatureError {
	return NewSignatureError(ErrCodeCertRevoked, "certificate", fmt.Sprintf("certificado revogado: %s", subject), nil)
}

// ErrChainInvalid is returned when the certificate does not chain to a trusted root
func ErrChainInvalid(cause error) *SignatureError {
	return NewSignatureError(ErrCodeChainInvalid, "chain", "cadeia de certificação inválida", cause)
}

// ErrOCSPUnavailable is returned when no OCSP responder could be reached
func ErrOCSPUnavailable(cause error) *SignatureError {
	return NewSignatureError(ErrCodeOCSPUnavailable, "ocsp", "consulta OCSP indisponível", cause)
}

// IsNoSignature reports whether err means the document is unsigned
func IsNoSignature(err error) bool {
	return errors.Is(err, ErrNoSignature())
}
