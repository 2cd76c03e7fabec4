package signature

import (
	"crypto/x509"
	"time"
)

// VerificationResult contains the outcome of verifying one signed NF-e
type VerificationResult struct {
	// Valid is true only if every performed check passed
	Valid bool `json:"valid"`

	SignatureFound bool `json:"signature_found"`
	SignatureValid bool `json:"signature_valid"`
	// ChainChecked is false when no trust roots are configured
	ChainChecked   bool `json:"chain_checked"`
	CertChainValid bool `json:"cert_chain_valid"`
	NotRevoked     bool `json:"not_revoked"`

	Signer *SignerInfo `json:"signer,omitempty"`

	// SignedAt is the emission time declared in the document
	SignedAt *time.Time `json:"signed_at,omitempty"`

	CertChain []*x509.Certificate `json:"-"`

	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// SignerInfo describes the signing certificate
type SignerInfo struct {
	Name string `json:"name"`
	// CNPJ of the e-CNPJ holder; empty when the certificate carries none
	CNPJ         string    `json:"cnpj,omitempty"`
	Organization string    `json:"organization,omitempty"`
	SerialNumber string    `json:"serial_number"`
	Issuer       string    `json:"issuer"`
	ValidFrom    time.Time `json:"valid_from"`
	ValidTo      time.Time `json:"valid_to"`
}

// NewVerificationResult creates an empty result
func NewVerificationResult() *VerificationResult {
	return &VerificationResult{
		Warnings: make([]string, 0),
		Errors:   make([]string, 0),
	}
}

// AddWarning adds a non-fatal message
func (r *VerificationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// AddError adds an error message and marks the result invalid
func (r *VerificationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Valid = false
}

// SetSigner populates Signer from the signing certificate
func (r *VerificationResult) SetSigner(cert *x509.Certificate) {
	if cert == nil {
		return
	}

	signer := &SignerInfo{
		Name:         SignerName(cert),
		CNPJ:         SignerCNPJ(cert),
		SerialNumber: cert.SerialNumber.String(),
		ValidFrom:    cert.NotBefore,
		ValidTo:      cert.NotAfter,
	}

	if len(cert.Subject.Organization) > 0 {
		signer.Organization = cert.Subject.Organization[0]
	}

	if cert.Issuer.CommonName != "" {
		signer.Issuer = cert.Issuer.CommonName
	} else if len(cert.Issuer.Organization) > 0 {
		signer.Issuer = cert.Issuer.Organization[0]
	}

	r.Signer = signer
}

// ComputeValidity derives Valid from the individual checks. An unchecked
// chain does not invalidate the result; a checked and failed one does.
func (r *VerificationResult) ComputeValidity() {
	r.Valid = r.SignatureFound &&
		r.SignatureValid &&
		(!r.ChainChecked || r.CertChainValid) &&
		r.NotRevoked &&
		len(r.Errors) == 0
}
