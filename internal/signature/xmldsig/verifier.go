// Package xmldsig verifies the enveloped XMLDSig signature of NF-e documents
// with goxmldsig.
package xmldsig

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"time"

	dsig "github.com/russellhaering/goxmldsig"
	"go.uber.org/zap"

	"github.com/rezonia/fiscal-br/internal/logger"
	"github.com/rezonia/fiscal-br/internal/signature"
	"github.com/rezonia/fiscal-br/internal/signature/trust"
)

// idAttribute names the attribute a Reference URI points at
const idAttribute = "Id"

// Verifier verifies NF-e signatures
type Verifier struct {
	trustStore      *trust.TrustStore
	checkRevocation bool
	extractor       *Extractor
	logger          *zap.Logger
	now             func() time.Time
}

// Option configures Verifier
type Option func(*Verifier)

// WithTrustStore enables chain verification against the store's roots
func WithTrustStore(ts *trust.TrustStore) Option {
	return func(v *Verifier) {
		v.trustStore = ts
	}
}

// WithRevocationCheck enables OCSP queries for chained certificates
func WithRevocationCheck(enabled bool) Option {
	return func(v *Verifier) {
		v.checkRevocation = enabled
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger.OrNop(l)
	}
}

// NewVerifier creates an NF-e signature verifier
func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{
		extractor: NewExtractor(),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks the signature over infNFe. The certificate is judged at the
// emission time declared in the document; the current time is used when the
// document has none.
func (v *Verifier) Verify(ctx context.Context, data []byte) (*signature.VerificationResult, error) {
	result := signature.NewVerificationResult()

	ex, err := v.extractor.Extract(data)
	if err != nil {
		result.AddError(err.Error())
		return result, err
	}
	result.SignatureFound = true
	result.SignedAt = ex.SignedAt

	at := v.now()
	if ex.SignedAt != nil {
		at = *ex.SignedAt
	}

	cert, err := signingCertificate(ex)
	if err != nil {
		result.AddError(err.Error())
		result.ComputeValidity()
		return result, nil
	}
	result.SetSigner(cert)

	// Integrity is checked inside the validity window so an expired
	// certificate is reported as such rather than as a bad signature.
	clockAt := at
	if err := checkValidity(cert, at); err != nil {
		result.AddError(err.Error())
		clockAt = cert.NotBefore
	}

	vctx := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{cert},
	})
	vctx.IdAttribute = idAttribute
	vctx.Clock = dsig.NewFakeClockAt(clockAt)

	if _, err := vctx.Validate(detach(ex.Signed, ex.Signature)); err != nil {
		result.AddError(signature.ErrInvalidSignature(err).Error())
	} else {
		result.SignatureValid = true
	}

	chain := v.verifyChain(result, cert, at)
	v.verifyRevocation(ctx, result, cert, chain)

	result.ComputeValidity()

	v.logger.Debug("nfe signature verified",
		zap.String("id", ex.ID),
		zap.Bool("valid", result.Valid),
		zap.String("signer_cnpj", result.Signer.CNPJ),
		zap.Int("errors", len(result.Errors)),
	)

	return result, nil
}

func (v *Verifier) verifyChain(result *signature.VerificationResult, cert *x509.Certificate, at time.Time) []*x509.Certificate {
	if v.trustStore == nil || v.trustStore.Len() == 0 {
		result.AddWarning("cadeia de certificação não verificada: nenhuma raiz confiável configurada")
		return nil
	}

	result.ChainChecked = true
	chain, err := v.trustStore.VerifyChain(cert, nil, at)
	if err != nil {
		result.AddError(signature.ErrChainInvalid(err).Error())
		return nil
	}
	result.CertChainValid = true
	result.CertChain = chain
	return chain
}

func (v *Verifier) verifyRevocation(ctx context.Context, result *signature.VerificationResult, cert *x509.Certificate, chain []*x509.Certificate) {
	result.NotRevoked = true
	if !v.checkRevocation || v.trustStore == nil {
		return
	}
	if len(chain) < 2 {
		result.AddWarning("revogação não verificada: emissor do certificado fora da cadeia")
		return
	}

	notRevoked, err := v.trustStore.CheckRevocation(ctx, cert, chain[1])
	switch {
	case err != nil && v.trustStore.IsSoftFail():
		result.AddWarning(signature.ErrOCSPUnavailable(err).Error())
	case err != nil:
		result.NotRevoked = false
		result.AddError(signature.ErrOCSPUnavailable(err).Error())
	case !notRevoked:
		result.NotRevoked = false
		result.AddError(signature.ErrCertRevoked(cert.Subject.CommonName).Error())
	}
}

func signingCertificate(ex *Extraction) (*x509.Certificate, error) {
	encoded, err := CertificateData(ex.Signature)
	if err != nil {
		return nil, err
	}
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, signature.ErrMalformed("X509Certificate", fmt.Errorf("failed to decode certificate: %w", err))
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, signature.ErrMalformed("X509Certificate", fmt.Errorf("failed to parse certificate: %w", err))
	}
	return cert, nil
}

func checkValidity(cert *x509.Certificate, at time.Time) error {
	switch {
	case at.Before(cert.NotBefore):
		return signature.ErrCertNotYetValid(cert.Subject.CommonName)
	case at.After(cert.NotAfter):
		return signature.ErrCertExpired(cert.Subject.CommonName)
	}
	return nil
}
