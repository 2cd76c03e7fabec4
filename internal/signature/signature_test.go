package signature_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rezonia/fiscal-br/internal/signature"
	"github.com/rezonia/fiscal-br/internal/signature/signaturetest"
)

func TestSignerCNPJ(t *testing.T) {
	tests := []struct {
		name string
		cn   string
		opts []signaturetest.CertOption
		want string
	}{
		{"from common name", "EMPRESA EXEMPLO LTDA:11222333000181", nil, "11222333000181"},
		{"alt name wins", "EMPRESA EXEMPLO LTDA:11222333000181",
			[]signaturetest.CertOption{signaturetest.WithCNPJAltName("99888777000100")}, "99888777000100"},
		{"alt name only", "EMPRESA EXEMPLO LTDA",
			[]signaturetest.CertOption{signaturetest.WithCNPJAltName("11222333000181")}, "11222333000181"},
		{"e-CPF", "FULANO DE TAL:52998224725", nil, ""},
		{"no suffix", "Some Server", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cert := signaturetest.NewLeaf(t, nil, tt.cn, tt.opts...)
			assert.Equal(t, tt.want, signature.SignerCNPJ(cert.Cert))
		})
	}
}

func TestSignerName(t *testing.T) {
	cert := signaturetest.NewLeaf(t, nil, "EMPRESA EXEMPLO LTDA:11222333000181")
	assert.Equal(t, "EMPRESA EXEMPLO LTDA", signature.SignerName(cert.Cert))

	cert = signaturetest.NewLeaf(t, nil, "FULANO DE TAL:52998224725")
	assert.Equal(t, "FULANO DE TAL:52998224725", signature.SignerName(cert.Cert))
}

func TestVerificationResult_SetSigner(t *testing.T) {
	root := signaturetest.NewRoot(t, "AC Teste")
	leaf := signaturetest.NewLeaf(t, root, "EMPRESA EXEMPLO LTDA:11222333000181")

	r := signature.NewVerificationResult()
	r.SetSigner(leaf.Cert)

	assert.Equal(t, "EMPRESA EXEMPLO LTDA", r.Signer.Name)
	assert.Equal(t, "11222333000181", r.Signer.CNPJ)
	assert.Equal(t, "ICP-Brasil", r.Signer.Organization)
	assert.Equal(t, "AC Teste", r.Signer.Issuer)
	assert.Equal(t, leaf.Cert.NotAfter, r.Signer.ValidTo)

	r.SetSigner(nil)
	assert.NotNil(t, r.Signer)
}

func TestVerificationResult_ComputeValidity(t *testing.T) {
	passing := func() *signature.VerificationResult {
		r := signature.NewVerificationResult()
		r.SignatureFound = true
		r.SignatureValid = true
		r.NotRevoked = true
		return r
	}

	r := passing()
	r.ComputeValidity()
	assert.True(t, r.Valid, "unchecked chain does not invalidate")

	r = passing()
	r.ChainChecked = true
	r.ComputeValidity()
	assert.False(t, r.Valid)

	r = passing()
	r.ChainChecked, r.CertChainValid = true, true
	r.ComputeValidity()
	assert.True(t, r.Valid)

	r = passing()
	r.AddError("boom")
	r.ComputeValidity()
	assert.False(t, r.Valid)

	r = passing()
	r.AddWarning("careful")
	r.ComputeValidity()
	assert.True(t, r.Valid)
}

func TestSignatureError(t *testing.T) {
	cause := errors.New("digest mismatch")
	err := signature.ErrInvalidSignature(cause)

	assert.Equal(t, "[INVALID_SIGNATURE] signature: assinatura não confere com o conteúdo (digest mismatch)", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", err), signature.ErrInvalidSignature(nil))
	assert.NotErrorIs(t, err, signature.ErrNoSignature())

	assert.Equal(t, "[NO_SIGNATURE] documento sem assinatura digital", signature.ErrNoSignature().Error())
}

func TestIsNoSignature(t *testing.T) {
	assert.True(t, signature.IsNoSignature(signature.ErrNoSignature()))
	assert.True(t, signature.IsNoSignature(fmt.Errorf("extract: %w", signature.ErrNoSignature())))
	assert.False(t, signature.IsNoSignature(signature.ErrInvalidSignature(nil)))
	assert.False(t, signature.IsNoSignature(errors.New("boom")))
}
