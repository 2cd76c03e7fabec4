package xmldsig_test

import (
	"bytes"
	"context"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rezonia/fiscal-br/internal/signature"
	"github.com/rezonia/fiscal-br/internal/signature/signaturetest"
	"github.com/rezonia/fiscal-br/internal/signature/trust"
	"github.com/rezonia/fiscal-br/internal/signature/xmldsig"
)

const issuerCN = "EMPRESA EXEMPLO LTDA:11222333000181"

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../parser/nfe/testdata/" + name)
	require.NoError(t, err)
	return data
}

func signedFixture(t *testing.T, name string, signer *signaturetest.Cert) []byte {
	t.Helper()
	return signaturetest.SignNFe(t, fixture(t, name), signer)
}

func TestVerify_Valid(t *testing.T) {
	root := signaturetest.NewRoot(t, "AC Teste")
	leaf := signaturetest.NewLeaf(t, root, issuerCN)

	for _, name := range []string{"nfeProc.xml", "nfe.xml"} {
		t.Run(name, func(t *testing.T) {
			data := signedFixture(t, name, leaf)

			result, err := xmldsig.NewVerifier(xmldsig.WithLogger(zap.NewNop())).Verify(context.Background(), data)
			require.NoError(t, err)

			assert.True(t, result.Valid, result.Errors)
			assert.True(t, result.SignatureFound)
			assert.True(t, result.SignatureValid)
			assert.False(t, result.ChainChecked)
			assert.True(t, result.NotRevoked)
			assert.Empty(t, result.Errors)
			require.Len(t, result.Warnings, 1)
			assert.Contains(t, result.Warnings[0], "nenhuma raiz confiável")

			require.NotNil(t, result.Signer)
			assert.Equal(t, "EMPRESA EXEMPLO LTDA", result.Signer.Name)
			assert.Equal(t, "11222333000181", result.Signer.CNPJ)
			assert.Equal(t, "AC Teste", result.Signer.Issuer)

			require.NotNil(t, result.SignedAt)
			assert.True(t, result.SignedAt.Equal(time.Date(2024, 1, 18, 13, 30, 0, 0, time.UTC)))
		})
	}
}

func TestVerify_SignaturePlacedAfterInfNFe(t *testing.T) {
	leaf := signaturetest.NewLeaf(t, nil, issuerCN)
	data := signedFixture(t, "nfeProc.xml", leaf)

	infEnd := bytes.Index(data, []byte("</infNFe>"))
	sigStart := bytes.Index(data, []byte("Signature"))
	require.Positive(t, infEnd)
	assert.Greater(t, sigStart, infEnd)
}

func TestVerify_TrustedChain(t *testing.T) {
	root := signaturetest.NewRoot(t, "AC Teste")
	leaf := signaturetest.NewLeaf(t, root, issuerCN)
	data := signedFixture(t, "nfeProc.xml", leaf)

	store := trust.NewTrustStore()
	store.AddCertificate(root.Cert)

	result, err := xmldsig.NewVerifier(xmldsig.WithTrustStore(store)).Verify(context.Background(), data)
	require.NoError(t, err)

	assert.True(t, result.Valid, result.Errors)
	assert.True(t, result.ChainChecked)
	assert.True(t, result.CertChainValid)
	assert.Len(t, result.CertChain, 2)
	assert.Empty(t, result.Warnings)
}

func TestVerify_UntrustedChain(t *testing.T) {
	leaf := signaturetest.NewLeaf(t, signaturetest.NewRoot(t, "AC Desconhecida"), issuerCN)
	data := signedFixture(t, "nfeProc.xml", leaf)

	store := trust.NewTrustStore()
	store.AddCertificate(signaturetest.NewRoot(t, "AC Confiável").Cert)

	result, err := xmldsig.NewVerifier(xmldsig.WithTrustStore(store)).Verify(context.Background(), data)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.True(t, result.SignatureValid)
	assert.True(t, result.ChainChecked)
	assert.False(t, result.CertChainValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], signature.ErrCodeChainInvalid)
}

func TestVerify_TamperedContent(t *testing.T) {
	leaf := signaturetest.NewLeaf(t, nil, issuerCN)
	data := signedFixture(t, "nfeProc.xml", leaf)

	tampered := bytes.Replace(data, []byte("<vProd>600.00</vProd>"), []byte("<vProd>700.00</vProd>"), 1)
	require.NotEqual(t, data, tampered)

	result, err := xmldsig.NewVerifier().Verify(context.Background(), tampered)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.True(t, result.SignatureFound)
	assert.False(t, result.SignatureValid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], signature.ErrCodeInvalidSignature)
}

func TestVerify_Unsigned(t *testing.T) {
	result, err := xmldsig.NewVerifier().Verify(context.Background(), fixture(t, "nfeProc.xml"))

	require.Error(t, err)
	assert.True(t, signature.IsNoSignature(err))
	assert.False(t, result.SignatureFound)
	assert.False(t, result.Valid)
}

func TestVerify_CertificateNotValidAtEmission(t *testing.T) {
	leaf := signaturetest.NewLeaf(t, nil, issuerCN, signaturetest.WithValidity(
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	))
	data := signedFixture(t, "nfeProc.xml", leaf)

	result, err := xmldsig.NewVerifier().Verify(context.Background(), data)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.True(t, result.SignatureValid, "integrity is still checked")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], signature.ErrCodeCertNotYetValid)
}

func TestVerify_CertificateExpiredAtEmission(t *testing.T) {
	leaf := signaturetest.NewLeaf(t, nil, issuerCN, signaturetest.WithValidity(
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	))
	data := signedFixture(t, "nfeProc.xml", leaf)

	result, err := xmldsig.NewVerifier().Verify(context.Background(), data)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], signature.ErrCodeCertExpired)
}

func TestVerify_MalformedCertificate(t *testing.T) {
	leaf := signaturetest.NewLeaf(t, nil, issuerCN)
	data := signedFixture(t, "nfeProc.xml", leaf)

	re := regexp.MustCompile(`(<(?:ds:)?X509Certificate>)[^<]+`)
	broken := re.ReplaceAll(data, []byte("${1}AAAA"))

	result, err := xmldsig.NewVerifier().Verify(context.Background(), broken)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.True(t, result.SignatureFound)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], signature.ErrCodeMalformed)
}

func TestVerify_NotNFe(t *testing.T) {
	_, err := xmldsig.NewVerifier().Verify(context.Background(), []byte(`<Invoice><Data/></Invoice>`))
	assert.ErrorIs(t, err, signature.ErrMalformed("", nil))

	_, err = xmldsig.NewVerifier().Verify(context.Background(), []byte(`not xml`))
	assert.Error(t, err)
}

func TestVerify_Revocation(t *testing.T) {
	root := signaturetest.NewRoot(t, "AC Teste")
	leaf := signaturetest.NewLeaf(t, root, issuerCN, signaturetest.WithOCSPServer("http://127.0.0.1:1/ocsp"))
	data := signedFixture(t, "nfeProc.xml", leaf)

	t.Run("responder unreachable", func(t *testing.T) {
		store := trust.NewTrustStore(trust.WithOCSPTimeout(time.Second))
		store.AddCertificate(root.Cert)

		v := xmldsig.NewVerifier(xmldsig.WithTrustStore(store), xmldsig.WithRevocationCheck(true))
		result, err := v.Verify(context.Background(), data)
		require.NoError(t, err)

		assert.False(t, result.Valid)
		assert.False(t, result.NotRevoked)
		assert.Contains(t, result.Errors[0], signature.ErrCodeOCSPUnavailable)
	})

	t.Run("soft fail", func(t *testing.T) {
		store := trust.NewTrustStore(trust.WithOCSPTimeout(time.Second), trust.WithSoftFail())
		store.AddCertificate(root.Cert)

		v := xmldsig.NewVerifier(xmldsig.WithTrustStore(store), xmldsig.WithRevocationCheck(true))
		result, err := v.Verify(context.Background(), data)
		require.NoError(t, err)

		assert.True(t, result.Valid, result.Errors)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], signature.ErrCodeOCSPUnavailable)
	})
}

func TestExtractor(t *testing.T) {
	leaf := signaturetest.NewLeaf(t, nil, issuerCN)
	data := signedFixture(t, "nfeProc.xml", leaf)

	ex, err := xmldsig.NewExtractor().Extract(data)
	require.NoError(t, err)

	assert.Equal(t, "NFe35240111222333000181550010000012341123456784", ex.ID)
	assert.Equal(t, "infNFe", ex.Signed.Tag)
	assert.Equal(t, "Signature", ex.Signature.Tag)

	cert, err := xmldsig.CertificateData(ex.Signature)
	require.NoError(t, err)
	assert.NotEmpty(t, cert)
}

