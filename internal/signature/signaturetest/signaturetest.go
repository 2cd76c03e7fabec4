// Package signaturetest builds certificates and signed NF-e documents for
// tests.
package signaturetest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
	"github.com/stretchr/testify/require"
)

var serial atomic.Int64

// Cert is a certificate with its private key. It satisfies
// goxmldsig's X509KeyStore.
type Cert struct {
	Cert *x509.Certificate
	Key  *rsa.PrivateKey
}

// GetKeyPair returns the key and the DER certificate
func (c *Cert) GetKeyPair() (*rsa.PrivateKey, []byte, error) {
	return c.Key, c.Cert.Raw, nil
}

// PEM encodes the certificate
func (c *Cert) PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: c.Cert.Raw})
}

// CertOption adjusts a certificate template
type CertOption func(*x509.Certificate)

// WithValidity sets the validity window
func WithValidity(from, to time.Time) CertOption {
	return func(t *x509.Certificate) {
		t.NotBefore = from
		t.NotAfter = to
	}
}

// WithOCSPServer adds an OCSP responder URL
func WithOCSPServer(url string) CertOption {
	return func(t *x509.Certificate) {
		t.OCSPServer = append(t.OCSPServer, url)
	}
}

// WithCNPJAltName adds the ICP-Brasil otherName (2.16.76.1.3.3) carrying cnpj
func WithCNPJAltName(cnpj string) CertOption {
	return func(t *x509.Certificate) {
		value, _ := asn1.Marshal(cnpj)
		wrapped, _ := asn1.Marshal(asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: value})
		oid, _ := asn1.Marshal(asn1.ObjectIdentifier{2, 16, 76, 1, 3, 3})
		otherName, _ := asn1.Marshal(asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: append(oid, wrapped...)})
		names, _ := asn1.Marshal(asn1.RawValue{Class: asn1.ClassUniversal, Tag: asn1.TagSequence, IsCompound: true, Bytes: otherName})

		t.ExtraExtensions = append(t.ExtraExtensions, pkix.Extension{
			Id:    asn1.ObjectIdentifier{2, 5, 29, 17},
			Value: names,
		})
	}
}

// NewRoot creates a self-signed CA valid from 2020 to 2040
func NewRoot(t testing.TB, cn string) *Cert {
	t.Helper()
	return newCert(t, nil, cn, true)
}

// NewLeaf creates an end-entity certificate issued by issuer, or self-signed
// when issuer is nil. It is valid from 2020 to 2040 unless overridden.
func NewLeaf(t testing.TB, issuer *Cert, cn string, opts ...CertOption) *Cert {
	t.Helper()
	return newCert(t, issuer, cn, false, opts...)
}

func newCert(t testing.TB, issuer *Cert, cn string, isCA bool, opts ...CertOption) *Cert {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(serial.Add(1)),
		Subject:               pkix.Name{CommonName: cn, Organization: []string{"ICP-Brasil"}},
		NotBefore:             time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:              time.Date(2040, 1, 1, 0, 0, 0, 0, time.UTC),
		BasicConstraintsValid: true,
		IsCA:                  isCA,
		KeyUsage:              x509.KeyUsageDigitalSignature,
	}
	if isCA {
		template.KeyUsage |= x509.KeyUsageCertSign | x509.KeyUsageCRLSign
	}
	for _, opt := range opts {
		opt(template)
	}

	parent, signer := template, key
	if issuer != nil {
		parent, signer = issuer.Cert, issuer.Key
	}

	der, err := x509.CreateCertificate(rand.Reader, template, parent, &key.PublicKey, signer)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return &Cert{Cert: cert, Key: key}
}

// SignNFe signs the infNFe element of an NFe or nfeProc document the way
// NF-e emitters do: inclusive C14N, enveloped transform, and the Signature
// placed right after infNFe inside NFe.
func SignNFe(t testing.TB, data []byte, signer *Cert) []byte {
	t.Helper()

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(data))

	inf := doc.FindElement("//infNFe")
	require.NotNil(t, inf, "infNFe not found")

	detached := inf.Copy()
	if detached.SelectAttr("xmlns") == nil {
		detached.CreateAttr("xmlns", inf.NamespaceURI())
	}

	ctx := dsig.NewDefaultSigningContext(signer)
	ctx.IdAttribute = "Id"
	ctx.Canonicalizer = dsig.MakeC14N10RecCanonicalizer()

	signed, err := ctx.SignEnveloped(detached)
	require.NoError(t, err)

	children := signed.ChildElements()
	sig := children[len(children)-1]
	require.Equal(t, "Signature", sig.Tag)

	inf.Parent().InsertChildAt(inf.Index()+1, sig.Copy())

	out, err := doc.WriteToBytes()
	require.NoError(t, err)
	return out
}
