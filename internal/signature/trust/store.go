// Package trust holds the ICP-Brasil roots an NF-e signing certificate must
// chain to, and checks certificate revocation over OCSP.
package trust

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TrustStore manages trusted root certificates and revocation checking
type TrustStore struct {
	roots       *x509.CertPool
	rootCerts   []*x509.Certificate
	ocspCache   *OCSPCache
	ocspTimeout time.Duration
	httpClient  *http.Client
	softFail    bool
}

// Option configures a TrustStore
type Option func(*TrustStore)

// NewTrustStore creates a store without roots. ICP-Brasil roots are
// published by ITI and loaded with AddCertificatesFromPath.
func NewTrustStore(opts ...Option) *TrustStore {
	store := &TrustStore{
		roots:       x509.NewCertPool(),
		ocspCache:   NewOCSPCache(DefaultOCSPCacheTTL),
		ocspTimeout: DefaultOCSPTimeout,
		httpClient:  http.DefaultClient,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// WithSoftFail makes an unreachable OCSP responder a warning instead of a failure
func WithSoftFail() Option {
	return func(s *TrustStore) {
		s.softFail = true
	}
}

// WithOCSPTimeout bounds each OCSP query
func WithOCSPTimeout(d time.Duration) Option {
	return func(s *TrustStore) {
		if d > 0 {
			s.ocspTimeout = d
		}
	}
}

// WithOCSPCacheTTL sets how long OCSP answers are cached
func WithOCSPCacheTTL(d time.Duration) Option {
	return func(s *TrustStore) {
		s.ocspCache = NewOCSPCache(d)
	}
}

// WithHTTPClient sets the client used for OCSP queries
func WithHTTPClient(c *http.Client) Option {
	return func(s *TrustStore) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// AddCertificate adds a single root
func (s *TrustStore) AddCertificate(cert *x509.Certificate) {
	if cert != nil {
		s.roots.AddCert(cert)
		s.rootCerts = append(s.rootCerts, cert)
	}
}

// AddCertificatesFromPEM parses and adds every CERTIFICATE block
func (s *TrustStore) AddCertificatesFromPEM(pemData []byte) error {
	var added int
	for {
		block, rest := pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return fmt.Errorf("failed to parse certificate: %w", err)
			}
			s.AddCertificate(cert)
			added++
		}
		pemData = rest
	}
	if added == 0 {
		return fmt.Errorf("no certificates found in PEM data")
	}
	return nil
}

// AddCertificatesFromPath loads roots from a file or from every .pem, .crt
// and .cer file of a directory. Files may be PEM or DER encoded.
func (s *TrustStore) AddCertificatesFromPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("trust roots: %w", err)
	}
	if !info.IsDir() {
		return s.addCertificateFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("trust roots: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".pem", ".crt", ".cer":
			if err := s.addCertificateFile(filepath.Join(path, e.Name())); err != nil {
				return err
			}
		}
	}
	if len(s.rootCerts) == 0 {
		return fmt.Errorf("trust roots: no certificates in %s", path)
	}
	return nil
}

func (s *TrustStore) addCertificateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("trust roots: %w", err)
	}
	if block, _ := pem.Decode(data); block != nil {
		if err := s.AddCertificatesFromPEM(data); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	}
	cert, err := x509.ParseCertificate(data)
	if err != nil {
		return fmt.Errorf("%s: failed to parse certificate: %w", path, err)
	}
	s.AddCertificate(cert)
	return nil
}

// Len returns the number of trusted roots
func (s *TrustStore) Len() int {
	return len(s.rootCerts)
}

// VerifyChain verifies cert against the trusted roots as of at. NF-e
// signatures are checked at the emission time, not the current time.
func (s *TrustStore) VerifyChain(cert *x509.Certificate, intermediates []*x509.Certificate, at time.Time) ([]*x509.Certificate, error) {
	if cert == nil {
		return nil, fmt.Errorf("certificate is nil")
	}

	var interPool *x509.CertPool
	if len(intermediates) > 0 {
		interPool = x509.NewCertPool()
		for _, inter := range intermediates {
			interPool.AddCert(inter)
		}
	}

	chains, err := cert.Verify(x509.VerifyOptions{
		Roots:         s.roots,
		Intermediates: interPool,
		CurrentTime:   at,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		return nil, err
	}
	if len(chains) == 0 {
		return nil, fmt.Errorf("no valid certificate chains found")
	}

	return chains[0], nil
}

// CheckRevocation asks the certificate's OCSP responders whether it was
// revoked. Certificates without a responder are reported as not revoked.
func (s *TrustStore) CheckRevocation(ctx context.Context, cert, issuer *x509.Certificate) (notRevoked bool, err error) {
	if cert == nil || issuer == nil {
		return false, fmt.Errorf("certificate or issuer is nil")
	}
	if len(cert.OCSPServer) == 0 {
		return true, nil
	}
	if ans, ok := s.ocspCache.Lookup(cert); ok {
		return !ans.Revoked, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.ocspTimeout)
	defer cancel()

	ans, err := QueryOCSP(ctx, s.httpClient, cert, issuer)
	if err != nil {
		return false, err
	}
	s.ocspCache.Store(cert, ans)
	return !ans.Revoked, nil
}

// IsSoftFail reports whether OCSP failures are tolerated
func (s *TrustStore) IsSoftFail() bool {
	return s.softFail
}
