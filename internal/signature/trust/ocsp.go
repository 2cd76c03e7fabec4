package trust

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ocsp"
)

// OCSP defaults
const (
	DefaultOCSPTimeout  = 10 * time.Second
	DefaultOCSPCacheTTL = 1 * time.Hour

	// requests up to this size go in the URL (RFC 6960 appendix A.1)
	maxGETRequestSize = 255
	maxResponseSize   = 1 << 20
)

// Answer is a responder's verdict on one certificate
type Answer struct {
	Revoked    bool
	RevokedAt  time.Time
	NextUpdate time.Time
}

// OCSPCache keeps answers until the responder's NextUpdate or the cache TTL,
// whichever comes first.
type OCSPCache struct {
	mu      sync.Mutex
	answers map[string]cachedAnswer
	ttl     time.Duration
	now     func() time.Time
}

type cachedAnswer struct {
	Answer
	until time.Time
}

// NewOCSPCache creates a cache whose entries live at most ttl
func NewOCSPCache(ttl time.Duration) *OCSPCache {
	return &OCSPCache{
		answers: make(map[string]cachedAnswer),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Lookup returns the live answer for cert
func (c *OCSPCache) Lookup(cert *x509.Certificate) (Answer, bool) {
	if cert == nil {
		return Answer{}, false
	}
	key := fingerprint(cert)

	c.mu.Lock()
	defer c.mu.Unlock()
	cached, ok := c.answers[key]
	if !ok {
		return Answer{}, false
	}
	if c.now().After(cached.until) {
		delete(c.answers, key)
		return Answer{}, false
	}
	return cached.Answer, true
}

// Store records ans for cert
func (c *OCSPCache) Store(cert *x509.Certificate, ans Answer) {
	if cert == nil {
		return
	}
	until := c.now().Add(c.ttl)
	if !ans.NextUpdate.IsZero() && ans.NextUpdate.Before(until) {
		until = ans.NextUpdate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictExpired()
	c.answers[fingerprint(cert)] = cachedAnswer{Answer: ans, until: until}
}

// evictExpired drops stale answers. Callers hold c.mu.
func (c *OCSPCache) evictExpired() {
	now := c.now()
	for key, cached := range c.answers {
		if now.After(cached.until) {
			delete(c.answers, key)
		}
	}
}

// Len returns the number of cached answers not yet evicted
func (c *OCSPCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.answers)
}

func fingerprint(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(sum[:])
}

// QueryOCSP asks each responder listed in cert, in order, until one gives a
// definite answer.
func QueryOCSP(ctx context.Context, client *http.Client, cert, issuer *x509.Certificate) (Answer, error) {
	if len(cert.OCSPServer) == 0 {
		return Answer{}, errors.New("certificate lists no OCSP responder")
	}

	der, err := ocsp.CreateRequest(cert, issuer, &ocsp.RequestOptions{Hash: crypto.SHA1})
	if err != nil {
		return Answer{}, fmt.Errorf("build OCSP request: %w", err)
	}

	var errs []error
	for _, responder := range cert.OCSPServer {
		ans, err := askResponder(ctx, client, responder, der, cert, issuer)
		if err == nil {
			return ans, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", responder, err))
	}
	return Answer{}, errors.Join(errs...)
}

func askResponder(ctx context.Context, client *http.Client, responder string, der []byte, cert, issuer *x509.Certificate) (Answer, error) {
	req, err := newOCSPRequest(ctx, responder, der)
	if err != nil {
		return Answer{}, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return Answer{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Answer{}, fmt.Errorf("responder returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Answer{}, err
	}

	parsed, err := ocsp.ParseResponseForCert(body, cert, issuer)
	if err != nil {
		return Answer{}, fmt.Errorf("parse OCSP response: %w", err)
	}

	switch parsed.Status {
	case ocsp.Good:
		return Answer{NextUpdate: parsed.NextUpdate}, nil
	case ocsp.Revoked:
		return Answer{Revoked: true, RevokedAt: parsed.RevokedAt, NextUpdate: parsed.NextUpdate}, nil
	default:
		return Answer{}, errors.New("responder does not know the certificate")
	}
}

// newOCSPRequest uses GET for small requests so responses can be cached by
// intermediaries, POST otherwise.
func newOCSPRequest(ctx context.Context, responder string, der []byte) (*http.Request, error) {
	encoded := base64.StdEncoding.EncodeToString(der)
	if len(encoded) <= maxGETRequestSize {
		target := strings.TrimSuffix(responder, "/") + "/" + url.PathEscape(encoded)
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responder, bytes.NewReader(der))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/ocsp-request")
	req.Header.Set("Accept", "application/ocsp-response")
	return req, nil
}
