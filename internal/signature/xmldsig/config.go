package xmldsig

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rezonia/fiscal-br/internal/signature/trust"
)

// Config describes a verifier built from application settings
type Config struct {
	// TrustRoots is a certificate file or directory; empty skips chain checks
	TrustRoots      string
	CheckRevocation bool
	SoftFail        bool
	OCSPTimeout     time.Duration
	Logger          *zap.Logger
}

// NewVerifierFromConfig loads the trust roots and returns a ready verifier
func NewVerifierFromConfig(cfg Config) (*Verifier, error) {
	opts := []Option{
		WithLogger(cfg.Logger),
		WithRevocationCheck(cfg.CheckRevocation),
	}

	if cfg.TrustRoots != "" {
		storeOpts := []trust.Option{trust.WithOCSPTimeout(cfg.OCSPTimeout)}
		if cfg.SoftFail {
			storeOpts = append(storeOpts, trust.WithSoftFail())
		}
		store := trust.NewTrustStore(storeOpts...)
		if err := store.AddCertificatesFromPath(cfg.TrustRoots); err != nil {
			return nil, fmt.Errorf("load trust roots: %w", err)
		}
		opts = append(opts, WithTrustStore(store))
	} else if cfg.CheckRevocation {
		return nil, fmt.Errorf("revocation check requires trust roots")
	}

	return NewVerifier(opts...), nil
}
