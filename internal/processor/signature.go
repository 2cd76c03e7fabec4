package processor

import (
	"context"

	"go.uber.org/zap"

	"github.com/rezonia/fiscal-br/internal/document"
	"github.com/rezonia/fiscal-br/internal/model"
	"github.com/rezonia/fiscal-br/internal/signature"
)

// cnpjBaseLength is the company root shared by every branch of a CNPJ
const cnpjBaseLength = 8

// verifySignature folds the signature outcome into the report. The signing
// e-CNPJ must share the CNPJ base of the issuer: branches may sign with the
// head office certificate.
func (p *Pipeline) verifySignature(ctx context.Context, data []byte, inv *model.Invoice, r *Report) *signature.VerificationResult {
	res, err := p.verifier.Verify(ctx, data)
	if err != nil {
		if signature.IsNoSignature(err) {
			r.warn(p.strict, "NF-e sem assinatura digital")
		} else {
			r.fail("assinatura: %v", err)
		}
		p.logger.Debug("nfe signature not verified", zap.Error(err))
		return res
	}

	for _, e := range res.Errors {
		r.fail("assinatura: %s", e)
	}
	for _, w := range res.Warnings {
		r.warn(p.strict, "assinatura: %s", w)
	}

	if res.Signer == nil || inv.Issuer.CNPJ == "" {
		return res
	}
	signer := res.Signer.CNPJ
	issuer := document.Clean(inv.Issuer.CNPJ)
	switch {
	case signer == "":
		r.warn(p.strict, "certificado de assinatura sem CNPJ do titular")
	case len(issuer) == document.CNPJLength && signer[:cnpjBaseLength] != issuer[:cnpjBaseLength]:
		r.fail("CNPJ base do certificado (%s) difere do CNPJ base do emitente (%s)",
			signer[:cnpjBaseLength], issuer[:cnpjBaseLength])
	}

	return res
}
