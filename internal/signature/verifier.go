// Package signature verifies the XMLDSig signature that every NF-e carries:
// the digest over infNFe, the signing e-CNPJ certificate, its chain to a
// trusted ICP-Brasil root and, optionally, its revocation status.
package signature

import "context"

// Verifier checks the digital signature of an NF-e document
type Verifier interface {
	// Verify returns the detailed outcome. A document without a signature
	// yields a result with SignatureFound false and ErrNoSignature.
	Verify(ctx context.Context, data []byte) (*VerificationResult, error)
}
