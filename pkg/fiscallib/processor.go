package fiscallib

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rezonia/fiscal-br/internal/model"
	"github.com/rezonia/fiscal-br/internal/processor"
	"github.com/rezonia/fiscal-br/internal/registry"
	"github.com/rezonia/fiscal-br/internal/signature"
	"github.com/rezonia/fiscal-br/internal/signature/xmldsig"
	"github.com/rezonia/fiscal-br/internal/tools"
)

// Catalog is the set of callable fiscal tools
type Catalog = tools.Catalog

// Tool describes one callable tool and its input schema
type Tool = tools.Tool

// Options configures the validator and the tool catalog
type Options struct {
	// Strict turns NF-e validation warnings into errors
	Strict bool

	// VerifySignature checks the XMLDSig over infNFe. TrustRoots, a
	// certificate file or directory, adds chain validation.
	VerifySignature bool
	TrustRoots      string

	// Registry consultation used by consultar_cnpj
	RegistryBaseURL string        // default: https://receitaws.com.br/v1
	RegistryTimeout time.Duration // default: 10s

	// CallTimeout bounds a single tool call; zero disables it
	CallTimeout time.Duration

	Logger *zap.Logger
}

// DefaultOptions returns default options
func DefaultOptions() Options {
	return Options{
		RegistryBaseURL: registry.DefaultBaseURL,
		RegistryTimeout: 10 * time.Second,
	}
}

// ValidationResult is the outcome of validating one NF-e document
type ValidationResult struct {
	Invoice   *Invoice
	Layout    Layout
	Report    *Report
	Signature *SignatureResult // nil unless VerifySignature is set
}

// SignatureResult is the outcome of a signature verification
type SignatureResult = signature.VerificationResult

// Validator validates NF-e XML documents
type Validator struct {
	pipeline *processor.Pipeline
}

// NewValidator creates an NF-e validator. It fails only when TrustRoots
// cannot be loaded.
func NewValidator(opts Options) (*Validator, error) {
	pipelineOpts := []processor.Option{
		processor.WithLogger(opts.Logger),
		processor.WithStrict(opts.Strict),
	}
	if opts.VerifySignature {
		verifier, err := xmldsig.NewVerifierFromConfig(xmldsig.Config{
			TrustRoots: opts.TrustRoots,
			Logger:     opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		pipelineOpts = append(pipelineOpts, processor.WithSignatureVerifier(verifier))
	}
	return &Validator{pipeline: processor.NewPipeline(pipelineOpts...)}, nil
}

// NewDefaultValidator creates a validator with default options
func NewDefaultValidator() *Validator {
	v, _ := NewValidator(DefaultOptions())
	return v
}

// ValidateNFe parses an nfeProc or NFe document and checks it. A document
// that cannot be parsed yields an error; one that parses but breaks the
// rules yields a Report with Valid false.
func (v *Validator) ValidateNFe(ctx context.Context, r io.Reader) (*ValidationResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &model.ParseError{Message: "failed to read input", Cause: err}
	}

	result := v.pipeline.ProcessXMLBytes(ctx, data)
	if result.Error != nil {
		return nil, result.Error
	}

	return &ValidationResult{
		Invoice:   result.Invoice,
		Layout:    result.Layout,
		Report:    result.Report,
		Signature: result.Signature,
	}, nil
}

// NewCatalog creates the tool catalog with every built-in tool registered
func NewCatalog(opts Options) *Catalog {
	var clientOpts []registry.ClientOption
	if opts.RegistryBaseURL != "" {
		clientOpts = append(clientOpts, registry.WithBaseURL(opts.RegistryBaseURL))
	}
	if opts.RegistryTimeout > 0 {
		clientOpts = append(clientOpts, registry.WithHTTPClient(&http.Client{Timeout: opts.RegistryTimeout}))
	}

	return tools.NewCatalog(
		tools.WithRegistryClient(registry.NewHTTPClient(clientOpts...)),
		tools.WithLogger(opts.Logger),
		tools.WithCallTimeout(opts.CallTimeout),
	)
}
