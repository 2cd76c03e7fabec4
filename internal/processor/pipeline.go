// Package processor runs NF-e documents through parsing, structural
// validation and, when a verifier is configured, signature verification.
package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/rezonia/fiscal-br/internal/model"
	"github.com/rezonia/fiscal-br/internal/parser/nfe"
	"github.com/rezonia/fiscal-br/internal/signature"
)

// Format of an input document
type Format int

const (
	FormatUnknown Format = iota
	FormatXML
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	default:
		return "unknown"
	}
}

// Result holds the outcome of processing one document
type Result struct {
	Invoice  *model.Invoice
	Layout   model.Layout
	Report   *Report
	Warnings []string
	Error    error

	// Signature is set when the pipeline verifies signatures
	Signature *signature.VerificationResult
}

// Pipeline parses and validates NF-e documents
type Pipeline struct {
	registry *nfe.Registry
	verifier signature.Verifier
	logger   *zap.Logger
	strict   bool
}

// Option configures Pipeline
type Option func(*Pipeline)

// WithRegistry replaces the default adapter registry
func WithRegistry(r *nfe.Registry) Option {
	return func(p *Pipeline) {
		p.registry = r
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithStrict promotes warnings (unknown CFOP, missing recipient, missing
// date) to errors.
func WithStrict(strict bool) Option {
	return func(p *Pipeline) {
		p.strict = strict
	}
}

// WithSignatureVerifier enables XMLDSig verification of every document
func WithSignatureVerifier(v signature.Verifier) Option {
	return func(p *Pipeline) {
		p.verifier = v
	}
}

// NewPipeline creates a pipeline with the default NF-e adapters
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		registry: nfe.NewRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessXML reads r fully and processes it
func (p *Pipeline) ProcessXML(ctx context.Context, r io.Reader) *Result {
	data, err := io.ReadAll(r)
	if err != nil {
		return &Result{Error: fmt.Errorf("read failed: %w", err)}
	}
	return p.ProcessXMLBytes(ctx, data)
}

// ProcessXMLBytes parses data as an NF-e and validates it
func (p *Pipeline) ProcessXMLBytes(ctx context.Context, data []byte) *Result {
	if err := ctx.Err(); err != nil {
		return &Result{Error: err}
	}

	if DetectFormat(data) != FormatXML {
		return &Result{Error: fmt.Errorf("XML parsing failed: input is not XML")}
	}

	inv, err := p.registry.Parse(ctx, data)
	if err != nil {
		p.logger.Debug("nfe parse failed", zap.Error(err))
		return &Result{Error: fmt.Errorf("XML parsing failed: %w", err)}
	}

	report := Validate(inv, p.strict)

	var sig *signature.VerificationResult
	if p.verifier != nil {
		sig = p.verifySignature(ctx, data, inv, report)
	}

	p.logger.Debug("nfe validated",
		zap.String("access_key", inv.AccessKey),
		zap.String("layout", string(inv.Layout)),
		zap.Bool("valid", report.Valid),
		zap.Int("errors", len(report.Errors)),
		zap.Int("warnings", len(report.Warnings)),
	)

	return &Result{
		Invoice:   inv,
		Layout:    inv.Layout,
		Report:    report,
		Signature: sig,
	}
}

// DetectFormat sniffs the input. Only XML is accepted.
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n\xef\xbb\xbf")
	if len(trimmed) == 0 {
		return FormatUnknown
	}
	if bytes.HasPrefix(trimmed, []byte("<?xml")) || trimmed[0] == '<' {
		return FormatXML
	}
	return FormatUnknown
}
