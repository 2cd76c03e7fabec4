// Package nfe parses NF-e and NFC-e XML documents (layout 4.00) into
// model.Invoice. Element matching ignores namespaces, so documents with or
// without the portalfiscal namespace declaration parse the same way.
package nfe

import (
	"bytes"
	"context"
	"io"

	"github.com/rezonia/fiscal-br/internal/model"
)

// Adapter parses one XML envelope into Invoice
type Adapter interface {
	// Parse parses XML content into Invoice
	Parse(ctx context.Context, r io.Reader) (*model.Invoice, error)

	// CanParse returns true if adapter can handle this content
	CanParse(content []byte) bool

	// Layout returns the envelope handled by the adapter
	Layout() model.Layout
}

// Registry holds all registered adapters
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates registry with all adapters.
// nfeProc wraps an NFe element, so it must be tried first.
func NewRegistry() *Registry {
	return &Registry{
		adapters: []Adapter{
			NewProcAdapter(),
			NewNFeAdapter(),
		},
	}
}

// Detect identifies the envelope from XML content
func (r *Registry) Detect(content []byte) (Adapter, error) {
	for _, a := range r.adapters {
		if a.CanParse(content) {
			return a, nil
		}
	}
	return nil, model.NewParseError(model.LayoutUnknown, "root", "unknown XML format, expected nfeProc or NFe", nil)
}

// Parse parses XML using appropriate adapter
func (r *Registry) Parse(ctx context.Context, content []byte) (*model.Invoice, error) {
	adapter, err := r.Detect(content)
	if err != nil {
		return nil, err
	}
	return adapter.Parse(ctx, bytes.NewReader(content))
}

// RegisterAdapter adds a custom adapter to the registry
func (r *Registry) RegisterAdapter(a Adapter) {
	// custom adapters take priority
	r.adapters = append([]Adapter{a}, r.adapters...)
}

// GetAdapter returns adapter for a specific layout
func (r *Registry) GetAdapter(layout model.Layout) Adapter {
	for _, a := range r.adapters {
		if a.Layout() == layout {
			return a
		}
	}
	return nil
}

// hasElement reports whether content opens an element with the given local
// name, prefixed or not.
func hasElement(content []byte, local string) bool {
	return bytes.Contains(content, []byte("<"+local+">")) ||
		bytes.Contains(content, []byte("<"+local+" ")) ||
		bytes.Contains(content, []byte(":"+local+">")) ||
		bytes.Contains(content, []byte(":"+local+" "))
}
