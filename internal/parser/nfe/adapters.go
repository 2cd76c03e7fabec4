package nfe

import (
	"context"
	"encoding/xml"
	"io"

	"github.com/rezonia/fiscal-br/internal/model"
)

// ProcAdapter parses authorized documents (nfeProc = NFe + protNFe)
type ProcAdapter struct{}

// NewProcAdapter creates a new nfeProc adapter
func NewProcAdapter() *ProcAdapter {
	return &ProcAdapter{}
}

// Layout returns the envelope type
func (a *ProcAdapter) Layout() model.Layout {
	return model.LayoutProc
}

// CanParse checks for an nfeProc root
func (a *ProcAdapter) CanParse(content []byte) bool {
	return hasElement(content, "nfeProc")
}

// Parse parses nfeProc XML into Invoice
func (a *ProcAdapter) Parse(ctx context.Context, r io.Reader) (*model.Invoice, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewParseError(model.LayoutProc, "content", "failed to read content", err)
	}

	var doc procDoc
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, model.NewParseError(model.LayoutProc, "xml", "failed to parse XML", err)
	}

	inv, err := convertInfNFe(&doc.NFe.InfNFe, model.LayoutProc, content)
	if err != nil {
		return nil, err
	}

	inv.Protocol = convertProtocol(doc.ProtNFe)
	if inv.AccessKey == "" && doc.ProtNFe != nil {
		inv.AccessKey = doc.ProtNFe.InfProt.ChNFe
	}

	return inv, nil
}

// NFeAdapter parses a bare signed NFe element
type NFeAdapter struct{}

// NewNFeAdapter creates a new NFe adapter
func NewNFeAdapter() *NFeAdapter {
	return &NFeAdapter{}
}

// Layout returns the envelope type
func (a *NFeAdapter) Layout() model.Layout {
	return model.LayoutNFe
}

// CanParse checks for an NFe root
func (a *NFeAdapter) CanParse(content []byte) bool {
	return hasElement(content, "NFe")
}

// Parse parses NFe XML into Invoice
func (a *NFeAdapter) Parse(ctx context.Context, r io.Reader) (*model.Invoice, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewParseError(model.LayoutNFe, "content", "failed to read content", err)
	}

	var doc nfeDoc
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, model.NewParseError(model.LayoutNFe, "xml", "failed to parse XML", err)
	}

	return convertInfNFe(&doc.InfNFe, model.LayoutNFe, content)
}
