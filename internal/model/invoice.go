package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Layout identifies the XML envelope an NF-e was delivered in
type Layout string

const (
	LayoutProc    Layout = "nfeProc" // authorized NF-e with protocol
	LayoutNFe     Layout = "NFe"     // signed NF-e without protocol
	LayoutUnknown Layout = "unknown"
)

// Document models (mod) carried in the access key
const (
	ModelNFe  = "55"
	ModelNFCe = "65"
)

// Invoice represents a parsed NF-e or NFC-e
type Invoice struct {
	AccessKey    string
	Model        string
	Series       string
	Number       string
	IssuedAt     time.Time
	EmissionType string
	Layout       Layout

	Issuer    Party
	Recipient Party

	Items  []Item
	Totals Totals

	Protocol *Protocol
	RawXML   []byte
}

// Party is the issuer (emit) or recipient (dest) of an NF-e
type Party struct {
	Name         string
	CNPJ         string
	CPF          string
	UF           string
	Municipality string
}

// Document returns the CNPJ when present, otherwise the CPF
func (p Party) Document() string {
	if p.CNPJ != "" {
		return p.CNPJ
	}
	return p.CPF
}

// Item is one det/prod entry
type Item struct {
	Number      int
	Code        string
	Description string
	NCM         string
	CFOP        string
	Unit        string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal // vProd
}

// Totals mirrors total/ICMSTot
type Totals struct {
	Products decimal.Decimal
	Freight  decimal.Decimal
	ICMS     decimal.Decimal
	IPI      decimal.Decimal
	PIS      decimal.Decimal
	COFINS   decimal.Decimal
	Invoice  decimal.Decimal
}

// Protocol is the SEFAZ authorization attached to nfeProc
type Protocol struct {
	Number     string
	Status     string
	Reason     string
	ReceivedAt time.Time
}

// ItemsTotal sums the item amounts
func (inv *Invoice) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.Amount)
	}
	return total
}

// Authorized reports whether the invoice carries an accepted protocol (cStat 100)
func (inv *Invoice) Authorized() bool {
	return inv.Protocol != nil && inv.Protocol.Status == "100"
}
