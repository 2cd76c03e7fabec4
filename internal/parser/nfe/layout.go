package nfe

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/fiscal-br/internal/model"
)

// NF-e 4.00 XML structures. Only the groups the validator reads are mapped.
type nfeDoc struct {
	XMLName xml.Name `xml:"NFe"`
	InfNFe  infNFe   `xml:"infNFe"`
}

type procDoc struct {
	XMLName xml.Name `xml:"nfeProc"`
	Version string   `xml:"versao,attr"`
	NFe     nfeDoc   `xml:"NFe"`
	ProtNFe *protNFe `xml:"protNFe"`
}

type protNFe struct {
	InfProt infProt `xml:"infProt"`
}

type infProt struct {
	ChNFe    string `xml:"chNFe"`
	DhRecbto string `xml:"dhRecbto"`
	NProt    string `xml:"nProt"`
	CStat    string `xml:"cStat"`
	XMotivo  string `xml:"xMotivo"`
}

type infNFe struct {
	ID      string    `xml:"Id,attr"`
	Version string    `xml:"versao,attr"`
	Ide     nfeIde    `xml:"ide"`
	Emit    nfeParty  `xml:"emit"`
	Dest    *nfeParty `xml:"dest"`
	Det     []nfeDet  `xml:"det"`
	Total   nfeTotal  `xml:"total"`
}

type nfeIde struct {
	CUF    string `xml:"cUF"`
	CNF    string `xml:"cNF"`
	Mod    string `xml:"mod"`
	Serie  string `xml:"serie"`
	NNF    string `xml:"nNF"`
	DhEmi  string `xml:"dhEmi"`
	DEmi   string `xml:"dEmi"`
	TpEmis string `xml:"tpEmis"`
	CDV    string `xml:"cDV"`
}

type nfeParty struct {
	CNPJ      string      `xml:"CNPJ"`
	CPF       string      `xml:"CPF"`
	XNome     string      `xml:"xNome"`
	EnderEmit *nfeAddress `xml:"enderEmit"`
	EnderDest *nfeAddress `xml:"enderDest"`
}

type nfeAddress struct {
	XMun string `xml:"xMun"`
	UF   string `xml:"UF"`
}

type nfeDet struct {
	NItem int     `xml:"nItem,attr"`
	Prod  nfeProd `xml:"prod"`
}

type nfeProd struct {
	CProd  string `xml:"cProd"`
	XProd  string `xml:"xProd"`
	NCM    string `xml:"NCM"`
	CFOP   string `xml:"CFOP"`
	UCom   string `xml:"uCom"`
	QCom   string `xml:"qCom"`
	VUnCom string `xml:"vUnCom"`
	VProd  string `xml:"vProd"`
}

type nfeTotal struct {
	ICMSTot icmsTot `xml:"ICMSTot"`
}

type icmsTot struct {
	VProd   string `xml:"vProd"`
	VFrete  string `xml:"vFrete"`
	VICMS   string `xml:"vICMS"`
	VIPI    string `xml:"vIPI"`
	VPIS    string `xml:"vPIS"`
	VCOFINS string `xml:"vCOFINS"`
	VNF     string `xml:"vNF"`
}

// convertInfNFe maps the infNFe group onto the domain model
func convertInfNFe(inf *infNFe, layout model.Layout, rawXML []byte) (*model.Invoice, error) {
	if inf.ID == "" && inf.Ide.NNF == "" {
		return nil, model.NewParseError(layout, "infNFe", "missing infNFe group", nil)
	}

	result := &model.Invoice{
		AccessKey:    strings.TrimPrefix(strings.TrimSpace(inf.ID), "NFe"),
		Model:        strings.TrimSpace(inf.Ide.Mod),
		Series:       strings.TrimSpace(inf.Ide.Serie),
		Number:       strings.TrimSpace(inf.Ide.NNF),
		EmissionType: strings.TrimSpace(inf.Ide.TpEmis),
		Layout:       layout,
		RawXML:       rawXML,
	}

	emitted := inf.Ide.DhEmi
	if emitted == "" {
		emitted = inf.Ide.DEmi
	}
	if date, err := parseDate(emitted); err == nil {
		result.IssuedAt = date
	}

	result.Issuer = convertParty(&inf.Emit)
	if inf.Dest != nil {
		result.Recipient = convertParty(inf.Dest)
	}

	for _, det := range inf.Det {
		result.Items = append(result.Items, convertItem(det))
	}

	tot := inf.Total.ICMSTot
	result.Totals = model.Totals{
		Products: parseAmount(tot.VProd),
		Freight:  parseAmount(tot.VFrete),
		ICMS:     parseAmount(tot.VICMS),
		IPI:      parseAmount(tot.VIPI),
		PIS:      parseAmount(tot.VPIS),
		COFINS:   parseAmount(tot.VCOFINS),
		Invoice:  parseAmount(tot.VNF),
	}

	return result, nil
}

func convertParty(p *nfeParty) model.Party {
	party := model.Party{
		Name: strings.TrimSpace(p.XNome),
		CNPJ: strings.TrimSpace(p.CNPJ),
		CPF:  strings.TrimSpace(p.CPF),
	}

	addr := p.EnderEmit
	if addr == nil {
		addr = p.EnderDest
	}
	if addr != nil {
		party.UF = strings.ToUpper(strings.TrimSpace(addr.UF))
		party.Municipality = strings.TrimSpace(addr.XMun)
	}

	return party
}

func convertItem(det nfeDet) model.Item {
	prod := det.Prod
	return model.Item{
		Number:      det.NItem,
		Code:        strings.TrimSpace(prod.CProd),
		Description: strings.TrimSpace(prod.XProd),
		NCM:         strings.TrimSpace(prod.NCM),
		CFOP:        strings.TrimSpace(prod.CFOP),
		Unit:        strings.TrimSpace(prod.UCom),
		Quantity:    parseAmount(prod.QCom),
		UnitPrice:   parseAmount(prod.VUnCom),
		Amount:      parseAmount(prod.VProd),
	}
}

func convertProtocol(prot *protNFe) *model.Protocol {
	if prot == nil {
		return nil
	}
	p := &model.Protocol{
		Number: strings.TrimSpace(prot.InfProt.NProt),
		Status: strings.TrimSpace(prot.InfProt.CStat),
		Reason: strings.TrimSpace(prot.InfProt.XMotivo),
	}
	if ts, err := parseDate(prot.InfProt.DhRecbto); err == nil {
		p.ReceivedAt = ts
	}
	return p
}

// parseAmount reads an NF-e decimal field; empty or malformed values are zero
func parseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseDate accepts the dhEmi (4.00) and dEmi (2.00/3.10) formats
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
