package tools

import (
	money "github.com/rezonia/fiscal-br/internal/decimal"
	"github.com/rezonia/fiscal-br/internal/document"
	"github.com/rezonia/fiscal-br/internal/registry"
	"github.com/rezonia/fiscal-br/internal/tables"
	"github.com/rezonia/fiscal-br/internal/tax"
)

// DocumentPayload is returned by validar_cpf and validar_cnpj
type DocumentPayload struct {
	Valido    bool   `json:"valido"`
	Formatado string `json:"formatado"`
	Erro      string `json:"erro,omitempty"`
}

func documentPayload(r document.Result) DocumentPayload {
	p := DocumentPayload{Valido: r.Valid, Formatado: r.Formatted}
	if r.Err != nil {
		p.Erro = r.Err.Error()
	}
	return p
}

// AccessKeyPayload is returned by validar_chave_nfe
type AccessKeyPayload struct {
	Valido   bool              `json:"valido"`
	Erro     string            `json:"erro,omitempty"`
	Detalhes *AccessKeyDetails `json:"detalhes,omitempty"`
}

// AccessKeyDetails is the decomposed key
type AccessKeyDetails struct {
	UF                string `json:"uf"`
	UFSigla           string `json:"uf_sigla,omitempty"`
	DataEmissao       string `json:"dataEmissao"`
	CNPJEmitente      string `json:"cnpjEmitente"`
	Modelo            string `json:"modelo"`
	Serie             string `json:"serie"`
	Numero            string `json:"numero"`
	TipoEmissao       string `json:"tipoEmissao"`
	CodigoNumerico    string `json:"codigoNumerico"`
	DigitoVerificador string `json:"digitoVerificador"`
}

func accessKeyPayload(r document.KeyResult) AccessKeyPayload {
	if !r.Valid {
		p := AccessKeyPayload{}
		if r.Err != nil {
			p.Erro = r.Err.Error()
		}
		return p
	}
	k := r.Details
	return AccessKeyPayload{
		Valido: true,
		Detalhes: &AccessKeyDetails{
			UF:                k.UF,
			UFSigla:           k.UFAbbrev,
			DataEmissao:       k.Emission,
			CNPJEmitente:      k.IssuerCNPJ,
			Modelo:            k.Model,
			Serie:             k.Series,
			Numero:            k.Number,
			TipoEmissao:       k.EmissionType,
			CodigoNumerico:    k.NumericCode,
			DigitoVerificador: k.CheckDigit,
		},
	}
}

// ICMSPayload is returned by calcular_icms
type ICMSPayload struct {
	Aliquota     float64       `json:"aliquota"`
	ValorICMS    float64       `json:"valor_icms"`
	TipoOperacao string        `json:"tipo_operacao"`
	Difal        *DifalPayload `json:"difal,omitempty"`
}

// DifalPayload is the destination rate differential
type DifalPayload struct {
	AliquotaInterestadual float64 `json:"aliquota_interestadual"`
	AliquotaInterna       float64 `json:"aliquota_interna"`
	ValorDifal            float64 `json:"valor_difal"`
}

func icmsPayload(r tax.ICMSResult) ICMSPayload {
	p := ICMSPayload{
		Aliquota:     money.Float(r.Rate),
		ValorICMS:    money.Float(r.Amount),
		TipoOperacao: string(r.Operation),
	}
	if r.Difal != nil {
		p.Difal = &DifalPayload{
			AliquotaInterestadual: money.Float(r.Difal.InterstateRate),
			AliquotaInterna:       money.Float(r.Difal.InternalRate),
			ValorDifal:            money.Float(r.Difal.Amount),
		}
	}
	return p
}

// RatePayload is a single tax line
type RatePayload struct {
	Aliquota float64 `json:"aliquota"`
	Valor    float64 `json:"valor"`
}

func ratePayload(c tax.Component) RatePayload {
	return RatePayload{Aliquota: money.Float(c.Rate), Valor: money.Float(c.Amount)}
}

// PISCOFINSPayload is returned by calcular_pis_cofins
type PISCOFINSPayload struct {
	PIS    RatePayload `json:"pis"`
	COFINS RatePayload `json:"cofins"`
	Total  float64     `json:"total"`
	Regime string      `json:"regime"`
}

func pisCofinsPayload(r tax.PISCOFINSResult) PISCOFINSPayload {
	return PISCOFINSPayload{
		PIS:    ratePayload(r.PIS),
		COFINS: ratePayload(r.COFINS),
		Total:  money.Float(r.Total),
		Regime: r.Regime,
	}
}

// SimplesPayload is returned by calcular_simples_nacional
type SimplesPayload struct {
	Faixa           int     `json:"faixa"`
	AliquotaNominal float64 `json:"aliquota_nominal"`
	AliquotaEfetiva float64 `json:"aliquota_efetiva"`
	ValorImposto    float64 `json:"valor_imposto"`
	LimiteExcedido  bool    `json:"limite_excedido"`
	Observacao      string  `json:"observacao,omitempty"`
}

func simplesPayload(r tax.SimplesResult) SimplesPayload {
	return SimplesPayload{
		Faixa:           r.Bracket,
		AliquotaNominal: money.Float(r.NominalRate),
		AliquotaEfetiva: money.Float(r.EffectiveRate),
		ValorImposto:    money.Float(r.Tax),
		LimiteExcedido:  r.Exceeded,
		Observacao:      r.Note,
	}
}

// ISSPayload is returned by calcular_iss
type ISSPayload struct {
	Aliquota   float64 `json:"aliquota"`
	ValorISS   float64 `json:"valor_iss"`
	Municipio  string  `json:"municipio,omitempty"`
	Observacao string  `json:"observacao"`
}

func issPayload(r tax.ISSResult) ISSPayload {
	return ISSPayload{
		Aliquota:   money.Float(r.Rate),
		ValorISS:   money.Float(r.Amount),
		Municipio:  r.Municipality,
		Observacao: r.Note,
	}
}

// InvoicePayload is returned by calcular_impostos_nf
type InvoicePayload struct {
	BaseCalculo   float64            `json:"base_calculo"`
	ICMS          InvoiceICMSPayload `json:"icms"`
	PIS           RatePayload        `json:"pis"`
	COFINS        RatePayload        `json:"cofins"`
	IPI           *RatePayload       `json:"ipi,omitempty"`
	TotalImpostos float64            `json:"total_impostos"`
	ValorTotalNF  float64            `json:"valor_total_nf"`
	Regime        string             `json:"regime"`
}

// InvoiceICMSPayload is the ICMS line of an NF breakdown
type InvoiceICMSPayload struct {
	Aliquota float64 `json:"aliquota"`
	Valor    float64 `json:"valor"`
	Tipo     string  `json:"tipo"`
}

func invoicePayload(r tax.InvoiceTaxes) InvoicePayload {
	p := InvoicePayload{
		BaseCalculo: money.Float(r.Base),
		ICMS: InvoiceICMSPayload{
			Aliquota: money.Float(r.ICMS.Rate),
			Valor:    money.Float(r.ICMS.Amount),
			Tipo:     string(r.ICMS.Operation),
		},
		PIS:           ratePayload(r.PIS),
		COFINS:        ratePayload(r.COFINS),
		TotalImpostos: money.Float(r.TotalTaxes),
		ValorTotalNF:  money.Float(r.InvoiceTotal),
		Regime:        r.Regime,
	}
	if r.IPI != nil {
		ipi := ratePayload(*r.IPI)
		p.IPI = &ipi
	}
	return p
}

// NCMPayload is returned by consultar_ncm
type NCMPayload struct {
	Sucesso bool     `json:"sucesso"`
	Dados   *NCMData `json:"dados,omitempty"`
	Erro    string   `json:"erro,omitempty"`
}

// NCMData is a classification entry
type NCMData struct {
	Codigo    string  `json:"codigo"`
	Descricao string  `json:"descricao"`
	IPI       float64 `json:"ipi"`
	PIS       float64 `json:"pis"`
	COFINS    float64 `json:"cofins"`
	Origem    string  `json:"origem"`
}

func ncmPayload(c tables.Classification) NCMPayload {
	return NCMPayload{
		Sucesso: true,
		Dados: &NCMData{
			Codigo:    c.Code,
			Descricao: c.Description,
			IPI:       money.Float(c.IPI),
			PIS:       money.Float(c.PIS),
			COFINS:    money.Float(c.COFINS),
			Origem:    "Base local",
		},
	}
}

// CFOPPayload is returned by consultar_cfop. A miss carries only Erro.
type CFOPPayload struct {
	Codigo    string `json:"codigo,omitempty"`
	Descricao string `json:"descricao,omitempty"`
	Tipo      string `json:"tipo,omitempty"`
	Natureza  string `json:"natureza,omitempty"`
	Erro      string `json:"erro,omitempty"`
}

func cfopPayload(op tables.Operation) CFOPPayload {
	return CFOPPayload{
		Codigo:    op.Code,
		Descricao: op.Description,
		Tipo:      string(op.Direction),
		Natureza:  string(op.Scope),
	}
}

// CompanyPayload is returned by consultar_cnpj
type CompanyPayload struct {
	Sucesso bool         `json:"sucesso"`
	Dados   *CompanyData `json:"dados,omitempty"`
	Nota    string       `json:"nota,omitempty"`
	Erro    string       `json:"erro,omitempty"`
}

// CompanyData is the registry record in wire form
type CompanyData struct {
	CNPJ               string       `json:"cnpj"`
	RazaoSocial        string       `json:"razao_social"`
	NomeFantasia       string       `json:"nome_fantasia"`
	Situacao           string       `json:"situacao"`
	Porte              string       `json:"porte"`
	CapitalSocial      float64      `json:"capital_social"`
	AtividadePrincipal ActivityData `json:"atividade_principal"`
	Endereco           AddressData  `json:"endereco"`
	DataAbertura       string       `json:"data_abertura"`
}

// ActivityData is a CNAE entry
type ActivityData struct {
	Codigo    string `json:"codigo"`
	Descricao string `json:"descricao"`
}

// AddressData is the company address
type AddressData struct {
	Logradouro string `json:"logradouro"`
	Numero     string `json:"numero"`
	Bairro     string `json:"bairro"`
	Municipio  string `json:"municipio"`
	UF         string `json:"uf"`
	CEP        string `json:"cep"`
}

// RegistryNote is attached to every successful CNPJ consultation
const RegistryNote = "Fonte: ReceitaWS (dados públicos da Receita Federal). " +
	"Ao consultar, você declara legítimo interesse conforme LGPD."

func companyPayload(formatted string, c *registry.Company) CompanyPayload {
	return CompanyPayload{
		Sucesso: true,
		Dados: &CompanyData{
			CNPJ:          formatted,
			RazaoSocial:   c.LegalName,
			NomeFantasia:  c.TradeName,
			Situacao:      c.Status,
			Porte:         c.Size,
			CapitalSocial: money.Float(c.ShareCapital),
			AtividadePrincipal: ActivityData{
				Codigo:    c.MainActivity.Code,
				Descricao: c.MainActivity.Description,
			},
			Endereco: AddressData{
				Logradouro: c.Address.Street,
				Numero:     c.Address.Number,
				Bairro:     c.Address.District,
				Municipio:  c.Address.Municipality,
				UF:         c.Address.UF,
				CEP:        c.Address.ZipCode,
			},
			DataAbertura: c.OpeningDate,
		},
		Nota: RegistryNote,
	}
}
