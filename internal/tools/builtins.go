package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	money "github.com/rezonia/fiscal-br/internal/decimal"
	"github.com/rezonia/fiscal-br/internal/document"
	"github.com/rezonia/fiscal-br/internal/model"
	"github.com/rezonia/fiscal-br/internal/tables"
	"github.com/rezonia/fiscal-br/internal/tax"
)

// Tool names
const (
	ValidarCPF         = "validar_cpf"
	ValidarCNPJ        = "validar_cnpj"
	ConsultarCNPJ      = "consultar_cnpj"
	CalcularICMS       = "calcular_icms"
	CalcularPISCOFINS  = "calcular_pis_cofins"
	CalcularSimples    = "calcular_simples_nacional"
	CalcularISS        = "calcular_iss"
	ConsultarNCM       = "consultar_ncm"
	ConsultarCFOP      = "consultar_cfop"
	ValidarChaveNFe    = "validar_chave_nfe"
	CalcularImpostosNF = "calcular_impostos_nf"
)

func (c *Catalog) registerBuiltins() {
	c.Register(&Tool{
		Name:        ValidarCPF,
		Description: "Valida se um CPF brasileiro é válido (verifica dígitos verificadores)",
		Schema:      object(str("cpf", "CPF a ser validado (apenas números ou formatado)")),
	}, validarCPF)

	c.Register(&Tool{
		Name:        ValidarCNPJ,
		Description: "Valida se um CNPJ brasileiro é válido (verifica dígitos verificadores)",
		Schema:      object(str("cnpj", "CNPJ a ser validado (apenas números ou formatado)")),
	}, validarCNPJ)

	c.Register(&Tool{
		Name: ConsultarCNPJ,
		Description: "Consulta dados de uma empresa pelo CNPJ na Receita Federal " +
			"(razão social, endereço, situação cadastral, atividades)",
		Schema: object(str("cnpj", "CNPJ da empresa (apenas números)")),
	}, c.consultarCNPJ)

	c.Register(&Tool{
		Name:        CalcularICMS,
		Description: "Calcula o ICMS de uma operação (interna ou interestadual)",
		Schema: object(
			num("valor", "Valor da mercadoria em reais"),
			str("uf_origem", "UF de origem (ex: SP, RJ, MG)"),
			str("uf_destino", "UF de destino (ex: SP, RJ, MG)"),
			optional(boolean("consumidor_final", "Se o destinatário é consumidor final")),
		),
	}, calcularICMS)

	c.Register(&Tool{
		Name:        CalcularPISCOFINS,
		Description: "Calcula PIS e COFINS sobre uma operação (regime cumulativo ou não-cumulativo)",
		Schema: object(
			num("valor", "Valor da operação em reais"),
			enum("regime", "Regime tributário", string(tax.RegimeCumulative), string(tax.RegimeNonCumulative)),
			optional(str("ncm", "Código NCM do produto")),
		),
	}, calcularPISCOFINS)

	c.Register(&Tool{
		Name:        CalcularSimples,
		Description: "Calcula o imposto do Simples Nacional baseado no faturamento (Anexo I - Comércio)",
		Schema: object(
			num("receita_bruta_12m", "Receita bruta dos últimos 12 meses em reais"),
			num("receita_mes", "Receita do mês atual em reais"),
		),
	}, calcularSimples)

	c.Register(&Tool{
		Name:        CalcularISS,
		Description: "Calcula o ISS (Imposto Sobre Serviços) de uma prestação de serviço",
		Schema: object(
			num("valor", "Valor do serviço em reais"),
			num("aliquota", "Alíquota do ISS (entre 2% e 5%)"),
			optional(str("municipio", "Município da prestação")),
		),
	}, calcularISS)

	c.Register(&Tool{
		Name:        ConsultarNCM,
		Description: "Consulta informações sobre um código NCM incluindo descrição e alíquotas",
		Schema:      object(str("ncm", "Código NCM (8 dígitos)")),
	}, consultarNCM)

	c.Register(&Tool{
		Name:        ConsultarCFOP,
		Description: "Consulta a descrição de um CFOP (Código Fiscal de Operações e Prestações)",
		Schema:      object(str("cfop", "Código CFOP (4 dígitos)")),
	}, consultarCFOP)

	c.Register(&Tool{
		Name:        ValidarChaveNFe,
		Description: "Valida a estrutura de uma chave de acesso de NFe (44 dígitos)",
		Schema:      object(str("chave", "Chave de acesso da NFe (44 dígitos)")),
	}, validarChaveNFe)

	c.Register(&Tool{
		Name:        CalcularImpostosNF,
		Description: "Calcula todos os impostos de uma nota fiscal de produto (ICMS, PIS, COFINS, IPI)",
		Schema: object(
			num("valor_produto", "Valor total dos produtos"),
			optional(num("valor_frete", "Valor do frete")),
			str("uf_origem", "UF de origem"),
			str("uf_destino", "UF de destino"),
			optional(str("ncm", "Código NCM do produto principal")),
			enum("regime", "Regime tributário da empresa",
				string(tax.RegimeSimples), string(tax.RegimeLucroPresumido), string(tax.RegimeLucroReal)),
		),
	}, calcularImpostosNF)
}

func validarCPF(_ context.Context, raw json.RawMessage) (any, error) {
	var args cpfArgs
	if err := decodeArgs(ValidarCPF, raw, &args); err != nil {
		return nil, err
	}
	return documentPayload(document.ValidateCPF(*args.CPF)), nil
}

func validarCNPJ(_ context.Context, raw json.RawMessage) (any, error) {
	var args cnpjArgs
	if err := decodeArgs(ValidarCNPJ, raw, &args); err != nil {
		return nil, err
	}
	return documentPayload(document.ValidateCNPJ(*args.CNPJ)), nil
}

// consultarCNPJ validates the CNPJ locally before any network call
func (c *Catalog) consultarCNPJ(ctx context.Context, raw json.RawMessage) (any, error) {
	var args cnpjArgs
	if err := decodeArgs(ConsultarCNPJ, raw, &args); err != nil {
		return nil, err
	}

	clean := document.Clean(*args.CNPJ)
	check := document.ValidateCNPJ(clean)
	if !check.Valid {
		return CompanyPayload{Erro: check.Err.Error()}, nil
	}

	company, err := c.registry.LookupCNPJ(ctx, clean)
	if err != nil {
		var regErr *model.RegistryError
		if errors.As(err, &regErr) {
			return CompanyPayload{Erro: regErr.Message}, err
		}
		// context expiry or a client that does not speak RegistryError
		wrapped := model.NewRegistryError(0, fmt.Sprintf("Erro ao consultar API: %v", err), err)
		return CompanyPayload{Erro: wrapped.Message}, wrapped
	}

	return companyPayload(check.Formatted, company), nil
}

func calcularICMS(_ context.Context, raw json.RawMessage) (any, error) {
	var args icmsArgs
	if err := decodeArgs(CalcularICMS, raw, &args); err != nil {
		return nil, err
	}
	finalConsumer := args.ConsumidorFinal != nil && *args.ConsumidorFinal
	return icmsPayload(tax.ICMS(*args.Valor, *args.UFOrigem, *args.UFDestino, finalConsumer)), nil
}

func calcularPISCOFINS(_ context.Context, raw json.RawMessage) (any, error) {
	var args pisCofinsArgs
	if err := decodeArgs(CalcularPISCOFINS, raw, &args); err != nil {
		return nil, err
	}
	regime := tax.PISCOFINSRegime(*args.Regime)
	return pisCofinsPayload(tax.PISCOFINS(*args.Valor, regime, stringOr(args.NCM, ""))), nil
}

func calcularSimples(_ context.Context, raw json.RawMessage) (any, error) {
	var args simplesArgs
	if err := decodeArgs(CalcularSimples, raw, &args); err != nil {
		return nil, err
	}
	return simplesPayload(tax.SimplesNacional(*args.ReceitaBruta12m, *args.ReceitaMes)), nil
}

func calcularISS(_ context.Context, raw json.RawMessage) (any, error) {
	var args issArgs
	if err := decodeArgs(CalcularISS, raw, &args); err != nil {
		return nil, err
	}
	return issPayload(tax.ISS(*args.Valor, *args.Aliquota, stringOr(args.Municipio, ""))), nil
}

func consultarNCM(_ context.Context, raw json.RawMessage) (any, error) {
	var args ncmArgs
	if err := decodeArgs(ConsultarNCM, raw, &args); err != nil {
		return nil, err
	}

	c, err := tables.LookupNCM(*args.NCM)
	switch {
	case errors.Is(err, tables.ErrNCMLength):
		return NCMPayload{Erro: tables.ErrNCMLength.Error()}, nil
	case err != nil:
		return NCMPayload{Erro: notFoundNCM()}, nil
	}
	return ncmPayload(c), nil
}

func notFoundNCM() string {
	return tables.ErrNCMNotFound.Error() + ". NCMs disponíveis: " + strings.Join(tables.NCMCatalog(), ", ")
}

func consultarCFOP(_ context.Context, raw json.RawMessage) (any, error) {
	var args cfopArgs
	if err := decodeArgs(ConsultarCFOP, raw, &args); err != nil {
		return nil, err
	}

	op, err := tables.LookupCFOP(*args.CFOP)
	if err != nil {
		return CFOPPayload{Erro: fmt.Sprintf("CFOP %s não encontrado", *args.CFOP)}, nil
	}
	return cfopPayload(op), nil
}

func validarChaveNFe(_ context.Context, raw json.RawMessage) (any, error) {
	var args chaveArgs
	if err := decodeArgs(ValidarChaveNFe, raw, &args); err != nil {
		return nil, err
	}
	return accessKeyPayload(document.ValidateAccessKey(*args.Chave)), nil
}

func calcularImpostosNF(_ context.Context, raw json.RawMessage) (any, error) {
	var args invoiceArgs
	if err := decodeArgs(CalcularImpostosNF, raw, &args); err != nil {
		return nil, err
	}

	taxes := tax.CalculateInvoice(tax.InvoiceInput{
		ProductAmount: *args.ValorProduto,
		Freight:       decimalOr(args.ValorFrete, money.Zero),
		Origin:        *args.UFOrigem,
		Destination:   *args.UFDestino,
		NCM:           stringOr(args.NCM, ""),
		Regime:        tax.CompanyRegime(*args.Regime),
	})
	return invoicePayload(taxes), nil
}
