package processor

import (
	"fmt"

	"github.com/rezonia/fiscal-br/internal/document"
	"github.com/rezonia/fiscal-br/internal/model"
	"github.com/rezonia/fiscal-br/internal/tables"
)

// Report lists the problems found in one NF-e. Errors make it invalid;
// warnings do not.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Report) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warn(strict bool, format string, args ...interface{}) {
	if strict {
		r.fail(format, args...)
		return
	}
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks an NF-e for structural consistency: access key, issuer and
// recipient documents, key/issuer agreement, item codes and the product total.
func Validate(inv *model.Invoice, strict bool) *Report {
	r := &Report{Valid: true}

	validateKey(r, inv, strict)
	validateParties(r, inv, strict)
	validateItems(r, inv, strict)

	if inv.IssuedAt.IsZero() {
		r.warn(strict, "data de emissão ausente")
	}

	return r
}

func validateKey(r *Report, inv *model.Invoice, strict bool) {
	if inv.AccessKey == "" {
		r.fail("chave de acesso ausente")
		return
	}

	key := document.ValidateAccessKey(inv.AccessKey)
	if !key.Valid {
		r.fail("chave de acesso: %v", key.Err)
		return
	}

	clean := document.Clean(inv.AccessKey)
	keyCNPJ := clean[6:20]
	if inv.Issuer.CNPJ != "" && document.Clean(inv.Issuer.CNPJ) != keyCNPJ {
		r.fail("CNPJ do emitente (%s) difere do CNPJ da chave (%s)", inv.Issuer.CNPJ, keyCNPJ)
	}

	if inv.Model != "" && inv.Model != clean[20:22] {
		r.fail("modelo %s difere do modelo da chave (%s)", inv.Model, clean[20:22])
	}

	if uf := key.Details.UFAbbrev; uf != "" && inv.Issuer.UF != "" && inv.Issuer.UF != uf {
		r.warn(strict, "UF do emitente (%s) difere da UF da chave (%s)", inv.Issuer.UF, uf)
	}
}

func validateParties(r *Report, inv *model.Invoice, strict bool) {
	switch {
	case inv.Issuer.CNPJ != "":
		if res := document.ValidateCNPJ(inv.Issuer.CNPJ); !res.Valid {
			r.fail("CNPJ do emitente: %v", res.Err)
		}
	case inv.Issuer.CPF != "":
		if res := document.ValidateCPF(inv.Issuer.CPF); !res.Valid {
			r.fail("CPF do emitente: %v", res.Err)
		}
	default:
		r.fail("documento do emitente ausente")
	}

	switch {
	case inv.Recipient.CNPJ != "":
		if res := document.ValidateCNPJ(inv.Recipient.CNPJ); !res.Valid {
			r.fail("CNPJ do destinatário: %v", res.Err)
		}
	case inv.Recipient.CPF != "":
		if res := document.ValidateCPF(inv.Recipient.CPF); !res.Valid {
			r.fail("CPF do destinatário: %v", res.Err)
		}
	case inv.Model != model.ModelNFCe:
		// NFC-e may omit the consumer
		r.warn(strict, "documento do destinatário ausente")
	}
}

func validateItems(r *Report, inv *model.Invoice, strict bool) {
	if len(inv.Items) == 0 {
		r.fail("NF-e sem itens")
		return
	}

	for i, item := range inv.Items {
		n := item.Number
		if n == 0 {
			n = i + 1
		}

		if _, err := tables.LookupCFOP(item.CFOP); err != nil {
			if len(document.Clean(item.CFOP)) != tables.CFOPLength {
				r.fail("item %d: %v", n, err)
			} else {
				r.warn(strict, "item %d: CFOP %s fora da tabela local", n, item.CFOP)
			}
		}

		if len(document.Clean(item.NCM)) != tables.NCMLength {
			r.fail("item %d: %v", n, tables.ErrNCMLength)
		}
	}

	if sum := inv.ItemsTotal(); !sum.Equal(inv.Totals.Products) {
		r.fail("vProd (%s) difere da soma dos itens (%s)", inv.Totals.Products.StringFixed(2), sum.StringFixed(2))
	}
}
