package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rezonia/fiscal-br/internal/model"
)

var validate = newValidator()

// Bounds for monetary and rate arguments. Larger magnitudes overflow the
// float64 payloads and finer exponents make rounding arbitrarily slow.
const (
	maxAmountDigits   = 16 // |v| < 1e16
	minAmountExponent = -30
	maxAmount         = 1e15
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("amount", isAmount)
	return v
}

// decimalValue exposes a decimal to the validator as a float64. Values out
// of range become NaN without being expanded.
func decimalValue(field reflect.Value) any {
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	if d.Exponent() < minAmountExponent || int64(d.Exponent())+int64(d.NumDigits()) > maxAmountDigits {
		return math.NaN()
	}
	return d.InexactFloat64()
}

func isAmount(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Float64 {
		return false
	}
	f := field.Float()
	return !math.IsNaN(f) && math.Abs(f) <= maxAmount
}

// Argument shapes. Pointers distinguish a missing field from a zero value.

type cpfArgs struct {
	CPF *string `json:"cpf" validate:"required"`
}

type cnpjArgs struct {
	CNPJ *string `json:"cnpj" validate:"required"`
}

type icmsArgs struct {
	Valor           *decimal.Decimal `json:"valor" validate:"required,amount"`
	UFOrigem        *string          `json:"uf_origem" validate:"required"`
	UFDestino       *string          `json:"uf_destino" validate:"required"`
	ConsumidorFinal *bool            `json:"consumidor_final"`
}

type pisCofinsArgs struct {
	Valor  *decimal.Decimal `json:"valor" validate:"required,amount"`
	Regime *string          `json:"regime" validate:"required,oneof=cumulativo nao_cumulativo"`
	NCM    *string          `json:"ncm"`
}

type simplesArgs struct {
	ReceitaBruta12m *decimal.Decimal `json:"receita_bruta_12m" validate:"required,amount"`
	ReceitaMes      *decimal.Decimal `json:"receita_mes" validate:"required,amount"`
}

type issArgs struct {
	Valor     *decimal.Decimal `json:"valor" validate:"required,amount"`
	Aliquota  *decimal.Decimal `json:"aliquota" validate:"required,amount"`
	Municipio *string          `json:"municipio"`
}

type ncmArgs struct {
	NCM *string `json:"ncm" validate:"required"`
}

type cfopArgs struct {
	CFOP *string `json:"cfop" validate:"required"`
}

type chaveArgs struct {
	Chave *string `json:"chave" validate:"required"`
}

type invoiceArgs struct {
	ValorProduto *decimal.Decimal `json:"valor_produto" validate:"required,amount"`
	ValorFrete   *decimal.Decimal `json:"valor_frete" validate:"omitempty,amount"`
	UFOrigem     *string          `json:"uf_origem" validate:"required"`
	UFDestino    *string          `json:"uf_destino" validate:"required"`
	NCM          *string          `json:"ncm"`
	Regime       *string          `json:"regime" validate:"required,oneof=simples lucro_presumido lucro_real"`
}

// decodeArgs unmarshals raw into dst and validates it. Empty input is read
// as an empty object so required fields are reported by name.
func decodeArgs(tool string, raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return model.NewArgumentError(tool, typeErr.Field,
				fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value), err)
		}
		return model.NewArgumentError(tool, "", "cannot decode arguments", err)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return model.NewArgumentError(tool, fe.Field(), describe(fe), nil)
		}
		return model.NewArgumentError(tool, "", "invalid arguments", err)
	}

	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "amount":
		return fmt.Sprintf("must be a finite number up to %g with at most %d decimal places", maxAmount, -minAmountExponent)
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

func stringOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

func decimalOr(p *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if p == nil {
		return fallback
	}
	return *p
}
