package tables

import (
	"errors"
	"fmt"
	"sort"
)

// CFOPLength is the number of digits of a CFOP code
const CFOPLength = 4

var (
	ErrCFOPLength   = errors.New("CFOP deve ter 4 dígitos")
	ErrCFOPNotFound = errors.New("CFOP não encontrado")
)

// Direction of a goods movement
type Direction string

const (
	DirectionInbound  Direction = "Entrada"
	DirectionOutbound Direction = "Saída"
)

// Scope of a goods movement
type Scope string

const (
	ScopeIntrastate Scope = "Estadual"
	ScopeInterstate Scope = "Interestadual"
)

// Operation is a CFOP entry
type Operation struct {
	Code        string
	Description string
	Direction   Direction
	Scope       Scope
}

var cfopTable = map[string]Operation{
	"5101": {"5101", "Venda de produção do estabelecimento", DirectionOutbound, ScopeIntrastate},
	"5102": {"5102", "Venda de mercadoria adquirida", DirectionOutbound, ScopeIntrastate},
	"5405": {"5405", "Venda de mercadoria sujeita a ST", DirectionOutbound, ScopeIntrastate},
	"5910": {"5910", "Remessa em bonificação", DirectionOutbound, ScopeIntrastate},
	"5949": {"5949", "Outra saída não especificada", DirectionOutbound, ScopeIntrastate},
	"6101": {"6101", "Venda de produção do estabelecimento", DirectionOutbound, ScopeInterstate},
	"6102": {"6102", "Venda de mercadoria adquirida", DirectionOutbound, ScopeInterstate},
	"6108": {"6108", "Venda a consumidor final", DirectionOutbound, ScopeInterstate},
	"1101": {"1101", "Compra para industrialização", DirectionInbound, ScopeIntrastate},
	"1102": {"1102", "Compra para comercialização", DirectionInbound, ScopeIntrastate},
	"2101": {"2101", "Compra para industrialização", DirectionInbound, ScopeInterstate},
	"2102": {"2102", "Compra para comercialização", DirectionInbound, ScopeInterstate},
}

// LookupCFOP finds an operation code. Punctuation is ignored ("5.102").
func LookupCFOP(code string) (Operation, error) {
	clean := digitsOnly(code)
	if len(clean) != CFOPLength {
		return Operation{}, ErrCFOPLength
	}
	op, ok := cfopTable[clean]
	if !ok {
		return Operation{}, fmt.Errorf("%w: %s", ErrCFOPNotFound, clean)
	}
	return op, nil
}

// CFOPCodes lists the known codes, sorted
func CFOPCodes() []string {
	codes := make([]string, 0, len(cfopTable))
	for code := range cfopTable {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
