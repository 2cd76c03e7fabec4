package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezonia/fiscal-br/internal/document"
	"github.com/rezonia/fiscal-br/internal/tools"
)

var checkCmd = &cobra.Command{
	Use:   "check [documents...]",
	Short: "Validate CPF, CNPJ and NF-e access keys",
	Long: `Validate documents, detecting the type from the number of digits:

  11 digits  CPF
  14 digits  CNPJ
  44 digits  NF-e access key

Punctuation is ignored.

Examples:
  fiscal-br check 529.982.247-25
  fiscal-br check 11.222.333/0001-81 35240111222333000181550010000012341123456784 -f table`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// CheckResult is the outcome of checking one document
type CheckResult struct {
	Input  string        `json:"input"`
	Kind   document.Kind `json:"kind"`
	Result any           `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	catalog := newCatalog(cfg, log)
	results := make([]*CheckResult, 0, len(args))
	allValid := true

	for _, arg := range args {
		result := checkDocument(cmd.Context(), catalog, arg)
		if result.Error != "" || !isValid(result.Result) {
			allValid = false
		}
		results = append(results, result)
	}

	if outputFormat == "json" {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printCheckResult(r)
		}
	}

	if !allValid {
		return fmt.Errorf("some documents are invalid")
	}
	return nil
}

func checkDocument(ctx context.Context, catalog *tools.Catalog, input string) *CheckResult {
	if ctx == nil {
		ctx = context.Background()
	}
	result := &CheckResult{Input: input, Kind: document.DetectKind(input)}

	var (
		tool string
		key  string
	)
	switch result.Kind {
	case document.KindCPF:
		tool, key = tools.ValidarCPF, "cpf"
	case document.KindCNPJ:
		tool, key = tools.ValidarCNPJ, "cnpj"
	case document.KindAccessKey:
		tool, key = tools.ValidarChaveNFe, "chave"
	default:
		result.Error = fmt.Sprintf("unrecognized document: %d digits", len(document.Clean(input)))
		return result
	}

	args, err := json.Marshal(map[string]string{key: input})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	payload, err := catalog.Call(ctx, tool, args)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Result = payload
	return result
}

func isValid(payload any) bool {
	switch p := payload.(type) {
	case tools.DocumentPayload:
		return p.Valido
	case tools.AccessKeyPayload:
		return p.Valido
	}
	return false
}

func printCheckResult(r *CheckResult) {
	if r.Error != "" {
		fmt.Printf("✗ %s: %s\n", r.Input, r.Error)
		return
	}

	switch p := r.Result.(type) {
	case tools.DocumentPayload:
		if p.Valido {
			fmt.Printf("✓ %s (%s): %s\n", r.Input, r.Kind, p.Formatado)
		} else {
			fmt.Printf("✗ %s (%s): %s\n", r.Input, r.Kind, p.Erro)
		}
	case tools.AccessKeyPayload:
		if !p.Valido {
			fmt.Printf("✗ %s (%s): %s\n", r.Input, r.Kind, p.Erro)
			return
		}
		fmt.Printf("✓ %s (%s)\n", r.Input, r.Kind)
		if d := p.Detalhes; d != nil {
			fmt.Printf("  UF: %s  Emissão: %s  Modelo: %s  Série: %s  Número: %s\n",
				d.UF, d.DataEmissao, d.Modelo, d.Serie, d.Numero)
			fmt.Printf("  Emitente: %s\n", d.CNPJEmitente)
		}
	}
}
