package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rezonia/fiscal-br/internal/config"
	"github.com/rezonia/fiscal-br/internal/processor"
	"github.com/rezonia/fiscal-br/internal/signature"
	"github.com/rezonia/fiscal-br/internal/signature/xmldsig"
)

var (
	strictValidation bool
	verifySignature  bool
	trustRoots       string
	checkRevocation  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate NF-e XML files",
	Long: `Validate one or more NF-e documents (nfeProc or bare NFe XML).

Checks performed:
  - Access key present, 44 digits, correct check digit
  - Issuer CNPJ valid and equal to the CNPJ embedded in the key
  - Model and UF consistent with the key
  - Recipient CPF/CNPJ valid
  - CFOP and NCM codes well formed, CFOP known
  - vProd equal to the sum of the item values
  - With --verify-signature: XMLDSig over infNFe, certificate validity at
    emission, chain to --trust-roots and signer CNPJ base equal to the issuer's

Arguments may be files, directories (walked for .xml files) or glob patterns.

Examples:
  fiscal-br validate nota.xml
  fiscal-br validate notas/ --strict -f table
  fiscal-br validate nota.xml --verify-signature --trust-roots /etc/icp-brasil`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&strictValidation, "strict", false, "Treat warnings (unknown CFOP, missing recipient or date) as errors")
	validateCmd.Flags().BoolVar(&verifySignature, "verify-signature", false, "Verify the XMLDSig signature (env: FISCAL_VERIFY_SIGNATURE)")
	validateCmd.Flags().StringVar(&trustRoots, "trust-roots", "", "Certificate file or directory of trusted roots (env: FISCAL_TRUST_ROOTS)")
	validateCmd.Flags().BoolVar(&checkRevocation, "check-revocation", false, "Query OCSP responders for the signing chain")
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found to validate")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("verify-signature") {
		cfg.Signature.Verify = verifySignature
	}
	if flags.Changed("trust-roots") {
		cfg.Signature.TrustRoots = trustRoots
		cfg.Signature.Verify = true
	}
	if flags.Changed("check-revocation") {
		cfg.Signature.CheckRevocation = checkRevocation
		cfg.Signature.Verify = cfg.Signature.Verify || checkRevocation
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	opts := []processor.Option{
		processor.WithLogger(log),
		processor.WithStrict(strictValidation),
	}
	verifier, err := newVerifier(cfg, log)
	if err != nil {
		return err
	}
	if verifier != nil {
		opts = append(opts, processor.WithSignatureVerifier(verifier))
	}
	pipeline := processor.NewPipeline(opts...)
	results := make([]*ValidationResult, 0, len(files))
	allValid := true

	for _, file := range files {
		printVerbose("validating %s\n", file)
		result := validateFile(pipeline, file)
		results = append(results, result)

		if !result.Valid {
			allValid = false
		}
	}

	// Output results
	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Valid {
				fmt.Printf("✓ %s: VALID", r.File)
			} else {
				fmt.Printf("✗ %s: INVALID", r.File)
			}
			if r.AccessKey != "" {
				fmt.Printf(" (%s)", r.AccessKey)
			}
			fmt.Println()
			if sig := r.Signature; sig != nil && sig.Signer != nil {
				fmt.Printf("  signed by %s", sig.Signer.Name)
				if sig.Signer.CNPJ != "" {
					fmt.Printf(" (CNPJ %s)", sig.Signer.CNPJ)
				}
				fmt.Printf(", issuer %s\n", sig.Signer.Issuer)
			}
			for _, e := range r.Errors {
				fmt.Printf("  - %s\n", e)
			}
			for _, w := range r.Warnings {
				fmt.Printf("  ⚠ %s\n", w)
			}
		}
	}

	if !allValid {
		return fmt.Errorf("validation failed for some files")
	}

	return nil
}

func validateFile(pipeline *processor.Pipeline, filePath string) *ValidationResult {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result := &ValidationResult{
		File:     filePath,
		Errors:   []string{},
		Warnings: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read file: %v", err))
		return result
	}

	processed := pipeline.ProcessXMLBytes(ctx, data)
	if processed.Error != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("parse error: %v", processed.Error))
		return result
	}

	result.AccessKey = processed.Invoice.AccessKey
	result.Layout = string(processed.Layout)
	result.Valid = processed.Report.Valid
	result.Errors = append(result.Errors, processed.Report.Errors...)
	result.Warnings = append(result.Warnings, processed.Report.Warnings...)
	result.Signature = processed.Signature

	return result
}

// newVerifier returns nil when signature verification is disabled
func newVerifier(cfg *config.Config, log *zap.Logger) (signature.Verifier, error) {
	if !cfg.Signature.Verify {
		return nil, nil
	}
	v, err := xmldsig.NewVerifierFromConfig(xmldsig.Config{
		TrustRoots:      cfg.Signature.TrustRoots,
		CheckRevocation: cfg.Signature.CheckRevocation,
		SoftFail:        cfg.Signature.SoftFail,
		OCSPTimeout:     cfg.Signature.OCSPTimeout,
		Logger:          log,
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ValidationResult holds the result of validating a single file
type ValidationResult struct {
	File      string                        `json:"file"`
	Valid     bool                          `json:"valid"`
	AccessKey string                        `json:"access_key,omitempty"`
	Layout    string                        `json:"layout,omitempty"`
	Signature *signature.VerificationResult `json:"signature,omitempty"`
	Errors    []string                      `json:"errors,omitempty"`
	Warnings  []string                      `json:"warnings,omitempty"`
}

// collectFiles expands globs and walks directories for NF-e files
func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}

		if len(matches) == 0 {
			if _, err := os.Stat(arg); err != nil {
				return nil, fmt.Errorf("file not found: %s", arg)
			}
			matches = []string{arg}
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				continue
			}
			if !info.IsDir() {
				// explicit files are taken whatever their extension
				if match == arg || isSupportedFile(match) {
					files = append(files, match)
				}
				continue
			}
			err = filepath.Walk(match, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isSupportedFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return files, nil
}

func isSupportedFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".xml"
}
