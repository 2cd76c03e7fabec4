package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rezonia/fiscal-br/internal/config"
	"github.com/rezonia/fiscal-br/internal/logger"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	configPath   string
	logLevel     string

	appConfig *config.Config
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "fiscal-br",
	Short: "Brazilian fiscal rules: document validation and tax calculation",
	Long: `Fiscal BR validates Brazilian fiscal documents and computes taxes.

Supports:
  - CPF, CNPJ and NF-e access key validation
  - ICMS (with DIFAL), PIS/COFINS, Simples Nacional, ISS and full NF taxes
  - NCM and CFOP lookups, CNPJ registry consultation
  - NF-e XML structural validation and XMLDSig signature verification

Examples:
  # Validate documents by their length
  fiscal-br check 529.982.247-25 11.222.333/0001-81

  # Run a tool with JSON arguments
  fiscal-br tools call calcular_icms '{"valor": 1000, "uf_origem": "SP", "uf_destino": "BA"}'

  # Validate NF-e files
  fiscal-br validate notas/*.xml

  # Serve the tools over HTTP
  fiscal-br serve --port 8080`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, table)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (env: FISCAL_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (env: FISCAL_LOG_LEVEL)")

	// Load .env, the config file and environment variables before any command runs
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		printVerbose("warning: failed to load .env: %v\n", err)
	}

	if configPath == "" {
		configPath = os.Getenv("FISCAL_CONFIG")
	}

	appConfig, configErr = config.Load(configPath)
	if configErr != nil {
		return
	}

	if logLevel != "" {
		appConfig.Log.Level = logLevel
	}
	printVerbose("config loaded (file: %q)\n", configPath)
}

// loadConfig returns the validated application config
func loadConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	if appConfig == nil {
		appConfig = config.DefaultConfig()
	}
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return appConfig, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.Log.Level, cfg.Log.Development)
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
