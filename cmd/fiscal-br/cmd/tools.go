package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rezonia/fiscal-br/internal/config"
	"github.com/rezonia/fiscal-br/internal/registry"
	"github.com/rezonia/fiscal-br/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List and run fiscal tools",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available tools",
	Args:  cobra.NoArgs,
	RunE:  runToolsList,
}

var toolsCallCmd = &cobra.Command{
	Use:   "call <name> [arguments]",
	Short: "Run a tool with JSON arguments",
	Long: `Run a single tool. Arguments are a JSON object given inline, or read
from stdin when omitted or "-".

Examples:
  fiscal-br tools call validar_cpf '{"cpf": "529.982.247-25"}'
  echo '{"cfop": "5102"}' | fiscal-br tools call consultar_cfop`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runToolsCall,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsCallCmd)
}

// newCatalog builds a tool catalog wired to the configured registry
func newCatalog(cfg *config.Config, log *zap.Logger) *tools.Catalog {
	var opts []registry.ClientOption
	if cfg.Registry.BaseURL != "" {
		opts = append(opts, registry.WithBaseURL(cfg.Registry.BaseURL))
	}
	if cfg.Registry.Timeout > 0 {
		opts = append(opts, registry.WithHTTPClient(&http.Client{Timeout: cfg.Registry.Timeout}))
	}

	return tools.NewCatalog(
		tools.WithRegistryClient(registry.NewHTTPClient(opts...)),
		tools.WithLogger(log),
		tools.WithCallTimeout(cfg.Tools.CallTimeout),
	)
}

func runToolsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	list := newCatalog(cfg, log).List()

	if outputFormat == "json" {
		return printJSON(list)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tARGUMENTS\tDESCRIPTION")
	for _, t := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, strings.Join(t.Schema.Required, ","), t.Description)
	}
	return w.Flush()
}

func runToolsCall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var raw []byte
	if len(args) < 2 || args[1] == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read arguments: %w", err)
		}
	} else {
		raw = []byte(args[1])
	}

	printVerbose("calling %s with %s\n", args[0], strings.TrimSpace(string(raw)))

	payload, err := newCatalog(cfg, log).Call(context.Background(), args[0], json.RawMessage(raw))
	if err != nil {
		return err
	}
	return printJSON(payload)
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}
