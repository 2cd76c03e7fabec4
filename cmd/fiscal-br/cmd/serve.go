package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rezonia/fiscal-br/internal/metrics"
	"github.com/rezonia/fiscal-br/internal/server"
)

var (
	serverHost   string
	serverPort   int
	serverDebug  bool
	readTimeout  time.Duration
	writeTimeout time.Duration
	callTimeout  time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server exposing the fiscal tools.

The API provides endpoints for:
  - GET  /api/v1/tools          - Tool catalogue with input schemas
  - GET  /api/v1/tools/openai   - Catalogue as OpenAI tool definitions
  - POST /api/v1/tools/:name    - Run a tool with a JSON arguments body
  - POST /api/v1/validate       - Validate an NF-e XML document
  - GET  /metrics               - Prometheus metrics
  - GET  /health                - Health check

Examples:
  # Start server on default port
  fiscal-br serve

  # Start on a custom port with a config file
  fiscal-br serve --port 9090 --config fiscal.yaml

  # Start in debug mode
  fiscal-br serve --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "Listen host (default from config: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "Listen port (default from config: 8080)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 0, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 0, "HTTP write timeout")
	serveCmd.Flags().DurationVar(&callTimeout, "tool-timeout", 0, "Timeout for a single tool call")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Flags win over file and environment
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = serverHost
	}
	if flags.Changed("port") {
		cfg.Server.Port = serverPort
	}
	if flags.Changed("debug") {
		cfg.Server.Debug = serverDebug
	}
	if flags.Changed("read-timeout") {
		cfg.Server.ReadTimeout = readTimeout
	}
	if flags.Changed("write-timeout") {
		cfg.Server.WriteTimeout = writeTimeout
	}
	if flags.Changed("tool-timeout") {
		cfg.Tools.CallTimeout = callTimeout
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	verifier, err := newVerifier(cfg, log)
	if err != nil {
		return err
	}

	config := server.ConfigFrom(cfg)
	config.Logger = log
	config.Metrics = metrics.New()
	config.Verifier = verifier

	srv := server.NewServer(config)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting server",
		zap.String("addr", config.Address),
		zap.Int("tools", len(srv.Catalog().List())),
		zap.String("registry", cfg.Registry.BaseURL),
		zap.Bool("verify_signature", verifier != nil),
	)
	fmt.Printf("Starting server on %s\n", config.Address)

	return srv.Run(ctx)
}
