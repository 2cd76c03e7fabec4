package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rezonia/fiscal-br/internal/config"
	"github.com/rezonia/fiscal-br/internal/logger"
	"github.com/rezonia/fiscal-br/internal/metrics"
	"github.com/rezonia/fiscal-br/internal/model"
	"github.com/rezonia/fiscal-br/internal/processor"
	"github.com/rezonia/fiscal-br/internal/registry"
	"github.com/rezonia/fiscal-br/internal/signature"
	"github.com/rezonia/fiscal-br/internal/tools"
)

// Identity reported by /health
const (
	Name    = "Fiscal BR"
	Version = "1.0.0"
)

// Config holds server configuration
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	Debug           bool
	CORSOrigins     []string
	MaxBodyBytes    int64
	CallTimeout     time.Duration
	RegistryBaseURL string
	RegistryTimeout time.Duration

	// Optional collaborators; zero values get defaults
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Registry registry.Client
	// Verifier enables signature checks on /api/v1/validate when set
	Verifier signature.Verifier
}

// ConfigFrom maps the loaded application config onto a server Config
func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		Address:         cfg.Addr(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		Debug:           cfg.Server.Debug,
		CORSOrigins:     cfg.Server.CORSOrigins,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		CallTimeout:     cfg.Tools.CallTimeout,
		RegistryBaseURL: cfg.Registry.BaseURL,
		RegistryTimeout: cfg.Registry.Timeout,
	}
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	logger   *zap.Logger
	metrics  *metrics.Metrics
	catalog  *tools.Catalog
	pipeline *processor.Pipeline
}

// NewServer creates a new API server
func NewServer(config *Config) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	log := logger.OrNop(config.Logger)

	m := config.Metrics
	if m == nil {
		m = metrics.New()
	}

	client := config.Registry
	if client == nil {
		var opts []registry.ClientOption
		if config.RegistryBaseURL != "" {
			opts = append(opts, registry.WithBaseURL(config.RegistryBaseURL))
		}
		if config.RegistryTimeout > 0 {
			opts = append(opts, registry.WithHTTPClient(&http.Client{Timeout: config.RegistryTimeout}))
		}
		client = registry.NewHTTPClient(opts...)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(config.CORSOrigins))
	router.Use(requestIDMiddleware())
	router.Use(accessLogMiddleware(log, m))
	if config.Debug {
		router.Use(gin.Logger())
	}

	s := &Server{
		config:  config,
		router:  router,
		logger:  log,
		metrics: m,
		catalog: tools.NewCatalog(
			tools.WithRegistryClient(client),
			tools.WithLogger(log),
			tools.WithMetrics(m),
			tools.WithCallTimeout(config.CallTimeout),
		),
		pipeline: newPipeline(config, log),
	}

	s.setupRoutes()
	return s
}

func newPipeline(config *Config, log *zap.Logger) *processor.Pipeline {
	opts := []processor.Option{processor.WithLogger(log)}
	if config.Verifier != nil {
		opts = append(opts, processor.WithSignatureVerifier(config.Verifier))
	}
	return processor.NewPipeline(opts...)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader}

	if (config.ServerConfig{CORSOrigins: origins}).AllowAllOrigins() {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/tools", s.handleListTools)
		v1.GET("/tools/openai", s.handleOpenAITools)
		v1.POST("/tools/:name", s.handleCallTool)

		v1.POST("/validate", s.handleValidate)
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails. Cancellation drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.config.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// Catalog exposes the tool catalogue served by this server
func (s *Server) Catalog() *tools.Catalog {
	return s.catalog
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Server:    Name,
		Version:   Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, ToolListResponse{Tools: s.catalog.List()})
}

func (s *Server) handleOpenAITools(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.OpenAITools())
}

func (s *Server) handleCallTool(c *gin.Context) {
	name := c.Param("name")

	body, err := s.readBody(c)
	if err != nil {
		c.JSON(bodyErrorStatus(err), ErrorResponse{Error: "failed to read request body", Details: err.Error()})
		return
	}

	payload, err := s.catalog.Call(c.Request.Context(), name, json.RawMessage(body))
	if err != nil {
		var toolErr *model.ToolError
		var argErr *model.ArgumentError
		switch {
		case errors.As(err, &toolErr):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown tool", Details: name})
		case errors.As(err, &argErr):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid arguments", Field: argErr.Field, Details: argErr.Message})
		default:
			s.logger.Error("tool call failed", zap.String("tool", name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "tool call failed"})
		}
		return
	}

	// encode first so a payload that cannot be marshalled is not sent as an
	// empty 200
	out, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("tool payload not encodable", zap.String("tool", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "tool call failed"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}

func (s *Server) handleValidate(c *gin.Context) {
	body, err := s.readBody(c)
	if err != nil {
		c.JSON(bodyErrorStatus(err), ErrorResponse{Error: "failed to read request body", Details: err.Error()})
		return
	}

	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty request body"})
		return
	}

	if processor.DetectFormat(body) != processor.FormatXML {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "only NF-e XML validation is supported"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result := s.pipeline.ProcessXMLBytes(ctx, body)
	if result.Error != nil {
		s.metrics.ObserveValidation(false)
		c.JSON(http.StatusUnprocessableEntity, ValidationResponse{
			Valid:  false,
			Errors: []string{result.Error.Error()},
		})
		return
	}

	s.metrics.ObserveValidation(result.Report.Valid)
	if s.config.Verifier != nil {
		s.metrics.ObserveSignature(signatureOutcome(result.Signature))
	}
	c.JSON(http.StatusOK, newValidationResponse(result))
}

// readBody reads at most MaxBodyBytes of the request body
func (s *Server) readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	if s.config.MaxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxBodyBytes)
	}
	return io.ReadAll(c.Request.Body)
}

func signatureOutcome(r *signature.VerificationResult) string {
	switch {
	case r == nil || !r.SignatureFound:
		return metrics.SignatureUnsigned
	case r.Valid:
		return metrics.SignatureValid
	default:
		return metrics.SignatureInvalid
	}
}

func bodyErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
