// Package tools exposes the fiscal operations as named tools with JSON
// argument schemas, the form in which they are offered to remote callers
// and language-model clients. Every tool returns a JSON-serializable payload
// whose keys follow the Portuguese wire format.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rezonia/fiscal-br/internal/logger"
	"github.com/rezonia/fiscal-br/internal/metrics"
	"github.com/rezonia/fiscal-br/internal/model"
	"github.com/rezonia/fiscal-br/internal/registry"
)

// Handler executes a tool against raw JSON arguments
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Tool is one catalogue entry
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Schema      *Schema `json:"input_schema"`
	handler     Handler
}

// Catalog holds the registered tools
type Catalog struct {
	tools       map[string]*Tool
	order       []string
	registry    registry.Client
	logger      *zap.Logger
	metrics     *metrics.Metrics
	callTimeout time.Duration
}

// Option configures a Catalog
type Option func(*Catalog)

// WithRegistryClient sets the client used by consultar_cnpj
func WithRegistryClient(c registry.Client) Option {
	return func(cat *Catalog) {
		if c != nil {
			cat.registry = c
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(cat *Catalog) {
		cat.logger = logger.OrNop(l)
	}
}

// WithMetrics records every call on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(cat *Catalog) {
		cat.metrics = m
	}
}

// WithCallTimeout bounds each call; zero disables the bound
func WithCallTimeout(d time.Duration) Option {
	return func(cat *Catalog) {
		cat.callTimeout = d
	}
}

// NewCatalog creates a catalogue with every fiscal tool registered. Without
// WithRegistryClient, consultar_cnpj talks to the public ReceitaWS endpoint.
func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{
		tools:  make(map[string]*Tool),
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		c.registry = registry.NewHTTPClient()
	}

	c.registerBuiltins()
	return c
}

// Register adds a tool; a tool with the same name is replaced in place
func (c *Catalog) Register(t *Tool, h Handler) {
	if _, exists := c.tools[t.Name]; !exists {
		c.order = append(c.order, t.Name)
	}
	t.handler = h
	c.tools[t.Name] = t
}

// List returns the tools in registration order
func (c *Catalog) List() []*Tool {
	out := make([]*Tool, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.tools[name])
	}
	return out
}

// Names returns the registered tool names, sorted
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a tool by name
func (c *Catalog) Get(name string) (*Tool, bool) {
	t, ok := c.tools[name]
	return t, ok
}

// Call runs the named tool. Unknown names yield a *model.ToolError and bad
// arguments a *model.ArgumentError. Registry failures are not errors: the
// payload carries sucesso=false with the message.
func (c *Catalog) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	start := time.Now()

	t, ok := c.tools[name]
	if !ok {
		c.metrics.ObserveToolCall(name, metrics.OutcomeUnknownTool, time.Since(start))
		return nil, model.NewToolError(name, "unknown tool")
	}

	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	payload, err := t.handler(ctx, args)

	var argErr *model.ArgumentError
	var regErr *model.RegistryError
	switch {
	case err == nil:
		c.metrics.ObserveToolCall(name, metrics.OutcomeOK, time.Since(start))
	case errors.As(err, &argErr):
		c.metrics.ObserveToolCall(name, metrics.OutcomeInvalidArgs, time.Since(start))
		c.logger.Debug("tool arguments rejected", zap.String("tool", name), zap.Error(err))
		return nil, err
	case errors.As(err, &regErr):
		c.metrics.ObserveToolCall(name, metrics.OutcomeUpstreamFail, time.Since(start))
		c.logger.Warn("registry lookup failed",
			zap.String("tool", name),
			zap.Int("status", regErr.Status),
			zap.Error(err))
		return payload, nil
	default:
		c.metrics.ObserveToolCall(name, metrics.OutcomeError, time.Since(start))
		c.logger.Warn("tool call failed", zap.String("tool", name), zap.Error(err))
		return nil, err
	}

	c.logger.Debug("tool called", zap.String("tool", name), zap.Duration("elapsed", time.Since(start)))
	return payload, nil
}
