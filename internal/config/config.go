// Package config provides configuration loading for the fiscal-br server and
// CLI. Values are layered: defaults, then an optional YAML file, then
// environment variables; command-line flags are applied last by the caller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rezonia/fiscal-br/internal/logger"
)

// Config represents the complete configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tools     ToolsConfig     `yaml:"tools"`
	Registry  RegistryConfig  `yaml:"registry"`
	Signature SignatureConfig `yaml:"signature"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig configures the HTTP transport
type ServerConfig struct {
	// Host and Port form the listen address
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Debug enables gin debug mode and request logging to stdout
	Debug        bool          `yaml:"debug"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// CORSOrigins lists allowed origins; empty or "*" allows all
	CORSOrigins []string `yaml:"cors_origins"`
	// MaxBodyBytes caps request bodies (tool arguments, NF-e XML)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// ToolsConfig configures tool execution
type ToolsConfig struct {
	// CallTimeout bounds a single tool invocation
	CallTimeout time.Duration `yaml:"call_timeout"`
}

// RegistryConfig configures the CNPJ registry consultation
type RegistryConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SignatureConfig configures XML-DSig verification of NF-e documents
type SignatureConfig struct {
	Verify bool `yaml:"verify"`
	// TrustRoots is a PEM/DER file or a directory of ICP-Brasil root and
	// intermediate certificates. Without it only the signature is checked.
	TrustRoots      string        `yaml:"trust_roots"`
	CheckRevocation bool          `yaml:"check_revocation"`
	OCSPTimeout     time.Duration `yaml:"ocsp_timeout"`
	// SoftFail turns an unreachable OCSP responder into a warning
	SoftFail bool `yaml:"soft_fail"`
}

// LogConfig configures logging
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORSOrigins:  []string{"*"},
			MaxBodyBytes: 10 << 20,
		},
		Tools: ToolsConfig{
			CallTimeout: 15 * time.Second,
		},
		Registry: RegistryConfig{
			BaseURL: "https://receitaws.com.br/v1",
			Timeout: 10 * time.Second,
		},
		Signature: SignatureConfig{
			OCSPTimeout: 10 * time.Second,
			SoftFail:    true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	if c.Tools.CallTimeout <= 0 {
		return fmt.Errorf("tools.call_timeout must be positive")
	}
	if c.Registry.BaseURL == "" {
		return fmt.Errorf("registry.base_url is required")
	}
	if c.Registry.Timeout < 0 {
		return fmt.Errorf("registry.timeout must not be negative")
	}
	if c.Signature.OCSPTimeout < 0 {
		return fmt.Errorf("signature.ocsp_timeout must not be negative")
	}
	if c.Signature.CheckRevocation && !c.Signature.Verify {
		return fmt.Errorf("signature.check_revocation requires signature.verify")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LoadFromFile loads configuration from a YAML file over the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load returns the defaults when path is empty, otherwise the file contents
// over the defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		var err error
		if config, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return config, nil
}

// Environment variables read by ApplyEnv
const (
	EnvHost            = "FISCAL_HOST"
	EnvPort            = "FISCAL_PORT"
	EnvDebug           = "FISCAL_DEBUG"
	EnvCORSOrigins     = "FISCAL_CORS_ORIGINS"
	EnvCallTimeout     = "FISCAL_TOOL_TIMEOUT"
	EnvRegistryURL     = "FISCAL_REGISTRY_URL"
	EnvRegistryTimeout = "FISCAL_REGISTRY_TIMEOUT"
	EnvVerifySignature = "FISCAL_VERIFY_SIGNATURE"
	EnvTrustRoots      = "FISCAL_TRUST_ROOTS"
	EnvLogLevel        = "FISCAL_LOG_LEVEL"
)

// ApplyEnv overrides fields from environment variables. lookup is usually
// os.LookupEnv; tests pass a map-backed function.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvHost); ok && v != "" {
		c.Server.Host = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(EnvDebug); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDebug, err)
		}
		c.Server.Debug = debug
	}
	if v, ok := lookup(EnvCORSOrigins); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup(EnvCallTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCallTimeout, err)
		}
		c.Tools.CallTimeout = d
	}
	if v, ok := lookup(EnvRegistryURL); ok && v != "" {
		c.Registry.BaseURL = v
	}
	if v, ok := lookup(EnvRegistryTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRegistryTimeout, err)
		}
		c.Registry.Timeout = d
	}
	if v, ok := lookup(EnvVerifySignature); ok && v != "" {
		verify, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvVerifySignature, err)
		}
		c.Signature.Verify = verify
	}
	if v, ok := lookup(EnvTrustRoots); ok && v != "" {
		c.Signature.TrustRoots = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	return nil
}

// AllowAllOrigins reports whether CORS should answer "*"
func (s ServerConfig) AllowAllOrigins() bool {
	if len(s.CORSOrigins) == 0 {
		return true
	}
	for _, o := range s.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
