// Package config loads, validates and saves the kvault YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// Defaults applied by validation when a field is unset.
const (
	DefaultAPIBase         = "/api"
	DefaultTimeout         = 30 * time.Second
	DefaultAITimeout       = 120 * time.Second
	DefaultRefreshInterval = 60 * time.Second
	DefaultListen          = "127.0.0.1:8080"
)

// Bounds of refresh_interval.
const (
	MinRefreshInterval = 5 * time.Second
	MaxRefreshInterval = time.Hour
)

// Config holds the full application configuration loaded from YAML.
type Config struct {
	// ServerURL is the origin of the KnowledgeVault backend (e.g. "http://localhost:8000").
	ServerURL string `yaml:"server_url"`

	// APIBase is the path prefix of the REST API. Defaults to "/api".
	APIBase string `yaml:"api_base,omitempty"`

	// Timeout bounds every request except AI summaries. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// AITimeout bounds AI summary requests. Defaults to 120s and may not be
	// shorter than Timeout.
	AITimeout time.Duration `yaml:"ai_timeout,omitempty"`

	// RefreshInterval controls how often the web server re-fetches
	// categories and stats. Minimum 5s, maximum 1h. Defaults to 60s.
	RefreshInterval time.Duration `yaml:"refresh_interval,omitempty"`

	// CachePath is the SQLite snapshot file. Empty selects the default data dir.
	CachePath string `yaml:"cache_path,omitempty"`

	// DefaultCategory is the category name used by import when -c is omitted.
	DefaultCategory string `yaml:"default_category,omitempty"`

	// Web configures the kvault web server.
	Web WebConfig `yaml:"web,omitempty"`

	// Telemetry configures optional OpenTelemetry export via OTLP gRPC.
	// Omit the block entirely to disable telemetry.
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
}

// WebConfig holds the web server settings.
type WebConfig struct {
	// Listen is the host:port to bind. Defaults to "127.0.0.1:8080".
	Listen string `yaml:"listen,omitempty"`

	// CORSOrigins lists the origins allowed to call the views from a browser.
	// Empty disables CORS headers.
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

// TelemetryConfig holds optional OpenTelemetry settings.
type TelemetryConfig struct {
	// OTLPEndpoint is the gRPC host:port of the OTLP collector (e.g. "localhost:4317").
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Insecure disables TLS for the collector connection. Use for local collectors.
	Insecure bool `yaml:"insecure,omitempty"`

	// ServiceName overrides the OTel service.name attribute. Defaults to "kvault".
	ServiceName string `yaml:"service_name,omitempty"`

	// Headers contains key-value pairs sent as gRPC metadata on every OTLP
	// request, e.g. Authorization: "Bearer <token>".
	Headers map[string]string `yaml:"headers,omitempty"`
}

// DefaultPath returns the default config file path: ~/.config/kvault/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "kvault", "config.yaml"), nil
}

// Default returns a configuration for serverURL with every default applied.
func Default(serverURL string) *Config {
	c := &Config{ServerURL: serverURL}
	c.applyDefaults()
	return c
}

// Load reads and validates the configuration file at the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file %q: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true) // reject unknown keys to catch typos early
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Save validates c and writes it to path, replacing any existing file
// atomically. Parent directories are created as needed.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("writing config file %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.APIBase == "" {
		c.APIBase = DefaultAPIBase
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.AITimeout == 0 {
		c.AITimeout = DefaultAITimeout
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
	if c.Web.Listen == "" {
		c.Web.Listen = DefaultListen
	}
}

// Validate fills in defaults and checks that every field is well-formed.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return errors.New("server_url is required")
	}
	u, err := url.ParseRequestURI(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server_url %q must be a valid http or https URL", c.ServerURL)
	}

	c.applyDefaults()

	if !strings.HasPrefix(c.APIBase, "/") {
		return fmt.Errorf("api_base %q must start with /", c.APIBase)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout %v must be positive", c.Timeout)
	}
	if c.AITimeout < c.Timeout {
		return fmt.Errorf("ai_timeout %v is shorter than timeout %v", c.AITimeout, c.Timeout)
	}
	if c.RefreshInterval < MinRefreshInterval {
		return fmt.Errorf("refresh_interval %v is too short (minimum %v)", c.RefreshInterval, MinRefreshInterval)
	}
	if c.RefreshInterval > MaxRefreshInterval {
		return fmt.Errorf("refresh_interval %v is too long (maximum %v)", c.RefreshInterval, MaxRefreshInterval)
	}

	for _, origin := range c.Web.CORSOrigins {
		if origin == "" {
			return errors.New("web.cors_origins contains an empty origin")
		}
	}

	if c.Telemetry != nil {
		if c.Telemetry.OTLPEndpoint == "" {
			return errors.New("telemetry.otlp_endpoint is required when telemetry is configured")
		}
	}

	return nil
}
