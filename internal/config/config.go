// Package config loads configuration for the demo server.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the default name of the configuration file.
	ConfigFileName = "datastar-demo.yaml"

	// DefaultAddr is the default listen address.
	DefaultAddr = "localhost:3000"

	// DefaultBasePath is the default base path for demo routes.
	DefaultBasePath = "/"

	// DefaultLogLevel is the default slog level name.
	DefaultLogLevel = "info"
)

// Config is the demo server configuration.
type Config struct {
	// Addr is the listen address, host:port.
	Addr string `yaml:"addr,omitempty"`

	// BasePath is the path prefix all demo routes are mounted under.
	BasePath string `yaml:"base_path,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`

	// Metrics enables the Prometheus /metrics endpoint.
	Metrics bool `yaml:"metrics,omitempty"`

	// Tracing enables the OpenTelemetry middleware.
	Tracing bool `yaml:"tracing,omitempty"`

	// CORS contains cross-origin settings for the demo endpoints.
	CORS CORSConfig `yaml:"cors,omitempty"`
}

// CORSConfig contains cross-origin settings.
type CORSConfig struct {
	// Enabled turns the CORS middleware on.
	Enabled bool `yaml:"enabled,omitempty"`

	// AllowedOrigins lists origins allowed to connect. Defaults to none.
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Addr:     DefaultAddr,
		BasePath: DefaultBasePath,
		LogLevel: DefaultLogLevel,
		Metrics:  true,
	}
}

// Load reads the configuration from path, filling unset fields with
// defaults. A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills fields the file left empty.
func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if c.CORS.Enabled && len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("config: cors enabled but no allowed origins")
	}
	return nil
}
