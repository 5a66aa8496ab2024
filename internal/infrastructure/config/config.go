package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all environment-driven sandbox configuration.
type Config struct {
	Binary  BinaryConfig
	RPC     RPCConfig
	Node    NodeConfig
	Logging LogConfig
}

// BinaryConfig controls how the node executable is acquired.
type BinaryConfig struct {
	// Path points at a pre-built binary and bypasses the cache entirely.
	Path string `envconfig:"NEAR_SANDBOX_BIN_PATH" default:""`
	// URL overrides the composed artifact download URL.
	URL string `envconfig:"NEAR_SANDBOX_BINARY_URL" default:""`
}

// RPCConfig controls readiness probing.
type RPCConfig struct {
	TimeoutSecs int `envconfig:"NEAR_RPC_TIMEOUT_SECS" default:"10"`
}

// NodeConfig holds node limit overrides applied during config synthesis.
type NodeConfig struct {
	MaxPayloadSize uint64 `envconfig:"NEAR_SANDBOX_MAX_PAYLOAD_SIZE" default:"0"`
	MaxOpenFiles   uint64 `envconfig:"NEAR_SANDBOX_MAX_FILES" default:"0"`
}

// LogConfig controls whether and how node output is surfaced.
type LogConfig struct {
	// Enabled turns node log forwarding on. Off by default so test output
	// stays readable.
	Enabled bool `envconfig:"NEAR_ENABLE_SANDBOX_LOG" default:"false"`
	// Filter is forwarded to the node as RUST_LOG.
	Filter string `envconfig:"NEAR_SANDBOX_LOG" default:""`
	// Style is forwarded to the node as RUST_LOG_STYLE.
	Style string `envconfig:"NEAR_SANDBOX_LOG_STYLE" default:""`
}

// RPCTimeout returns the readiness deadline as a duration.
func (c *Config) RPCTimeout() time.Duration {
	return time.Duration(c.RPC.TimeoutSecs) * time.Second
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		RPC: RPCConfig{
			TimeoutSecs: 10,
		},
	}
}
