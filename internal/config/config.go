package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all kalimcp configuration.
type Config struct {
	// Server identity reported during the initialize handshake
	Server ServerConfig `yaml:"server"`

	// Execution settings
	Execution ExecutionConfig `yaml:"execution"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// CatalogPath replaces the built-in tool catalog when set.
	CatalogPath string `yaml:"catalog_path"`
}

// ServerConfig describes the server to the orchestrator.
type ServerConfig struct {
	Name            string `yaml:"name"`
	Version         string `yaml:"version"`
	ProtocolVersion string `yaml:"protocol_version"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:            "kali-mcp",
			Version:         "1.0.0",
			ProtocolVersion: "2025-06-18",
		},

		Execution: ExecutionConfig{
			Mode:            ModeShell,
			Shell:           "/bin/sh",
			DefaultTimeout:  "300s",
			KillGrace:       "2s",
			MaxStdoutChars:  10000,
			MaxStderrChars:  5000,
			MaxCaptureBytes: 10 * 1024 * 1024,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
// An empty path yields the defaults; a named file must exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetExecutionTimeout returns the default execution timeout as a duration.
func (c *Config) GetExecutionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.DefaultTimeout)
	if err != nil || d <= 0 {
		return 300 * time.Second
	}
	return d
}

// GetKillGrace returns how long the executor waits for pipes after a kill.
func (c *Config) GetKillGrace() time.Duration {
	d, err := time.ParseDuration(c.Execution.KillGrace)
	if err != nil || d < 0 {
		return 2 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.ProtocolVersion == "" {
		return fmt.Errorf("server.protocol_version must not be empty")
	}
	if err := c.Execution.Validate(); err != nil {
		return fmt.Errorf("execution: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
