// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alienxp03/rostrum/internal/provider"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	Generator GeneratorConfig `yaml:"generator,omitempty"`
	Analysis  AnalysisConfig  `yaml:"analysis,omitempty"`
	Archive   ArchiveConfig   `yaml:"archive,omitempty"`
}

// ServerConfig holds server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// GeneratorConfig holds settings for the utterance generator.
type GeneratorConfig struct {
	Command    string        `yaml:"command"`
	Args       []string      `yaml:"args,omitempty"`
	Model      string        `yaml:"model,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	MaxRetries int           `yaml:"max_retries,omitempty"`
}

// AnalysisConfig holds settings for the external analysis service.
type AnalysisConfig struct {
	Endpoint string        `yaml:"endpoint,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// ArchiveConfig holds settings for debate archiving.
type ArchiveConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8184,
		},
		Generator: GeneratorConfig{
			Command:    "mock",
			Timeout:    5 * time.Minute,
			MaxRetries: 2,
		},
		Analysis: AnalysisConfig{
			Timeout: 30 * time.Second,
		},
		Archive: ArchiveConfig{
			Dir: "saved_debates",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path, falling back to
// defaults when the file is absent. Environment variables (optionally
// from a .env file) override file values.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, proceed with defaults
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// .env is optional; real environment variables win either way.
	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides layers ROSTRUM_* environment variables over cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ROSTRUM_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ROSTRUM_GENERATOR_COMMAND"); v != "" {
		cfg.Generator.Command = v
	}
	if v := os.Getenv("ROSTRUM_GENERATOR_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Generator.Timeout = d
		}
	}
	if v := os.Getenv("ROSTRUM_ANALYSIS_ENDPOINT"); v != "" {
		cfg.Analysis.Endpoint = v
	}
	if v := os.Getenv("ROSTRUM_ARCHIVE_DIR"); v != "" {
		cfg.Archive.Dir = v
	}
}

// SaveTo saves the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
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

// ProviderConfig converts the generator section to the provider
// package's config type.
func (c *Config) ProviderConfig() provider.Config {
	return provider.Config{
		Command:    c.Generator.Command,
		Args:       c.Generator.Args,
		Model:      c.Generator.Model,
		Timeout:    c.Generator.Timeout,
		MaxRetries: c.Generator.MaxRetries,
	}
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "rostrum.yaml"
	}
	return filepath.Join(home, ".rostrum", "config.yaml")
}

// GenerateExample generates an example configuration file.
func GenerateExample() string {
	example := `# rostrum configuration file
# Place this file at ~/.rostrum/config.yaml

server:
  port: 8184

generator:
  command: claude           # CLI used to generate utterances ("mock" for demos)
  args: ["--print"]
  model: ""                 # e.g., "sonnet", "opus" (empty = CLI default)
  timeout: 5m
  max_retries: 2            # Retry failed commands (default: 2, total 3 attempts)

analysis:
  endpoint: ""              # External analysis service URL (empty = disabled)
  timeout: 30s

archive:
  dir: saved_debates        # Where finalized debates are written
`
	return example
}
