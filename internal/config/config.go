// Package config provides YAML-based configuration for checkversion.
// Configuration is loaded with a layered precedence: defaults → YAML file → env vars.
// Environment variables always win, and command-line flags win over both.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. CHECKVERSION_CONFIG environment variable
//  3. ~/.checkversion/config.yaml
//  4. ./checkversion.yaml
//
// If no file is found the tool runs entirely from env vars and defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvConfig      = "CHECKVERSION_CONFIG"
	EnvDir         = "CHECKVERSION_DIR"
	EnvProject     = "CHECKVERSION_PROJECT"
	EnvGit         = "CHECKVERSION_GIT"
	EnvGitTimeout  = "CHECKVERSION_GIT_TIMEOUT"
	EnvHistoryDB   = "CHECKVERSION_HISTORY_DB"
	EnvMetricsFile = "CHECKVERSION_METRICS_FILE"
	EnvLogLevel    = "LOG_LEVEL"
	EnvLogFormat   = "LOG_FORMAT"
)

// Config is the top-level YAML configuration structure.
type Config struct {
	// Project selects the directory and name of the project.
	Project ProjectConfig `yaml:"project"`

	// Git configures how version-control state is queried.
	Git GitConfig `yaml:"git"`

	// History configures the optional resolution ledger.
	History HistoryConfig `yaml:"history"`

	// Metrics configures the optional Prometheus textfile output.
	Metrics MetricsConfig `yaml:"metrics"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`
}

// ProjectConfig holds project location settings.
type ProjectConfig struct {
	// Dir is the project directory; git runs here and the version file is
	// written here. Defaults to the working directory.
	Dir string `yaml:"dir"`
	// Name overrides the project name derived from Dir.
	Name string `yaml:"name"`
}

// GitConfig holds git invocation settings.
type GitConfig struct {
	// Binary is the git executable name or path.
	Binary string `yaml:"binary"`
	// Timeout bounds each git query (Go duration syntax). Empty means none.
	Timeout string `yaml:"timeout"`
}

// HistoryConfig holds resolution ledger settings.
type HistoryConfig struct {
	// DBPath is the SQLite database path. Empty disables the ledger.
	DBPath string `yaml:"db_path"`
}

// MetricsConfig holds Prometheus textfile settings.
type MetricsConfig struct {
	// Textfile is the .prom output path. Empty disables metrics output.
	Textfile string `yaml:"textfile"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// envMapping maps YAML config fields to their corresponding env var names.
// Only non-empty YAML values are applied; env vars always take precedence.
var envMapping = []struct {
	envKey string
	value  func(*Config) string
}{
	{EnvDir, func(c *Config) string { return c.Project.Dir }},
	{EnvProject, func(c *Config) string { return c.Project.Name }},
	{EnvGit, func(c *Config) string { return c.Git.Binary }},
	{EnvGitTimeout, func(c *Config) string { return c.Git.Timeout }},
	{EnvHistoryDB, func(c *Config) string { return c.History.DBPath }},
	{EnvMetricsFile, func(c *Config) string { return c.Metrics.Textfile }},
	{EnvLogLevel, func(c *Config) string { return c.Logging.Level }},
	{EnvLogFormat, func(c *Config) string { return c.Logging.Format }},
}

// Load reads a YAML config file and applies non-empty values as environment
// variables. Existing env vars are never overwritten (env always wins).
// Returns the path that was loaded, or empty string if no file was found.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	path := resolveConfigPath(explicitPath)
	if path == "" {
		log.Debug("config: no YAML config file found, using env vars only")
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applied := 0
	for _, m := range envMapping {
		yamlVal := m.value(&cfg)
		if yamlVal == "" {
			continue
		}
		if os.Getenv(m.envKey) != "" {
			continue // env var already set, do not override
		}
		if err := os.Setenv(m.envKey, yamlVal); err != nil {
			return "", fmt.Errorf("config: set %s: %w", m.envKey, err)
		}
		applied++
	}

	log.Debug("config: loaded YAML config",
		slog.String("path", path),
		slog.Int("keys_applied", applied),
	)

	return path, nil
}

// Settings is the effective configuration after YAML and env layering.
type Settings struct {
	Dir         string
	Project     string
	GitBinary   string
	GitTimeout  time.Duration
	HistoryDB   string
	MetricsFile string
}

// FromEnv builds Settings from the environment. Dir defaults to ".".
func FromEnv() (*Settings, error) {
	s := &Settings{
		Dir:         getEnvOrDefault(EnvDir, "."),
		Project:     os.Getenv(EnvProject),
		GitBinary:   os.Getenv(EnvGit),
		HistoryDB:   os.Getenv(EnvHistoryDB),
		MetricsFile: os.Getenv(EnvMetricsFile),
	}
	if raw := os.Getenv(EnvGitTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("config: invalid %s %q: %w", EnvGitTimeout, raw, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("config: %s must not be negative, got %s", EnvGitTimeout, raw)
		}
		s.GitTimeout = d
	}
	return s, nil
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv(EnvConfig); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".checkversion", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("checkversion.yaml"); err == nil {
		return "checkversion.yaml"
	}

	return ""
}

// getEnvOrDefault returns the env var value or fallback when unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
