package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// EnvDatabasePath is the environment variable overriding the
	// database path from the config file
	EnvDatabasePath = "RECGFI_DB_PATH"
)

// Config represents the application configuration
type Config struct {
	// Path to the SQLite database file
	DatabasePath string `json:"database_path"`

	// Log file path (empty logs to stderr only) and level
	LogFile  string `json:"log_file"`
	LogLevel string `json:"log_level"`

	// Number of parallel workers for the per-issue loop
	Workers int `json:"workers"`

	// How long an active build log may block its key before a new run
	// takes it over as stale, as a Go duration string
	LockMaxAge string `json:"lock_max_age"`
}

// LoadConfig loads the configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if envPath := os.Getenv(EnvDatabasePath); envPath != "" {
		config.DatabasePath = envPath
	}

	if config.DatabasePath == "" {
		config.DatabasePath = "gfi_dataset.db"
	}
	if config.Workers == 0 {
		config.Workers = 5
	}
	if config.LockMaxAge == "" {
		config.LockMaxAge = "24h"
	}
	if _, err := config.LockDuration(); err != nil {
		return nil, err
	}

	// Make database path absolute if it's relative
	if !filepath.IsAbs(config.DatabasePath) {
		configDir := filepath.Dir(path)
		config.DatabasePath = filepath.Join(configDir, config.DatabasePath)
	}

	return &config, nil
}

// LockDuration parses the configured lock max age
func (c *Config) LockDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.LockMaxAge)
	if err != nil {
		return 0, fmt.Errorf("failed to parse lock_max_age %q: %w", c.LockMaxAge, err)
	}
	return d, nil
}

// SaveConfig saves the configuration to a JSON file
func SaveConfig(config *Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateDefaultConfig creates a default configuration file if it doesn't exist
func CreateDefaultConfig(path string) error {
	// Check if the file already exists
	if _, err := os.Stat(path); err == nil {
		return nil // File exists, don't overwrite
	}

	config := &Config{
		DatabasePath: "gfi_dataset.db",
		LogFile:      "",
		LogLevel:     "info",
		Workers:      5,
		LockMaxAge:   "24h",
	}

	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return SaveConfig(config, path)
}
