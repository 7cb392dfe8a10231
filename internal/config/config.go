package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Environment Environment
	Fuzz        FuzzConfig
	Reporting   ReportingConfig
}

// Environment holds environment-specific configuration
type Environment struct {
	BaseURL string `yaml:"base_url"`
	Auth    AuthConfig
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	Type  string `yaml:"type"`
	Token string `yaml:"token"`
}

// FuzzConfig holds case-generation and execution configuration
type FuzzConfig struct {
	CasesPerEndpoint int         `yaml:"cases_per_endpoint"`
	MaxWorkers       int         `yaml:"max_workers"`
	Timeout          int         `yaml:"timeout"`
	Seed             int64       `yaml:"seed"`
	Retry            RetryConfig `yaml:"retry"`
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	Attempts int `yaml:"attempts"`
	Delay    int `yaml:"delay"`
}

// ReportingConfig holds reporting configuration
type ReportingConfig struct {
	Format    []string `yaml:"format"`
	OutputDir string   `yaml:"output_dir"`
	Detailed  bool     `yaml:"detailed"`
}

// AuthHeaders returns the headers to attach to every request for the
// configured authentication, or nil when no token is set.
func (c *Config) AuthHeaders() map[string]string {
	token := c.Environment.Auth.Token
	if token == "" {
		return nil
	}
	switch strings.ToLower(c.Environment.Auth.Type) {
	case "", "bearer":
		return map[string]string{"Authorization": "Bearer " + token}
	case "basic":
		return map[string]string{"Authorization": "Basic " + token}
	}
	return map[string]string{"Authorization": c.Environment.Auth.Type + " " + token}
}

// LoadConfig loads the configuration from environment variables and config files
func LoadConfig() (*Config, error) {
	// Default config file path
	configPath := "config/config.yaml"

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at %s", configPath)
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	return parseConfig(data)
}

// Default returns a configuration with all defaults applied and no
// environment or file input.
func Default() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

func parseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	// Override auth token from environment variable if set
	if token := os.Getenv("AUTH_TOKEN"); token != "" {
		config.Environment.Auth.Token = token
	}

	applyDefaults(&config)
	return &config, nil
}

// applyDefaults sets default values for anything not specified
func applyDefaults(config *Config) {
	if config.Fuzz.CasesPerEndpoint == 0 {
		config.Fuzz.CasesPerEndpoint = 10
	}
	if config.Fuzz.MaxWorkers == 0 {
		config.Fuzz.MaxWorkers = 5
	}
	if config.Fuzz.Timeout == 0 {
		config.Fuzz.Timeout = 30
	}
	if config.Fuzz.Retry.Attempts == 0 {
		config.Fuzz.Retry.Attempts = 3
	}
	if config.Fuzz.Retry.Delay == 0 {
		config.Fuzz.Retry.Delay = 1
	}
	if len(config.Reporting.Format) == 0 {
		config.Reporting.Format = []string{"json"}
	}
	if config.Reporting.OutputDir == "" {
		config.Reporting.OutputDir = filepath.Join("reports")
	}
}
