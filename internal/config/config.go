// ABOUTME: Configuration loading and parsing for the parley runtime
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete parley configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Dialogs  DialogsConfig  `yaml:"dialogs"`
	Codec    CodecConfig    `yaml:"codec"`
	Runtime  RuntimeConfig  `yaml:"runtime"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig holds state database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DialogsConfig names the root dialog the runtime begins when no dialog is
// active.
type DialogsConfig struct {
	Root string `yaml:"root"`
}

// CodecConfig holds the reference codec signing secret
type CodecConfig struct {
	Secret string `yaml:"secret"`
}

// RuntimeConfig holds turn-processing configuration
type RuntimeConfig struct {
	ReplayTTL        time.Duration `yaml:"-"`
	ReplayMaxEntries int           `yaml:"replay_max_entries"`

	// Raw string value for YAML unmarshaling
	ReplayTTLRaw string `yaml:"replay_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Runtime.ReplayTTLRaw != "" {
		cfg.Runtime.ReplayTTL, err = time.ParseDuration(cfg.Runtime.ReplayTTLRaw)
		if err != nil {
			return nil, fmt.Errorf("parsing replay_ttl %q: %w", cfg.Runtime.ReplayTTLRaw, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Dialogs.Root == "" {
		return fmt.Errorf("dialogs.root is required")
	}
	if c.Codec.Secret == "" {
		return fmt.Errorf("codec.secret is required")
	}
	return nil
}
