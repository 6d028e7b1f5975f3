// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Covers YAML parsing, env var expansion, duration parsing, and required fields

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/parley.db
dialogs:
  root: greeting
codec:
  secret: test-secret
runtime:
  replay_ttl: 5m
  replay_max_entries: 500
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/parley.db", cfg.Database.Path)
	assert.Equal(t, "greeting", cfg.Dialogs.Root)
	assert.Equal(t, "test-secret", cfg.Codec.Secret)
	assert.Equal(t, 5*time.Minute, cfg.Runtime.ReplayTTL)
	assert.Equal(t, 500, cfg.Runtime.ReplayMaxEntries)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("PARLEY_TEST_SECRET", "from-env")

	path := writeConfig(t, `
database:
  path: /tmp/parley.db
dialogs:
  root: greeting
codec:
  secret: ${PARLEY_TEST_SECRET}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Codec.Secret)
}

func TestLoad_UnsetEnvVarFailsValidation(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/parley.db
dialogs:
  root: greeting
codec:
  secret: ${PARLEY_DEFINITELY_UNSET_VAR}
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codec.secret")
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/parley.db
dialogs:
  root: greeting
codec:
  secret: s
runtime:
  replay_ttl: not-a-duration
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replay_ttl")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "database: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestValidate_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"missing root dialog", func(c *Config) { c.Dialogs.Root = "" }, "dialogs.root"},
		{"missing codec secret", func(c *Config) { c.Codec.Secret = "" }, "codec.secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Database: DatabaseConfig{Path: "/tmp/x.db"},
				Dialogs:  DialogsConfig{Root: "greeting"},
				Codec:    CodecConfig{Secret: "s"},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
