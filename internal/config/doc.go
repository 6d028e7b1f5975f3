// Package config loads and validates parley configuration from YAML files,
// with ${VAR} environment expansion and duration parsing.
package config
