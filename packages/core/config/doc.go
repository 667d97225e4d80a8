// Package config handles configuration loading and management for envdiff.
//
// It provides functionality for:
//   - Loading configuration from .envdiff.yaml, .envdiff.json or envdiff.config.yaml
//   - Default configuration values
//   - ENVDIFF_* environment variable overrides
package config
