package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides (ENVDIFF_TIMEOUT, ...).
const EnvPrefix = "ENVDIFF"

// Array strategies for the structural diff.
const (
	ArrayPositional = "positional"
	ArrayLCS        = "lcs"
)

// Authorization precedence between an environment token and a custom header.
const (
	AuthEnvironment = "environment"
	AuthRequest     = "request"
)

// Config represents the envdiff configuration
type Config struct {
	Timeout            int               `mapstructure:"timeout" json:"timeout,omitempty"`         // milliseconds, per target
	Concurrency        int               `mapstructure:"concurrency" json:"concurrency,omitempty"` // 0 = all targets at once
	RateLimit          float64           `mapstructure:"rateLimit" json:"rateLimit,omitempty"`     // requests per second, 0 = unlimited
	FollowRedirects    *bool             `mapstructure:"followRedirects" json:"followRedirects,omitempty"`
	MaxRedirects       int               `mapstructure:"maxRedirects" json:"maxRedirects,omitempty"`
	ValidateSSL        *bool             `mapstructure:"validateSSL" json:"validateSSL,omitempty"`
	Proxy              string            `mapstructure:"proxy" json:"proxy,omitempty"`             // forward proxy for the transport
	ProxyPrefix        string            `mapstructure:"proxyPrefix" json:"proxyPrefix,omitempty"` // URL prefix for environments with useProxy
	Headers            map[string]string `mapstructure:"headers" json:"headers,omitempty"`         // Default headers for all requests
	ArrayStrategy      string            `mapstructure:"arrayStrategy" json:"arrayStrategy,omitempty"`
	AuthPrecedence     string            `mapstructure:"authPrecedence" json:"authPrecedence,omitempty"`
	GlobalSubstitution *bool             `mapstructure:"globalSubstitution" json:"globalSubstitution,omitempty"`
	Baseline           string            `mapstructure:"baseline" json:"baseline,omitempty"` // environment id compared against
	EnvFile            string            `mapstructure:"envFile" json:"envFile,omitempty"`
	Output             string            `mapstructure:"output" json:"output,omitempty"`
	LogFormat          string            `mapstructure:"logFormat" json:"logFormat,omitempty"`
	Verbose            *bool             `mapstructure:"verbose" json:"verbose,omitempty"`
	NoColor            *bool             `mapstructure:"noColor" json:"noColor,omitempty"`
}

// boolPtr returns a pointer to a bool value
func boolPtr(b bool) *bool {
	return &b
}

// BoolPtr is exported version of boolPtr for external use
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetGlobalSubstitution reports whether every placeholder occurrence is
// substituted instead of only the first one. Defaults to false.
func (c *Config) GetGlobalSubstitution() bool {
	return getBool(c.GlobalSubstitution, false)
}

func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// TimeoutDuration returns the per-target timeout.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// Validate rejects enum values the rest of the program would not understand.
func (c *Config) Validate() error {
	switch strings.ToLower(c.ArrayStrategy) {
	case "", ArrayPositional, ArrayLCS:
	default:
		return fmt.Errorf("invalid arrayStrategy %q (want %s or %s)", c.ArrayStrategy, ArrayPositional, ArrayLCS)
	}
	switch strings.ToLower(c.AuthPrecedence) {
	case "", AuthEnvironment, AuthRequest:
	default:
		return fmt.Errorf("invalid authPrecedence %q (want %s or %s)", c.AuthPrecedence, AuthEnvironment, AuthRequest)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rateLimit must not be negative")
	}
	return nil
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".envdiff.yaml",
	".envdiff.yml",
	".envdiff.json",
	"envdiff.config.yaml",
	"envdiff.config.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfig(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory.
// Defaults and ENVDIFF_* overrides apply even when no file is found.
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfig(configPath)
		}
	}
	return loadConfig("")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("rateLimit", d.RateLimit)
	v.SetDefault("followRedirects", *d.FollowRedirects)
	v.SetDefault("maxRedirects", d.MaxRedirects)
	v.SetDefault("validateSSL", *d.ValidateSSL)
	v.SetDefault("proxy", d.Proxy)
	v.SetDefault("proxyPrefix", d.ProxyPrefix)
	v.SetDefault("arrayStrategy", d.ArrayStrategy)
	v.SetDefault("authPrecedence", d.AuthPrecedence)
	v.SetDefault("globalSubstitution", *d.GlobalSubstitution)
	v.SetDefault("baseline", d.Baseline)
	v.SetDefault("envFile", d.EnvFile)
	v.SetDefault("output", d.Output)
	v.SetDefault("logFormat", d.LogFormat)
	v.SetDefault("verbose", *d.Verbose)
	v.SetDefault("noColor", *d.NoColor)
	return v
}

// loadConfig loads configuration from a specific file, or from defaults and
// the environment only when path is empty.
func loadConfig(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.Concurrency > 0 {
		result.Concurrency = other.Concurrency
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.ProxyPrefix != "" {
		result.ProxyPrefix = other.ProxyPrefix
	}
	if other.ArrayStrategy != "" {
		result.ArrayStrategy = other.ArrayStrategy
	}
	if other.AuthPrecedence != "" {
		result.AuthPrecedence = other.AuthPrecedence
	}
	if other.Baseline != "" {
		result.Baseline = other.Baseline
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.LogFormat != "" {
		result.LogFormat = other.LogFormat
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.GlobalSubstitution != nil {
		result.GlobalSubstitution = other.GlobalSubstitution
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	// Merge headers
	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}
