package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAndLoadConfigDefaults(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 30000, cfg.Timeout)
	assert.Equal(t, 30*time.Second, cfg.TimeoutDuration())
	assert.True(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetGlobalSubstitution())
	assert.Equal(t, ArrayPositional, cfg.ArrayStrategy)
	assert.Equal(t, AuthEnvironment, cfg.AuthPrecedence)
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".envdiff.yaml")
	content := `
timeout: 5000
concurrency: 2
arrayStrategy: lcs
validateSSL: false
baseline: prod
headers:
  User-Agent: envdiff-test
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Timeout)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, ArrayLCS, cfg.ArrayStrategy)
	assert.False(t, cfg.GetValidateSSL())
	assert.Equal(t, "prod", cfg.Baseline)
	// viper lowercases map keys
	assert.Equal(t, "envdiff-test", cfg.Headers["user-agent"])
	// untouched keys keep their defaults
	assert.True(t, cfg.GetFollowRedirects())
	assert.Equal(t, 10, cfg.MaxRedirects)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ENVDIFF_TIMEOUT", "1500")
	t.Setenv("ENVDIFF_BASELINE", "staging")

	cfg, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 1500, cfg.Timeout)
	assert.Equal(t, "staging", cfg.Baseline)
}

func TestLoadConfigRejectsUnknownStrategy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "envdiff.config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"arrayStrategy": "myers"}`), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arrayStrategy")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"Accept": "application/json"}

	merged := base.Merge(&Config{
		Timeout:     2000,
		NoColor:     BoolPtr(true),
		Headers:     map[string]string{"X-Trace": "1"},
		Baseline:    "prod",
		Concurrency: 0,
	})

	assert.Equal(t, 2000, merged.Timeout)
	assert.True(t, merged.GetNoColor())
	assert.Equal(t, "prod", merged.Baseline)
	assert.Equal(t, 0, merged.Concurrency)
	assert.Equal(t, map[string]string{"Accept": "application/json", "X-Trace": "1"}, merged.Headers)
	// the receiver is not modified
	assert.Len(t, base.Headers, 1)
	assert.Equal(t, 30000, base.Timeout)

	assert.Same(t, base, base.Merge(nil))
}
