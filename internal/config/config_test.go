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
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  port: 0\n"))
	require.NoError(t, err)

	assert.Equal(t, 38561, cfg.App.Port)
	assert.Equal(t, 5, cfg.Validation.BatchSize)
	assert.Equal(t, []string{"%greenhouse.io%", "%comeet%"}, cfg.Validation.LinkPatterns)
	assert.Equal(t, "Israel", cfg.Region.Country)
	assert.Equal(t, "IL", cfg.Region.Code)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 15*time.Second, cfg.PageLoadTimeout())
	assert.Equal(t, 5*time.Second, cfg.OpenCageTimeout())
	assert.Equal(t, 30*time.Second, cfg.OpenAITimeout())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
app:
  port: 9000
validation:
  batch_size: 10
  page_load_timeout_seconds: 30
region:
  country: Germany
  code: DE
  known_locations:
    ber: Berlin
log:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, 10, cfg.Validation.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.PageLoadTimeout())
	assert.Equal(t, "Germany", cfg.Region.Country)
	assert.Equal(t, "Berlin", cfg.Region.KnownLocations["ber"])
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsBadRegionCode(t *testing.T) {
	_, err := Load(writeConfig(t, "region:\n  code: ISRAEL\n"))
	assert.Error(t, err)
}

func TestLoadRejectsNegativeBatch(t *testing.T) {
	_, err := Load(writeConfig(t, "validation:\n  batch_size: -3\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestEnsureUserConfigCopiesDefault(t *testing.T) {
	dataDir := t.TempDir()
	defaultPath := writeConfig(t, "app:\n  port: 12345\n")

	userPath, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "config.yml"), userPath)

	cfg, err := Load(userPath)
	require.NoError(t, err)
	assert.Equal(t, 12345, cfg.App.Port)

	// Second run leaves the user copy alone.
	require.NoError(t, os.WriteFile(userPath, []byte("app:\n  port: 54321\n"), 0o644))
	again, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	cfg, err = Load(again)
	require.NoError(t, err)
	assert.Equal(t, 54321, cfg.App.Port)
}
