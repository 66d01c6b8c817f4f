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
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "gfi_dataset.db"), cfg.DatabasePath)
	assert.Equal(t, 5, cfg.Workers)
	d, err := cfg.LockDuration()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, `{"database_path": "from_file.db"}`)
	t.Setenv(EnvDatabasePath, "/tmp/from_env.db")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from_env.db", cfg.DatabasePath)
}

func TestLoadConfigRejectsBadLockMaxAge(t *testing.T) {
	path := writeConfig(t, `{"lock_max_age": "soon"}`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestCreateDefaultConfigDoesNotOverwrite(t *testing.T) {
	path := writeConfig(t, `{"workers": 2}`)

	require.NoError(t, CreateDefaultConfig(path))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
}

func TestCreateDefaultConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	require.NoError(t, CreateDefaultConfig(path))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, "24h", cfg.LockMaxAge)
}
