package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "data/zimra_data.csv", cfg.Dataset.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Security.RateLimit.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AUDIT_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("AUDIT_SERVER_PORT", "9090")
	t.Setenv("AUDIT_DATASET_PATH", "/tmp/other.csv")
	t.Setenv("AUDIT_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/other.csv", cfg.Dataset.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched fields keep their defaults.
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "server:\n  port: 7777\ndataset:\n  path: data/custom.csv\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("AUDIT_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "data/custom.csv", cfg.Dataset.Path)
}

func TestEnvBeatsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7777\n"), 0o644))
	t.Setenv("AUDIT_CONFIG_FILE", path)
	t.Setenv("AUDIT_SERVER_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "invalid port",
			env:  map[string]string{"AUDIT_SERVER_PORT": "70000"},
		},
		{
			name: "empty dataset path",
			env:  map[string]string{"AUDIT_DATASET_PATH": ""},
		},
		{
			name: "rate limit enabled with zero rps",
			env: map[string]string{
				"AUDIT_SECURITY_RATE_LIMIT_ENABLED": "true",
				"AUDIT_SECURITY_RATE_LIMIT_RPS":     "0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUDIT_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
