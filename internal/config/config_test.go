package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "")
	t.Setenv("API_BASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://localhost:8081/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.TimeoutDuration())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9000")
	t.Setenv("API_TIMEOUT", "3")
	t.Setenv("DEV", "no")
	t.Setenv("SESSION_TTL", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 3, cfg.API.Timeout)
	assert.False(t, cfg.App.Dev)
	assert.Equal(t, 2*time.Hour, cfg.App.SessionTTLDuration())
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "api:\n  base_url: http://backend:3000/api/v1\napp:\n  log_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://backend:3000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "7000", cfg.Server.Port, "values absent from the file keep their env value")
}

func TestLoad_BadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "inv", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=inv sslmode=disable", d.DSN())
	assert.Equal(t, "postgres://u:p@db:5432/inv?sslmode=disable", d.URL())
}
