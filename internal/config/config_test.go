package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "/courses", cfg.Session.FallbackPath)
	assert.Equal(t, 30*time.Second, cfg.Session.SubmitTimeout)
	assert.Equal(t, ":8080", cfg.Service.Addr)
	assert.False(t, cfg.EnvFileLoaded)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadFileThenEnvironment(t *testing.T) {
	path := writeFile(t, "careerpath.yaml", `
api:
  base_url: https://exams.example.test/api
  timeout: 3s
  headers:
    X-Client: terminal
store:
  backend: sqlite
  sqlite_path: /tmp/attempts.db
session:
  fallback_path: /student/courses
log:
  level: debug
`)
	t.Setenv("CAREERPATH_STORE_BACKEND", "redis")
	t.Setenv("CAREERPATH_API_TOKEN", "tok-123")

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "https://exams.example.test/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "/tmp/attempts.db", cfg.Store.SQLitePath)
	assert.Equal(t, "/student/courses", cfg.Session.FallbackPath)
	assert.Equal(t, "debug", cfg.Log.Level)

	headers := cfg.API.DefaultHeaders()
	assert.Equal(t, "Bearer tok-123", headers["Authorization"])
	assert.Equal(t, "terminal", headers["x-client"])
}

func TestLoadEnvFile(t *testing.T) {
	envFile := writeFile(t, "test.env", "CAREERPATH_SERVICE_JWT_SECRET=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("CAREERPATH_SERVICE_JWT_SECRET") })

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.True(t, cfg.EnvFileLoaded)
	assert.Equal(t, "from-dotenv", cfg.Service.JWTSecret)
}

func TestLoadRejectsBadValues(t *testing.T) {
	missingEnv := filepath.Join(t.TempDir(), "missing.env")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), missingEnv)
	assert.Error(t, err, "an explicit config path must exist")

	t.Setenv("CAREERPATH_STORE_BACKEND", "etcd")
	_, err = Load("", missingEnv)
	assert.ErrorContains(t, err, "store.backend")
}

func TestValidateLogFormat(t *testing.T) {
	cfg := Config{
		API:   APIConfig{BaseURL: "http://x", Timeout: time.Second},
		Store: StoreConfig{Backend: "memory"},
		Log:   LogConfig{Format: "xml"},
	}
	assert.ErrorContains(t, cfg.Validate(), "log.format")
	cfg.Log.Format = "JSON"
	assert.NoError(t, cfg.Validate())
}
