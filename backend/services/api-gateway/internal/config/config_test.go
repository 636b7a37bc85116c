package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("API_GATEWAY_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, "http://localhost:8083", cfg.Services.LedgerURL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: "9000"
jwt:
  secret: from-file
services:
  ledgerUrl: http://ledger:8083
httpClient:
  timeout: 2s
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_GATEWAY_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddress())
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, "http://ledger:8083", cfg.Services.LedgerURL)
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("API_GATEWAY_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}
