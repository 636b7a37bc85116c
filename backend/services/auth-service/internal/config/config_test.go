package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("AUTH_POSTGRES_DSN", "postgres://auth@localhost/auth")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.HTTPAddress())
	assert.True(t, cfg.Database.Migrate)
	assert.Equal(t, time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, 10, cfg.PoolOptions().MaxOpenConns)
	assert.False(t, cfg.BootstrapEnabled())
}

func TestLoadBootstrap(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTH_BOOTSTRAP_EMAIL", "root@example.com")
	t.Setenv("AUTH_BOOTSTRAP_PASSWORD", "root-password")
	t.Setenv("AUTH_JWT_EXPIRES_IN", "15m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.BootstrapEnabled())
	assert.Equal(t, 15*time.Minute, cfg.JWT.ExpiresIn)
}

func TestLoadValidation(t *testing.T) {
	t.Run("dsn", func(t *testing.T) {
		setRequired(t)
		t.Setenv("AUTH_POSTGRES_DSN", "")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("secret", func(t *testing.T) {
		setRequired(t)
		t.Setenv("AUTH_JWT_SECRET", "")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("half bootstrap", func(t *testing.T) {
		setRequired(t)
		t.Setenv("AUTH_BOOTSTRAP_EMAIL", "root@example.com")
		t.Setenv("AUTH_BOOTSTRAP_PASSWORD", "")
		_, err := Load()
		assert.Error(t, err)
	})
}
