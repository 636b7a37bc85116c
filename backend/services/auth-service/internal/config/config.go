package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "fuelflow/backend/libs/config"
	libdb "fuelflow/backend/libs/db"
)

const defaultPort = "8081"

// Config represents service configuration loaded from YAML/env.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"AUTH_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN          string `yaml:"dsn" env:"AUTH_POSTGRES_DSN"`
		Migrate      bool   `yaml:"migrate" env:"AUTH_POSTGRES_MIGRATE"`
		MaxOpenConns int    `yaml:"max_open_conns" env:"AUTH_POSTGRES_MAX_OPEN_CONNS"`
	} `yaml:"database"`
	JWT struct {
		Secret    string        `yaml:"secret" env:"AUTH_JWT_SECRET"`
		ExpiresIn time.Duration `yaml:"expires_in" env:"AUTH_JWT_EXPIRES_IN"`
	} `yaml:"jwt"`
	Bootstrap struct {
		Email    string `yaml:"email" env:"AUTH_BOOTSTRAP_EMAIL"`
		Password string `yaml:"password" env:"AUTH_BOOTSTRAP_PASSWORD"`
	} `yaml:"bootstrap"`
	BcryptCost int `yaml:"bcrypt_cost" env:"AUTH_BCRYPT_COST"`
}

// Load reads configuration using the shared config loader.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = defaultPort
	cfg.Database.Migrate = true
	cfg.Database.MaxOpenConns = 10
	cfg.JWT.ExpiresIn = time.Hour

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.Database.DSN == "" {
		return nil, errors.New("config: database DSN is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, errors.New("config: jwt secret is required")
	}
	if (cfg.Bootstrap.Email == "") != (cfg.Bootstrap.Password == "") {
		return nil, errors.New("config: bootstrap email and password must be set together")
	}
	if cfg.JWT.ExpiresIn <= 0 {
		cfg.JWT.ExpiresIn = time.Hour
	}

	return cfg, nil
}

// HTTPAddress ensures we always return host:port formatted string.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// PoolOptions maps database settings onto the shared pool options.
func (c *Config) PoolOptions() libdb.PoolOptions {
	return libdb.PoolOptions{MaxOpenConns: c.Database.MaxOpenConns}
}

// BootstrapEnabled reports whether a superadmin should be ensured at startup.
func (c *Config) BootstrapEnabled() bool {
	return c.Bootstrap.Email != ""
}
