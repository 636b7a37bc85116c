package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "fuelflow/backend/libs/config"
	libdb "fuelflow/backend/libs/db"
	libredis "fuelflow/backend/libs/redis"
)

const defaultPort = "8083"

// Config defines ledger service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"LEDGER_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN             string        `yaml:"dsn" env:"LEDGER_POSTGRES_DSN"`
		Migrate         bool          `yaml:"migrate" env:"LEDGER_POSTGRES_MIGRATE"`
		MaxOpenConns    int           `yaml:"max_open_conns" env:"LEDGER_POSTGRES_MAX_OPEN_CONNS"`
		MaxIdleConns    int           `yaml:"max_idle_conns" env:"LEDGER_POSTGRES_MAX_IDLE_CONNS"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"LEDGER_POSTGRES_CONN_MAX_LIFETIME"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"LEDGER_REDIS_ADDR"`
		Password string `yaml:"password" env:"LEDGER_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"LEDGER_REDIS_DB"`
	} `yaml:"redis"`
	Registry struct {
		CacheTTL time.Duration `yaml:"cache_ttl" env:"LEDGER_REGISTRY_CACHE_TTL"`
	} `yaml:"registry"`
	Idempotency struct {
		TTL     time.Duration `yaml:"ttl" env:"LEDGER_IDEMPOTENCY_TTL"`
		LockTTL time.Duration `yaml:"lock_ttl" env:"LEDGER_IDEMPOTENCY_LOCK_TTL"`
	} `yaml:"idempotency"`
	Readings struct {
		MaxClockSkew time.Duration `yaml:"max_clock_skew" env:"LEDGER_MAX_CLOCK_SKEW"`
	} `yaml:"readings"`
}

// Load configuration from file/env.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = defaultPort
	cfg.Database.Migrate = true
	cfg.Database.MaxOpenConns = 20
	cfg.Database.MaxIdleConns = 5
	cfg.Database.ConnMaxLifetime = 30 * time.Minute
	cfg.Registry.CacheTTL = 5 * time.Minute
	cfg.Idempotency.TTL = 24 * time.Hour
	cfg.Idempotency.LockTTL = 30 * time.Second
	cfg.Readings.MaxClockSkew = 5 * time.Minute

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if cfg.Readings.MaxClockSkew < 0 {
		return nil, errors.New("config: max clock skew must not be negative")
	}
	return cfg, nil
}

// HTTPAddress returns :port style string.
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
	return libdb.PoolOptions{
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
}

// RedisOptions returns connection settings; Redis is optional for the ledger.
func (c *Config) RedisOptions() libredis.Options {
	return libredis.Options{
		Addr:     strings.TrimSpace(c.Redis.Addr),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}
