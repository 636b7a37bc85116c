package config

import (
	"errors"
	"fmt"
	"strings"

	libconfig "fuelflow/backend/libs/config"
	libdb "fuelflow/backend/libs/db"
	libredis "fuelflow/backend/libs/redis"
)

const defaultPort = "8082"

// Config defines station service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"STATION_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN          string `yaml:"dsn" env:"STATION_POSTGRES_DSN"`
		Migrate      bool   `yaml:"migrate" env:"STATION_POSTGRES_MIGRATE"`
		MaxOpenConns int    `yaml:"max_open_conns" env:"STATION_POSTGRES_MAX_OPEN_CONNS"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"STATION_REDIS_ADDR"`
		Password string `yaml:"password" env:"STATION_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"STATION_REDIS_DB"`
	} `yaml:"redis"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = defaultPort
	cfg.Database.Migrate = true
	cfg.Database.MaxOpenConns = 10

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
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

// RedisOptions returns the cache endpoint. Without it deactivations rely on the ledger cache TTL.
func (c *Config) RedisOptions() libredis.Options {
	return libredis.Options{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB}
}
