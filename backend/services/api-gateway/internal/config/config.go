package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "fuelflow/backend/libs/config"
)

const defaultPort = "8080"

// Config defines gateway configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"API_GATEWAY_HTTP_PORT"`
	} `yaml:"http"`
	JWT struct {
		Secret string `yaml:"secret" env:"API_GATEWAY_JWT_SECRET"`
	} `yaml:"jwt"`
	Services struct {
		AuthURL    string `yaml:"authUrl" env:"AUTH_SERVICE_URL"`
		LedgerURL  string `yaml:"ledgerUrl" env:"LEDGER_SERVICE_URL"`
		StationURL string `yaml:"stationUrl" env:"STATION_SERVICE_URL"`
	} `yaml:"services"`
	HTTPClient struct {
		Timeout time.Duration `yaml:"timeout" env:"API_GATEWAY_HTTP_TIMEOUT"`
	} `yaml:"httpClient"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins" env:"API_GATEWAY_CORS_ORIGINS"`
	} `yaml:"cors"`
}

// Load configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = defaultPort
	cfg.Services.AuthURL = "http://localhost:8081"
	cfg.Services.StationURL = "http://localhost:8082"
	cfg.Services.LedgerURL = "http://localhost:8083"
	cfg.HTTPClient.Timeout = 5 * time.Second
	cfg.CORS.AllowedOrigins = []string{"http://localhost:5173"}

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, errors.New("config: jwt secret required")
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

// HTTPTimeout returns http client timeout.
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTPClient.Timeout <= 0 {
		return 5 * time.Second
	}
	return c.HTTPClient.Timeout
}
