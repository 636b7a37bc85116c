package app

import (
	"context"

	"go.uber.org/zap"

	"fuelflow/backend/libs/httpserver"
	"fuelflow/backend/services/api-gateway/internal/clients"
	"fuelflow/backend/services/api-gateway/internal/config"
	gatewayhttp "fuelflow/backend/services/api-gateway/internal/http"
	"fuelflow/backend/services/api-gateway/internal/http/handlers"
	"fuelflow/backend/services/api-gateway/internal/policy"
)

// App wires API gateway dependencies.
type App struct {
	server *httpserver.Server
	logger *zap.Logger
}

// New constructs application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	httpClient := clients.NewDefaultHTTPClient(cfg.HTTPTimeout())

	authClient := clients.NewAuthClient(cfg.Services.AuthURL, httpClient)
	ledgerClient := clients.NewLedgerClient(cfg.Services.LedgerURL, httpClient)
	stationsClient := clients.NewStationsClient(cfg.Services.StationURL, httpClient)

	router := gatewayhttp.NewRouter(gatewayhttp.RouterDeps{
		AuthHandlers:     handlers.NewAuthHandlers(authClient, logger),
		LedgerHandlers:   handlers.NewLedgerHandlers(ledgerClient, logger),
		StationsHandlers: handlers.NewStationsHandlers(stationsClient, logger),
		Policy:           policy.NewRolePolicy(),
		JWTSecret:        cfg.JWT.Secret,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		Logger:           logger,
	})

	return &App{
		server: httpserver.NewServer(cfg.HTTPAddress(), router, logger),
		logger: logger,
	}, nil
}

// Run starts serving HTTP traffic.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources (none yet).
func (a *App) Close() {}
