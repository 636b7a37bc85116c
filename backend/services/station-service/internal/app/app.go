package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fuelflow/backend/libs/httpserver"
	libredis "fuelflow/backend/libs/redis"
	"fuelflow/backend/services/station-service/internal/config"
	"fuelflow/backend/services/station-service/internal/db"
	stationhttp "fuelflow/backend/services/station-service/internal/http"
	"fuelflow/backend/services/station-service/internal/http/handlers"
	redisstore "fuelflow/backend/services/station-service/internal/redis"
	"fuelflow/backend/services/station-service/internal/repository"
	"fuelflow/backend/services/station-service/internal/service"
)

// App wires station-service dependencies.
type App struct {
	server      *httpserver.Server
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN, cfg.PoolOptions(), cfg.Database.Migrate)
	if err != nil {
		return nil, err
	}

	var (
		redisClient *redis.Client
		cache       service.CacheInvalidator
	)
	if opts := cfg.RedisOptions(); opts.Enabled() {
		redisClient, err = libredis.NewRedisClient(opts)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		cache = redisstore.NewRegistryCache(redisClient)
	}

	provisioning := service.NewProvisioningService(
		repository.NewStationRepository(sqlDB),
		repository.NewNozzleRepository(sqlDB),
		cache,
		logger,
	)

	routes := stationhttp.Routes{
		Stations: handlers.NewStationsHandler(provisioning, logger),
		Health:   handlers.NewHealthHandler(),
	}

	router := stationhttp.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
