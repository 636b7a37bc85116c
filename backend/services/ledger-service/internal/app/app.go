package app

import (
	"context"
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fuelflow/backend/libs/httpserver"
	libredis "fuelflow/backend/libs/redis"
	"fuelflow/backend/services/ledger-service/internal/config"
	"fuelflow/backend/services/ledger-service/internal/db"
	ledgerhttp "fuelflow/backend/services/ledger-service/internal/http"
	"fuelflow/backend/services/ledger-service/internal/http/handlers"
	"fuelflow/backend/services/ledger-service/internal/idempotency"
	"fuelflow/backend/services/ledger-service/internal/metrics"
	"fuelflow/backend/services/ledger-service/internal/registry"
	"fuelflow/backend/services/ledger-service/internal/repository"
	"fuelflow/backend/services/ledger-service/internal/repository/postgres"
	"fuelflow/backend/services/ledger-service/internal/service"
)

// App wires ledger service dependencies.
type App struct {
	server *httpserver.Server
	db     *sql.DB
	redis  *goredis.Client
	logger *zap.Logger
}

// New constructs application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN, cfg.PoolOptions(), cfg.Database.Migrate)
	if err != nil {
		return nil, err
	}

	var (
		resolver repository.NozzleResolver = postgres.NewNozzleRepository(sqlDB)
		idem     *idempotency.Store
		rdb      *goredis.Client
	)
	if opts := cfg.RedisOptions(); opts.Enabled() {
		rdb, err = libredis.NewRedisClient(opts)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		resolver = registry.NewCachedResolver(resolver, rdb, cfg.Registry.CacheTTL, logger)
		idem = idempotency.NewStore(rdb, cfg.Idempotency.TTL, cfg.Idempotency.LockTTL, logger)
	} else {
		logger.Info("redis not configured, registry cache and idempotency keys disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ledgerService := service.NewLedgerService(resolver, postgres.NewLedgerRepository(sqlDB), metrics.NewLedger(reg), logger, service.Options{
		MaxClockSkew: cfg.Readings.MaxClockSkew,
	})
	priceTable := service.NewPriceTable(postgres.NewPriceRepository(sqlDB), logger)

	routes := ledgerhttp.Routes{
		Readings: handlers.NewReadingsHandler(ledgerService, idem, logger),
		Sales:    handlers.NewSalesHandler(ledgerService, logger),
		Prices:   handlers.NewPricesHandler(priceTable, logger),
		Health:   handlers.NewHealthHandler(sqlDB),
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}

	router := ledgerhttp.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server: server,
		db:     sqlDB,
		redis:  rdb,
		logger: logger,
	}, nil
}

// Run starts HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
