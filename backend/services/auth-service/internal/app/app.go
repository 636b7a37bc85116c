package app

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"fuelflow/backend/libs/httpserver"
	appconfig "fuelflow/backend/services/auth-service/internal/config"
	"fuelflow/backend/services/auth-service/internal/db"
	authhttp "fuelflow/backend/services/auth-service/internal/http"
	"fuelflow/backend/services/auth-service/internal/http/handlers"
	"fuelflow/backend/services/auth-service/internal/password"
	"fuelflow/backend/services/auth-service/internal/repository"
	"fuelflow/backend/services/auth-service/internal/service"
)

// App wires dependencies for the auth service.
type App struct {
	server *httpserver.Server
	db     *sql.DB
	logger *zap.Logger
}

// New builds application graph and ensures the bootstrap superadmin when configured.
func New(cfg *appconfig.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN, cfg.PoolOptions(), cfg.Database.Migrate)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(sqlDB)
	hasher := password.NewBcryptHasher(cfg.BcryptCost)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	authSvc := service.NewAuthService(userRepo, hasher, tokenSvc, logger)

	if cfg.BootstrapEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := authSvc.EnsureSuperadmin(ctx, cfg.Bootstrap.Email, cfg.Bootstrap.Password); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}

	routes := authhttp.Routes{
		Signup: handlers.NewSignupHandler(authSvc, logger),
		Login:  handlers.NewLoginHandler(authSvc, logger),
		Health: handlers.NewHealthHandler(),
	}

	router := authhttp.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server: server,
		db:     sqlDB,
		logger: logger,
	}, nil
}

// Run starts serving HTTP traffic until context cancellation.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases acquired resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
