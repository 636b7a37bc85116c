package db

import (
	"database/sql"
	"embed"
	"io/fs"

	libdb "fuelflow/backend/libs/db"
)

const migrationsTable = "auth_schema_migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// NewPostgres connects to Postgres, applying auth migrations first when migrate is set.
func NewPostgres(dsn string, pool libdb.PoolOptions, migrate bool) (*sql.DB, error) {
	var migrations fs.FS
	if migrate {
		sub, err := fs.Sub(embeddedMigrations, "migrations")
		if err != nil {
			return nil, err
		}
		migrations = sub
	}
	return libdb.OpenMigrated(dsn, pool, migrations, migrationsTable)
}
