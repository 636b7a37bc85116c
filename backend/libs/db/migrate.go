package db

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// RunMigrations applies every pending migration found at the root of fsys. Services sharing a
// database pass distinct table names so their version histories stay independent.
func RunMigrations(db *sql.DB, fsys fs.FS, table string) error {
	if db == nil {
		return errors.New("db: migration database handle is required")
	}

	source, err := iofs.New(fsys, ".")
	if err != nil {
		return fmt.Errorf("db: create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: table})
	if err != nil {
		return fmt.Errorf("db: create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("db: create migrator: %w", err)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db: apply migrations: %w", err)
	}
	// migrator.Close would close the shared *sql.DB.
	return nil
}

// OpenMigrated opens a pool and, when migrations is non-nil, applies them before returning.
func OpenMigrated(dsn string, opts PoolOptions, migrations fs.FS, table string) (*sql.DB, error) {
	db, err := NewPostgresDB(dsn, opts)
	if err != nil {
		return nil, err
	}
	if migrations == nil {
		return db, nil
	}
	if err := RunMigrations(db, migrations, table); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
