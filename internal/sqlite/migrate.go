package sqlite

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// migrationsFS holds one migration per historical schema version:
// 1 clients/objects/stations, 2 groups, 3 internal backups.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// applyMigrations brings db up to the latest schema version. The migrate
// instance is not closed because closing it would close db.
func applyMigrations(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return err
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return err
	}

	err = instance.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// schemaVersion reports the applied migration version.
func schemaVersion(db *sql.DB) (uint, bool, error) {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := driver.Version()
	if err != nil {
		return 0, false, err
	}
	if version < 0 {
		return 0, dirty, nil
	}
	return uint(version), dirty, nil
}
