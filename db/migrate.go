package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file" // File source driver
)

// MigrateUp applies all pending up migrations.
// Returns nil if there are no pending migrations (ErrNoChange is handled gracefully).
//
// IMPORTANT: golang-migrate takes ownership of the connection it is given and
// closes it when the migrator closes. Do not reuse db after this call; for a
// connection-safe path use MigrateUpFromPath.
func MigrateUp(db *sql.DB, migrationsPath string) error {
	m, err := newMigrator(db, migrationsPath)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			// No pending migrations is not an error
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// MigrateUpFromPath applies all pending migrations using a database path,
// managing its own connection lifecycle.
func MigrateUpFromPath(dbPath, migrationsPath string) error {
	db, err := NewSQLiteConnectionWithDefaults(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// The migrator closes the connection via m.Close().

	return MigrateUp(db, migrationsPath)
}

// MigrationVersionFromPath returns the current migration version and dirty
// state. Returns version=0 and dirty=false if no migrations have been applied.
// The dirty flag indicates a migration failed partway through.
func MigrationVersionFromPath(dbPath, migrationsPath string) (uint, bool, error) {
	db, err := NewSQLiteConnectionWithDefaults(dbPath)
	if err != nil {
		return 0, false, fmt.Errorf("failed to open database: %w", err)
	}

	m, err := newMigrator(db, migrationsPath)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			// No migrations applied yet
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}

	return version, dirty, nil
}

// newMigrator creates a migrate.Migrate instance over the given connection.
// The returned migrator takes ownership of the connection.
func newMigrator(db *sql.DB, migrationsPath string) (*migrate.Migrate, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}
	if migrationsPath == "" {
		return nil, errors.New("migrations path is required")
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{
		DatabaseName: "main",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, nil
}
