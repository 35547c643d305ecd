package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Database manages the history store lifecycle: the SQLite connection with
// WAL mode, schema migration, and shutdown.
//
// Usage:
//
//	db, err := NewDatabase("data/history.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
type Database struct {
	db             *sql.DB
	path           string
	migrationsPath string
	mu             sync.RWMutex
}

// NewDatabase opens (creating if necessary) the database at path with the
// default migrations location.
func NewDatabase(path string) (*Database, error) {
	return NewDatabaseWithMigrations(path, "file://db/migrations")
}

// NewDatabaseWithMigrations opens the database at path with an explicit
// migrations location (file:// URL format). Parent directories are created
// if they don't exist.
func NewDatabaseWithMigrations(path, migrationsPath string) (*Database, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	conn, err := NewSQLiteConnectionWithDefaults(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	if migrationsPath == "" {
		migrationsPath = "file://db/migrations"
	}

	return &Database{
		db:             conn,
		path:           path,
		migrationsPath: migrationsPath,
	}, nil
}

// Migrate runs all pending database migrations. Safe to call multiple times.
//
// golang-migrate takes ownership of the connection it is given, so migration
// runs on a separate connection opened from the path.
func (d *Database) Migrate() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := MigrateUpFromPath(d.path, d.migrationsPath); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// DB returns the underlying sql.DB connection for use by repositories.
// The returned connection should not be closed directly; use Database.Close().
func (d *Database) DB() *sql.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.path
}

// Ping verifies the database connection is alive. Useful for health checks.
func (d *Database) Ping() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return fmt.Errorf("database connection is closed")
	}

	return d.db.Ping()
}

// Close gracefully closes the database connection.
// After Close is called, the Database instance should not be used.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}

	if err := d.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	d.db = nil
	return nil
}
