package dbexport

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/riskboard/internal/logging"
	"github.com/huangsam/riskboard/schema"
	"go.uber.org/zap"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// Migrate runs the export schema migrations for a backend over an open connection.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations (to initial state).
// - If targetVersion > 0, it migrates to the specified version.
func Migrate(db *sql.DB, backend schema.DatabaseBackend, targetVersion int) error {
	driver, err := migrationDriver(db, backend)
	if err != nil {
		return err
	}

	migrationFS, err := fs.Sub(migrationsFS, "migrations/"+string(backend))
	if err != nil {
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}
	sourceDriver, err := iofs.New(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "riskboard", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", currentVersion)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logging.Get().Debug("export schema up to date", zap.Uint("version", currentVersion))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to migrate export schema: %w", err)
	}

	newVersion, _, _ := m.Version()
	logging.Get().Info("migrated export schema",
		zap.String("backend", string(backend)),
		zap.Uint("from", currentVersion),
		zap.Uint("to", newVersion))
	return nil
}

// migrationDriver wraps an open connection in the migrate driver of its backend.
func migrationDriver(db *sql.DB, backend schema.DatabaseBackend) (database.Driver, error) {
	switch backend {
	case schema.SQLiteBackend:
		driver, err := sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite migrate driver: %w", err)
		}
		return driver, nil
	case schema.MySQLBackend:
		driver, err := mysql.WithInstance(db, &mysql.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create MySQL migrate driver: %w", err)
		}
		return driver, nil
	case schema.PostgreSQLBackend:
		driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL migrate driver: %w", err)
		}
		return driver, nil
	default:
		return nil, fmt.Errorf("migrations are not supported for %s backend", backend)
	}
}
