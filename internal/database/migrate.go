package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/conference-portal/internal/config"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded migrations for cfg.Driver.  It opens its own
// connection through golang-migrate and closes it before returning.
func Migrate(cfg config.DBConfig, log *logrus.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations/"+cfg.Driver)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	dbURL, err := migrationURL(cfg)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	log.WithFields(logrus.Fields{
		"driver":  cfg.Driver,
		"version": version,
		"dirty":   dirty,
	}).Info("migrations applied")
	return nil
}

// Setup migrates the schema and then opens the pool the service uses.
func Setup(cfg config.DBConfig, log *logrus.Logger) (*sql.DB, error) {
	if cfg.Driver == DriverSQLite {
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}
	if err := Migrate(cfg, log); err != nil {
		return nil, err
	}
	return Open(cfg)
}

func migrationURL(cfg config.DBConfig) (string, error) {
	switch cfg.Driver {
	case DriverMySQL:
		return "mysql://" + MySQLDSN(cfg) + "&multiStatements=true", nil
	case DriverSQLite:
		return "sqlite://" + filepath.ToSlash(cfg.SQLitePath), nil
	}
	return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
}
