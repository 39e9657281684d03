package db

import (
	"embed"
	"fmt"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateUp runs the pending migrations. It is a no-op on an up to date
// database.
func (db *DB) MigrateUp() error {
	m, err := db.newMigrate()
	if err != nil {
		return err
	}
	// m is not closed since closing it would close db.

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.New("migration up failed").Wrap(err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return errors.New("reading migration version failed").Wrap(err)
	}
	logs.WithTag("version", version).
		WithTag("dirty", dirty).
		Debug("database migrated")
	return nil
}

// MigrateVersion returns the current schema version. It is 0 when no
// migration was applied.
func (db *DB) MigrateVersion() (uint, bool, error) {
	m, err := db.newMigrate()
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := m.Version()
	if err == migrate.ErrNilVersion {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.New("reading migration version failed").Wrap(err)
	}
	return version, dirty, nil
}

func (db *DB) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, errors.New("loading migrations failed").Wrap(err)
	}

	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return nil, errors.New("creating sqlite migration driver failed").Wrap(err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, errors.New("creating migrate instance failed").Wrap(err)
	}
	m.Log = migrateLogger{}
	return m, nil
}

// migrateLogger forwards migrate logs to the application logger.
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	logs.WithTag("component", "migrate").Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (migrateLogger) Verbose() bool {
	return false
}
