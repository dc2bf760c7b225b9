// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/fieldcrew/api/internal/pkg/log"
)

//go:embed sql/*.sql
var files embed.FS

// Source returns the embedded migration files as a migrate source
func Source() (source.Driver, error) {
	return iofs.New(files, "sql")
}

// Migrator applies the embedded schema to one database
type Migrator struct {
	m *migrate.Migrate
}

// New creates a migrator for db. schema may be empty for the default search path.
func New(db *sqlx.DB, schema string) (*Migrator, error) {
	if db == nil {
		return nil, errors.New("db connection cannot be nil")
	}

	src, err := Source()
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{SchemaName: schema})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up applies all pending migrations
func (g *Migrator) Up() error {
	err := g.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("No migrations to run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

// Down rolls back steps migrations, all of them when steps <= 0
func (g *Migrator) Down(steps int) error {
	var err error
	if steps > 0 {
		err = g.m.Steps(-steps)
	} else {
		err = g.m.Down()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("No migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("rollback error: %w", err)
	}
	return nil
}

// Version reports the applied version, 0 when nothing has run
func (g *Migrator) Version() (uint, bool, error) {
	version, dirty, err := g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the source. The database handle is left open.
func (g *Migrator) Close() error {
	srcErr, _ := g.m.Close()
	return srcErr
}
