package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

const migrationsTable = "schema_migrations"

// Runner applies {version}_{name}.up.sql files from FS up to the latest
// version. A database left dirty by a failed migration is reported, not
// repaired.
type Runner struct {
	FS     fs.FS
	Logger zerolog.Logger
}

// Source opens fsys as a golang-migrate source.
func Source(fsys fs.FS) (source.Driver, error) {
	if fsys == nil {
		return nil, errors.New("nil migrations fs")
	}
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	return src, nil
}

func (r Runner) Run(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("nil db")
	}

	src, err := Source(r.FS)
	if err != nil {
		return err
	}

	// A dedicated connection: closing the migrate instance releases it
	// without closing the shared pool.
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("acquire migration conn: %w", err)
	}
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		_ = src.Close()
		_ = conn.Close()
		return fmt.Errorf("create migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = src.Close()
		_ = driver.Close()
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			r.Logger.Warn().AnErr("source_err", srcErr).AnErr("db_err", dbErr).Msg("[Migration] Close failed")
		}
	}()

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is dirty at migration version %d", from)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			r.Logger.Info().Uint("version", from).Msg("[Migration] Up to date")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}

	to, _, _ := m.Version()
	r.Logger.Info().Uint("from", from).Uint("to", to).Msg("[Migration] Applied")
	return nil
}
