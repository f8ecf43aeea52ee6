// README: Applies embedded SQL migrations with golang-migrate and tracks the applied version.
package infra

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	iofs "github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// MigrationsTable records the applied version.
const MigrationsTable = "schema_migrations"

// Migrate applies every pending NNNN_name.up.sql file in fsys.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, log zerolog.Logger) (err error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire dedicated connection: %w", err)
	}
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("initialize postgres driver: %w", err)
	}
	defer func() {
		if closeErr := driver.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close migration connection: %w", closeErr)
		}
	}()

	source, err := iofs.New(fsys, ".")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	defer func() {
		if closeErr := source.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close migration source: %w", closeErr)
		}
	}()

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	version, dirty, err := migrator.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info().Msg("no migrations applied yet")
	case err != nil:
		return fmt.Errorf("read migration version: %w", err)
	case dirty:
		// Every file is idempotent, so a half-applied version is re-run.
		log.Warn().Uint("version", version).Msg("migration state dirty, re-running version")
		target := database.NilVersion
		if prev, perr := source.Prev(version); perr == nil {
			target = int(prev)
		}
		if err := migrator.Force(target); err != nil {
			return fmt.Errorf("clear dirty version %d: %w", version, err)
		}
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug().Msg("no new migrations")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	if v, _, verr := migrator.Version(); verr == nil {
		log.Info().Uint("version", v).Msg("migrations applied")
	}
	return nil
}
