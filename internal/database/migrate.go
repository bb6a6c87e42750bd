package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/dejobratic/idemorders/migrations"
)

// RunMigrations applies the embedded schema migrations. Already-applied
// migrations are skipped, so calling it on every start is safe.
func RunMigrations(databaseURL string) error {
	connConfig, err := migrationConnConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}

	db := stdlib.OpenDB(*connConfig)
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// migrationConnConfig parses databaseURL for a single pgx connection. pgxpool
// settings such as pool_max_conns are dropped; pgx would otherwise send them
// to the server as startup parameters and the server rejects them.
func migrationConnConfig(databaseURL string) (*pgx.ConnConfig, error) {
	connConfig, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	for param := range connConfig.RuntimeParams {
		if strings.HasPrefix(param, "pool_") {
			delete(connConfig.RuntimeParams, param)
		}
	}

	return connConfig, nil
}
