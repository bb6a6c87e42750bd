// Package storage selects and opens the order store configured for the process.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dejobratic/idemorders/internal/config"
	"github.com/dejobratic/idemorders/internal/database"
	"github.com/dejobratic/idemorders/internal/orders/adapters"
	"github.com/dejobratic/idemorders/internal/orders/adapters/memory"
	"github.com/dejobratic/idemorders/internal/orders/adapters/postgres"
	"github.com/dejobratic/idemorders/internal/orders/ports"
)

// Backend is an opened order store plus its lifecycle hooks.
type Backend struct {
	Store ports.OrderStore
	// Ready reports whether the store can serve requests.
	Ready func(ctx context.Context) error
	// Close releases connections. Safe to call once.
	Close func()
}

// Open builds the store selected by cfg.RepoType. The postgres backend gets a
// verified connection pool and an up-to-date schema before it is returned.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger, metrics *database.Metrics) (*Backend, error) {
	switch cfg.RepoType {
	case config.RepoTypeMemory:
		logger.InfoContext(ctx, "using in-memory order store")
		return &Backend{
			Store: adapters.NewObservableStore(memory.NewStore(), string(config.RepoTypeMemory), metrics),
			Ready: func(context.Context) error { return nil },
			Close: func() {},
		}, nil

	case config.RepoTypePostgres:
		return openPostgres(ctx, cfg, logger, metrics)

	default:
		return nil, fmt.Errorf("%w: %w: %q", config.ErrInvalidConfig, config.ErrUnknownRepoType, cfg.RepoType)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger, metrics *database.Metrics) (*Backend, error) {
	dsn := cfg.DSN()

	pool, err := database.NewPool(ctx, dsn, database.WithConnLimits(cfg.MaxConns, cfg.MinConns))
	if err != nil {
		return nil, fmt.Errorf("open postgres order store: %w", err)
	}

	logger.InfoContext(ctx, "running database migrations")
	if err := database.RunMigrations(dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("open postgres order store: %w", err)
	}

	logger.InfoContext(ctx, "using postgres order store",
		"cloud_sql_instance", cfg.InstanceConnectionName,
		"max_conns", pool.Config().MaxConns,
	)

	return &Backend{
		Store: adapters.NewObservableStore(postgres.NewStore(pool), string(config.RepoTypePostgres), metrics),
		Ready: func(ctx context.Context) error { return database.CheckHealth(ctx, pool) },
		Close: pool.Close,
	}, nil
}
