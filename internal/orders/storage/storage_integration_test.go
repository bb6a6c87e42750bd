//go:build integration

package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dejobratic/idemorders/internal/config"
	"github.com/dejobratic/idemorders/internal/orders/domain"
	"github.com/dejobratic/idemorders/internal/orders/storage"
)

// postgresConfig starts a container and describes it the way Load would from
// DB_* variables, so the DSN is assembled by config rather than the container.
func postgresConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testpostgres.Run(ctx,
		"postgres:16-alpine",
		testpostgres.WithDatabase("orders"),
		testpostgres.WithUsername("app"),
		testpostgres.WithPassword("secret"),
		testpostgres.BasicWaitStrategies(),
		testpostgres.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return config.DatabaseConfig{
		RepoType: config.RepoTypePostgres,
		Host:     host,
		Port:     port.Port(),
		Name:     "orders",
		User:     "app",
		Password: "secret",
		SSLMode:  "disable",
		MaxConns: 5,
		MinConns: 1,
	}
}

func TestOpenPostgresFromDatabaseConfig(t *testing.T) {
	ctx := context.Background()
	logger, m := testDeps(t)
	cfg := postgresConfig(t)

	backend, err := storage.Open(ctx, cfg, logger, m)
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.Ready(ctx))

	input := domain.CreateOrderInput{UserID: "u1", Amount: 10.5}

	first, created, err := backend.Store.CreateIfAbsent(ctx, input, "abc")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := backend.Store.CreateIfAbsent(ctx, input, "abc")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	t.Run("reopening re-runs migrations against the same schema", func(t *testing.T) {
		again, err := storage.Open(ctx, cfg, logger, m)
		require.NoError(t, err)
		defer again.Close()

		got, created, err := again.Store.CreateIfAbsent(ctx, input, "abc")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, got.ID)
	})
}
