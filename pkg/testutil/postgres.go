package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pkgpostgres "github.com/kuwago/lending/pkg/postgres"
)

// Postgres is a throwaway database with the lending schema applied. The pool
// and the container are released by t.Cleanup.
type Postgres struct {
	Config pkgpostgres.Config
	Pool   *pgxpool.Pool
}

// StartPostgres boots postgres:16, applies the migrations found in
// migrationsDir (relative to the calling package) and opens a pool through
// the same constructor the service uses.
func StartPostgres(ctx context.Context, t *testing.T, migrationsDir string) *Postgres {
	t.Helper()

	const user, password, database = "kuwago", "kuwago", "kuwago_test"
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(database),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Terminate(stopCtx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := pkgpostgres.Config{
		Host:     host,
		Port:     port.Int(),
		User:     user,
		Password: password,
		Database: database,
		SSLMode:  "disable",
		MaxConns: 8,
	}

	abs, err := filepath.Abs(migrationsDir)
	require.NoError(t, err)
	require.NoError(t, pkgpostgres.RunMigrations(cfg.DSN(), "file://"+abs), "apply migrations")

	pool, err := pkgpostgres.NewPool(ctx, cfg)
	require.NoError(t, err, "open pool")
	t.Cleanup(pool.Close)

	return &Postgres{Config: cfg, Pool: pool}
}

// Truncate empties tables between subtests.
func (p *Postgres) Truncate(t *testing.T, tables ...string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, table := range tables {
		_, err := p.Pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		require.NoError(t, err, "truncate %s", table)
	}
}
