// Package pgtest starts a disposable Postgres for repository tests. One
// container is shared per test binary; New truncates every table so each test
// starts from an empty schema.
package pgtest

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-bookstore/internal/postgres"
)

var (
	once     sync.Once
	pool     *pgxpool.Pool
	setupErr error
)

func New(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres-backed test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	once.Do(func() { pool, setupErr = start(context.Background()) })
	require.NoError(t, setupErr)

	_, err := pool.Exec(context.Background(), `
		TRUNCATE users, books, book_sections, categories, orders, order_items, cart, wishlist
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

func start(ctx context.Context) (*pgxpool.Pool, error) {
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("bookstore"),
		tcpostgres.WithUsername("app"),
		tcpostgres.WithPassword("secret"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, err
	}
	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, err
	}
	p, err := postgres.Connect(ctx, dsn, 4)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, p, zap.NewNop()); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}
