package postgres_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-bookstore/internal/postgres"
	"github.com/ariefcatur/go-bookstore/internal/postgres/pgtest"
)

func TestMigrate_IsIdempotentAndSatisfiesSchemaCheck(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()

	require.NoError(t, postgres.Migrate(ctx, db, zap.NewNop()))

	report, err := postgres.CheckSchema(ctx, db)
	require.NoError(t, err)
	assert.True(t, report.OK(), "missing: %v", report.Missing)
}

func TestMigrate_RejectsUnknownOrderStatus(t *testing.T) {
	db := pgtest.New(t)

	_, err := db.Exec(context.Background(),
		`INSERT INTO orders(order_id, status) VALUES ('ORD1', 'teleported')`)
	assert.Error(t, err)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()

	err := postgres.WithTx(ctx, db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO users(name, email) VALUES ('Asha', 'asha@example.com')`); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO users(name, email) VALUES ('Asha 2', 'asha@example.com')`)
		return err
	})
	require.Error(t, err)
	assert.True(t, postgres.IsUniqueViolation(err))

	var n int
	require.NoError(t, db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n))
	assert.Zero(t, n)
}
