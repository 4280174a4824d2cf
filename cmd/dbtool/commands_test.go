package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-bookstore/internal/postgres"
	"github.com/ariefcatur/go-bookstore/internal/postgres/pgtest"
	"github.com/ariefcatur/go-bookstore/internal/users"
)

func TestParseCommand(t *testing.T) {
	_, err := parseCommand("migrate", nil)
	assert.NoError(t, err)

	_, err = parseCommand("promote-admin", nil)
	assert.EqualError(t, err, "-email is required")

	c, err := parseCommand("demote-admin", []string{"-email", "asha@example.com"})
	require.NoError(t, err)
	assert.Equal(t, &adminCmd{email: "asha@example.com"}, c)

	c, err = parseCommand("seed-order", []string{"-email", "asha@example.com", "-price", "199.50", "-qty", "2"})
	require.NoError(t, err)
	seed := c.(*seedOrderCmd)
	assert.Equal(t, "199.5", seed.price.String())
	assert.Equal(t, 2, seed.qty)
	assert.Equal(t, "Test Book", seed.title)

	_, err = parseCommand("seed-order", []string{"-email", "a@b.c", "-price", "abc"})
	assert.Error(t, err)

	_, err = parseCommand("drop-everything", nil)
	assert.Error(t, err)
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, postgres.SchemaReport{Missing: map[string][]string{"order_items": {"book_image", "book_title"}}})
	assert.Equal(t, "order_items: missing book_image, book_title\n", buf.String())

	buf.Reset()
	printReport(&buf, postgres.SchemaReport{})
	assert.Contains(t, buf.String(), "all required")
}

func TestSeedOrderAndPromote(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	var out bytes.Buffer

	c, err := parseCommand("seed-order", []string{"-email", "asha@example.com", "-name", "Asha"})
	require.NoError(t, err)
	require.NoError(t, c.Run(ctx, db, zap.NewNop(), &out))
	assert.Contains(t, out.String(), "total 500.00")

	require.NoError(t, c.Run(ctx, db, zap.NewNop(), &out))
	var n int
	require.NoError(t, db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n))
	assert.Equal(t, 1, n)

	c, err = parseCommand("promote-admin", []string{"-email", "ASHA@example.com"})
	require.NoError(t, err)
	require.NoError(t, c.Run(ctx, db, zap.NewNop(), &out))

	u, err := (&users.Repo{DB: db}).GetByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	out.Reset()
	require.NoError(t, checkSchemaCmd{}.Run(ctx, db, zap.NewNop(), &out))
	assert.Contains(t, out.String(), "all required")
}
