package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

// safeErr mimics a pgconn error raised before any bytes reached the server.
type safeErr struct{}

func (safeErr) Error() string     { return "connection lost" }
func (safeErr) SafeToRetry() bool { return true }

func TestRetry_RetriesTransientOnce(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), func(context.Context) error {
		calls++
		return safeErr{}
	})

	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetry_SucceedsOnSecondAttempt(t *testing.T) {
	calls := 0
	got, err := RetryValue(context.Background(), func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, safeErr{}
		}
		return 42, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 2, calls)
}

func TestRetry_DoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), func(context.Context) error {
		calls++
		return &pgconn.PgError{Code: "23505"}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsUniqueViolation(err))
}

func TestRetry_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Retry(ctx, func(context.Context) error {
		calls++
		return safeErr{}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("syntax error")))
	assert.True(t, IsTransient(safeErr{}))
}
