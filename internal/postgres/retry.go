package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsTransient reports whether err happened before the statement reached the
// server, so running it again cannot apply it twice.
func IsTransient(err error) bool {
	return err != nil && pgconn.SafeToRetry(err)
}

// Retry runs fn and, if it failed with a transient error, runs it once more.
func Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil || !IsTransient(err) || ctx.Err() != nil {
		return err
	}
	return fn(ctx)
}

// RetryValue is Retry for functions that return a value.
func RetryValue[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Retry(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
