package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
	"github.com/ariefcatur/go-bookstore/internal/postgres"
)

var (
	ErrUserNotFound   = apperr.NotFound("user not found")
	ErrDuplicateEmail = apperr.Conflict("email already registered")
)

type Repo struct{ DB *pgxpool.Pool }

const userColumns = `id, name, email, phone, is_admin, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *Repo) Create(ctx context.Context, in CreateInput) (*User, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	u, err := scanUser(r.DB.QueryRow(ctx, `
		INSERT INTO users(name, email, phone) VALUES ($1, $2, $3)
		RETURNING `+userColumns, in.Name, in.Email, in.Phone))
	if postgres.IsUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (r *Repo) Get(ctx context.Context, id int64) (*User, error) {
	return postgres.RetryValue(ctx, func(ctx context.Context) (*User, error) {
		u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("get user %d: %w", id, err)
		}
		return &u, nil
	})
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// ListWithOrderSummary returns every user, newest first, with order count
// and total spent computed by one grouped query.
func (r *Repo) ListWithOrderSummary(ctx context.Context) ([]Summary, error) {
	return postgres.RetryValue(ctx, func(ctx context.Context) ([]Summary, error) {
		rows, err := r.DB.Query(ctx, `
			SELECT u.id, u.name, u.email, u.phone, u.is_admin, u.created_at, u.updated_at,
			       COALESCE(s.order_count, 0), COALESCE(s.total_spent, 0)
			FROM users u
			LEFT JOIN (
				SELECT user_id, COUNT(*) AS order_count, SUM(total) AS total_spent
				FROM orders
				WHERE user_id IS NOT NULL
				GROUP BY user_id
			) s ON s.user_id = u.id
			ORDER BY u.created_at DESC, u.id DESC`)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		defer rows.Close()

		out := []Summary{}
		for rows.Next() {
			var s Summary
			if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.IsAdmin, &s.CreatedAt, &s.UpdatedAt,
				&s.OrderCount, &s.TotalSpent); err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, rows.Err()
	})
}

// Delete removes the user's cart rows, wishlist rows and the user itself in
// one transaction. Orders keep their user_id.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	err := postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM cart WHERE user_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM wishlist WHERE user_id = $1`, id); err != nil {
			return err
		}
		ct, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

func (r *Repo) SetAdmin(ctx context.Context, id int64, isAdmin bool) (*User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `
		UPDATE users SET is_admin = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, isAdmin))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set admin flag for user %d: %w", id, err)
	}
	return &u, nil
}

// SetAdminByEmail is SetAdmin keyed by e-mail, for maintenance tooling.
func (r *Repo) SetAdminByEmail(ctx context.Context, email string, isAdmin bool) (*User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `
		UPDATE users SET is_admin = $2, updated_at = now()
		WHERE lower(email) = lower($1)
		RETURNING `+userColumns, email, isAdmin))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set admin flag for %s: %w", email, err)
	}
	return &u, nil
}
