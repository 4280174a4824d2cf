package cart

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
	"github.com/ariefcatur/go-bookstore/internal/postgres"
)

type WishlistRepo struct{ DB *pgxpool.Pool }

// Add is idempotent.
func (r *WishlistRepo) Add(ctx context.Context, userID, bookID int64) error {
	if err := requireBook(ctx, r.DB, bookID); err != nil {
		return err
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO wishlist(user_id, book_id) VALUES ($1, $2)
		ON CONFLICT (user_id, book_id) DO NOTHING`, userID, bookID)
	if err != nil {
		return fmt.Errorf("add to wishlist: %w", err)
	}
	return nil
}

// List reuses Line; Quantity is always 1.
func (r *WishlistRepo) List(ctx context.Context, userID int64) ([]Line, error) {
	return postgres.RetryValue(ctx, func(ctx context.Context) ([]Line, error) {
		rows, err := r.DB.Query(ctx, `
			SELECT b.id, b.title, b.author, b.image, b.price, w.created_at
			FROM wishlist w JOIN books b ON b.id = w.book_id
			WHERE w.user_id = $1
			ORDER BY w.created_at, w.id`, userID)
		if err != nil {
			return nil, fmt.Errorf("list wishlist: %w", err)
		}
		defer rows.Close()
		out := []Line{}
		for rows.Next() {
			l := Line{Quantity: 1}
			if err := rows.Scan(&l.BookID, &l.Title, &l.Author, &l.Image, &l.Price, &l.CreatedAt); err != nil {
				return nil, err
			}
			out = append(out, l)
		}
		return out, rows.Err()
	})
}

func (r *WishlistRepo) Remove(ctx context.Context, userID, bookID int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM wishlist WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("book not in wishlist")
	}
	return nil
}
