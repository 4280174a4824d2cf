// Package cart stores per-user cart and wishlist rows. Rows reference users
// and books by id only; deleting either side removes them explicitly.
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
	"github.com/ariefcatur/go-bookstore/internal/postgres"
)

type Line struct {
	BookID    int64           `json:"book_id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
}

type Repo struct{ DB *pgxpool.Pool }

// Add puts qty copies of a book in the cart; adding a book that is already
// there increases its quantity.
func (r *Repo) Add(ctx context.Context, userID, bookID int64, qty int) error {
	if qty <= 0 {
		return apperr.Validation("quantity must be greater than zero")
	}
	if err := requireBook(ctx, r.DB, bookID); err != nil {
		return err
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO cart(user_id, book_id, quantity) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, book_id) DO UPDATE SET quantity = cart.quantity + EXCLUDED.quantity`,
		userID, bookID, qty)
	if err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	return nil
}

// List returns the cart joined with the live catalog; lines whose book was
// deleted are not shown.
func (r *Repo) List(ctx context.Context, userID int64) ([]Line, error) {
	return postgres.RetryValue(ctx, func(ctx context.Context) ([]Line, error) {
		rows, err := r.DB.Query(ctx, `
			SELECT b.id, b.title, b.author, b.image, b.price, c.quantity, c.created_at
			FROM cart c JOIN books b ON b.id = c.book_id
			WHERE c.user_id = $1
			ORDER BY c.created_at, c.id`, userID)
		if err != nil {
			return nil, fmt.Errorf("list cart: %w", err)
		}
		defer rows.Close()
		out := []Line{}
		for rows.Next() {
			var l Line
			if err := rows.Scan(&l.BookID, &l.Title, &l.Author, &l.Image, &l.Price, &l.Quantity, &l.CreatedAt); err != nil {
				return nil, err
			}
			out = append(out, l)
		}
		return out, rows.Err()
	})
}

func (r *Repo) Remove(ctx context.Context, userID, bookID int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM cart WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("book not in cart")
	}
	return nil
}

func requireBook(ctx context.Context, q postgres.Querier, bookID int64) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)`, bookID).Scan(&exists); err != nil {
		return fmt.Errorf("check book %d: %w", bookID, err)
	}
	if !exists {
		return apperr.NotFound("book not found")
	}
	return nil
}
