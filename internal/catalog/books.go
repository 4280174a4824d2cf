package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
	"github.com/ariefcatur/go-bookstore/internal/postgres"
)

var ErrBookNotFound = apperr.NotFound("book not found")

type Book struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Publisher string          `json:"publisher"`
	Sections  []string        `json:"sections"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type BookInput struct {
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Publisher string          `json:"publisher"`
	Sections  []string        `json:"sections"`
}

func (in BookInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.Validation("title is required")
	}
	return CheckAmount("price", in.Price)
}

type BookFilter struct {
	Section string
	Limit   int
	Offset  int
}

type BookRepo struct{ DB *pgxpool.Pool }

const bookColumns = `id, title, author, image, price, publisher, created_at, updated_at`

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Image, &b.Price, &b.Publisher, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *BookRepo) Create(ctx context.Context, in BookInput) (*Book, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var b Book
	err := postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		var err error
		b, err = scanBook(tx.QueryRow(ctx, `
			INSERT INTO books(title, author, image, price, publisher)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+bookColumns,
			strings.TrimSpace(in.Title), in.Author, in.Image, in.Price, in.Publisher))
		if err != nil {
			return err
		}
		b.Sections, err = replaceSections(ctx, tx, b.ID, in.Sections)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return &b, nil
}

func (r *BookRepo) Get(ctx context.Context, id int64) (*Book, error) {
	b, err := scanBook(r.DB.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}
	sections, err := loadSections(ctx, r.DB, []int64{id})
	if err != nil {
		return nil, err
	}
	b.Sections = orEmpty(sections[id])
	return &b, nil
}

func (r *BookRepo) List(ctx context.Context, f BookFilter) ([]Book, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var (
		rows pgx.Rows
		err  error
	)
	if f.Section != "" {
		rows, err = r.DB.Query(ctx, `
			SELECT `+bookColumns+` FROM books
			WHERE id IN (SELECT book_id FROM book_sections WHERE section = $1)
			ORDER BY title, id LIMIT $2 OFFSET $3`, f.Section, f.Limit, f.Offset)
	} else {
		rows, err = r.DB.Query(ctx, `
			SELECT `+bookColumns+` FROM books
			ORDER BY title, id LIMIT $1 OFFSET $2`, f.Limit, f.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var (
		out []Book
		ids []int64
	)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sections, err := loadSections(ctx, r.DB, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Sections = orEmpty(sections[out[i].ID])
	}
	return out, nil
}

// Update edits the live catalog record. Order items keep their own snapshot
// and are never touched here.
func (r *BookRepo) Update(ctx context.Context, id int64, in BookInput) (*Book, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var b Book
	err := postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		var err error
		b, err = scanBook(tx.QueryRow(ctx, `
			UPDATE books SET title = $2, author = $3, image = $4, price = $5, publisher = $6
			WHERE id = $1
			RETURNING `+bookColumns,
			id, strings.TrimSpace(in.Title), in.Author, in.Image, in.Price, in.Publisher))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBookNotFound
		}
		if err != nil {
			return err
		}
		b.Sections, err = replaceSections(ctx, tx, id, in.Sections)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update book %d: %w", id, err)
	}
	return &b, nil
}

// Delete removes the book with its cart and wishlist rows. Order items that
// reference it keep their book_id and render from their snapshot.
func (r *BookRepo) Delete(ctx context.Context, id int64) error {
	err := postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM cart WHERE book_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM wishlist WHERE book_id = $1`, id); err != nil {
			return err
		}
		ct, err := tx.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrBookNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	return nil
}

// LookupBooks loads the books with the given ids through q, which may be a
// transaction. Missing ids are simply absent from the result.
func LookupBooks(ctx context.Context, q postgres.Querier, ids []int64) (map[int64]Book, error) {
	out := make(map[int64]Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out[b.ID] = b
	}
	return out, rows.Err()
}

func normalizeSections(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func replaceSections(ctx context.Context, tx pgx.Tx, bookID int64, sections []string) ([]string, error) {
	if _, err := tx.Exec(ctx, `DELETE FROM book_sections WHERE book_id = $1`, bookID); err != nil {
		return nil, err
	}
	norm := normalizeSections(sections)
	for _, s := range norm {
		if _, err := tx.Exec(ctx, `INSERT INTO book_sections(book_id, section) VALUES ($1, $2)`, bookID, s); err != nil {
			return nil, err
		}
	}
	return norm, nil
}

func loadSections(ctx context.Context, q postgres.Querier, ids []int64) (map[int64][]string, error) {
	out := map[int64][]string{}
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `
		SELECT book_id, section FROM book_sections
		WHERE book_id = ANY($1) ORDER BY section`, ids)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id int64
			s  string
		)
		if err := rows.Scan(&id, &s); err != nil {
			return nil, err
		}
		out[id] = append(out[id], s)
	}
	return out, rows.Err()
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
