package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
	"github.com/ariefcatur/go-bookstore/internal/postgres"
)

var (
	ErrCategoryNotFound = apperr.NotFound("category not found")
	ErrDuplicateSlug    = apperr.Conflict("a category with this name already exists")
)

type Category struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Icon         string    `json:"icon"`
	IsLanguage   bool      `json:"is_language"`
	DisplayOrder int       `json:"display_order"`
	Visible      bool      `json:"visible"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CategoryInput struct {
	Name         string `json:"name"`
	Icon         string `json:"icon"`
	IsLanguage   bool   `json:"is_language"`
	DisplayOrder int    `json:"display_order"`
	Visible      *bool  `json:"visible"`
}

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("name is required")
	}
	if strings.TrimSpace(in.Icon) == "" {
		return apperr.Validation("icon is required")
	}
	if Slugify(in.Name) == "" {
		return apperr.Validation("name must contain letters or digits")
	}
	return nil
}

func (in CategoryInput) visible() bool { return in.Visible == nil || *in.Visible }

type CategoryFilter struct {
	Visible    *bool
	IsLanguage *bool
}

// CategoryStore is what the admin category manager and the storefront menus
// need from category storage.
type CategoryStore interface {
	Create(ctx context.Context, in CategoryInput) (*Category, error)
	Get(ctx context.Context, id int64) (*Category, error)
	Update(ctx context.Context, id int64, in CategoryInput) (*Category, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f CategoryFilter) ([]Category, error)
}

type CategoryRepo struct{ DB *pgxpool.Pool }

var _ CategoryStore = (*CategoryRepo)(nil)

const categoryColumns = `id, name, slug, icon, is_language, display_order, visible, created_at, updated_at`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Icon, &c.IsLanguage, &c.DisplayOrder, &c.Visible, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *CategoryRepo) Create(ctx context.Context, in CategoryInput) (*Category, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c, err := scanCategory(r.DB.QueryRow(ctx, `
		INSERT INTO categories(name, slug, icon, is_language, display_order, visible)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+categoryColumns,
		strings.TrimSpace(in.Name), Slugify(in.Name), strings.TrimSpace(in.Icon),
		in.IsLanguage, in.DisplayOrder, in.visible()))
	if postgres.IsUniqueViolation(err) {
		return nil, ErrDuplicateSlug
	}
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

func (r *CategoryRepo) Get(ctx context.Context, id int64) (*Category, error) {
	c, err := scanCategory(r.DB.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	return &c, nil
}

func (r *CategoryRepo) Update(ctx context.Context, id int64, in CategoryInput) (*Category, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c, err := scanCategory(r.DB.QueryRow(ctx, `
		UPDATE categories
		SET name = $2, slug = $3, icon = $4, is_language = $5, display_order = $6, visible = $7
		WHERE id = $1
		RETURNING `+categoryColumns,
		id, strings.TrimSpace(in.Name), Slugify(in.Name), strings.TrimSpace(in.Icon),
		in.IsLanguage, in.DisplayOrder, in.visible()))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrCategoryNotFound
	case postgres.IsUniqueViolation(err):
		return nil, ErrDuplicateSlug
	case err != nil:
		return nil, fmt.Errorf("update category %d: %w", id, err)
	}
	return &c, nil
}

func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepo) List(ctx context.Context, f CategoryFilter) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE ($1::boolean IS NULL OR visible = $1)
		  AND ($2::boolean IS NULL OR is_language = $2)
		ORDER BY display_order, name`, f.Visible, f.IsLanguage)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
