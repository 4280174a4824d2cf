package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
	"github.com/ariefcatur/go-bookstore/internal/postgres/pgtest"
)

func boolPtr(b bool) *bool { return &b }

func TestCategoryInput_Validate(t *testing.T) {
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(CategoryInput{Icon: "book"}.Validate()))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(CategoryInput{Name: "Hindi"}.Validate()))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(CategoryInput{Name: "???", Icon: "x"}.Validate()))
	assert.NoError(t, CategoryInput{Name: "Hindi", Icon: "🇮🇳"}.Validate())
}

func TestCategoryRepo_CRUD(t *testing.T) {
	repo := &CategoryRepo{DB: pgtest.New(t)}
	ctx := context.Background()

	hindi, err := repo.Create(ctx, CategoryInput{Name: "Hindi Books", Icon: "hi", IsLanguage: true, DisplayOrder: 2})
	require.NoError(t, err)
	assert.Equal(t, "hindi-books", hindi.Slug)
	assert.True(t, hindi.Visible)

	_, err = repo.Create(ctx, CategoryInput{Name: "Fiction", Icon: "f", DisplayOrder: 1, Visible: boolPtr(false)})
	require.NoError(t, err)

	_, err = repo.Create(ctx, CategoryInput{Name: "hindi books", Icon: "dup"})
	assert.True(t, errors.Is(err, ErrDuplicateSlug))

	all, err := repo.List(ctx, CategoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Fiction", all[0].Name)

	visible, err := repo.List(ctx, CategoryFilter{Visible: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, hindi.ID, visible[0].ID)

	langs, err := repo.List(ctx, CategoryFilter{IsLanguage: boolPtr(true)})
	require.NoError(t, err)
	assert.Len(t, langs, 1)

	updated, err := repo.Update(ctx, hindi.ID, CategoryInput{Name: "Hindi", Icon: "hi", IsLanguage: true})
	require.NoError(t, err)
	assert.Equal(t, "hindi", updated.Slug)

	require.NoError(t, repo.Delete(ctx, hindi.ID))
	_, err = repo.Get(ctx, hindi.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(repo.Delete(ctx, hindi.ID)))
}
