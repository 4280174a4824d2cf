package httpx

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-bookstore/internal/catalog"
)

type BookStore interface {
	Create(ctx context.Context, in catalog.BookInput) (*catalog.Book, error)
	Get(ctx context.Context, id int64) (*catalog.Book, error)
	List(ctx context.Context, f catalog.BookFilter) ([]catalog.Book, error)
	Update(ctx context.Context, id int64, in catalog.BookInput) (*catalog.Book, error)
	Delete(ctx context.Context, id int64) error
}

// ProfileFlusher drops every cached user profile. Profiles embed book data,
// so book writes call it.
type ProfileFlusher interface {
	InvalidateAllProfiles(ctx context.Context) error
}

type CatalogHandler struct {
	Books      BookStore
	Categories catalog.CategoryStore
	Profiles   ProfileFlusher
	Log        *zap.Logger
}

func (h *CatalogHandler) flushProfiles(ctx context.Context) {
	if h.Profiles == nil {
		return
	}
	if err := h.Profiles.InvalidateAllProfiles(ctx); err != nil {
		h.Log.Error("profile cache flush after book write", zap.Error(err))
	}
}

func (h *CatalogHandler) Register(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Get("/books", h.listBooks)
	r.Get("/books/{id}", h.getBook)
	r.With(admin).Post("/books", h.createBook)
	r.With(admin).Put("/books/{id}", h.updateBook)
	r.With(admin).Delete("/books/{id}", h.deleteBook)

	r.Get("/categories", h.listCategories)
	r.Get("/categories/{id}", h.getCategory)
	r.With(admin).Post("/categories", h.createCategory)
	r.With(admin).Put("/categories/{id}", h.updateCategory)
	r.With(admin).Delete("/categories/{id}", h.deleteCategory)
}

func (h *CatalogHandler) listBooks(w http.ResponseWriter, r *http.Request) {
	f := catalog.BookFilter{Section: r.URL.Query().Get("section")}
	var err error
	if f.Limit, err = intQuery(r, "limit", 50); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if f.Offset, err = intQuery(r, "offset", 0); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	books, err := h.Books.List(r.Context(), f)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if books == nil {
		books = []catalog.Book{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

func (h *CatalogHandler) getBook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	b, err := h.Books.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"book": b})
}

func (h *CatalogHandler) createBook(w http.ResponseWriter, r *http.Request) {
	var req catalog.BookInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	b, err := h.Books.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"book": b})
}

func (h *CatalogHandler) updateBook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req catalog.BookInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	b, err := h.Books.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.flushProfiles(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"book": b})
}

func (h *CatalogHandler) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Books.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.flushProfiles(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"message": "Book deleted successfully"})
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	var (
		f   catalog.CategoryFilter
		err error
	)
	if f.Visible, err = boolQuery(r, "visible"); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if f.IsLanguage, err = boolQuery(r, "is_language"); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	list, err := h.Categories.List(r.Context(), f)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []catalog.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": list})
}

func (h *CatalogHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	c, err := h.Categories.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": c})
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req catalog.CategoryInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	c, err := h.Categories.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"category": c})
}

func (h *CatalogHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req catalog.CategoryInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	c, err := h.Categories.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": c})
}

func (h *CatalogHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Categories.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Category deleted successfully"})
}
