package httpx

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
	"github.com/ariefcatur/go-bookstore/internal/cart"
)

type CartStore interface {
	Add(ctx context.Context, userID, bookID int64, qty int) error
	List(ctx context.Context, userID int64) ([]cart.Line, error)
	Remove(ctx context.Context, userID, bookID int64) error
}

type WishlistStore interface {
	Add(ctx context.Context, userID, bookID int64) error
	List(ctx context.Context, userID int64) ([]cart.Line, error)
	Remove(ctx context.Context, userID, bookID int64) error
}

type CartHandler struct {
	Cart     CartStore
	Wishlist WishlistStore
	Log      *zap.Logger
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/users/{id}/cart", h.listCart)
	r.Post("/users/{id}/cart", h.addToCart)
	r.Delete("/users/{id}/cart/{bookID}", h.removeFromCart)
	r.Get("/users/{id}/wishlist", h.listWishlist)
	r.Post("/users/{id}/wishlist", h.addToWishlist)
	r.Delete("/users/{id}/wishlist/{bookID}", h.removeFromWishlist)
}

type addLineReq struct {
	BookID   int64 `json:"book_id"`
	Quantity int   `json:"quantity"`
}

func (h *CartHandler) decodeLine(r *http.Request) (int64, addLineReq, error) {
	userID, err := idParam(r, "id")
	if err != nil {
		return 0, addLineReq{}, err
	}
	var req addLineReq
	if err := decodeJSON(r, &req); err != nil {
		return 0, addLineReq{}, err
	}
	if req.BookID <= 0 {
		return 0, addLineReq{}, apperr.Validation("book_id is required")
	}
	return userID, req, nil
}

func (h *CartHandler) userAndBook(r *http.Request) (int64, int64, error) {
	userID, err := idParam(r, "id")
	if err != nil {
		return 0, 0, err
	}
	bookID, err := idParam(r, "bookID")
	if err != nil {
		return 0, 0, err
	}
	return userID, bookID, nil
}

func (h *CartHandler) listCart(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	lines, err := h.Cart.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cart": lines})
}

func (h *CartHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	userID, req, err := h.decodeLine(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := h.Cart.Add(r.Context(), userID, req.BookID, req.Quantity); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Added to cart"})
}

func (h *CartHandler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	userID, bookID, err := h.userAndBook(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Cart.Remove(r.Context(), userID, bookID); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Removed from cart"})
}

func (h *CartHandler) listWishlist(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	lines, err := h.Wishlist.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wishlist": lines})
}

func (h *CartHandler) addToWishlist(w http.ResponseWriter, r *http.Request) {
	userID, req, err := h.decodeLine(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Wishlist.Add(r.Context(), userID, req.BookID); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Added to wishlist"})
}

func (h *CartHandler) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	userID, bookID, err := h.userAndBook(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Wishlist.Remove(r.Context(), userID, bookID); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Removed from wishlist"})
}
