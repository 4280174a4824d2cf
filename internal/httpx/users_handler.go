package httpx

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
	"github.com/ariefcatur/go-bookstore/internal/users"
)

type UserDirectory interface {
	Create(ctx context.Context, in users.CreateInput) (*users.User, error)
	GetWithOrders(ctx context.Context, id int64) (*users.Profile, error)
	ListWithOrderSummary(ctx context.Context) ([]users.Summary, error)
	Delete(ctx context.Context, id int64) error
	SetAdmin(ctx context.Context, id int64, isAdmin bool) (*users.User, error)
}

type UsersHandler struct {
	Dir UserDirectory
	Log *zap.Logger
}

func (h *UsersHandler) Register(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Post("/users", h.createUser)
	r.With(admin).Get("/users/{id}", h.getUser)
	r.With(admin).Get("/users", h.listUsers)
	r.With(admin).Delete("/users/{id}", h.deleteUser)
	r.With(admin).Patch("/users/{id}/role", h.setRole)
}

func (h *UsersHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var req users.CreateInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	u, err := h.Dir.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": u})
}

func (h *UsersHandler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	p, err := h.Dir.GetWithOrders(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": p})
}

func (h *UsersHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Dir.ListWithOrderSummary(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": list})
}

func (h *UsersHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Dir.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

type setRoleReq struct {
	IsAdmin *bool `json:"is_admin"`
}

func (h *UsersHandler) setRole(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req setRoleReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if req.IsAdmin == nil {
		writeError(w, r, h.Log, apperr.Validation("is_admin is required"))
		return
	}
	u, err := h.Dir.SetAdmin(r.Context(), id, *req.IsAdmin)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	msg := fmt.Sprintf("%s is no longer an admin", u.Name)
	if u.IsAdmin {
		msg = fmt.Sprintf("%s is now an admin", u.Name)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msg, "user": u})
}
