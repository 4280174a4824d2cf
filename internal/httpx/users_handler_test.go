package httpx

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-bookstore/internal/orders"
	"github.com/ariefcatur/go-bookstore/internal/users"
)

type mockDirectory struct {
	CreateFunc        func(ctx context.Context, in users.CreateInput) (*users.User, error)
	GetWithOrdersFunc func(ctx context.Context, id int64) (*users.Profile, error)
	ListFunc          func(ctx context.Context) ([]users.Summary, error)
	DeleteFunc        func(ctx context.Context, id int64) error
	SetAdminFunc      func(ctx context.Context, id int64, isAdmin bool) (*users.User, error)
}

func (m *mockDirectory) Create(ctx context.Context, in users.CreateInput) (*users.User, error) {
	return m.CreateFunc(ctx, in)
}

func (m *mockDirectory) GetWithOrders(ctx context.Context, id int64) (*users.Profile, error) {
	return m.GetWithOrdersFunc(ctx, id)
}

func (m *mockDirectory) ListWithOrderSummary(ctx context.Context) ([]users.Summary, error) {
	return m.ListFunc(ctx)
}

func (m *mockDirectory) Delete(ctx context.Context, id int64) error { return m.DeleteFunc(ctx, id) }

func (m *mockDirectory) SetAdmin(ctx context.Context, id int64, isAdmin bool) (*users.User, error) {
	return m.SetAdminFunc(ctx, id, isAdmin)
}

func usersRouter(dir *mockDirectory) http.Handler {
	r := newTestRouter()
	(&UsersHandler{Dir: dir, Log: zap.NewNop()}).Register(r, RequireAdmin(testAdminKey))
	return r
}

func TestGetUser(t *testing.T) {
	dir := &mockDirectory{GetWithOrdersFunc: func(ctx context.Context, id int64) (*users.Profile, error) {
		if id != 1 {
			return nil, users.ErrUserNotFound
		}
		list := []orders.Order{
			{OrderID: "ORD2", Total: decimal.RequireFromString("0.50"), Items: []orders.Item{{Quantity: 1}}},
			{OrderID: "ORD1", Total: decimal.RequireFromString("199.50"), Items: []orders.Item{{Quantity: 1}}},
		}
		return &users.Profile{User: users.User{ID: 1, Name: "Asha"}, Orders: list, Stats: orders.ComputeStats(list)}, nil
	}}
	h := usersRouter(dir)

	rec := do(t, h, http.MethodGet, "/users/1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/users/1", nil, "X-Admin-Key", testAdminKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_orders":2,"total_spent":200,"total_books":2}`,
		mustJSON(t, decode(t, rec)["user"].(map[string]any)["stats"]))
	assert.Contains(t, rec.Body.String(), `"name":"Asha"`)

	rec = do(t, h, http.MethodGet, "/users/2", nil, "X-Admin-Key", testAdminKey)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user not found", decode(t, rec)["error"])

	rec = do(t, h, http.MethodGet, "/users/abc", nil, "X-Admin-Key", testAdminKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUser_StorageErrorIsGeneric(t *testing.T) {
	dir := &mockDirectory{GetWithOrdersFunc: func(ctx context.Context, id int64) (*users.Profile, error) {
		return nil, errors.New(`pq: relation "orders" does not exist`)
	}}
	rec := do(t, usersRouter(dir), http.MethodGet, "/users/1", nil, "X-Admin-Key", testAdminKey)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decode(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "relation")
}

func TestDeleteUser(t *testing.T) {
	var deleted int64
	dir := &mockDirectory{DeleteFunc: func(ctx context.Context, id int64) error {
		if id == 9 {
			return users.ErrUserNotFound
		}
		deleted = id
		return nil
	}}
	h := usersRouter(dir)

	rec := do(t, h, http.MethodDelete, "/users/3", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, deleted)

	rec = do(t, h, http.MethodDelete, "/users/3", nil, "X-Admin-Key", testAdminKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), deleted)
	assert.NotEmpty(t, decode(t, rec)["message"])

	rec = do(t, h, http.MethodDelete, "/users/9", nil, "X-Admin-Key", testAdminKey)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetRole(t *testing.T) {
	dir := &mockDirectory{SetAdminFunc: func(ctx context.Context, id int64, isAdmin bool) (*users.User, error) {
		return &users.User{ID: id, Name: "Asha", Email: "asha@example.com", IsAdmin: isAdmin}, nil
	}}
	h := usersRouter(dir)

	rec := do(t, h, http.MethodPatch, "/users/1/role", map[string]any{"is_admin": true}, "X-Admin-Key", testAdminKey)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Asha is now an admin", body["message"])
	assert.Equal(t, true, body["user"].(map[string]any)["is_admin"])

	rec = do(t, h, http.MethodPatch, "/users/1/role", map[string]any{}, "X-Admin-Key", testAdminKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, "/users/1/role", "{", "X-Admin-Key", testAdminKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUsers(t *testing.T) {
	dir := &mockDirectory{ListFunc: func(ctx context.Context) ([]users.Summary, error) {
		return []users.Summary{{User: users.User{ID: 1, Name: "Asha"}, TotalSpent: decimal.Zero}}, nil
	}}
	h := usersRouter(dir)

	rec := do(t, h, http.MethodGet, "/users", nil, "X-Admin-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/users", nil, "X-Admin-Key", testAdminKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"order_count":0`)
	assert.Contains(t, rec.Body.String(), `"total_spent":0`)
}

func TestCreateUser(t *testing.T) {
	dir := &mockDirectory{CreateFunc: func(ctx context.Context, in users.CreateInput) (*users.User, error) {
		if err := in.Validate(); err != nil {
			return nil, err
		}
		if in.Email == "taken@example.com" {
			return nil, users.ErrDuplicateEmail
		}
		return &users.User{ID: 5, Name: in.Name, Email: in.Email}, nil
	}}
	h := usersRouter(dir)

	rec := do(t, h, http.MethodPost, "/users", map[string]string{"name": "Asha", "email": "asha@example.com"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/users", map[string]string{"name": "Asha"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/users", map[string]string{"name": "Asha", "email": "taken@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}
