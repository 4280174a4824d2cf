package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
	"github.com/ariefcatur/go-bookstore/internal/catalog"
	"github.com/ariefcatur/go-bookstore/internal/postgres"
)

var ErrOrderNotFound = apperr.NotFound("order not found")

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, order_id, user_id, subtotal, discount, total,
	shipping_name, shipping_phone, shipping_address, shipping_city, shipping_state, shipping_pincode,
	payment_method, status, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(&o.ID, &o.OrderID, &o.UserID, &o.Subtotal, &o.Discount, &o.Total,
		&o.Shipping.Name, &o.Shipping.Phone, &o.Shipping.Address, &o.Shipping.City, &o.Shipping.State, &o.Shipping.Pincode,
		&o.PaymentMethod, &status, &o.CreatedAt, &o.UpdatedAt)
	o.Status = Status(status)
	o.Items = []Item{}
	return o, err
}

// Create writes the order and all of its items in one transaction. Catalog
// books are read inside the same transaction so the captured price and
// details match what existed at commit time.
func (r *Repo) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var o Order
	err := postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		if in.UserID != nil {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, *in.UserID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return apperr.NotFound("user not found")
			}
		}

		books, err := catalog.LookupBooks(ctx, tx, bookIDs(in.Items))
		if err != nil {
			return err
		}
		items, subtotal, err := buildItems(in.Items, books)
		if err != nil {
			return err
		}

		o, err = scanOrder(tx.QueryRow(ctx, `
			INSERT INTO orders(order_id, user_id, subtotal, discount, total,
				shipping_name, shipping_phone, shipping_address, shipping_city, shipping_state, shipping_pincode,
				payment_method, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING `+orderColumns,
			NewOrderCode(time.Now()), in.UserID, subtotal, in.Discount, Totals(subtotal, in.Discount),
			in.Shipping.Name, in.Shipping.Phone, in.Shipping.Address, in.Shipping.City, in.Shipping.State, in.Shipping.Pincode,
			in.PaymentMethod, string(in.initialStatus())))
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return apperr.Conflict("order code already in use, retry")
			}
			return err
		}

		for i := range items {
			it := &items[i]
			err := tx.QueryRow(ctx, `
				INSERT INTO order_items(order_id, book_id, quantity, price, book_title, book_author, book_image)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id`,
				o.ID, it.BookID, it.Quantity, it.Price, it.BookTitle, it.BookAuthor, it.BookImage,
			).Scan(&it.ID)
			if err != nil {
				return err
			}
		}
		o.Items = items
		o.ItemCount = len(items)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &o, nil
}

// Get returns one order by its customer-facing code.
func (r *Repo) Get(ctx context.Context, orderID string) (*Order, error) {
	return postgres.RetryValue(ctx, func(ctx context.Context) (*Order, error) {
		o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, orderID))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("get order %s: %w", orderID, err)
		}
		list := []Order{o}
		if err := attachItems(ctx, r.DB, list); err != nil {
			return nil, err
		}
		return &list[0], nil
	})
}

// ListForUser returns every order of a user, newest first, items included.
func (r *Repo) ListForUser(ctx context.Context, userID int64) ([]Order, error) {
	return postgres.RetryValue(ctx, func(ctx context.Context) ([]Order, error) {
		rows, err := r.DB.Query(ctx, `
			SELECT `+orderColumns+` FROM orders
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC`, userID)
		if err != nil {
			return nil, fmt.Errorf("list orders for user %d: %w", userID, err)
		}
		out, err := collectOrders(rows)
		if err != nil {
			return nil, err
		}
		if err := attachItems(ctx, r.DB, out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

type ListFilter struct {
	UserID *int64
	Status *Status
	Limit  int
	Offset int
}

type Page struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
}

func (r *Repo) List(ctx context.Context, f ListFilter) (Page, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}

	return postgres.RetryValue(ctx, func(ctx context.Context) (Page, error) {
		const where = `WHERE ($1::bigint IS NULL OR user_id = $1) AND ($2::text IS NULL OR status = $2)`
		var p Page
		if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, f.UserID, status).Scan(&p.Total); err != nil {
			return Page{}, fmt.Errorf("count orders: %w", err)
		}
		rows, err := r.DB.Query(ctx, `
			SELECT `+orderColumns+` FROM orders `+where+`
			ORDER BY created_at DESC, id DESC
			LIMIT $3 OFFSET $4`, f.UserID, status, f.Limit, f.Offset)
		if err != nil {
			return Page{}, fmt.Errorf("list orders: %w", err)
		}
		p.Orders, err = collectOrders(rows)
		if err != nil {
			return Page{}, err
		}
		if err := attachItems(ctx, r.DB, p.Orders); err != nil {
			return Page{}, err
		}
		return p, nil
	})
}

type StatusChange struct {
	OrderID string
	UserID  *int64
	From    Status
	To      Status
}

// UpdateStatus moves an order to a new status if the transition table allows it.
func (r *Repo) UpdateStatus(ctx context.Context, orderID string, to Status) (StatusChange, error) {
	if !to.Valid() {
		return StatusChange{}, apperr.Validation(fmt.Sprintf("unknown order status %q", to))
	}
	ch := StatusChange{OrderID: orderID, To: to}
	err := postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		var from string
		err := tx.QueryRow(ctx, `SELECT user_id, status FROM orders WHERE order_id = $1 FOR UPDATE`, orderID).
			Scan(&ch.UserID, &from)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		ch.From = Status(from)
		if err := checkTransition(ch.From, to); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE orders SET status = $2 WHERE order_id = $1`, orderID, string(to))
		return err
	})
	if err != nil {
		return StatusChange{}, fmt.Errorf("update order %s status: %w", orderID, err)
	}
	return ch, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// attachItems loads the items of all given orders in one query. Items whose
// book is gone still render from their snapshot.
func attachItems(ctx context.Context, q postgres.Querier, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	idx := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		idx[o.ID] = i
	}

	rows, err := q.Query(ctx, `
		SELECT oi.order_id, oi.id, oi.book_id, oi.quantity, oi.price,
		       oi.book_title, oi.book_author, oi.book_image,
		       b.id IS NOT NULL, COALESCE(b.title, ''), COALESCE(b.author, ''), COALESCE(b.image, '')
		FROM order_items oi
		LEFT JOIN books b ON b.id = oi.book_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.id`, ids)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			it      Item
			found   bool
			live    liveBook
		)
		if err := rows.Scan(&orderID, &it.ID, &it.BookID, &it.Quantity, &it.Price,
			&it.BookTitle, &it.BookAuthor, &it.BookImage,
			&found, &live.Title, &live.Author, &live.Image); err != nil {
			return err
		}
		if found {
			resolveDisplay(&it, &live)
		} else {
			resolveDisplay(&it, nil)
		}
		o := &orders[idx[orderID]]
		o.Items = append(o.Items, it)
		o.ItemCount = len(o.Items)
	}
	return rows.Err()
}
