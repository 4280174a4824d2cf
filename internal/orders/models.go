package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
	"github.com/ariefcatur/go-bookstore/internal/catalog"
)

type Shipping struct {
	Name    string `json:"shipping_name"`
	Phone   string `json:"shipping_phone"`
	Address string `json:"shipping_address"`
	City    string `json:"shipping_city"`
	State   string `json:"shipping_state"`
	Pincode string `json:"shipping_pincode"`
}

type Order struct {
	ID       int64           `json:"id"`
	OrderID  string          `json:"order_id"`
	UserID   *int64          `json:"user_id"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Shipping
	PaymentMethod string    `json:"payment_method"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Items         []Item    `json:"items"`
	ItemCount     int       `json:"item_count"`
}

// Item is one order line. BookTitle, BookAuthor and BookImage are the values
// captured when the order was placed; BookAvailable reports whether book_id
// still resolves to a catalog book.
type Item struct {
	ID            int64           `json:"id"`
	BookID        *int64          `json:"book_id"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	BookTitle     string          `json:"book_title"`
	BookAuthor    string          `json:"book_author"`
	BookImage     string          `json:"book_image"`
	BookAvailable bool            `json:"book_available"`
}

// ItemInput describes one line of a new order. Catalog lines set BookID and
// take price and snapshot from the book; other lines must carry their own
// title and price.
type ItemInput struct {
	BookID     *int64           `json:"book_id"`
	Quantity   int              `json:"quantity"`
	Price      *decimal.Decimal `json:"price"`
	BookTitle  string           `json:"book_title"`
	BookAuthor string           `json:"book_author"`
	BookImage  string           `json:"book_image"`
}

type CreateInput struct {
	UserID   *int64          `json:"user_id"`
	Items    []ItemInput     `json:"items"`
	Discount decimal.Decimal `json:"discount"`
	Shipping
	PaymentMethod string `json:"payment_method"`
	Status        Status `json:"status"`
}

func (in CreateInput) Validate() error {
	if len(in.Items) == 0 {
		return apperr.Validation("order must contain at least one item")
	}
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return apperr.Validation("quantity must be greater than zero")
		}
		if it.BookID == nil {
			if strings.TrimSpace(it.BookTitle) == "" {
				return apperr.Validation("book_title is required for items without book_id")
			}
			if it.Price == nil {
				return apperr.Validation("price is required for items without book_id")
			}
		}
		if it.Price != nil {
			if err := catalog.CheckAmount("price", *it.Price); err != nil {
				return err
			}
		}
	}
	if err := catalog.CheckAmount("discount", in.Discount); err != nil {
		return err
	}
	switch in.Status {
	case "", StatusCreated, StatusConfirmed:
	default:
		return apperr.Validation("new orders can only be created or confirmed")
	}
	return nil
}

func (in CreateInput) initialStatus() Status {
	if in.Status == "" {
		return StatusCreated
	}
	return in.Status
}

// Totals returns total = subtotal - discount, floored at zero.
func Totals(subtotal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
