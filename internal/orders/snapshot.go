package orders

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
	"github.com/ariefcatur/go-bookstore/internal/catalog"
)

// buildItems prices every line and captures the book fields it will keep for
// the life of the order. Catalog lines use the catalog price and details;
// the client values only fill fields the catalog leaves empty.
func buildItems(in []ItemInput, books map[int64]catalog.Book) ([]Item, decimal.Decimal, error) {
	items := make([]Item, 0, len(in))
	subtotal := decimal.Zero
	for _, it := range in {
		item := Item{
			BookID:     it.BookID,
			Quantity:   it.Quantity,
			BookTitle:  strings.TrimSpace(it.BookTitle),
			BookAuthor: it.BookAuthor,
			BookImage:  it.BookImage,
		}
		if it.BookID != nil {
			b, ok := books[*it.BookID]
			if !ok {
				return nil, decimal.Zero, apperr.NotFound(fmt.Sprintf("book %d not found", *it.BookID))
			}
			item.Price = b.Price
			item.BookTitle = firstNonEmpty(b.Title, item.BookTitle)
			item.BookAuthor = firstNonEmpty(b.Author, item.BookAuthor)
			item.BookImage = firstNonEmpty(b.Image, item.BookImage)
			item.BookAvailable = true
		} else {
			item.Price = *it.Price
		}
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		items = append(items, item)
	}
	if subtotal.GreaterThanOrEqual(catalog.MaxAmount) {
		return nil, decimal.Zero, apperr.Validation("order subtotal is too large")
	}
	return items, subtotal, nil
}

type liveBook struct {
	Title  string
	Author string
	Image  string
}

// resolveDisplay fills empty snapshot fields from the live book, if any.
// Rows written before snapshots existed have nothing else to show.
func resolveDisplay(it *Item, live *liveBook) {
	if live == nil {
		it.BookAvailable = false
		return
	}
	it.BookAvailable = true
	it.BookTitle = firstNonEmpty(it.BookTitle, live.Title)
	it.BookAuthor = firstNonEmpty(it.BookAuthor, live.Author)
	it.BookImage = firstNonEmpty(it.BookImage, live.Image)
}

func bookIDs(in []ItemInput) []int64 {
	seen := map[int64]bool{}
	var ids []int64
	for _, it := range in {
		if it.BookID == nil || seen[*it.BookID] {
			continue
		}
		seen[*it.BookID] = true
		ids = append(ids, *it.BookID)
	}
	return ids
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
