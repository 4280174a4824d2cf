package orders

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
	"github.com/ariefcatur/go-bookstore/internal/catalog"
)

func ptr[T any](v T) *T { return &v }

func TestBuildItems_CopiesCatalogBook(t *testing.T) {
	books := map[int64]catalog.Book{
		7: {ID: 7, Title: "Godan", Author: "Premchand", Image: "godan.jpg", Price: decimal.RequireFromString("199.50")},
	}
	items, subtotal, err := buildItems([]ItemInput{
		{BookID: ptr(int64(7)), Quantity: 2, Price: ptr(decimal.NewFromInt(1)), BookTitle: "ignored"},
		{Quantity: 1, Price: ptr(decimal.RequireFromString("0.50")), BookTitle: "Gift wrap"},
	}, books)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Godan", items[0].BookTitle)
	assert.Equal(t, "Premchand", items[0].BookAuthor)
	assert.True(t, decimal.RequireFromString("199.50").Equal(items[0].Price))
	assert.True(t, items[0].BookAvailable)

	assert.Nil(t, items[1].BookID)
	assert.Equal(t, "Gift wrap", items[1].BookTitle)
	assert.False(t, items[1].BookAvailable)

	assert.Equal(t, "399.5", subtotal.String())
}

func TestBuildItems_UnknownBook(t *testing.T) {
	_, _, err := buildItems([]ItemInput{{BookID: ptr(int64(3)), Quantity: 1}}, map[int64]catalog.Book{})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestResolveDisplay(t *testing.T) {
	it := Item{BookTitle: "Godan"}
	resolveDisplay(&it, &liveBook{Title: "Godan (reprint)", Author: "Premchand", Image: "new.jpg"})
	assert.Equal(t, "Godan", it.BookTitle)
	assert.Equal(t, "Premchand", it.BookAuthor)
	assert.Equal(t, "new.jpg", it.BookImage)
	assert.True(t, it.BookAvailable)

	gone := Item{BookTitle: "Nirmala", BookAuthor: "Premchand"}
	resolveDisplay(&gone, nil)
	assert.Equal(t, "Nirmala", gone.BookTitle)
	assert.False(t, gone.BookAvailable)
}

func TestCreateInput_Validate(t *testing.T) {
	ok := CreateInput{Items: []ItemInput{{BookID: ptr(int64(1)), Quantity: 1}}}
	assert.NoError(t, ok.Validate())

	bad := []CreateInput{
		{},
		{Items: []ItemInput{{BookID: ptr(int64(1)), Quantity: 0}}},
		{Items: []ItemInput{{Quantity: 1, Price: ptr(decimal.NewFromInt(5))}}},
		{Items: []ItemInput{{Quantity: 1, BookTitle: "Custom"}}},
		{Items: []ItemInput{{Quantity: 1, BookTitle: "Custom", Price: ptr(decimal.NewFromInt(-1))}}},
		{Items: ok.Items, Discount: decimal.NewFromInt(-5)},
		{Items: ok.Items, Status: StatusShipped},
		{Items: []ItemInput{{Quantity: 3, BookTitle: "Bookmark", Price: ptr(decimal.RequireFromString("0.004"))}}},
		{Items: ok.Items, Discount: decimal.RequireFromString("10.005")},
	}
	for i, in := range bad {
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(in.Validate()), "case %d", i)
	}
}

func TestCreateInput_ValidateTrailingZeros(t *testing.T) {
	in := CreateInput{
		Items:    []ItemInput{{Quantity: 1, BookTitle: "Bookmark", Price: ptr(decimal.RequireFromString("199.500"))}},
		Discount: decimal.RequireFromString("0.10"),
	}
	assert.NoError(t, in.Validate())
}

func TestBuildItems_SubtotalTooLarge(t *testing.T) {
	_, _, err := buildItems([]ItemInput{
		{Quantity: 2, BookTitle: "Rare folio", Price: ptr(decimal.RequireFromString("9999999999.99"))},
	}, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestTotals(t *testing.T) {
	assert.Equal(t, "150", Totals(decimal.NewFromInt(200), decimal.NewFromInt(50)).String())
	assert.True(t, Totals(decimal.NewFromInt(20), decimal.NewFromInt(50)).IsZero())
}

func TestNewOrderCode(t *testing.T) {
	now := time.UnixMilli(1717000000123)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code := NewOrderCode(now)
		assert.True(t, strings.HasPrefix(code, "ORD1717000000123"), code)
		assert.Len(t, code, len("ORD1717000000123")+8)
		assert.Equal(t, strings.ToUpper(code), code)
		seen[code] = true
	}
	assert.Len(t, seen, 200)
}
