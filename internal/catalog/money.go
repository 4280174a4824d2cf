package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
)

// MaxAmount is the smallest value a NUMERIC(12,2) column cannot hold.
var MaxAmount = decimal.New(1, 10)

// CheckAmount rejects negatives and any value the NUMERIC(12,2) money
// columns would round or refuse.
func CheckAmount(field string, d decimal.Decimal) error {
	switch {
	case d.IsNegative():
		return apperr.Validation(field + " must not be negative")
	case !d.Equal(d.Round(2)):
		return apperr.Validation(field + " must have at most two decimal places")
	case d.GreaterThanOrEqual(MaxAmount):
		return apperr.Validation(field + " is too large")
	}
	return nil
}
