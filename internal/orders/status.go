package orders

import (
	"fmt"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
)

type Status string

const (
	StatusCreated   Status = "created"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusCreated:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:   {StatusDelivered: true},
	StatusDelivered: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func (s Status) Terminal() bool {
	return s.Valid() && len(validNext[s]) == 0
}

// checkTransition explains why from cannot move to to, or returns nil.
func checkTransition(from, to Status) error {
	switch {
	case CanTransition(from, to):
		return nil
	case from.Terminal():
		return apperr.Validation(fmt.Sprintf("order is already %s", from))
	default:
		return apperr.Validation(fmt.Sprintf("cannot change order status from %s to %s", from, to))
	}
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}
