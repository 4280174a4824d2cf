package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("load user 7: %w", NotFound("user not found"))

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "user not found", Message(wrapped))
	assert.Equal(t, KindValidation, KindOf(Validation("name is required")))
	assert.Equal(t, KindConflict, KindOf(Conflict("email already registered")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("connection reset")))
	assert.Equal(t, "", Message(errors.New("connection reset")))
}

func TestIs_MatchesSentinelByKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NotFound("order not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.True(t, errors.Is(err, NotFound("order not found")))
	assert.False(t, errors.Is(err, NotFound("user not found")))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
