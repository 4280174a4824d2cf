package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestL_DefaultsToNop(t *testing.T) {
	assert.NotNil(t, L())
}

func TestInit(t *testing.T) {
	prev := L()
	t.Cleanup(func() {
		mu.Lock()
		log = prev
		mu.Unlock()
	})

	require.NoError(t, Init(true))
	assert.NotSame(t, prev, L())

	require.NoError(t, Init(false))
	assert.NotNil(t, L())
}
