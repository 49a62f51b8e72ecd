package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeNotFound, "player missing")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		inner := New(CodeInvariantViolation, "two current rows")
		outer := fmt.Errorf("create version: %w", inner)
		assert.True(t, HasCode(outer, CodeInvariantViolation))
	})

	t.Run("matches nested coded errors", func(t *testing.T) {
		inner := New(CodeUnavailable, "store down")
		outer := Wrap(inner, CodeInternal, "resolve failed")
		assert.True(t, HasCode(outer, CodeInternal))
		assert.True(t, HasCode(outer, CodeUnavailable))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeConflict, CodeOf(New(CodeConflict, "dup")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Wrap(cause, CodeUnavailable, "player lookup failed")
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "unavailable")
	assert.Contains(t, err.Error(), "connection refused")
}
