package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "dugout/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs".
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParsePlayerID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParsePlayerID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseReportID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParsePlayerID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, PlayerID(valid), id)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety between ID
// kinds. If this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	playerID := PlayerID(uuid.New())
	reportID := ReportID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ PlayerID = reportID // compile error
	// var _ ReportID = playerID // compile error

	assert.NotEqual(t, uuid.UUID(playerID), uuid.UUID(reportID))
}

func TestIsNil(t *testing.T) {
	assert.True(t, PlayerID{}.IsNil())
	assert.False(t, NewPlayerID().IsNil())
	assert.True(t, ReportID{}.IsNil())
	assert.False(t, NewReportID().IsNil())
}
