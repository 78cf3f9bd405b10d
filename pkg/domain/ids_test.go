package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "rollcall/pkg/domain-errors"
)

// Parsing enforces the invariant that references crossing the API boundary
// are valid, non-empty, non-nil UUIDs.
func TestParseIdentityID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIdentityID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseIdentityID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseIdentityID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseIdentityID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, IdentityID(valid), id)
	})
}

func TestParseSessionID_Invariants(t *testing.T) {
	_, err := ParseSessionID("")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	valid := uuid.New()
	id, err := ParseSessionID(valid.String())
	require.NoError(t, err)
	assert.Equal(t, SessionID(valid), id)
	assert.False(t, id.IsNil())
}

// TestTypeDistinction verifies the compiler enforces type safety.
// If this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	identityID := IdentityID(uuid.New())
	sessionID := SessionID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ IdentityID = sessionID   // compile error
	// var _ SessionID = identityID   // compile error

	assert.NotEqual(t, uuid.UUID(identityID), uuid.UUID(sessionID))
}

func TestIsNil(t *testing.T) {
	assert.True(t, IdentityID(uuid.Nil).IsNil())
	assert.False(t, NewIdentityID().IsNil())
	assert.True(t, AnomalyID(uuid.Nil).IsNil())
	assert.False(t, NewAnomalyID().IsNil())
}
