package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSlotTokensRoundTrip(t *testing.T) {
	tokens := NewSlotTokens(testSecret, "defect-portal", time.Hour)

	raw, err := tokens.Generate("slot-1")
	require.NoError(t, err)

	slot, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "slot-1", slot)
}

func TestSlotTokensRejectForeignSecret(t *testing.T) {
	raw, err := NewSlotTokens("another-secret-another-secret-xx", "defect-portal", time.Hour).Generate("slot-1")
	require.NoError(t, err)

	_, err = NewSlotTokens(testSecret, "defect-portal", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSlotTokensRejectWrongIssuer(t *testing.T) {
	raw, err := NewSlotTokens(testSecret, "someone-else", time.Hour).Generate("slot-1")
	require.NoError(t, err)

	_, err = NewSlotTokens(testSecret, "defect-portal", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSlotTokensExpire(t *testing.T) {
	tokens := NewSlotTokens(testSecret, "defect-portal", time.Minute)
	issued := time.Now()
	tokens.now = func() time.Time { return issued }

	raw, err := tokens.Generate("slot-1")
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSlotTokensRejectGarbage(t *testing.T) {
	_, err := NewSlotTokens(testSecret, "defect-portal", time.Hour).Parse("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
