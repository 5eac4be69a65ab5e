package serverutils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-chat-be/internal/repository/memory"
)

const testSecret = "test-secret"

func TestIssueAndParseToken(t *testing.T) {
	userId := uuid.New()

	token, err := IssueToken(testSecret, userId, "john", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, userId.String(), claims.UserId)
	assert.Equal(t, "john", claims.Username)
	assert.NotEmpty(t, claims.TokenId)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expires, time.Minute)
}

func TestParseTokenRejectsBadInput(t *testing.T) {
	userId := uuid.New()

	_, err := ParseToken(testSecret, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Wrong signing key.
	token, err := IssueToken("other-secret", userId, "john", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Expired.
	token, err = IssueToken(testSecret, userId, "john", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenDenylist(t *testing.T) {
	denylist := memory.NewTokenDenylist()

	assert.False(t, denylist.IsRevoked("some-token"))

	denylist.Revoke("some-token", time.Now().Add(time.Hour))
	assert.True(t, denylist.IsRevoked("some-token"))

	// Revoking with a past expiry is a no-op.
	denylist.Revoke("stale-token", time.Now().Add(-time.Minute))
	assert.False(t, denylist.IsRevoked("stale-token"))
}
