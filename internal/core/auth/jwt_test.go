package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestJWTer_IssueAndVerify(t *testing.T) {
	j := NewJWTer("test-secret", "feed-api")

	tok, err := j.Issue("u1", "a@b.com")
	require.NoError(t, err)

	id, err := j.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "a@b.com", id.Email)
}

func TestJWTer_ExpiresAfterOneHour(t *testing.T) {
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	j := NewJWTer("test-secret", "feed-api")
	j.Now = fixedClock(issued)

	tok, err := j.Issue("u1", "a@b.com")
	require.NoError(t, err)

	t.Run("still valid just before expiry", func(t *testing.T) {
		j.Now = fixedClock(issued.Add(59 * time.Minute))
		_, err := j.Verify(tok)
		assert.NoError(t, err)
	})

	t.Run("rejected after expiry", func(t *testing.T) {
		j.Now = fixedClock(issued.Add(time.Hour + time.Second))
		_, err := j.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestJWTer_RejectsBadTokens(t *testing.T) {
	j := NewJWTer("test-secret", "feed-api")
	tok, err := j.Issue("u1", "a@b.com")
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := j.Verify("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rotated secret", func(t *testing.T) {
		rotated := NewJWTer("other-secret", "feed-api")
		_, err := rotated.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTer("test-secret", "someone-else")
		_, err := other.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := (&JWTer{}).Issue("u1", "a@b.com")
		assert.Error(t, err)
	})
}
