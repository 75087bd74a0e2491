package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewSigner("access-secret", time.Hour)
	tok, err := s.SignAccess(42, "alice", "alice@example.com")
	require.NoError(t, err)

	claims, err := s.ParseAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)

	id, err := SubjectID(claims.RegisteredClaims)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestRefreshTokensAreUniquePerIssue(t *testing.T) {
	t.Parallel()

	s := NewSigner("refresh-secret", time.Hour)
	a, err := s.SignRefresh(7)
	require.NoError(t, err)
	b, err := s.SignRefresh(7)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestParseRejectsExpired(t *testing.T) {
	t.Parallel()

	s := NewSigner("secret", time.Minute)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := s.SignRefresh(1)
	require.NoError(t, err)

	_, err = NewSigner("secret", time.Minute).ParseRefresh(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewSigner("right", time.Hour).SignAccess(1, "u", "e")
	require.NoError(t, err)

	_, err = NewSigner("wrong", time.Hour).ParseAccess(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsMalformed(t *testing.T) {
	t.Parallel()

	_, err := NewSigner("k", time.Hour).ParseAccess("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSubjectIDRejectsGarbage(t *testing.T) {
	t.Parallel()

	s := NewSigner("k", time.Hour)
	claims := s.registered(0)
	_, err := SubjectID(claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
