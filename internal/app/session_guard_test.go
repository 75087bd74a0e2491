package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidhub/internal/app"
	"vidhub/internal/apperr"
	"vidhub/internal/pkg/jwtutil"
)

func TestSessionGuard_Resolve(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "alice", "pw")
	login, err := h.accounts.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	before := h.storedRefresh(t, alice.ID)

	user, err := h.guard.Resolve(ctx, login.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	assert.Equal(t, before, h.storedRefresh(t, alice.ID))
}

func TestSessionGuard_FailsClosed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "alice", "pw")
	login, err := h.accounts.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	ghost, err := h.access.SignAccess(alice.ID+100, "ghost", "ghost@example.com")
	require.NoError(t, err)
	expired, err := jwtutil.NewSigner("access-secret", -time.Minute).SignAccess(alice.ID, "alice", "alice@example.com")
	require.NoError(t, err)

	cases := map[string]struct {
		token   string
		message string
	}{
		"missing":         {"", "unauthorized request"},
		"malformed":       {"abc.def.ghi", "invalid access token"},
		"expired":         {expired, "invalid access token"},
		"refresh token":   {login.Tokens.RefreshToken, "invalid access token"},
		"unknown subject": {ghost, "invalid access token"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			user, err := h.guard.Resolve(ctx, tc.token)
			assert.Nil(t, user)
			require.ErrorIs(t, err, apperr.ErrAuth)
			assert.Equal(t, tc.message, apperr.PublicMessage(err))
		})
	}
}

func TestSessionGuard_RejectsTokensIssuedBeforeLogout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "alice", "pw")
	login, err := h.accounts.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	h.epochs.at[alice.ID] = time.Now().Add(time.Minute).Truncate(time.Second)
	_, err = h.guard.Resolve(ctx, login.Tokens.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrAuth)

	h.epochs.err = errors.New("redis down")
	_, err = h.guard.Resolve(ctx, login.Tokens.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestSessionGuard_WithoutEpochs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "alice", "pw")
	login, err := h.accounts.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	guard := app.NewSessionGuard(h.tokens, h.store, nil)
	user, err := guard.Resolve(ctx, login.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
}
