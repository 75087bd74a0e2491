package app

import (
	"context"
	"time"

	"vidhub/internal/apperr"
	"vidhub/internal/model"
)

// SessionEpochs reports when a user's access tokens were last revoked.
type SessionEpochs interface {
	RevokedAt(ctx context.Context, userID uint) (time.Time, error)
}

// SessionGuard resolves a presented access token to a user. It fails closed
// and never touches the stored refresh token.
type SessionGuard struct {
	tokens *TokenService
	store  *CredentialStore
	epochs SessionEpochs
}

// NewSessionGuard accepts a nil epochs store; access tokens then stay valid
// until they expire.
func NewSessionGuard(tokens *TokenService, store *CredentialStore, epochs SessionEpochs) *SessionGuard {
	return &SessionGuard{tokens: tokens, store: store, epochs: epochs}
}

func (g *SessionGuard) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperr.Auth("unauthorized request")
	}
	claims, userID, err := g.tokens.VerifyAccess(token)
	if err != nil {
		return nil, apperr.Auth("invalid access token")
	}

	user, err := g.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Auth("invalid access token")
	}

	if g.epochs != nil {
		revokedAt, err := g.epochs.RevokedAt(ctx, userID)
		if err != nil {
			return nil, apperr.Upstream("check session state failed", err)
		}
		// second precision on both sides
		if !revokedAt.IsZero() && claims.IssuedAt != nil && claims.IssuedAt.Time.Before(revokedAt) {
			return nil, apperr.Auth("invalid access token")
		}
	}
	return user, nil
}
