package app

import (
	"context"
	"crypto/subtle"
	"errors"

	"vidhub/internal/apperr"
	"vidhub/internal/model"
	"vidhub/internal/pkg/jwtutil"
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenService issues and rotates session tokens. A user has at most one
// valid refresh token: the one mirrored in the user record.
type TokenService struct {
	store   *CredentialStore
	access  *jwtutil.Signer
	refresh *jwtutil.Signer
}

func NewTokenService(store *CredentialStore, access, refresh *jwtutil.Signer) *TokenService {
	return &TokenService{store: store, access: access, refresh: refresh}
}

// refreshFailure keeps the reason internal; callers only see the message.
func refreshFailure(reason string) error {
	return &apperr.Error{Kind: apperr.KindAuth, Message: "invalid refresh token", Cause: errors.New(reason)}
}

func (s *TokenService) mint(user *model.User) (*TokenPair, error) {
	access, err := s.access.SignAccess(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, apperr.Upstream("generate access token failed", err)
	}
	refresh, err := s.refresh.SignRefresh(user.ID)
	if err != nil {
		return nil, apperr.Upstream("generate refresh token failed", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssuePair signs a new pair and overwrites whatever refresh token the user
// had, ending any earlier session.
func (s *TokenService) IssuePair(ctx context.Context, user *model.User) (*TokenPair, error) {
	pair, err := s.mint(user)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, err
	}
	return pair, nil
}

// Rotate exchanges the currently stored refresh token for a new pair. Of
// several concurrent rotations presenting the same token, at most one wins.
func (s *TokenService) Rotate(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, apperr.Auth("unauthorized request")
	}
	claims, err := s.refresh.ParseRefresh(presented)
	if err != nil {
		return nil, refreshFailure(err.Error())
	}
	userID, err := jwtutil.SubjectID(claims.RegisteredClaims)
	if err != nil {
		return nil, refreshFailure("bad subject")
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, refreshFailure("subject not found")
	}
	if user.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(presented)) != 1 {
		return nil, refreshFailure("refresh token is expired or used")
	}

	pair, err := s.mint(user)
	if err != nil {
		return nil, err
	}
	swapped, err := s.store.SwapRefreshToken(ctx, user.ID, presented, pair.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, refreshFailure("refresh token is expired or used")
	}
	return pair, nil
}

// Invalidate clears the stored refresh token.
func (s *TokenService) Invalidate(ctx context.Context, userID uint) error {
	return s.store.SetRefreshToken(ctx, userID, nil)
}

func (s *TokenService) VerifyAccess(token string) (*jwtutil.AccessClaims, uint, error) {
	claims, err := s.access.ParseAccess(token)
	if err != nil {
		return nil, 0, err
	}
	userID, err := jwtutil.SubjectID(claims.RegisteredClaims)
	if err != nil {
		return nil, 0, err
	}
	return claims, userID, nil
}

func (s *TokenService) AccessTTLSeconds() int {
	return int(s.access.TTL().Seconds())
}

func (s *TokenService) RefreshTTLSeconds() int {
	return int(s.refresh.TTL().Seconds())
}
