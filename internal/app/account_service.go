package app

import (
	"context"
	"os"
	"strings"
	"time"

	"vidhub/internal/apperr"
	"vidhub/internal/logging"
	"vidhub/internal/model"
)

// Uploader pushes a local temp file to object storage and returns its URL.
// Implementations remove the local file whether or not the upload succeeds.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// SessionRevoker ends outstanding access tokens for a user.
type SessionRevoker interface {
	Revoke(ctx context.Context, userID uint, at time.Time) error
}

type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	FullName   string
	AvatarPath string
	CoverPath  string
}

type LoginResult struct {
	User   *model.PublicUser
	Tokens *TokenPair
}

// AccountService is the operation surface for registration, login and the
// account mutators.
type AccountService struct {
	store    *CredentialStore
	tokens   *TokenService
	uploader Uploader
	revoker  SessionRevoker
	logger   logging.Logger
	now      func() time.Time
}

func NewAccountService(store *CredentialStore, tokens *TokenService, uploader Uploader, revoker SessionRevoker, logger logging.Logger) *AccountService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &AccountService{
		store:    store,
		tokens:   tokens,
		uploader: uploader,
		revoker:  revoker,
		logger:   logger,
		now:      time.Now,
	}
}

func removeTemp(paths ...string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(p)
		}
	}
}

// Register uploads the avatar (and optional cover) before creating the user,
// so a failed upload never leaves an account behind.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.PublicUser, error) {
	defer removeTemp(in.AvatarPath, in.CoverPath)

	if err := requireFields(
		[2]string{"username", in.Username},
		[2]string{"email", in.Email},
		[2]string{"password", in.Password},
		[2]string{"full_name", in.FullName},
	); err != nil {
		return nil, err
	}
	if err := checkPasswordLength(in.Password); err != nil {
		return nil, err
	}
	if err := s.store.CheckAvailable(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}
	if in.AvatarPath == "" {
		return nil, apperr.Validation("avatar is required")
	}

	avatarURL, err := s.uploader.Upload(ctx, in.AvatarPath)
	if err != nil {
		return nil, apperr.Upstream("avatar upload failed", err)
	}
	var coverURL string
	if in.CoverPath != "" {
		coverURL, err = s.uploader.Upload(ctx, in.CoverPath)
		if err != nil {
			return nil, apperr.Upstream("cover image upload failed", err)
		}
	}

	created, err := s.store.Create(ctx, NewUserInput{
		Username:  in.Username,
		Email:     in.Email,
		Password:  in.Password,
		FullName:  in.FullName,
		AvatarURL: avatarURL,
		CoverURL:  coverURL,
	})
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindByID(ctx, created.ID)
	if err != nil || user == nil {
		return nil, apperr.Upstream("user registration failed", err)
	}
	s.logger.Info(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return Sanitize(user), nil
}

// Login checks credentials against a username or email. Unknown identifiers
// and wrong passwords fail the same way.
func (s *AccountService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	if strings.TrimSpace(identifier) == "" {
		return nil, apperr.Validation("username or email is required")
	}
	if password == "" {
		return nil, apperr.Validation("password is required")
	}

	user, err := s.store.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if !s.store.VerifyPassword(ctx, user, password) {
		return nil, apperr.Auth("invalid user credentials")
	}

	pair, err := s.tokens.IssuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: Sanitize(user), Tokens: pair}, nil
}

// Logout clears the refresh token. Revoking outstanding access tokens is best
// effort; the refresh token is already gone.
func (s *AccountService) Logout(ctx context.Context, userID uint) error {
	if err := s.tokens.Invalidate(ctx, userID); err != nil {
		return err
	}
	if s.revoker != nil {
		if err := s.revoker.Revoke(ctx, userID, s.now()); err != nil {
			s.logger.Warn(ctx, "revoke access tokens failed", "user_id", userID, "error", err)
		}
	}
	return nil
}

func (s *AccountService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	return s.tokens.Rotate(ctx, presented)
}

func (s *AccountService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	if oldPassword == "" || strings.TrimSpace(newPassword) == "" {
		return apperr.Validation("old and new password are required")
	}
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound("user not found")
	}
	if !s.store.VerifyPassword(ctx, user, oldPassword) {
		return apperr.Auth("invalid old password")
	}
	return s.store.SetPassword(ctx, userID, newPassword)
}

func (s *AccountService) CurrentUser(ctx context.Context, userID uint) (*model.PublicUser, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return Sanitize(user), nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, fullName, email string) (*model.PublicUser, error) {
	if err := requireFields(
		[2]string{"full_name", fullName},
		[2]string{"email", email},
	); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProfileFields(ctx, userID, ProfileFields{FullName: &fullName, Email: &email}); err != nil {
		return nil, err
	}
	return s.CurrentUser(ctx, userID)
}

func (s *AccountService) UpdateAvatar(ctx context.Context, userID uint, localPath string) (*model.PublicUser, error) {
	return s.replaceImage(ctx, userID, localPath, "avatar", func(url string) ProfileFields {
		return ProfileFields{AvatarURL: &url}
	})
}

func (s *AccountService) UpdateCover(ctx context.Context, userID uint, localPath string) (*model.PublicUser, error) {
	return s.replaceImage(ctx, userID, localPath, "cover image", func(url string) ProfileFields {
		return ProfileFields{CoverURL: &url}
	})
}

func (s *AccountService) replaceImage(ctx context.Context, userID uint, localPath, label string, fields func(string) ProfileFields) (*model.PublicUser, error) {
	defer removeTemp(localPath)
	if localPath == "" {
		return nil, apperr.Validation(label + " file is missing")
	}
	url, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		return nil, apperr.Upstream(label+" upload failed", err)
	}
	if err := s.store.UpdateProfileFields(ctx, userID, fields(url)); err != nil {
		return nil, err
	}
	return s.CurrentUser(ctx, userID)
}
