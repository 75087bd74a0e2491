package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vidhub/internal/apperr"
	"vidhub/internal/model"
	"vidhub/internal/pkg/hasher"
	"vidhub/internal/repository"
)

// CredentialStore owns the user record: creation, uniqueness, hashing and
// password verification.
type CredentialStore struct {
	users  *repository.UserRepository
	hasher *hasher.Pool
}

type NewUserInput struct {
	Username  string
	Email     string
	Password  string
	FullName  string
	AvatarURL string
	CoverURL  string
}

// ProfileFields is a partial update; nil fields are left untouched.
type ProfileFields struct {
	FullName  *string
	Email     *string
	AvatarURL *string
	CoverURL  *string
}

func NewCredentialStore(users *repository.UserRepository, hasher *hasher.Pool) *CredentialStore {
	return &CredentialStore{users: users, hasher: hasher}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// requireFields returns a validation error listing every blank field.
func requireFields(fields ...[2]string) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0]+" is required")
		}
	}
	if len(missing) > 0 {
		return apperr.Validation("all fields are required", missing...)
	}
	return nil
}

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

func checkPasswordLength(password string) error {
	if len([]byte(password)) > MaxPasswordBytes {
		return apperr.Validation("password is too long", fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
	}
	return nil
}

// CheckAvailable fails with a conflict if the username or email is taken.
func (s *CredentialStore) CheckAvailable(ctx context.Context, username, email string) error {
	existing, err := s.users.GetByUsernameOrEmail(ctx, normalizeUsername(username), normalizeEmail(email))
	if err != nil {
		return apperr.Upstream("check existing user failed", err)
	}
	if existing != nil {
		return apperr.Conflict("user with same email or username already exists")
	}
	return nil
}

func (s *CredentialStore) Create(ctx context.Context, in NewUserInput) (*model.User, error) {
	if err := requireFields(
		[2]string{"username", in.Username},
		[2]string{"email", in.Email},
		[2]string{"password", in.Password},
		[2]string{"full_name", in.FullName},
		[2]string{"avatar", in.AvatarURL},
	); err != nil {
		return nil, err
	}
	if err := checkPasswordLength(in.Password); err != nil {
		return nil, err
	}
	if err := s.CheckAvailable(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, apperr.Upstream("hash password failed", err)
	}

	user := &model.User{
		Username:     normalizeUsername(in.Username),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		AvatarURL:    in.AvatarURL,
		CoverURL:     in.CoverURL,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("user with same email or username already exists")
		}
		return nil, apperr.Upstream("create user failed", err)
	}
	return user, nil
}

// VerifyPassword never fails; a nil user still costs one bcrypt comparison.
func (s *CredentialStore) VerifyPassword(ctx context.Context, user *model.User, candidate string) bool {
	if user == nil {
		s.hasher.Compare(ctx, "", candidate)
		return false
	}
	return s.hasher.Compare(ctx, user.PasswordHash, candidate)
}

// FindByID returns (nil, nil) when no user has the id.
func (s *CredentialStore) FindByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Upstream("find user failed", err)
	}
	return user, nil
}

// FindByUsernameOrEmail returns (nil, nil) when nothing matches.
func (s *CredentialStore) FindByUsernameOrEmail(ctx context.Context, identifier string) (*model.User, error) {
	id := strings.ToLower(strings.TrimSpace(identifier))
	user, err := s.users.GetByUsernameOrEmail(ctx, id, id)
	if err != nil {
		return nil, apperr.Upstream("find user failed", err)
	}
	return user, nil
}

func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		return nil, apperr.Upstream("find user failed", err)
	}
	return user, nil
}

func (s *CredentialStore) ListByIDs(ctx context.Context, ids []uint) ([]model.User, error) {
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Upstream("list users failed", err)
	}
	return users, nil
}

func Sanitize(user *model.User) *model.PublicUser {
	return user.Public()
}

func (s *CredentialStore) SetRefreshToken(ctx context.Context, id uint, token *string) error {
	if err := s.users.SetRefreshToken(ctx, id, token); err != nil {
		return apperr.Upstream("persist refresh token failed", err)
	}
	return nil
}

// SwapRefreshToken replaces the stored token only if it still equals expected.
func (s *CredentialStore) SwapRefreshToken(ctx context.Context, id uint, expected, next string) (bool, error) {
	ok, err := s.users.SwapRefreshToken(ctx, id, expected, next)
	if err != nil {
		return false, apperr.Upstream("persist refresh token failed", err)
	}
	return ok, nil
}

func (s *CredentialStore) SetPassword(ctx context.Context, id uint, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperr.Validation("new password is required")
	}
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return apperr.Upstream("hash password failed", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, id, hash); err != nil {
		return apperr.Upstream("update password failed", err)
	}
	return nil
}

func (s *CredentialStore) UpdateProfileFields(ctx context.Context, id uint, fields ProfileFields) error {
	updates := map[string]interface{}{}
	if fields.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*fields.FullName)
	}
	if fields.Email != nil {
		updates["email"] = normalizeEmail(*fields.Email)
	}
	if fields.AvatarURL != nil {
		updates["avatar_url"] = *fields.AvatarURL
	}
	if fields.CoverURL != nil {
		updates["cover_url"] = *fields.CoverURL
	}
	if err := s.users.UpdateFields(ctx, id, updates); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperr.Conflict("email already in use")
		}
		return apperr.Upstream("update profile failed", err)
	}
	return nil
}
