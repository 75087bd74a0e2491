package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vidhub/internal/model"
)

var ErrDuplicate = errors.New("record already exists")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create user failed: %w", ErrDuplicate)
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by username failed: %w", err)
	}
	return &user, nil
}

// GetByUsernameOrEmail returns the first user matching either value.
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, email).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by username or email failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) ListByIDs(ctx context.Context, ids []uint) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users by ids failed: %w", err)
	}
	return users, nil
}

// SetRefreshToken overwrites the stored refresh token; nil clears it.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id uint, token *string) error {
	var value interface{} = gorm.Expr("NULL")
	if token != nil {
		value = *token
	}
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("refresh_token", value)
	if res.Error != nil {
		return fmt.Errorf("set refresh token failed: %w", res.Error)
	}
	return nil
}

// SwapRefreshToken replaces the stored refresh token only if it still equals
// expected. It reports whether the swap happened.
func (r *UserRepository) SwapRefreshToken(ctx context.Context, id uint, expected, next string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND refresh_token = ?", id, expected).
		Update("refresh_token", next)
	if res.Error != nil {
		return false, fmt.Errorf("swap refresh token failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("update password failed: %w", res.Error)
	}
	return nil
}

// UpdateFields applies a partial update keyed by column name.
func (r *UserRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("update user failed: %w", ErrDuplicate)
		}
		return fmt.Errorf("update user failed: %w", res.Error)
	}
	return nil
}
