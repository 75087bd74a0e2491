package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vidhub/internal/model"
)

type VideoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) Create(ctx context.Context, video *model.Video) error {
	if err := r.db.WithContext(ctx).Create(video).Error; err != nil {
		return fmt.Errorf("create video failed: %w", err)
	}
	return nil
}

func (r *VideoRepository) GetByID(ctx context.Context, id uint) (*model.Video, error) {
	var video model.Video
	if err := r.db.WithContext(ctx).First(&video, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query video by id failed: %w", err)
	}
	return &video, nil
}

func (r *VideoRepository) ListByIDs(ctx context.Context, ids []uint) ([]model.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var videos []model.Video
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("list videos by ids failed: %w", err)
	}
	return videos, nil
}
