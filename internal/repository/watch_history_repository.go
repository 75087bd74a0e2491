package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"vidhub/internal/model"
)

type WatchHistoryRepository struct {
	db *gorm.DB
}

func NewWatchHistoryRepository(db *gorm.DB) *WatchHistoryRepository {
	return &WatchHistoryRepository{db: db}
}

func (r *WatchHistoryRepository) Append(ctx context.Context, entry *model.WatchHistoryEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append watch history failed: %w", err)
	}
	return nil
}

// ListVideoIDs returns the user's watched video ids in append order.
func (r *WatchHistoryRepository) ListVideoIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&model.WatchHistoryEntry{}).
		Where("user_id = ?", userID).
		Order("id ASC").
		Pluck("video_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list watch history failed: %w", err)
	}
	return ids, nil
}
