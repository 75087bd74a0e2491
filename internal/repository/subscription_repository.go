package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vidhub/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Snapshot runs fn with a repository bound to one read-only transaction, so
// every query fn makes sees the same edge table state.
func (r *SubscriptionRepository) Snapshot(ctx context.Context, fn func(tx *SubscriptionRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SubscriptionRepository{db: tx})
	}, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
}

// Create inserts the edge; an existing (subscriber, channel) pair is left as is.
func (r *SubscriptionRepository) Create(ctx context.Context, subscriberID, channelID uint) error {
	edge := &model.Subscription{SubscriberID: subscriberID, ChannelID: channelID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error; err != nil {
		return fmt.Errorf("create subscription failed: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, subscriberID, channelID uint) error {
	if err := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		Delete(&model.Subscription{}).Error; err != nil {
		return fmt.Errorf("delete subscription failed: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) CountByChannel(ctx context.Context, channelID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Subscription{}).Where("channel_id = ?", channelID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count subscribers failed: %w", err)
	}
	return n, nil
}

func (r *SubscriptionRepository) CountBySubscriber(ctx context.Context, subscriberID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Subscription{}).Where("subscriber_id = ?", subscriberID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count subscriptions failed: %w", err)
	}
	return n, nil
}

func (r *SubscriptionRepository) Exists(ctx context.Context, subscriberID, channelID uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		Limit(1).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("check subscription failed: %w", err)
	}
	return n > 0, nil
}
