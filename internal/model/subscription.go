package model

import "time"

// Subscription is a directed edge: SubscriberID follows ChannelID.
type Subscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubscriberID uint      `gorm:"not null;index;uniqueIndex:idx_subscriber_channel" json:"subscriber_id"`
	ChannelID    uint      `gorm:"not null;index;uniqueIndex:idx_subscriber_channel" json:"channel_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type ChannelProfile struct {
	Username                  string `json:"username"`
	FullName                  string `json:"full_name"`
	Email                     string `json:"email"`
	AvatarURL                 string `json:"avatar"`
	CoverURL                  string `json:"cover_image"`
	SubscriberCount           int64  `json:"subscriber_count"`
	ChannelsSubscribedToCount int64  `json:"channels_subscribed_to_count"`
	IsSubscribed              bool   `json:"is_subscribed"`
}
