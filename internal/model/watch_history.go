package model

import "time"

// WatchHistoryEntry is one element of a user's watch history; entries are
// ordered by ID, which follows append order.
type WatchHistoryEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	VideoID   uint      `gorm:"not null;index" json:"video_id"`
	WatchedAt time.Time `gorm:"not null" json:"watched_at"`
}

// WatchEvent travels over the broker between recordWatch and the history worker.
type WatchEvent struct {
	UserID    uint      `json:"user_id"`
	VideoID   uint      `json:"video_id"`
	WatchedAt time.Time `json:"watched_at"`
}
