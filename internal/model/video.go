package model

import "time"

type Video struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OwnerID      uint      `gorm:"not null;index" json:"owner_id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	VideoURL     string    `gorm:"size:512;not null" json:"video_file"`
	ThumbnailURL string    `gorm:"size:512" json:"thumbnail"`
	DurationSec  float64   `json:"duration"`
	Views        int64     `gorm:"not null;default:0" json:"views"`
	IsPublished  bool      `gorm:"not null;default:true" json:"is_published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VideoOwner is the slice of the owner record shown next to a video.
type VideoOwner struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar"`
}

type WatchedVideo struct {
	Video
	Owner *VideoOwner `json:"owner,omitempty"`
}
