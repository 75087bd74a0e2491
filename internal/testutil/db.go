// Package testutil holds helpers shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vidhub/internal/model"
)

// NewDB opens a migrated SQLite database in a temp dir. A single connection
// serializes statements the way a row lock would on MySQL.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openDB(t, "?_busy_timeout=5000&_foreign_keys=on", 1)
}

// NewWALDB opens a WAL-mode database with several connections, so a read
// transaction on one connection keeps its snapshot while another commits.
func NewWALDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openDB(t, "?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL", 4)
}

func openDB(t *testing.T, params string, maxConns int) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + params
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sqlite sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(maxConns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(model.Tables()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

// SeedUser inserts a user row directly, bypassing hashing.
func SeedUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		FullName:     username + " test",
		AvatarURL:    "https://cdn.example.com/" + username + ".png",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	return user
}

func SeedVideo(t *testing.T, db *gorm.DB, ownerID uint, title string) *model.Video {
	t.Helper()
	video := &model.Video{
		OwnerID:  ownerID,
		Title:    title,
		VideoURL: "https://cdn.example.com/" + title + ".mp4",
	}
	if err := db.Create(video).Error; err != nil {
		t.Fatalf("seed video failed: %v", err)
	}
	return video
}
