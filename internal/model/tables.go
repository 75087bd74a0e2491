package model

// Tables lists every entity managed by AutoMigrate.
func Tables() []interface{} {
	return []interface{}{&User{}, &Subscription{}, &Video{}, &WatchHistoryEntry{}}
}
