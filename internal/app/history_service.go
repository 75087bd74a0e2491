package app

import (
	"context"
	"time"

	"vidhub/internal/apperr"
	"vidhub/internal/logging"
	"vidhub/internal/model"
	"vidhub/internal/repository"
)

type WatchEventPublisher interface {
	PublishWatchEvent(ctx context.Context, event model.WatchEvent) error
}

// HistoryService records and reads a user's watch history.
type HistoryService struct {
	store     *CredentialStore
	videos    *repository.VideoRepository
	history   *repository.WatchHistoryRepository
	publisher WatchEventPublisher
	logger    logging.Logger
	now       func() time.Time
}

// NewHistoryService appends synchronously when publisher is nil.
func NewHistoryService(store *CredentialStore, videos *repository.VideoRepository, history *repository.WatchHistoryRepository, publisher WatchEventPublisher, logger logging.Logger) *HistoryService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &HistoryService{
		store:     store,
		videos:    videos,
		history:   history,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *HistoryService) RecordWatch(ctx context.Context, userID, videoID uint) error {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return apperr.Upstream("find video failed", err)
	}
	if video == nil {
		return apperr.NotFound("video not found")
	}

	event := model.WatchEvent{UserID: userID, VideoID: videoID, WatchedAt: s.now()}
	if s.publisher == nil {
		return s.Append(ctx, event)
	}
	if err := s.publisher.PublishWatchEvent(ctx, event); err != nil {
		s.logger.Warn(ctx, "publish watch event failed, appending inline", "user_id", userID, "video_id", videoID, "error", err)
		return s.Append(ctx, event)
	}
	return nil
}

// Append writes one history entry. The watch event worker calls it for every
// consumed message.
func (s *HistoryService) Append(ctx context.Context, event model.WatchEvent) error {
	if event.UserID == 0 || event.VideoID == 0 {
		return apperr.Validation("user and video are required")
	}
	watchedAt := event.WatchedAt
	if watchedAt.IsZero() {
		watchedAt = s.now()
	}
	entry := &model.WatchHistoryEntry{UserID: event.UserID, VideoID: event.VideoID, WatchedAt: watchedAt}
	if err := s.history.Append(ctx, entry); err != nil {
		return apperr.Upstream("append watch history failed", err)
	}
	return nil
}

// GetWatchHistory returns videos in history order, each with at most one
// owner. Videos that no longer exist are skipped; a missing owner leaves
// Owner nil.
func (s *HistoryService) GetWatchHistory(ctx context.Context, viewerID uint) ([]model.WatchedVideo, error) {
	ids, err := s.history.ListVideoIDs(ctx, viewerID)
	if err != nil {
		return nil, apperr.Upstream("load watch history failed", err)
	}
	result := make([]model.WatchedVideo, 0, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	videos, err := s.videos.ListByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, apperr.Upstream("load videos failed", err)
	}
	videoByID := make(map[uint]model.Video, len(videos))
	ownerIDs := make([]uint, 0, len(videos))
	for _, v := range videos {
		videoByID[v.ID] = v
		ownerIDs = append(ownerIDs, v.OwnerID)
	}

	owners, err := s.store.ListByIDs(ctx, uniqueIDs(ownerIDs))
	if err != nil {
		return nil, err
	}
	ownerByID := make(map[uint]*model.VideoOwner, len(owners))
	for _, u := range owners {
		ownerByID[u.ID] = &model.VideoOwner{Username: u.Username, FullName: u.FullName, AvatarURL: u.AvatarURL}
	}

	for _, id := range ids {
		v, ok := videoByID[id]
		if !ok {
			continue
		}
		result = append(result, model.WatchedVideo{Video: v, Owner: ownerByID[v.OwnerID]})
	}
	return result, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
