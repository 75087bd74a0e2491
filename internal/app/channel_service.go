package app

import (
	"context"

	"vidhub/internal/apperr"
	"vidhub/internal/model"
	"vidhub/internal/repository"
)

// ChannelService derives channel views from the subscription edge table.
// Counts are recomputed on every call from a single snapshot.
type ChannelService struct {
	store *CredentialStore
	subs  *repository.SubscriptionRepository
}

func NewChannelService(store *CredentialStore, subs *repository.SubscriptionRepository) *ChannelService {
	return &ChannelService{store: store, subs: subs}
}

func (s *ChannelService) resolve(ctx context.Context, username string) (*model.User, error) {
	if normalizeUsername(username) == "" {
		return nil, apperr.Validation("username is missing")
	}
	target, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, apperr.NotFound("channel does not exist")
	}
	return target, nil
}

func (s *ChannelService) GetChannelProfile(ctx context.Context, username string, viewerID uint) (*model.ChannelProfile, error) {
	target, err := s.resolve(ctx, username)
	if err != nil {
		return nil, err
	}

	profile := &model.ChannelProfile{
		Username:  target.Username,
		FullName:  target.FullName,
		Email:     target.Email,
		AvatarURL: target.AvatarURL,
		CoverURL:  target.CoverURL,
	}

	err = s.subs.Snapshot(ctx, func(tx *repository.SubscriptionRepository) error {
		var err error
		if profile.SubscriberCount, err = tx.CountByChannel(ctx, target.ID); err != nil {
			return err
		}
		if profile.ChannelsSubscribedToCount, err = tx.CountBySubscriber(ctx, target.ID); err != nil {
			return err
		}
		profile.IsSubscribed, err = tx.Exists(ctx, viewerID, target.ID)
		return err
	})
	if err != nil {
		return nil, apperr.Upstream("load channel profile failed", err)
	}
	return profile, nil
}

// Subscribe is idempotent; following twice leaves one edge.
func (s *ChannelService) Subscribe(ctx context.Context, subscriberID uint, username string) error {
	target, err := s.resolve(ctx, username)
	if err != nil {
		return err
	}
	if target.ID == subscriberID {
		return apperr.Validation("cannot subscribe to your own channel")
	}
	if err := s.subs.Create(ctx, subscriberID, target.ID); err != nil {
		return apperr.Upstream("subscribe failed", err)
	}
	return nil
}

func (s *ChannelService) Unsubscribe(ctx context.Context, subscriberID uint, username string) error {
	target, err := s.resolve(ctx, username)
	if err != nil {
		return err
	}
	if err := s.subs.Delete(ctx, subscriberID, target.ID); err != nil {
		return apperr.Upstream("unsubscribe failed", err)
	}
	return nil
}
