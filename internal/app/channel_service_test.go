package app_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidhub/internal/apperr"
	"vidhub/internal/repository"
	"vidhub/internal/testutil"
)

func TestGetChannelProfile_CountsEdges(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subs := repository.NewSubscriptionRepository(h.db)
	alice := testutil.SeedUser(t, h.db, "alice")
	bob := testutil.SeedUser(t, h.db, "bob")
	carol := testutil.SeedUser(t, h.db, "carol")
	dave := testutil.SeedUser(t, h.db, "dave")

	require.NoError(t, subs.Create(ctx, bob.ID, alice.ID))
	require.NoError(t, subs.Create(ctx, carol.ID, alice.ID))
	require.NoError(t, subs.Create(ctx, alice.ID, dave.ID))

	profile, err := h.channels.GetChannelProfile(ctx, "ALICE", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, alice.Email, profile.Email)
	assert.Equal(t, int64(2), profile.SubscriberCount)
	assert.Equal(t, int64(1), profile.ChannelsSubscribedToCount)
	assert.True(t, profile.IsSubscribed)

	profile, err = h.channels.GetChannelProfile(ctx, "alice", dave.ID)
	require.NoError(t, err)
	assert.False(t, profile.IsSubscribed, "dave is followed by alice, not the other way round")

	raw, err := json.Marshal(profile)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.ElementsMatch(t, []string{
		"username", "full_name", "email", "avatar", "cover_image",
		"subscriber_count", "channels_subscribed_to_count", "is_subscribed",
	}, keys(fields))
}

func TestGetChannelProfile_UnknownChannel(t *testing.T) {
	h := newHarness(t)
	_, err := h.channels.GetChannelProfile(context.Background(), "nobody", 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = h.channels.GetChannelProfile(context.Background(), "  ", 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSubscribeUnsubscribe(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, h.db, "alice")
	bob := testutil.SeedUser(t, h.db, "bob")

	require.NoError(t, h.channels.Subscribe(ctx, bob.ID, "alice"))
	require.NoError(t, h.channels.Subscribe(ctx, bob.ID, "alice"))

	profile, err := h.channels.GetChannelProfile(ctx, "alice", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.SubscriberCount)
	assert.True(t, profile.IsSubscribed)

	err = h.channels.Subscribe(ctx, alice.ID, "alice")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, h.channels.Unsubscribe(ctx, bob.ID, "alice"))
	profile, err = h.channels.GetChannelProfile(ctx, "alice", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), profile.SubscriberCount)
	assert.False(t, profile.IsSubscribed)

	assert.ErrorIs(t, h.channels.Subscribe(ctx, bob.ID, "ghost"), apperr.ErrNotFound)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
