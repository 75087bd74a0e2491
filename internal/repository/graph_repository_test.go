package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidhub/internal/model"
	"vidhub/internal/repository"
	"vidhub/internal/testutil"
)

func TestSubscriptionRepository_CountsAndExists(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewSubscriptionRepository(db)
	ctx := context.Background()
	alice := testutil.SeedUser(t, db, "alice")
	bob := testutil.SeedUser(t, db, "bob")
	carol := testutil.SeedUser(t, db, "carol")

	require.NoError(t, repo.Create(ctx, bob.ID, alice.ID))
	require.NoError(t, repo.Create(ctx, carol.ID, alice.ID))
	require.NoError(t, repo.Create(ctx, alice.ID, carol.ID))
	// duplicate follow is absorbed by the unique index
	require.NoError(t, repo.Create(ctx, bob.ID, alice.ID))

	n, err := repo.CountByChannel(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.CountBySubscriber(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err := repo.Exists(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Delete(ctx, bob.ID, alice.ID))
	n, err = repo.CountByChannel(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSubscriptionRepository_SnapshotIgnoresConcurrentWrites(t *testing.T) {
	db := testutil.NewWALDB(t)
	repo := repository.NewSubscriptionRepository(db)
	ctx := context.Background()
	alice := testutil.SeedUser(t, db, "alice")
	bob := testutil.SeedUser(t, db, "bob")
	carol := testutil.SeedUser(t, db, "carol")
	require.NoError(t, repo.Create(ctx, bob.ID, alice.ID))

	var before, after int64
	var followed bool
	err := repo.Snapshot(ctx, func(tx *repository.SubscriptionRepository) error {
		var err error
		if before, err = tx.CountByChannel(ctx, alice.ID); err != nil {
			return err
		}
		// commits on another connection while the snapshot is open
		if err := repo.Create(ctx, carol.ID, alice.ID); err != nil {
			return err
		}
		if after, err = tx.CountByChannel(ctx, alice.ID); err != nil {
			return err
		}
		followed, err = tx.Exists(ctx, carol.ID, alice.ID)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), before)
	assert.Equal(t, int64(1), after)
	assert.False(t, followed)

	n, err := repo.CountByChannel(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	boom := errors.New("boom")
	err = repo.Snapshot(ctx, func(*repository.SubscriptionRepository) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestWatchHistoryRepository_PreservesOrder(t *testing.T) {
	db := testutil.NewDB(t)
	history := repository.NewWatchHistoryRepository(db)
	videos := repository.NewVideoRepository(db)
	ctx := context.Background()
	alice := testutil.SeedUser(t, db, "alice")
	v1 := testutil.SeedVideo(t, db, alice.ID, "one")
	v2 := testutil.SeedVideo(t, db, alice.ID, "two")

	for _, id := range []uint{v2.ID, v1.ID, v2.ID} {
		require.NoError(t, history.Append(ctx, &model.WatchHistoryEntry{UserID: alice.ID, VideoID: id, WatchedAt: time.Now()}))
	}

	ids, err := history.ListVideoIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{v2.ID, v1.ID, v2.ID}, ids)

	got, err := videos.ListByIDs(ctx, []uint{v1.ID, v2.ID})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	missing, err := videos.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
