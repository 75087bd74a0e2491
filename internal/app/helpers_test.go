package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"vidhub/internal/app"
	"vidhub/internal/model"
	"vidhub/internal/pkg/hasher"
	"vidhub/internal/pkg/jwtutil"
	"vidhub/internal/repository"
	"vidhub/internal/testutil"
)

type fakeUploader struct {
	mu       sync.Mutex
	uploaded []string
	failOn   string
}

func (f *fakeUploader) Upload(_ context.Context, localPath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer os.Remove(localPath)
	if f.failOn != "" && filepath.Base(localPath) == f.failOn {
		return "", errors.New("bucket unavailable")
	}
	f.uploaded = append(f.uploaded, localPath)
	return "https://cdn.example.com/" + filepath.Base(localPath), nil
}

type fakeEpochs struct {
	mu  sync.Mutex
	at  map[uint]time.Time
	err error
}

func newFakeEpochs() *fakeEpochs {
	return &fakeEpochs{at: map[uint]time.Time{}}
}

func (f *fakeEpochs) Revoke(_ context.Context, userID uint, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.at[userID] = at.Truncate(time.Second)
	return nil
}

func (f *fakeEpochs) RevokedAt(_ context.Context, userID uint) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return time.Time{}, f.err
	}
	return f.at[userID], nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.WatchEvent
	err    error
}

func (f *fakePublisher) PublishWatchEvent(_ context.Context, event model.WatchEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type harness struct {
	db       *gorm.DB
	users    *repository.UserRepository
	store    *app.CredentialStore
	tokens   *app.TokenService
	access   *jwtutil.Signer
	refresh  *jwtutil.Signer
	uploader *fakeUploader
	epochs   *fakeEpochs
	accounts *app.AccountService
	guard    *app.SessionGuard
	channels *app.ChannelService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	pool, err := hasher.New(4, bcrypt.MinCost)
	require.NoError(t, err)

	h := &harness{
		db:       db,
		users:    repository.NewUserRepository(db),
		access:   jwtutil.NewSigner("access-secret", 15*time.Minute),
		refresh:  jwtutil.NewSigner("refresh-secret", 24*time.Hour),
		uploader: &fakeUploader{},
		epochs:   newFakeEpochs(),
	}
	h.store = app.NewCredentialStore(h.users, pool)
	h.tokens = app.NewTokenService(h.store, h.access, h.refresh)
	h.accounts = app.NewAccountService(h.store, h.tokens, h.uploader, h.epochs, nil)
	h.guard = app.NewSessionGuard(h.tokens, h.store, h.epochs)
	h.channels = app.NewChannelService(h.store, repository.NewSubscriptionRepository(db))
	return h
}

// tempImage writes a small file the way the upload handler stages multipart parts.
func tempImage(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("\x89PNG"), 0o600))
	return p
}

func (h *harness) register(t *testing.T, username, password string) *model.PublicUser {
	t.Helper()
	user, err := h.accounts.Register(context.Background(), app.RegisterInput{
		Username:   username,
		Email:      username + "@example.com",
		Password:   password,
		FullName:   username + " test",
		AvatarPath: tempImage(t, username+"-avatar.png"),
	})
	require.NoError(t, err)
	return user
}

func (h *harness) storedRefresh(t *testing.T, id uint) *string {
	t.Helper()
	user, err := h.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user.RefreshToken
}
