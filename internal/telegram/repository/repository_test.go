package repository

import (
	"context"
	"errors"
	"testing"

	"relay_bot/internal/storage"
	"relay_bot/internal/telegram/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	loadErr error
	saveErr error
	saves   int
}

func (s *failingStore) Load(ctx context.Context, name string, v any) error {
	return s.loadErr
}

func (s *failingStore) Save(ctx context.Context, name string, v any) error {
	s.saves++
	return s.saveErr
}

func newFileStore(t *testing.T) *storage.FileStore {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSettingsRepositoryDefaults(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	repo := NewSettingsRepository(store, models.Settings{AdminIDs: []int64{7}})

	settings, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, settings.AdminIDs)
	assert.Equal(t, models.DefaultSendingIntervalMinutes, settings.SendingIntervalMinutes)

	require.NoError(t, repo.EnsureDefaults(ctx))

	var persisted models.Settings
	require.NoError(t, store.Load(ctx, storage.DocSettings, &persisted))
	assert.Equal(t, []int64{7}, persisted.AdminIDs)
	assert.Equal(t, 15, persisted.SendingIntervalMinutes)
}

func TestSettingsRepositoryEnsureDefaultsKeepsExisting(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	require.NoError(t, store.Save(ctx, storage.DocSettings, models.Settings{AdminIDs: []int64{1}, SendingIntervalMinutes: 5}))

	repo := NewSettingsRepository(store, models.Settings{AdminIDs: []int64{99}})
	require.NoError(t, repo.EnsureDefaults(ctx))

	settings, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, settings.AdminIDs)
	assert.Equal(t, 5, settings.SendingIntervalMinutes)
}

func TestSettingsRepositoryIsAdminRereadsStore(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	repo := NewSettingsRepository(store, models.Settings{})
	require.NoError(t, store.Save(ctx, storage.DocSettings, models.Settings{AdminIDs: []int64{1}}))

	ok, err := repo.IsAdmin(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, storage.DocSettings, models.Settings{AdminIDs: []int64{1, 2}}))
	ok, err = repo.IsAdmin(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSettingsRepositorySetInterval(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	repo := NewSettingsRepository(store, models.Settings{AdminIDs: []int64{1}})

	require.NoError(t, repo.SetInterval(ctx, 30))
	settings, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, settings.SendingIntervalMinutes)
	assert.Equal(t, []int64{1}, settings.AdminIDs)

	require.Error(t, repo.SetInterval(ctx, 0))
	settings, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, settings.SendingIntervalMinutes)
}

func TestSettingsRepositoryLoadError(t *testing.T) {
	repo := NewSettingsRepository(&failingStore{loadErr: errors.New("io error")}, models.Settings{})

	_, err := repo.Get(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load settings")

	ok, err := repo.IsAdmin(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestGroupRepositoryAddRemove(t *testing.T) {
	ctx := context.Background()
	repo := NewGroupRepository(newFileStore(t))

	added, err := repo.Add(ctx, []string{"A", "B", "A"})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = repo.Add(ctx, []string{"C", "B"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	groups, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, groups)

	removed, err := repo.Remove(ctx, []string{"B", "Z"})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	groups, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, groups)
}

func TestGroupRepositoryEmptyAndSaveError(t *testing.T) {
	ctx := context.Background()

	groups, err := NewGroupRepository(newFileStore(t)).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
	assert.NotNil(t, groups)

	store := &failingStore{loadErr: storage.ErrNotFound, saveErr: errors.New("read-only")}
	_, err = NewGroupRepository(store).Add(ctx, []string{"A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save groups")
}

func TestLinkRepositoryAppendAndReplace(t *testing.T) {
	ctx := context.Background()
	repo := NewLinkRepository(newFileStore(t))
	require.NoError(t, repo.EnsureDefaults(ctx))

	require.NoError(t, repo.Append(ctx, "https://t.me/a/1"))
	require.NoError(t, repo.Append(ctx, "https://t.me/a/1"))

	links, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://t.me/a/1", "https://t.me/a/1"}, links)

	require.NoError(t, repo.Replace(ctx, []string{"https://t.me/b/2", "https://t.me/c/3/4"}))
	links, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://t.me/b/2", "https://t.me/c/3/4"}, links)

	require.NoError(t, repo.Replace(ctx, nil))
	links, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestEnsureDefaultsPropagatesLoadError(t *testing.T) {
	store := &failingStore{loadErr: errors.New("permission denied")}
	require.Error(t, NewLinkRepository(store).EnsureDefaults(context.Background()))
	assert.Equal(t, 0, store.saves)
}
