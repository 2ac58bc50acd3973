package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leandro-lugaresi/hub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfarevalo/immich-tv/internal/domain"
	"github.com/sfarevalo/immich-tv/internal/log"
)

// fakeWriter answers mutations from canned results
type fakeWriter struct {
	updateErr  error
	deleteErr  error
	deletedIDs []string
}

func (f *fakeWriter) UpdateFavorite(_ context.Context, assetID string, isFavorite bool) (domain.Asset, error) {
	if f.updateErr != nil {
		return domain.Asset{}, f.updateErr
	}
	return domain.Asset{ID: assetID, IsFavorite: isFavorite}, nil
}

func (f *fakeWriter) DeleteAssets(_ context.Context, assetIDs []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIDs = append(f.deletedIDs, assetIDs...)
	return nil
}

func receiveMessage(t *testing.T, sub hub.Subscription) hub.Message {
	t.Helper()
	select {
	case msg := <-sub.Receiver:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for bus message")
		return hub.Message{}
	}
}

func TestFavoriteCacheOverrideWins(t *testing.T) {
	cache := NewFavoriteCache()
	cache.Set("a1", true)

	reconciled := cache.Apply(domain.Asset{ID: "a1", IsFavorite: false})
	assert.True(t, reconciled.IsFavorite, "override beats the server-read flag")

	untouched := cache.Apply(domain.Asset{ID: "a2", IsFavorite: true})
	assert.True(t, untouched.IsFavorite)
}

func TestFavoriteCacheLastWriteWins(t *testing.T) {
	cache := NewFavoriteCache()
	cache.Set("a1", true)
	cache.Set("a1", false)

	fav, ok := cache.Get("a1")
	require.True(t, ok)
	assert.False(t, fav)
	assert.Equal(t, 1, cache.Len())
}

func TestFavoriteCacheDeleteRestoresServerValue(t *testing.T) {
	cache := NewFavoriteCache()
	cache.Set("a1", true)
	cache.Delete("a1")

	reconciled := cache.Apply(domain.Asset{ID: "a1", IsFavorite: false})
	assert.False(t, reconciled.IsFavorite)
}

func TestFavoriteCacheClear(t *testing.T) {
	cache := NewFavoriteCache()
	cache.Set("a1", true)
	cache.Set("a2", false)
	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestToggleRoundTrip(t *testing.T) {
	cache := NewFavoriteCache()
	bus := hub.New()
	svc := NewFavoriteService(&fakeWriter{}, cache, bus, log.NullLogger())

	sub := svc.Subscribe(4)
	defer svc.Unsubscribe(sub)

	asset, err := svc.Toggle(context.Background(), "a1", true)
	require.NoError(t, err)
	assert.True(t, asset.IsFavorite)

	fav, ok := cache.Get("a1")
	require.True(t, ok)
	assert.True(t, fav)

	msg := receiveMessage(t, sub)
	assert.Equal(t, TopicFavoriteChanged, msg.Name)
	assert.Equal(t, "a1", msg.Fields["assetID"])
	assert.Equal(t, true, msg.Fields["isFavorite"])

	// toggling back lands the new confirmed state and a second notification
	_, err = svc.Toggle(context.Background(), "a1", false)
	require.NoError(t, err)

	fav, ok = cache.Get("a1")
	require.True(t, ok)
	assert.False(t, fav)

	msg = receiveMessage(t, sub)
	assert.Equal(t, false, msg.Fields["isFavorite"])
}

func TestToggleFailureLeavesCacheUntouched(t *testing.T) {
	cache := NewFavoriteCache()
	bus := hub.New()
	svc := NewFavoriteService(&fakeWriter{updateErr: errors.New("boom")}, cache, bus, log.NullLogger())

	_, err := svc.Toggle(context.Background(), "a1", true)
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len(), "no optimistic writes before server confirmation")
}

func TestTrashPublishesWithoutTouchingCache(t *testing.T) {
	cache := NewFavoriteCache()
	cache.Set("a1", true)
	bus := hub.New()
	writer := &fakeWriter{}
	svc := NewFavoriteService(writer, cache, bus, log.NullLogger())

	sub := svc.Subscribe(4)
	defer svc.Unsubscribe(sub)

	require.NoError(t, svc.Trash(context.Background(), "a1"))
	assert.Equal(t, []string{"a1"}, writer.deletedIDs)

	msg := receiveMessage(t, sub)
	assert.Equal(t, TopicAssetTrashed, msg.Name)
	assert.Equal(t, "a1", msg.Fields["assetID"])

	_, ok := cache.Get("a1")
	assert.True(t, ok, "trash never rewrites the favorite override")
}

func TestTrashFailureDoesNotPublish(t *testing.T) {
	bus := hub.New()
	svc := NewFavoriteService(&fakeWriter{deleteErr: errors.New("boom")}, NewFavoriteCache(), bus, log.NullLogger())

	sub := svc.Subscribe(4)
	defer svc.Unsubscribe(sub)

	require.Error(t, svc.Trash(context.Background(), "a1"))

	select {
	case msg := <-sub.Receiver:
		t.Fatalf("unexpected message %q after failed trash", msg.Name)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestApplyAllReturnsNewSlice(t *testing.T) {
	cache := NewFavoriteCache()
	cache.Set("a2", true)

	in := []domain.Asset{{ID: "a1"}, {ID: "a2"}}
	out := cache.ApplyAll(in)

	require.Len(t, out, 2)
	assert.False(t, out[0].IsFavorite)
	assert.True(t, out[1].IsFavorite)
	assert.False(t, in[1].IsFavorite, "input slice is untouched")
}
