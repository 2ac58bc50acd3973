package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfarevalo/immich-tv/internal/domain"
)

func newDiskStore(t *testing.T) *GalleryStore {
	t.Helper()
	st, err := NewGalleryStore(t.TempDir(), "https://photos.example.com")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestAlbumsRoundTrip(t *testing.T) {
	st := newDiskStore(t)

	_, ok := st.GetAlbums()
	assert.False(t, ok, "empty store has no album list")

	albums := []domain.Album{
		{ID: "al1", AlbumName: "Trip", AssetCount: 12},
		{ID: "al2", AlbumName: "Family", Shared: true},
	}
	require.NoError(t, st.SaveAlbums(albums))

	got, ok := st.GetAlbums()
	require.True(t, ok)
	assert.Equal(t, albums, got)
}

func TestAlbumsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	host := "https://photos.example.com"

	st, err := NewGalleryStore(dir, host)
	require.NoError(t, err)
	require.NoError(t, st.SaveAlbums([]domain.Album{{ID: "al1", AlbumName: "Trip"}}))
	require.NoError(t, st.Close())

	reopened, err := NewGalleryStore(dir, host)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.GetAlbums()
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "al1", got[0].ID)
}

func TestStoreIsolatedPerServer(t *testing.T) {
	dir := t.TempDir()

	first, err := NewGalleryStore(dir, "https://one.example.com")
	require.NoError(t, err)
	defer first.Close()
	require.NoError(t, first.SaveAlbums([]domain.Album{{ID: "al1"}}))

	second, err := NewGalleryStore(dir, "https://two.example.com")
	require.NoError(t, err)
	defer second.Close()

	_, ok := second.GetAlbums()
	assert.False(t, ok, "another server's library never leaks through")
}

func TestFolderPathsRoundTrip(t *testing.T) {
	st := newDiskStore(t)

	paths := []string{"camera/2024", "camera/2023", "screenshots"}
	require.NoError(t, st.SaveFolderPaths(paths))

	got, ok := st.GetFolderPaths()
	require.True(t, ok)
	assert.Equal(t, paths, got)
}

func TestBucketsKeyedByAlbumAndOrder(t *testing.T) {
	st := newDiskStore(t)

	desc := []domain.Bucket{{TimeBucket: "2024-06-01", Count: 5}}
	asc := []domain.Bucket{{TimeBucket: "2023-01-01", Count: 2}}
	require.NoError(t, st.SaveBuckets("al1", domain.OrderNewestOldest, desc))
	require.NoError(t, st.SaveBuckets("al1", domain.OrderOldestNewest, asc))

	got, ok := st.GetBuckets("al1", domain.OrderNewestOldest)
	require.True(t, ok)
	assert.Equal(t, desc, got)

	got, ok = st.GetBuckets("al1", domain.OrderOldestNewest)
	require.True(t, ok)
	assert.Equal(t, asc, got)

	_, ok = st.GetBuckets("other", domain.OrderNewestOldest)
	assert.False(t, ok)
}

func TestClearAll(t *testing.T) {
	st := newDiskStore(t)

	require.NoError(t, st.SaveAlbums([]domain.Album{{ID: "al1"}}))
	require.NoError(t, st.SaveFolderPaths([]string{"camera"}))
	require.NoError(t, st.SaveBuckets("", domain.OrderNewestOldest, []domain.Bucket{{TimeBucket: "2024-06-01"}}))

	st.ClearAll()

	_, ok := st.GetAlbums()
	assert.False(t, ok)
	_, ok = st.GetFolderPaths()
	assert.False(t, ok)
	_, ok = st.GetBuckets("", domain.OrderNewestOldest)
	assert.False(t, ok)
}

func TestMemoryOnlyMode(t *testing.T) {
	st, err := NewGalleryStore("", "")
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.SaveAlbums([]domain.Album{{ID: "al1"}}))
	got, ok := st.GetAlbums()
	require.True(t, ok)
	assert.Len(t, got, 1)
}
