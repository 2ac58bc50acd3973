package immich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfarevalo/immich-tv/internal/domain"
	"github.com/sfarevalo/immich-tv/internal/log"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(Config{Host: srv.URL, APIKey: "test-key"}, log.NullLogger())
	return client, srv
}

func TestDoSendsAPIKeyHeader(t *testing.T) {
	var gotKey string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		w.Write([]byte(`{"id":"a1","type":"IMAGE"}`))
	}))

	_, err := client.GetAsset(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotKey)
}

func TestDoMissingAllPermission(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"required permission: all","statusCode":403}`))
	}))

	_, err := client.GetAsset(context.Background(), "a1")
	require.Error(t, err)
	assert.Equal(t,
		`API key is missing the permission "all". Please adapt your permissions in the Immich web interface.`,
		err.Error())
}

func TestDoForbiddenOtherReason(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"key disabled"}`))
	}))

	_, err := client.GetAsset(context.Background(), "a1")
	require.Error(t, err)
	assert.Equal(t, "API key permissions are invalid: key disabled", err.Error())
}

func TestDoUnexpectedStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.GetAsset(context.Background(), "a1")
	require.Error(t, err)
	assert.Equal(t, "invalid status code from API: 502, make sure you are using the latest Immich server release", err.Error())
}

func TestDoTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(Config{Host: srv.URL, APIKey: "k"}, log.NullLogger())

	_, err := client.GetAsset(context.Background(), "a1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not fetch data from API, response:")
}

func TestDoEmptyBodyOnExpectedStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	_, err := client.GetAsset(context.Background(), "a1")
	require.Error(t, err)
	assert.Equal(t, "did not receive any input from the server", err.Error())
}

func TestDeleteAssetsAcceptsNoContent(t *testing.T) {
	var gotBody struct {
		IDs   []string `json:"ids"`
		Force bool     `json:"force"`
	}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))

	err := client.DeleteAssets(context.Background(), []string{"a1", "a2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, gotBody.IDs)
	assert.False(t, gotBody.Force, "delete is a trash move, never a force delete")
}

func TestUpdateFavoriteReturnsConfirmedAsset(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/assets/a1", r.URL.Path)

		var payload struct {
			IsFavorite bool `json:"isFavorite"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.True(t, payload.IsFavorite)

		w.Write([]byte(`{"id":"a1","type":"IMAGE","isFavorite":true}`))
	}))

	asset, err := client.UpdateFavorite(context.Background(), "a1", true)
	require.NoError(t, err)
	assert.True(t, asset.IsFavorite)
}

func TestListAlbumsConcatenatesOwnedAndShared(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/albums", r.URL.Path)
		if r.URL.Query().Get("shared") == "true" {
			w.Write([]byte(`[{"id":"s1","albumName":"Shared","shared":true,"assetCount":2}]`))
			return
		}
		w.Write([]byte(`[{"id":"o1","albumName":"Owned","assetCount":5}]`))
	}))

	albums, err := client.ListAlbums(context.Background())
	require.NoError(t, err)
	require.Len(t, albums, 2)
	assert.Equal(t, "o1", albums[0].ID)
	assert.Equal(t, "s1", albums[1].ID)
	assert.True(t, albums[1].Shared)
}

func TestAlbumAssetsAnnotatesAndFiltersTag(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/albums/al1", r.URL.Path)
		w.Write([]byte(`{
			"id": "al1",
			"albumName": "Trip",
			"assetCount": 2,
			"assets": [
				{"id": "a1", "type": "IMAGE"},
				{"id": "a2", "type": "IMAGE", "tags": [{"id": "t1", "name": "exclude_immich_tv"}]}
			]
		}`))
	}))

	album, err := client.AlbumAssets(context.Background(), "al1")
	require.NoError(t, err)
	require.Len(t, album.Assets, 1)
	assert.Equal(t, "a1", album.Assets[0].ID)
	assert.Equal(t, "Trip", album.Assets[0].AlbumName)
}

func TestListPeopleDropsBlankNames(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"people":[
			{"id":"7f8a2f1e-0000-0000-0000-000000000001","name":"Ada"},
			{"id":"7f8a2f1e-0000-0000-0000-000000000002","name":"  "},
			{"id":"7f8a2f1e-0000-0000-0000-000000000003","name":""}
		]}`))
	}))

	people, err := client.ListPeople(context.Background())
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "Ada", people[0].Name)
}

func TestSearchAssetsPagedEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/search/metadata", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, true, req["withExif"])
		assert.Equal(t, "VIDEO", req["type"])

		w.Write([]byte(`{"assets":{"items":[{"id":"a1","type":"VIDEO"}],"nextPage":""}}`))
	}))

	assets, err := client.SearchAssets(context.Background(), domain.SearchOptions{
		Page:        1,
		Size:        50,
		ContentType: domain.ContentTypeVideo,
	})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "a1", assets[0].ID)
}

func TestSearchAssetsRandomFlatList(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/search/random", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotContains(t, req, "type", "ALL content type is omitted on the wire")

		w.Write([]byte(`[{"id":"r1","type":"IMAGE"},{"id":"r2","type":"IMAGE"}]`))
	}))

	assets, err := client.SearchAssets(context.Background(), domain.SearchOptions{Random: true, Size: 10})
	require.NoError(t, err)
	assert.Len(t, assets, 2)
}

func TestSearchAssetsDropsExcludedTag(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"assets":{"items":[
			{"id":"a1","type":"IMAGE"},
			{"id":"a2","type":"IMAGE","tags":[{"id":"t1","name":"exclude_immich_tv"}]},
			{"id":"a3","type":"IMAGE","tags":[{"id":"t2","name":"holiday"}]}
		],"nextPage":""}}`))
	}))

	assets, err := client.SearchAssets(context.Background(), domain.SearchOptions{Page: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "a1", assets[0].ID)
	assert.Equal(t, "a3", assets[1].ID)
}

func TestSearchAssetsDropsExcludedAlbumUnion(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/search/metadata":
			w.Write([]byte(`{"assets":{"items":[
				{"id":"a1","type":"IMAGE"},
				{"id":"a2","type":"IMAGE"},
				{"id":"a3","type":"IMAGE"}
			],"nextPage":""}}`))
		case "/api/albums/hidden1":
			w.Write([]byte(`{"id":"hidden1","albumName":"Hidden","assets":[{"id":"a2","type":"IMAGE"}]}`))
		case "/api/albums/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	assets, err := client.SearchAssets(context.Background(), domain.SearchOptions{
		Page:             1,
		Size:             10,
		ExcludedAlbumIDs: []string{"hidden1", "broken"},
	})
	require.NoError(t, err, "a failed album lookup never fails the search")
	require.Len(t, assets, 2)
	assert.Equal(t, "a1", assets[0].ID)
	assert.Equal(t, "a3", assets[1].ID)
}

func TestListBucketsOmitsBlankAlbumID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/timeline/buckets", r.URL.Path)
		assert.False(t, r.URL.Query().Has("albumId"))
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		w.Write([]byte(`[{"timeBucket":"2024-06-01","count":12},{"timeBucket":"2024-05-01","count":3}]`))
	}))

	buckets, err := client.ListBuckets(context.Background(), "  ", domain.OrderNewestOldest)
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "2024-06-01", buckets[0].TimeBucket)
	assert.Equal(t, 12, buckets[0].Count)
}

func TestBucketAssetsFlattensColumnarEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/timeline/bucket", r.URL.Path)
		assert.Equal(t, "al1", r.URL.Query().Get("albumId"))
		assert.Equal(t, "2024-06-01", r.URL.Query().Get("timeBucket"))
		w.Write([]byte(`{
			"id": ["b1", "b2"],
			"isFavorite": [true, false],
			"isImage": [true, false],
			"localDateTime": ["2024-06-02T10:00:00", "2024-06-03T11:30:00"],
			"duration": [null, "00:01:30.000"],
			"fileName": ["one.jpg", "two.mp4"]
		}`))
	}))

	assets, err := client.BucketAssets(context.Background(), "al1", "2024-06-01", domain.OrderNewestOldest)
	require.NoError(t, err)
	require.Len(t, assets, 2)

	assert.Equal(t, "b1", assets[0].ID)
	assert.True(t, assets[0].IsFavorite)
	assert.False(t, assets[0].IsVideo())
	assert.Equal(t, "one.jpg", assets[0].OriginalFileName)

	assert.True(t, assets[1].IsVideo())
	assert.Equal(t, "00:01:30.000", assets[1].Duration)
	require.NotNil(t, assets[1].LocalDateTime)
	assert.Equal(t, 3, assets[1].LocalDateTime.Day())
}

func TestFolderEndpoints(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/view/folder/unique-paths":
			w.Write([]byte(`["camera/2024", "camera/2023", "screenshots"]`))
		case "/api/view/folder":
			require.Equal(t, "camera/2024", r.URL.Query().Get("path"))
			w.Write([]byte(`[{"id":"f1","type":"IMAGE"}]`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	paths, err := client.UniqueFolderPaths(context.Background())
	require.NoError(t, err)
	assert.Len(t, paths, 3)

	assets, err := client.FolderAssets(context.Background(), "camera/2024")
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "f1", assets[0].ID)
}
