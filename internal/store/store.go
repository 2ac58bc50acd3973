package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/sfarevalo/immich-tv/internal/domain"
)

// Bucket names
var (
	bucketAlbums   = []byte("albums")
	bucketFolders  = []byte("folders")
	bucketTimeline = []byte("timeline")
)

// GalleryStore persists slow-changing gallery metadata (album list, folder
// paths, timeline bucket list) between runs so screens can render before the
// first network round-trip completes. Data is stored per server so switching
// hosts never shows another server's library.
type GalleryStore struct {
	db *bolt.DB
	mu sync.RWMutex // protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewGalleryStore opens (or creates) the store under baseCacheDir. An empty
// baseCacheDir yields a memory-only store with no persistence.
func NewGalleryStore(baseCacheDir, serverHost string) (*GalleryStore, error) {
	if baseCacheDir == "" {
		return &GalleryStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if serverHost != "" {
		dir = filepath.Join(baseCacheDir, hashServerHost(serverHost))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "immich-tv.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketAlbums, bucketFolders, bucketTimeline} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &GalleryStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashServerHost(host string) string {
	normalized := strings.TrimRight(strings.ToLower(host), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *GalleryStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *GalleryStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *GalleryStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *GalleryStore) clear(bucket []byte) {
	s.mu.Lock()
	prefix := string(bucket) + ":"
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucket)
		return err
	})
}

// === Albums ===

func (s *GalleryStore) GetAlbums() ([]domain.Album, bool) {
	var albums []domain.Album
	ok := s.get(bucketAlbums, "list", &albums)
	return albums, ok
}

func (s *GalleryStore) SaveAlbums(albums []domain.Album) error {
	return s.set(bucketAlbums, "list", albums)
}

// === Folder paths ===

func (s *GalleryStore) GetFolderPaths() ([]string, bool) {
	var paths []string
	ok := s.get(bucketFolders, "paths", &paths)
	return paths, ok
}

func (s *GalleryStore) SaveFolderPaths(paths []string) error {
	return s.set(bucketFolders, "paths", paths)
}

// === Timeline buckets ===

func timelineKey(albumID string, order domain.PhotosOrder) string {
	return albumID + "|" + order.Wire()
}

func (s *GalleryStore) GetBuckets(albumID string, order domain.PhotosOrder) ([]domain.Bucket, bool) {
	var buckets []domain.Bucket
	ok := s.get(bucketTimeline, timelineKey(albumID, order), &buckets)
	return buckets, ok
}

func (s *GalleryStore) SaveBuckets(albumID string, order domain.PhotosOrder, buckets []domain.Bucket) error {
	return s.set(bucketTimeline, timelineKey(albumID, order), buckets)
}

// ClearAll wipes everything. Used at logout together with the favorite
// override cache clear.
func (s *GalleryStore) ClearAll() {
	for _, bucket := range [][]byte{bucketAlbums, bucketFolders, bucketTimeline} {
		s.clear(bucket)
	}
}
