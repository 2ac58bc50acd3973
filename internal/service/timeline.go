package service

import (
	"context"
	"log/slog"

	gocache "github.com/patrickmn/go-cache"

	"github.com/sfarevalo/immich-tv/internal/domain"
	"github.com/sfarevalo/immich-tv/internal/store"
)

// TimelineService wraps the bucketed timeline. The ordered bucket list is
// fetched once per session and kept; older/newer navigation indexes into
// that list instead of deriving adjacency from the opaque bucket keys.
type TimelineService struct {
	repo   domain.TimelineRepository
	store  *store.GalleryStore // may be nil
	cache  *gocache.Cache
	logger *slog.Logger
}

// NewTimelineService creates a new timeline service
func NewTimelineService(repo domain.TimelineRepository, st *store.GalleryStore, logger *slog.Logger) *TimelineService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimelineService{
		repo:   repo,
		store:  st,
		cache:  gocache.New(gocache.NoExpiration, 0),
		logger: logger,
	}
}

func bucketsKey(albumID string, order domain.PhotosOrder) string {
	return albumID + "|" + order.Wire()
}

// Buckets returns the ordered bucket list, served from the session cache
// after the first fetch. On a network failure the last persisted list is
// used so the timeline can still render.
func (s *TimelineService) Buckets(ctx context.Context, albumID string, order domain.PhotosOrder) ([]domain.Bucket, error) {
	key := bucketsKey(albumID, order)
	if v, ok := s.cache.Get(key); ok {
		return v.([]domain.Bucket), nil
	}

	buckets, err := s.repo.ListBuckets(ctx, albumID, order)
	if err != nil {
		if s.store != nil {
			if cached, ok := s.store.GetBuckets(albumID, order); ok {
				s.logger.Warn("serving persisted bucket list after fetch failure", "error", err)
				return cached, nil
			}
		}
		return nil, err
	}

	s.cache.Set(key, buckets, gocache.NoExpiration)
	if s.store != nil {
		if err := s.store.SaveBuckets(albumID, order, buckets); err != nil {
			s.logger.Warn("failed to persist bucket list", "error", err)
		}
	}

	s.logger.Debug("loaded buckets", "albumID", albumID, "count", len(buckets))
	return buckets, nil
}

// BucketAssets returns every asset of one bucket; the server does not
// paginate within a bucket.
func (s *TimelineService) BucketAssets(ctx context.Context, albumID, timeBucket string, order domain.PhotosOrder) ([]domain.Asset, error) {
	return s.repo.BucketAssets(ctx, albumID, timeBucket, order)
}

// Adjacent returns the bucket step positions away from current in the given
// ordered list (step > 0 moves toward the end of the list). ok is false when
// current is unknown or the step runs off either end.
func (s *TimelineService) Adjacent(buckets []domain.Bucket, current string, step int) (domain.Bucket, bool) {
	for i, b := range buckets {
		if b.TimeBucket == current {
			j := i + step
			if j < 0 || j >= len(buckets) {
				return domain.Bucket{}, false
			}
			return buckets[j], true
		}
	}
	return domain.Bucket{}, false
}

// Refresh drops the session bucket cache so the next Buckets call refetches
func (s *TimelineService) Refresh() {
	s.cache.Flush()
}
