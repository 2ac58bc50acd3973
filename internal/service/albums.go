package service

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/sfarevalo/immich-tv/internal/domain"
	"github.com/sfarevalo/immich-tv/internal/store"
)

const albumCacheTTL = 5 * time.Minute

// AlbumService lists albums and people with a short-lived memory cache and a
// persisted fallback, so sidebars render instantly on restart.
type AlbumService struct {
	repo   domain.AlbumRepository
	people domain.PeopleRepository
	store  *store.GalleryStore // may be nil
	cache  *gocache.Cache
	logger *slog.Logger
}

// NewAlbumService creates a new album service
func NewAlbumService(repo domain.AlbumRepository, people domain.PeopleRepository, st *store.GalleryStore, logger *slog.Logger) *AlbumService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlbumService{
		repo:   repo,
		people: people,
		store:  st,
		cache:  gocache.New(albumCacheTTL, 10*time.Minute),
		logger: logger,
	}
}

// Albums returns owned and shared albums
func (s *AlbumService) Albums(ctx context.Context) ([]domain.Album, error) {
	if v, ok := s.cache.Get("albums"); ok {
		return v.([]domain.Album), nil
	}

	albums, err := s.repo.ListAlbums(ctx)
	if err != nil {
		if s.store != nil {
			if cached, ok := s.store.GetAlbums(); ok {
				s.logger.Warn("serving persisted album list after fetch failure", "error", err)
				return cached, nil
			}
		}
		return nil, err
	}

	s.cache.SetDefault("albums", albums)
	if s.store != nil {
		if err := s.store.SaveAlbums(albums); err != nil {
			s.logger.Warn("failed to persist album list", "error", err)
		}
	}

	s.logger.Debug("loaded albums", "count", len(albums))
	return albums, nil
}

// AlbumAssets returns one album's assets, annotated with the album name
func (s *AlbumService) AlbumAssets(ctx context.Context, albumID string) (domain.Album, error) {
	return s.repo.AlbumAssets(ctx, albumID)
}

// People returns named people
func (s *AlbumService) People(ctx context.Context) ([]domain.Person, error) {
	if v, ok := s.cache.Get("people"); ok {
		return v.([]domain.Person), nil
	}

	people, err := s.people.ListPeople(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault("people", people)
	s.logger.Debug("loaded people", "count", len(people))
	return people, nil
}

// Refresh drops the memory cache so the next call refetches
func (s *AlbumService) Refresh() {
	s.cache.Flush()
}
