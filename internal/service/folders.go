package service

import (
	"context"
	"log/slog"

	"github.com/sfarevalo/immich-tv/internal/domain"
	"github.com/sfarevalo/immich-tv/internal/store"
)

// FolderService derives the folder tree from the server's flat path list.
// The tree is purely structural; assets are resolved per folder path on
// demand.
type FolderService struct {
	repo   domain.FolderRepository
	store  *store.GalleryStore // may be nil
	logger *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(repo domain.FolderRepository, st *store.GalleryStore, logger *slog.Logger) *FolderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FolderService{
		repo:   repo,
		store:  st,
		logger: logger,
	}
}

// Tree fetches the unique paths and builds the folder tree. On a network
// failure the last persisted path list is used.
func (s *FolderService) Tree(ctx context.Context) (*domain.Folder, error) {
	paths, err := s.repo.UniqueFolderPaths(ctx)
	if err != nil {
		if s.store != nil {
			if cached, ok := s.store.GetFolderPaths(); ok {
				s.logger.Warn("serving persisted folder paths after fetch failure", "error", err)
				return domain.BuildFolderTree(cached), nil
			}
		}
		return nil, err
	}

	if s.store != nil {
		if err := s.store.SaveFolderPaths(paths); err != nil {
			s.logger.Warn("failed to persist folder paths", "error", err)
		}
	}

	s.logger.Debug("built folder tree", "paths", len(paths))
	return domain.BuildFolderTree(paths), nil
}

// Assets returns the assets directly under one folder
func (s *FolderService) Assets(ctx context.Context, folder *domain.Folder) ([]domain.Asset, error) {
	return s.repo.FolderAssets(ctx, folder.Path())
}
