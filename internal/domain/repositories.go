package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SearchOptions describes one asset search. Zero values mean "no filter";
// ContentTypeAll is likewise encoded as no filter on the wire.
type SearchOptions struct {
	Page        int // 1-based
	Size        int
	Random      bool // use the randomized-results endpoint instead of the paged one
	Order       PhotosOrder
	PersonIDs   []uuid.UUID
	FromDate    *time.Time // inclusive lower bound on capture time
	EndDate     *time.Time // inclusive upper bound on capture time
	ContentType ContentType
	IsFavorite  *bool // nil = no favorite filter

	// ExcludedAlbumIDs is resolved to an asset-id union via one album detail
	// call per album per invocation; matching assets are dropped.
	ExcludedAlbumIDs []string
}

// AssetRepository is the low-level asset search and read surface
type AssetRepository interface {
	SearchAssets(ctx context.Context, opts SearchOptions) ([]Asset, error)
	GetAsset(ctx context.Context, id string) (Asset, error)
}

// AssetWriter performs the two authenticated mutations
type AssetWriter interface {
	UpdateFavorite(ctx context.Context, assetID string, isFavorite bool) (Asset, error)
	DeleteAssets(ctx context.Context, assetIDs []string) error
}

// AlbumRepository lists albums and fetches album details with nested assets
type AlbumRepository interface {
	ListAlbums(ctx context.Context) ([]Album, error)
	AlbumAssets(ctx context.Context, albumID string) (Album, error)
}

// PeopleRepository lists named people
type PeopleRepository interface {
	ListPeople(ctx context.Context) ([]Person, error)
}

// TimelineRepository enumerates time buckets and the assets inside one bucket
type TimelineRepository interface {
	ListBuckets(ctx context.Context, albumID string, order PhotosOrder) ([]Bucket, error)
	BucketAssets(ctx context.Context, albumID, timeBucket string, order PhotosOrder) ([]Asset, error)
}

// FolderRepository exposes the flat folder paths and per-path asset listing
type FolderRepository interface {
	UniqueFolderPaths(ctx context.Context) ([]string, error)
	FolderAssets(ctx context.Context, path string) ([]Asset, error)
}
