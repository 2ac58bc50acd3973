package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContentType filters asset queries by media kind
type ContentType string

const (
	ContentTypeAll   ContentType = "ALL"
	ContentTypeImage ContentType = "IMAGE"
	ContentTypeVideo ContentType = "VIDEO"
)

// PhotosOrder is the chronological direction of a listing
type PhotosOrder int

const (
	OrderNewestOldest PhotosOrder = iota
	OrderOldestNewest
)

// Wire returns the order as the server expects it
func (o PhotosOrder) Wire() string {
	if o == OrderOldestNewest {
		return "asc"
	}
	return "desc"
}

// Tag is a user-assigned label on an asset
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ExifInfo holds the subset of embedded metadata the client cares about
type ExifInfo struct {
	DateTimeOriginal *time.Time `json:"dateTimeOriginal"`
	Description      string     `json:"description,omitempty"`
	City             string     `json:"city,omitempty"`
	Country          string     `json:"country,omitempty"`
}

// Asset is a single photo or video as returned by the server.
// Assets are values; "updating" one means producing a new record with the
// changed field, never mutating shared state in place.
type Asset struct {
	ID               string     `json:"id"`
	DeviceAssetID    string     `json:"deviceAssetId,omitempty"`
	Type             string     `json:"type"` // IMAGE, VIDEO or other
	OriginalFileName string     `json:"originalFileName"`
	OriginalPath     string     `json:"originalPath,omitempty"`
	FileModifiedAt   time.Time  `json:"fileModifiedAt"`
	LocalDateTime    *time.Time `json:"localDateTime,omitempty"`
	IsFavorite       bool       `json:"isFavorite"`
	Duration         string     `json:"duration,omitempty"`
	ExifInfo         *ExifInfo  `json:"exifInfo,omitempty"`
	Tags             []Tag      `json:"tags,omitempty"`

	// AlbumName is annotated at query time when the asset was fetched
	// through an album detail lookup. It is not a server field.
	AlbumName string `json:"albumName,omitempty"`
}

// CapturedAt returns the capture timestamp from embedded metadata,
// falling back to the file-modified timestamp.
func (a Asset) CapturedAt() time.Time {
	if a.ExifInfo != nil && a.ExifInfo.DateTimeOriginal != nil {
		return *a.ExifInfo.DateTimeOriginal
	}
	return a.FileModifiedAt
}

// HasTag reports whether the asset carries a tag with the given name
func (a Asset) HasTag(name string) bool {
	for _, t := range a.Tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// IsVideo reports whether the asset is a video
func (a Asset) IsVideo() bool {
	return a.Type == string(ContentTypeVideo)
}

// WithFavorite returns a copy of the asset with the favorite flag overridden
func (a Asset) WithFavorite(fav bool) Asset {
	a.IsFavorite = fav
	return a
}

// Album is a server-side collection of assets
type Album struct {
	ID         string  `json:"id"`
	AlbumName  string  `json:"albumName"`
	Shared     bool    `json:"shared"`
	AssetCount int     `json:"assetCount"`
	Assets     []Asset `json:"assets,omitempty"` // populated by detail lookups only
}

// Person is a recognized face with a user-assigned name
type Person struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Bucket is one server-defined time bucket (typically a calendar month)
// together with the number of assets it contains. Bucket keys are opaque;
// adjacency is resolved by indexing into an ordered bucket list, never by
// deriving it from the key string.
type Bucket struct {
	TimeBucket string `json:"timeBucket"`
	Count      int    `json:"count"`
}
