package immich

import (
	"time"

	"github.com/google/uuid"

	"github.com/sfarevalo/immich-tv/internal/domain"
)

// iso8601Local matches the zone-less ISO timestamps the search endpoint accepts
const iso8601Local = "2006-01-02T15:04:05"

// searchRequest is the body of POST /search/metadata and /search/random
type searchRequest struct {
	Page        int         `json:"page,omitempty"`
	Size        int         `json:"size,omitempty"`
	Order       string      `json:"order,omitempty"`
	Type        string      `json:"type,omitempty"` // omitted for ALL
	PersonIDs   []uuid.UUID `json:"personIds,omitempty"`
	TakenBefore string      `json:"takenBefore,omitempty"`
	TakenAfter  string      `json:"takenAfter,omitempty"`
	WithExif    bool        `json:"withExif"`
	IsFavorite  *bool       `json:"isFavorite,omitempty"`
}

func newSearchRequest(opts domain.SearchOptions) searchRequest {
	req := searchRequest{
		Page:       opts.Page,
		Size:       opts.Size,
		Order:      opts.Order.Wire(),
		PersonIDs:  opts.PersonIDs,
		WithExif:   true,
		IsFavorite: opts.IsFavorite,
	}
	if opts.ContentType != "" && opts.ContentType != domain.ContentTypeAll {
		req.Type = string(opts.ContentType)
	}
	if opts.EndDate != nil {
		req.TakenBefore = opts.EndDate.Format(iso8601Local)
	}
	if opts.FromDate != nil {
		req.TakenAfter = opts.FromDate.Format(iso8601Local)
	}
	return req
}

type tagDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type exifDTO struct {
	DateTimeOriginal *time.Time `json:"dateTimeOriginal"`
	Description      string     `json:"description"`
	City             string     `json:"city"`
	Country          string     `json:"country"`
}

type assetDTO struct {
	ID               string     `json:"id"`
	DeviceAssetID    string     `json:"deviceAssetId"`
	Type             string     `json:"type"`
	OriginalFileName string     `json:"originalFileName"`
	OriginalPath     string     `json:"originalPath"`
	FileModifiedAt   time.Time  `json:"fileModifiedAt"`
	LocalDateTime    *time.Time `json:"localDateTime"`
	IsFavorite       bool       `json:"isFavorite"`
	Duration         string     `json:"duration"`
	ExifInfo         *exifDTO   `json:"exifInfo"`
	Tags             []tagDTO   `json:"tags"`
}

// searchResponse is the paged envelope of POST /search/metadata
type searchResponse struct {
	Assets struct {
		Items    []assetDTO `json:"items"`
		NextPage string     `json:"nextPage"`
	} `json:"assets"`
}

type albumDTO struct {
	ID         string     `json:"id"`
	AlbumName  string     `json:"albumName"`
	Shared     bool       `json:"shared"`
	AssetCount int        `json:"assetCount"`
	Assets     []assetDTO `json:"assets"`
}

type personDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type peopleResponse struct {
	People []personDTO `json:"people"`
}

// bucketAssetsDTO is the columnar envelope of GET /timeline/bucket: parallel
// arrays indexed by asset position.
type bucketAssetsDTO struct {
	ID            []string  `json:"id"`
	IsFavorite    []bool    `json:"isFavorite"`
	IsImage       []bool    `json:"isImage"`
	LocalDateTime []string  `json:"localDateTime"`
	Duration      []*string `json:"duration"`
	FileName      []string  `json:"fileName"`
}

func (b bucketAssetsDTO) toAssets() []domain.Asset {
	assets := make([]domain.Asset, 0, len(b.ID))
	for i, id := range b.ID {
		asset := domain.Asset{ID: id, Type: string(domain.ContentTypeImage)}
		if i < len(b.IsFavorite) {
			asset.IsFavorite = b.IsFavorite[i]
		}
		if i < len(b.IsImage) && !b.IsImage[i] {
			asset.Type = string(domain.ContentTypeVideo)
		}
		if i < len(b.LocalDateTime) {
			if ts, err := parseLocalTime(b.LocalDateTime[i]); err == nil {
				asset.LocalDateTime = &ts
				asset.FileModifiedAt = ts
			}
		}
		if i < len(b.Duration) && b.Duration[i] != nil {
			asset.Duration = *b.Duration[i]
		}
		if i < len(b.FileName) {
			asset.OriginalFileName = b.FileName[i]
		}
		assets = append(assets, asset)
	}
	return assets
}

// parseLocalTime accepts both zoned and zone-less server timestamps
func parseLocalTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Parse(iso8601Local, s)
}

func mapAsset(dto assetDTO, albumName string) domain.Asset {
	asset := domain.Asset{
		ID:               dto.ID,
		DeviceAssetID:    dto.DeviceAssetID,
		Type:             dto.Type,
		OriginalFileName: dto.OriginalFileName,
		OriginalPath:     dto.OriginalPath,
		FileModifiedAt:   dto.FileModifiedAt,
		LocalDateTime:    dto.LocalDateTime,
		IsFavorite:       dto.IsFavorite,
		Duration:         dto.Duration,
		AlbumName:        albumName,
	}
	if dto.ExifInfo != nil {
		asset.ExifInfo = &domain.ExifInfo{
			DateTimeOriginal: dto.ExifInfo.DateTimeOriginal,
			Description:      dto.ExifInfo.Description,
			City:             dto.ExifInfo.City,
			Country:          dto.ExifInfo.Country,
		}
	}
	for _, t := range dto.Tags {
		asset.Tags = append(asset.Tags, domain.Tag{ID: t.ID, Name: t.Name})
	}
	return asset
}

func mapAssets(dtos []assetDTO, albumName string) []domain.Asset {
	assets := make([]domain.Asset, 0, len(dtos))
	for _, dto := range dtos {
		assets = append(assets, mapAsset(dto, albumName))
	}
	return assets
}

func mapAlbum(dto albumDTO) domain.Album {
	return domain.Album{
		ID:         dto.ID,
		AlbumName:  dto.AlbumName,
		Shared:     dto.Shared,
		AssetCount: dto.AssetCount,
	}
}

func mapAlbums(dtos []albumDTO) []domain.Album {
	albums := make([]domain.Album, 0, len(dtos))
	for _, dto := range dtos {
		albums = append(albums, mapAlbum(dto))
	}
	return albums
}
