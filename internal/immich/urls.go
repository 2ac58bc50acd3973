package immich

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/sfarevalo/immich-tv/internal/domain"
)

// Thumbnail sizes accepted by the server
const (
	ThumbnailPreview = "preview"
	ThumbnailSmall   = "thumbnail"
)

// ThumbnailURL returns the thumbnail URL for an asset
func (c *Client) ThumbnailURL(assetID, size string) string {
	return c.baseURL + "/api/assets/" + assetID + "/thumbnail?size=" + size
}

// FileURL returns the playback URL for videos and the original-file URL for
// everything else.
func (c *Client) FileURL(asset domain.Asset) string {
	if asset.IsVideo() {
		return c.baseURL + "/api/assets/" + asset.ID + "/video/playback"
	}
	return c.baseURL + "/api/assets/" + asset.ID + "/original"
}

// PersonThumbnailURL returns the face thumbnail URL for a person
func (c *Client) PersonThumbnailURL(personID uuid.UUID) string {
	return c.baseURL + "/api/people/" + personID.String() + "/thumbnail"
}

// SignURL appends the API key as a query parameter for consumers that cannot
// set request headers (e.g. external image viewers).
func (c *Client) SignURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("apiKey", c.cfg.APIKey)
	u.RawQuery = q.Encode()
	return u.String()
}
