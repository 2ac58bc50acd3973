package immich

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/sfarevalo/immich-tv/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "ImmichTV/1.0"

	// ExcludedTagName marks assets that must never surface in this client
	ExcludedTagName = "exclude_immich_tv"
)

// permissionMarker is the substring the server puts in a 403 body when the
// API key lacks the "all" permission scope.
const permissionMarker = "required permission: all"

// errMissingAllPermission is shown verbatim to the end user
var errMissingAllPermission = errors.New(
	`API key is missing the permission "all". Please adapt your permissions in the Immich web interface.`)

// errNoBody covers the expected-status-but-empty-body edge case
var errNoBody = errors.New("did not receive any input from the server")

// Config identifies one server connection. Two clients are interchangeable
// exactly when their configs are equal; the factory relies on that.
type Config struct {
	Host                   string
	APIKey                 string
	DisableSSLVerification bool
	Debug                  bool
}

// Client is a read/write client for one Immich server. All methods are safe
// for concurrent use; the client itself holds no mutable state. Errors
// returned by its methods are human-readable remediation strings suitable
// for direct display.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Immich API client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.DisableSSLVerification {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(strings.ToLower(cfg.Host), "/"),
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// Config returns the config this client was built from
func (c *Client) Config() Config {
	return c.cfg
}

// do performs one authenticated request and validates the response status
// against the expected code. It never retries; retry policy, if any, belongs
// to the caller.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}, expect int) ([]byte, error) {
	reqURL := c.baseURL + "/api" + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("x-api-key", strings.TrimSpace(c.cfg.APIKey))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.cfg.Debug {
		c.logger.Debug("immich request", "method", method, "url", reqURL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("immich request failed", "method", method, "url", reqURL, "error", err)
		return nil, fmt.Errorf("could not fetch data from API, response: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not fetch data from API, response: %v", err)
	}

	if c.cfg.Debug {
		c.logger.Debug("immich response", "status", resp.StatusCode, "method", method, "url", reqURL)
	}

	switch resp.StatusCode {
	case expect:
		return body, nil
	case http.StatusForbidden:
		if strings.Contains(string(body), permissionMarker) {
			return nil, errMissingAllPermission
		}
		return nil, fmt.Errorf("API key permissions are invalid: %s", errorText(body))
	default:
		c.logger.Error("immich request error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("invalid status code from API: %d, make sure you are using the latest Immich server release", resp.StatusCode)
	}
}

// errorText extracts the human message out of a JSON error body, falling back
// to the raw body content.
func errorText(body []byte) string {
	if msg := gjson.GetBytes(body, "message"); msg.Exists() {
		return msg.String()
	}
	if len(body) == 0 {
		return "unknown error"
	}
	return string(body)
}

// decode unmarshals a response body, surfacing an empty body as a failure
// rather than silently succeeding.
func decode(body []byte, dest interface{}) error {
	if len(body) == 0 {
		return errNoBody
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("could not fetch data from API, response: %v", err)
	}
	return nil
}

// GetAsset returns a single asset by id
func (c *Client) GetAsset(ctx context.Context, id string) (domain.Asset, error) {
	body, err := c.do(ctx, http.MethodGet, "/assets/"+id, nil, nil, http.StatusOK)
	if err != nil {
		return domain.Asset{}, err
	}
	var dto assetDTO
	if err := decode(body, &dto); err != nil {
		return domain.Asset{}, err
	}
	return mapAsset(dto, ""), nil
}

// UpdateFavorite sets the favorite flag of an asset and returns the updated
// asset as confirmed by the server. No local state changes here; the caller
// reconciles the override cache on success.
func (c *Client) UpdateFavorite(ctx context.Context, assetID string, isFavorite bool) (domain.Asset, error) {
	payload := struct {
		IsFavorite bool `json:"isFavorite"`
	}{isFavorite}

	body, err := c.do(ctx, http.MethodPut, "/assets/"+assetID, nil, payload, http.StatusOK)
	if err != nil {
		return domain.Asset{}, err
	}
	var dto assetDTO
	if err := decode(body, &dto); err != nil {
		return domain.Asset{}, err
	}
	return mapAsset(dto, ""), nil
}

// DeleteAssets moves assets to the trash. The server answers 204 with no
// body; an empty body is success here.
func (c *Client) DeleteAssets(ctx context.Context, assetIDs []string) error {
	payload := struct {
		IDs   []string `json:"ids"`
		Force bool     `json:"force"`
	}{assetIDs, false}

	_, err := c.do(ctx, http.MethodDelete, "/assets", nil, payload, http.StatusNoContent)
	return err
}

// ListAlbums returns owned and shared albums concatenated
func (c *Client) ListAlbums(ctx context.Context) ([]domain.Album, error) {
	body, err := c.do(ctx, http.MethodGet, "/albums", nil, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var owned []albumDTO
	if err := decode(body, &owned); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("shared", "true")
	body, err = c.do(ctx, http.MethodGet, "/albums", query, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var shared []albumDTO
	if err := decode(body, &shared); err != nil {
		return nil, err
	}

	return append(mapAlbums(owned), mapAlbums(shared)...), nil
}

// AlbumAssets returns one album with its assets. Each asset is annotated
// with the album name, and excluded-tag assets are dropped.
func (c *Client) AlbumAssets(ctx context.Context, albumID string) (domain.Album, error) {
	body, err := c.do(ctx, http.MethodGet, "/albums/"+albumID, nil, nil, http.StatusOK)
	if err != nil {
		return domain.Album{}, err
	}
	var dto albumDTO
	if err := decode(body, &dto); err != nil {
		return domain.Album{}, err
	}

	album := mapAlbum(dto)
	album.Assets = dropExcludedTag(mapAssets(dto.Assets, dto.AlbumName))
	return album, nil
}

// ListPeople returns people with a non-blank name
func (c *Client) ListPeople(ctx context.Context) ([]domain.Person, error) {
	body, err := c.do(ctx, http.MethodGet, "/people", nil, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var envelope peopleResponse
	if err := decode(body, &envelope); err != nil {
		return nil, err
	}

	people := make([]domain.Person, 0, len(envelope.People))
	for _, p := range envelope.People {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		people = append(people, domain.Person{ID: p.ID, Name: p.Name})
	}
	return people, nil
}

// SearchAssets executes one asset search. Random selects the randomized
// endpoint, which returns a flat list; the paged endpoint returns an envelope
// whose items list is extracted. Both post-filters (excluded tag, excluded
// albums) apply to the result and never themselves fail.
func (c *Client) SearchAssets(ctx context.Context, opts domain.SearchOptions) ([]domain.Asset, error) {
	req := newSearchRequest(opts)

	var dtos []assetDTO
	if opts.Random {
		body, err := c.do(ctx, http.MethodPost, "/search/random", nil, req, http.StatusOK)
		if err != nil {
			return nil, err
		}
		if err := decode(body, &dtos); err != nil {
			return nil, err
		}
	} else {
		body, err := c.do(ctx, http.MethodPost, "/search/metadata", nil, req, http.StatusOK)
		if err != nil {
			return nil, err
		}
		var envelope searchResponse
		if err := decode(body, &envelope); err != nil {
			return nil, err
		}
		dtos = envelope.Assets.Items
	}

	assets := dropExcludedTag(mapAssets(dtos, ""))
	return c.dropExcludedAlbumAssets(ctx, assets, opts.ExcludedAlbumIDs), nil
}

// ListBuckets enumerates the server-defined time buckets. An empty album id
// means no album filter.
func (c *Client) ListBuckets(ctx context.Context, albumID string, order domain.PhotosOrder) ([]domain.Bucket, error) {
	query := url.Values{}
	if strings.TrimSpace(albumID) != "" {
		query.Set("albumId", albumID)
	}
	query.Set("order", order.Wire())

	body, err := c.do(ctx, http.MethodGet, "/timeline/buckets", query, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var buckets []domain.Bucket
	if err := decode(body, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

// BucketAssets fetches all assets of one time bucket in a single call and
// flattens the columnar envelope into an asset list.
func (c *Client) BucketAssets(ctx context.Context, albumID, timeBucket string, order domain.PhotosOrder) ([]domain.Asset, error) {
	query := url.Values{}
	if strings.TrimSpace(albumID) != "" {
		query.Set("albumId", albumID)
	}
	query.Set("timeBucket", timeBucket)
	query.Set("order", order.Wire())

	body, err := c.do(ctx, http.MethodGet, "/timeline/bucket", query, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var envelope bucketAssetsDTO
	if err := decode(body, &envelope); err != nil {
		return nil, err
	}
	return envelope.toAssets(), nil
}

// UniqueFolderPaths returns the flat list of "/"-delimited folder paths
func (c *Client) UniqueFolderPaths(ctx context.Context) ([]string, error) {
	body, err := c.do(ctx, http.MethodGet, "/view/folder/unique-paths", nil, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var paths []string
	if err := decode(body, &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

// FolderAssets returns the assets directly under one folder path
func (c *Client) FolderAssets(ctx context.Context, path string) ([]domain.Asset, error) {
	query := url.Values{}
	query.Set("path", path)

	body, err := c.do(ctx, http.MethodGet, "/view/folder", query, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var dtos []assetDTO
	if err := decode(body, &dtos); err != nil {
		return nil, err
	}
	return dropExcludedTag(mapAssets(dtos, "")), nil
}

// dropExcludedTag removes assets carrying the excluded tag
func dropExcludedTag(assets []domain.Asset) []domain.Asset {
	kept := make([]domain.Asset, 0, len(assets))
	for _, a := range assets {
		if a.HasTag(ExcludedTagName) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// dropExcludedAlbumAssets resolves each excluded album to its asset-id set
// and drops assets in the union. One album detail call per excluded album per
// invocation; a failed lookup only disables that album's exclusion.
func (c *Client) dropExcludedAlbumAssets(ctx context.Context, assets []domain.Asset, albumIDs []string) []domain.Asset {
	if len(albumIDs) == 0 || len(assets) == 0 {
		return assets
	}

	excluded := make(map[string]struct{})
	for _, albumID := range albumIDs {
		album, err := c.AlbumAssets(ctx, albumID)
		if err != nil {
			c.logger.Warn("failed to resolve excluded album", "albumID", albumID, "error", err)
			continue
		}
		for _, a := range album.Assets {
			excluded[a.ID] = struct{}{}
		}
	}
	if len(excluded) == 0 {
		return assets
	}

	kept := make([]domain.Asset, 0, len(assets))
	for _, a := range assets {
		if _, ok := excluded[a.ID]; ok {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}
