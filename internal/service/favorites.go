package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/leandro-lugaresi/hub"

	"github.com/sfarevalo/immich-tv/internal/domain"
)

// Event bus topics for mutation notifications
const (
	TopicFavoriteChanged = "asset.favorite.changed"
	TopicAssetTrashed    = "asset.trashed"
)

// FavoriteCache holds not-yet-reread favorite overrides: asset id to the
// last confirmed favorite state. Every rendering surface consults it so a
// toggle made on one screen is visible on all of them before the next server
// read. An entry wins over whatever favorite flag a server read returns; it
// has no expiry and is cleared only at session teardown. The cache is shared
// by injection, never looked up ambiently.
type FavoriteCache struct {
	mu        sync.RWMutex
	overrides map[string]bool
}

// NewFavoriteCache creates an empty override cache
func NewFavoriteCache() *FavoriteCache {
	return &FavoriteCache{overrides: make(map[string]bool)}
}

// Set records a confirmed favorite state for an asset (last write wins)
func (c *FavoriteCache) Set(assetID string, isFavorite bool) {
	c.mu.Lock()
	c.overrides[assetID] = isFavorite
	c.mu.Unlock()
}

// Get returns the override for an asset, if any
func (c *FavoriteCache) Get(assetID string) (isFavorite, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.overrides[assetID]
	return v, ok
}

// Delete removes a single override so the server value applies again
func (c *FavoriteCache) Delete(assetID string) {
	c.mu.Lock()
	delete(c.overrides, assetID)
	c.mu.Unlock()
}

// Clear wipes all overrides. Called at logout.
func (c *FavoriteCache) Clear() {
	c.mu.Lock()
	c.overrides = make(map[string]bool)
	c.mu.Unlock()
}

// Len returns the number of overrides held
func (c *FavoriteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.overrides)
}

// Apply reconciles an asset with the cache: the override, when present, wins
// over the server-read favorite flag. The input is not mutated.
func (c *FavoriteCache) Apply(a domain.Asset) domain.Asset {
	if fav, ok := c.Get(a.ID); ok {
		return a.WithFavorite(fav)
	}
	return a
}

// ApplyAll reconciles a slice of assets, returning a new slice
func (c *FavoriteCache) ApplyAll(assets []domain.Asset) []domain.Asset {
	out := make([]domain.Asset, len(assets))
	for i, a := range assets {
		out[i] = c.Apply(a)
	}
	return out
}

// FavoriteService performs the two asset mutations. Each is a single
// authenticated write; on success the override cache is reconciled with the
// server-confirmed state and a change notification goes out on the bus for
// every currently visible screen.
type FavoriteService struct {
	writer domain.AssetWriter
	cache  *FavoriteCache
	bus    *hub.Hub
	logger *slog.Logger
}

// NewFavoriteService creates a new favorite service
func NewFavoriteService(writer domain.AssetWriter, cache *FavoriteCache, bus *hub.Hub, logger *slog.Logger) *FavoriteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FavoriteService{
		writer: writer,
		cache:  cache,
		bus:    bus,
		logger: logger,
	}
}

// Cache exposes the shared override cache for rendering surfaces
func (f *FavoriteService) Cache() *FavoriteCache {
	return f.cache
}

// Toggle sets the favorite state of an asset on the server. On success the
// confirmed state lands in the override cache and a TopicFavoriteChanged
// message is published. No optimistic update happens before the server
// confirms.
func (f *FavoriteService) Toggle(ctx context.Context, assetID string, isFavorite bool) (domain.Asset, error) {
	asset, err := f.writer.UpdateFavorite(ctx, assetID, isFavorite)
	if err != nil {
		return domain.Asset{}, err
	}

	f.cache.Set(assetID, asset.IsFavorite)
	f.bus.Publish(hub.Message{
		Name: TopicFavoriteChanged,
		Fields: hub.Fields{
			"assetID":    assetID,
			"isFavorite": asset.IsFavorite,
		},
	})

	f.logger.Info("toggled favorite", "assetID", assetID, "isFavorite", asset.IsFavorite)
	return asset, nil
}

// Trash moves an asset to the server-side trash and, on success, notifies
// all screens so they drop it from their in-memory lists. The override cache
// is untouched; it is keyed only by favorite state.
func (f *FavoriteService) Trash(ctx context.Context, assetID string) error {
	if err := f.writer.DeleteAssets(ctx, []string{assetID}); err != nil {
		return err
	}

	f.bus.Publish(hub.Message{
		Name:   TopicAssetTrashed,
		Fields: hub.Fields{"assetID": assetID},
	})

	f.logger.Info("moved asset to trash", "assetID", assetID)
	return nil
}

// Subscribe returns a non-blocking subscription to both mutation topics.
// Slow consumers drop messages rather than stalling the mutation path.
func (f *FavoriteService) Subscribe(capacity int) hub.Subscription {
	return f.bus.NonBlockingSubscribe(capacity, TopicFavoriteChanged, TopicAssetTrashed)
}

// Unsubscribe releases a subscription obtained from Subscribe
func (f *FavoriteService) Unsubscribe(sub hub.Subscription) {
	f.bus.Unsubscribe(sub)
}
