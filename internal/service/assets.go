package service

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sfarevalo/immich-tv/internal/config"
	"github.com/sfarevalo/immich-tv/internal/domain"
)

// AssetService builds the higher-level asset queries the UI renders: recent
// photos, similar-period photos across years, on-this-day photos, favorites.
// The multi-window queries fan out one search per date window, wait for all
// of them to settle, and combine partial successes.
type AssetService struct {
	repo   domain.AssetRepository
	cfg    config.QueriesConfig
	logger *slog.Logger

	now func() time.Time
}

// NewAssetService creates a new asset service
func NewAssetService(repo domain.AssetRepository, cfg config.QueriesConfig, logger *slog.Logger) *AssetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetService{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// dateWindow is one [from, end] capture-time interval
type dateWindow struct {
	from time.Time
	end  time.Time
}

// Recent returns a random sample of assets from the configured number of
// months back until now, shuffled.
func (s *AssetService) Recent(ctx context.Context, page, size int, contentType domain.ContentType) ([]domain.Asset, error) {
	now := s.now()
	from := now.AddDate(0, -s.cfg.RecentMonthsBack, 0)

	assets, err := s.repo.SearchAssets(ctx, s.options(page, size, contentType, dateWindow{from, now}))
	if err != nil {
		return nil, err
	}

	shuffleAssets(assets)
	s.logger.Debug("loaded recent assets", "count", len(assets))
	return assets, nil
}

// SimilarPeriod returns assets captured around this time of year, one window
// per configured year back, merged and shuffled.
func (s *AssetService) SimilarPeriod(ctx context.Context, page, size int, contentType domain.ContentType) ([]domain.Asset, error) {
	now := s.now()
	half := s.cfg.SimilarPeriodDays / 2

	windows := make([]dateWindow, s.cfg.SimilarYearsBack)
	for i := range windows {
		windows[i] = dateWindow{
			from: now.AddDate(-i, 0, -half),
			end:  now.AddDate(-i, 0, half),
		}
	}

	merged, err := s.fanOut(ctx, windows, page, size, contentType)
	if err != nil {
		return nil, err
	}

	shuffleAssets(merged)
	s.logger.Debug("loaded similar-period assets", "windows", len(windows), "count", len(merged))
	return merged, nil
}

// OnThisDay returns assets captured on today's calendar day in previous
// years. yearsBack <= 0 uses the configured default. The server's day window
// is an inexact proxy (timezone, precision), so results are strictly
// re-filtered on capture day-of-month and month. Results are not shuffled.
func (s *AssetService) OnThisDay(ctx context.Context, page, size int, contentType domain.ContentType, yearsBack int) ([]domain.Asset, error) {
	if yearsBack <= 0 {
		yearsBack = s.cfg.SimilarYearsBack
	}

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())

	windows := make([]dateWindow, yearsBack)
	for i := range windows {
		windows[i] = dateWindow{
			from: startOfDay.AddDate(-i, 0, 0),
			end:  endOfDay.AddDate(-i, 0, 0),
		}
	}

	merged, err := s.fanOut(ctx, windows, page, size, contentType)
	if err != nil {
		return nil, err
	}

	kept := make([]domain.Asset, 0, len(merged))
	for _, a := range merged {
		captured := a.CapturedAt()
		if captured.Day() == now.Day() && captured.Month() == now.Month() {
			kept = append(kept, a)
		}
	}

	s.logger.Debug("loaded on-this-day assets", "merged", len(merged), "kept", len(kept))
	return kept, nil
}

// Favorites returns favorite assets via the server-side filter, newest first
func (s *AssetService) Favorites(ctx context.Context, page, size int, contentType domain.ContentType) ([]domain.Asset, error) {
	fav := true
	return s.repo.SearchAssets(ctx, domain.SearchOptions{
		Page:             page,
		Size:             size,
		Order:            domain.OrderNewestOldest,
		ContentType:      contentType,
		IsFavorite:       &fav,
		ExcludedAlbumIDs: s.cfg.ExcludedAlbums,
	})
}

// Get fetches a single asset with full metadata
func (s *AssetService) Get(ctx context.Context, id string) (domain.Asset, error) {
	return s.repo.GetAsset(ctx, id)
}

// ByPerson returns assets showing one person, newest first
func (s *AssetService) ByPerson(ctx context.Context, personID uuid.UUID, page, size int, contentType domain.ContentType) ([]domain.Asset, error) {
	return s.repo.SearchAssets(ctx, domain.SearchOptions{
		Page:             page,
		Size:             size,
		Order:            domain.OrderNewestOldest,
		PersonIDs:        []uuid.UUID{personID},
		ContentType:      contentType,
		ExcludedAlbumIDs: s.cfg.ExcludedAlbums,
	})
}

// Oldest returns the single oldest asset in the library
func (s *AssetService) Oldest(ctx context.Context) (domain.Asset, error) {
	assets, err := s.repo.SearchAssets(ctx, domain.SearchOptions{
		Page:        1,
		Size:        1,
		Order:       domain.OrderOldestNewest,
		ContentType: domain.ContentTypeAll,
	})
	if err != nil {
		return domain.Asset{}, err
	}
	if len(assets) == 0 {
		return domain.Asset{}, domain.ErrAssetNotFound
	}
	return assets[0], nil
}

// options builds the search options for one randomized date window
func (s *AssetService) options(page, size int, contentType domain.ContentType, w dateWindow) domain.SearchOptions {
	from := w.from
	end := w.end
	return domain.SearchOptions{
		Page:             page,
		Size:             size,
		Random:           true,
		Order:            domain.OrderNewestOldest,
		FromDate:         &from,
		EndDate:          &end,
		ContentType:      contentType,
		ExcludedAlbumIDs: s.cfg.ExcludedAlbums,
	}
}

// fanOut issues one search per window concurrently and waits for every one
// to settle; there is no fail-fast and no cancellation of the siblings.
// Failed windows contribute nothing unless all of them failed, in which case
// the first window's failure propagates.
func (s *AssetService) fanOut(ctx context.Context, windows []dateWindow, page, size int, contentType domain.ContentType) ([]domain.Asset, error) {
	results := make([][]domain.Asset, len(windows))
	errs := make([]error, len(windows))

	var g errgroup.Group
	for i, w := range windows {
		i, w := i, w
		g.Go(func() error {
			results[i], errs[i] = s.repo.SearchAssets(ctx, s.options(page, size, contentType, w))
			if errs[i] != nil {
				s.logger.Warn("date window query failed", "from", w.from, "end", w.end, "error", errs[i])
			}
			// errors are collected, never returned: the barrier must settle
			// every window before combining
			return nil
		})
	}
	g.Wait()

	allFailed := len(errs) > 0
	for _, err := range errs {
		if err == nil {
			allFailed = false
			break
		}
	}
	if allFailed {
		return nil, errs[0]
	}

	var merged []domain.Asset
	for _, r := range results {
		merged = append(merged, r...)
	}
	if s.cfg.DeduplicateMerges {
		merged = dedupeByID(merged)
	}
	return merged, nil
}

// dedupeByID keeps the first occurrence of each asset id, preserving order
func dedupeByID(assets []domain.Asset) []domain.Asset {
	seen := make(map[string]struct{}, len(assets))
	kept := assets[:0]
	for _, a := range assets {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		kept = append(kept, a)
	}
	return kept
}

func shuffleAssets(assets []domain.Asset) {
	rand.Shuffle(len(assets), func(i, j int) {
		assets[i], assets[j] = assets[j], assets[i]
	})
}
