package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/leandro-lugaresi/hub"

	"github.com/sfarevalo/immich-tv/internal/config"
	"github.com/sfarevalo/immich-tv/internal/domain"
	"github.com/sfarevalo/immich-tv/internal/immich"
	"github.com/sfarevalo/immich-tv/internal/log"
	"github.com/sfarevalo/immich-tv/internal/service"
	"github.com/sfarevalo/immich-tv/internal/store"
	"github.com/sfarevalo/immich-tv/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("immich-tv %s\n", Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting immich-tv", "version", Version)

	if !cfg.IsConfigured() {
		logger.Warn("startup without server connection", "error", domain.ErrNotConfigured)
		return runSetupFlow(cfg)
	}

	client := immich.GetClient(immich.Config{
		Host:                   cfg.Server.Host,
		APIKey:                 cfg.Server.APIKey,
		DisableSSLVerification: cfg.Server.DisableSSLVerification,
		Debug:                  cfg.Server.Debug,
	}, logger)

	galleryStore, err := store.NewGalleryStore(config.CachePath(), cfg.Server.Host)
	if err != nil {
		logger.Warn("failed to open gallery store, running without persistence", "error", err)
		galleryStore, _ = store.NewGalleryStore("", "")
	}
	defer galleryStore.Close()

	bus := hub.New()
	favoriteCache := service.NewFavoriteCache()

	assetSvc := service.NewAssetService(client, cfg.Queries, logger)
	albumSvc := service.NewAlbumService(client, client, galleryStore, logger)
	folderSvc := service.NewFolderService(client, galleryStore, logger)
	timelineSvc := service.NewTimelineService(client, galleryStore, logger)
	favoriteSvc := service.NewFavoriteService(client, favoriteCache, bus, logger)

	model := tui.NewModel(assetSvc, albumSvc, folderSvc, timelineSvc, favoriteSvc, client, cfg.UI.PageSize).
		WithLogout(func() {
			favoriteCache.Clear()
			galleryStore.ClearAll()
			immich.Invalidate()
			if err := config.ClearServerConfig(); err != nil {
				logger.Error("failed to clear server config", "error", err)
			}
			logger.Info("logged out, server connection cleared")
		})

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow handles the initial setup when not configured
func runSetupFlow(cfg *config.Config) error {
	fmt.Println()
	fmt.Println("Welcome to immich-tv!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	var host string
	for {
		fmt.Print("Enter your Immich server URL (e.g., https://photos.example.com): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		host = strings.TrimSpace(input)
		if host != "" {
			break
		}
		fmt.Println("Server URL cannot be empty. Please try again.")
	}

	var apiKey string
	for {
		fmt.Print("Enter your API key (created in the Immich web interface): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		apiKey = strings.TrimSpace(input)
		if apiKey != "" {
			break
		}
		fmt.Println("API key cannot be empty. Please try again.")
	}

	cfg.Server.Host = host
	cfg.Server.APIKey = apiKey

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	fmt.Println("Run immich-tv again to start the application.")

	return nil
}
