package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Queries QueriesConfig `mapstructure:"queries"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the Immich server connection settings
type ServerConfig struct {
	Host                   string `mapstructure:"host"`    // e.g. https://photos.example.com
	APIKey                 string `mapstructure:"api_key"` // static per-request key
	DisableSSLVerification bool   `mapstructure:"disable_ssl_verification"`
	Debug                  bool   `mapstructure:"debug"` // log every request/response
}

// QueriesConfig tunes the aggregation queries
type QueriesConfig struct {
	RecentMonthsBack  int      `mapstructure:"recent_months_back"`
	SimilarYearsBack  int      `mapstructure:"similar_years_back"`
	SimilarPeriodDays int      `mapstructure:"similar_period_days"`
	ExcludedAlbums    []string `mapstructure:"excluded_albums"` // album ids whose assets never surface

	// DeduplicateMerges drops duplicate asset ids when overlapping date
	// windows return the same asset twice. Off mirrors the historical
	// behavior of returning duplicates.
	DeduplicateMerges bool `mapstructure:"deduplicate_merges"`
}

// UIConfig holds terminal UI configuration
type UIConfig struct {
	PageSize    int    `mapstructure:"page_size"`
	DefaultView string `mapstructure:"default_view"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{},
		Queries: QueriesConfig{
			RecentMonthsBack:  3,
			SimilarYearsBack:  6,
			SimilarPeriodDays: 30,
		},
		UI: UIConfig{
			PageSize:    100,
			DefaultView: "recent",
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "immich-tv", "immich-tv.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "immich-tv", "immich-tv.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "immich-tv")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "immich-tv")
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("IMMICHTV")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the current configuration to file
func Save(cfg *Config) error {
	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to keep snake_case key names stable
	viper.Set("server.host", cfg.Server.Host)
	viper.Set("server.api_key", cfg.Server.APIKey)
	viper.Set("server.disable_ssl_verification", cfg.Server.DisableSSLVerification)
	viper.Set("server.debug", cfg.Server.Debug)

	viper.Set("queries.recent_months_back", cfg.Queries.RecentMonthsBack)
	viper.Set("queries.similar_years_back", cfg.Queries.SimilarYearsBack)
	viper.Set("queries.similar_period_days", cfg.Queries.SimilarPeriodDays)
	viper.Set("queries.excluded_albums", cfg.Queries.ExcludedAlbums)
	viper.Set("queries.deduplicate_merges", cfg.Queries.DeduplicateMerges)

	viper.Set("ui.page_size", cfg.UI.PageSize)
	viper.Set("ui.default_view", cfg.UI.DefaultView)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the server host and API key are set
func (c *Config) IsConfigured() bool {
	return c.Server.Host != "" && c.Server.APIKey != ""
}

// ClearServerConfig removes the server connection settings while preserving
// query, UI and logging preferences. Used at logout.
func ClearServerConfig() error {
	viper.Set("server.host", "")
	viper.Set("server.api_key", "")
	viper.Set("server.disable_ssl_verification", false)
	viper.Set("server.debug", false)

	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CachePath returns the cache directory path for the current OS
func CachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "immich-tv", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "immich-tv", "cache")
	}
}
