package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 3, cfg.Queries.RecentMonthsBack)
	assert.Equal(t, 6, cfg.Queries.SimilarYearsBack)
	assert.Equal(t, 30, cfg.Queries.SimilarPeriodDays)
	assert.False(t, cfg.Queries.DeduplicateMerges)
	assert.Equal(t, 100, cfg.UI.PageSize)
	assert.Equal(t, "recent", cfg.UI.DefaultView)
	assert.Equal(t, "INFO", cfg.Logging.Level)
}

func TestIsConfigured(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.IsConfigured())

	cfg.Server.Host = "https://photos.example.com"
	assert.False(t, cfg.IsConfigured(), "host alone is not enough")

	cfg.Server.APIKey = "key"
	assert.True(t, cfg.IsConfigured())
}
