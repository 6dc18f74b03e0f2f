package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "file", cfg.StorageBackend)
	require.Equal(t, "azure", cfg.AIProvider)
	require.Equal(t, []string{"en", "ja", "fr", "zh-Hans"}, cfg.TargetLanguages)
	require.Equal(t, 10, cfg.MaxPerCategory)
	require.Equal(t, 720*time.Hour, cfg.MaxArticleAge)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TARGET_LANGUAGES", "en, ja ,,")
	t.Setenv("MAX_ARTICLES_PER_CATEGORY", "3")
	t.Setenv("FEED_RATE_INTERVAL", "250ms")
	t.Setenv("RENDER_HTML", "false")
	t.Setenv("FOLLOW_CATEGORIES", "정치,경제")

	cfg := FromEnv()
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, []string{"en", "ja"}, cfg.TargetLanguages)
	require.Equal(t, 3, cfg.MaxPerCategory)
	require.Equal(t, 250*time.Millisecond, cfg.FeedRateInterval)
	require.False(t, cfg.RenderHTML)
	require.Equal(t, []string{"정치", "경제"}, cfg.FollowCategories)
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("MAX_CONCURRENCY", "many")
	t.Setenv("CACHE_TTL", "forever")

	cfg := FromEnv()
	require.Equal(t, 5, cfg.MaxConcurrency)
	require.Equal(t, 720*time.Hour, cfg.CacheTTL)
}

func TestValidate(t *testing.T) {
	t.Run("unknown provider", func(t *testing.T) {
		cfg := FromEnv()
		cfg.AIProvider = "llama"
		err := cfg.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "AIProvider")
	})

	t.Run("postgres needs dsn", func(t *testing.T) {
		cfg := FromEnv()
		cfg.StorageBackend = "postgres"
		cfg.DatabaseURL = ""
		require.Error(t, cfg.Validate())

		cfg.DatabaseURL = "postgres://localhost/news"
		require.NoError(t, cfg.Validate())
	})

	t.Run("azure needs endpoint", func(t *testing.T) {
		cfg := FromEnv()
		cfg.AIApiKey = "secret"
		cfg.AIEndpoint = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("bucket needs credentials", func(t *testing.T) {
		cfg := FromEnv()
		cfg.R2Bucket = "news"
		require.Error(t, cfg.Validate())
	})
}

func TestEnabledFlags(t *testing.T) {
	cfg := FromEnv()
	cfg.AIApiKey = ""
	cfg.TranslatorKey = ""
	require.False(t, cfg.AIEnabled())
	require.False(t, cfg.TranslatorEnabled())

	cfg.AIApiKey = "k"
	cfg.TranslatorKey = "k"
	require.True(t, cfg.AIEnabled())
	require.True(t, cfg.TranslatorEnabled())
}
