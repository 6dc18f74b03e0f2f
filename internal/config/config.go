package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port" validate:"required,numeric"`
	Env             string        `json:"env" validate:"oneof=development production test"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" validate:"gt=0"`
	HTTPTimeout     time.Duration `json:"http_timeout" validate:"gt=0"`
	CORSOrigins     string        `json:"cors_origins"`

	// Redis configuration. An empty URL selects the in-memory cache.
	RedisURL       string        `json:"redis_url"`
	RedisPrefix    string        `json:"redis_prefix"`
	CacheTTL       time.Duration `json:"cache_ttl" validate:"gt=0"`
	MaxConcurrency int           `json:"max_concurrency" validate:"min=1,max=64"`

	// Feed configuration
	FeedBaseURL       string        `json:"feed_base_url" validate:"required,url"`
	FeedLanguage      string        `json:"feed_language" validate:"required"`
	FeedCountry       string        `json:"feed_country" validate:"required"`
	FeedRateInterval  time.Duration `json:"feed_rate_interval" validate:"gte=0"`
	MaxPerCategory    int           `json:"max_per_category" validate:"min=1"`
	MaxArticleAge     time.Duration `json:"max_article_age" validate:"gt=0"`
	CatalogPath       string        `json:"catalog_path"`
	FollowCategories  []string      `json:"follow_categories"`
	SelectedSources   []string      `json:"selected_sources"`
	ScrapeTimeout     time.Duration `json:"scrape_timeout" validate:"gt=0"`
	MaxBodyRunes      int           `json:"max_body_runes" validate:"min=100"`
	ResolveUserAgent  string        `json:"resolve_user_agent"`

	// AI Configuration
	AIProvider   string `json:"ai_provider" validate:"oneof=azure openai gemini"`
	AIApiKey     string `json:"ai_api_key"`
	AIEndpoint   string `json:"ai_endpoint"`
	AIModel      string `json:"ai_model" validate:"required"`
	AIAPIVersion string `json:"ai_api_version"`
	AITimeout    int    `json:"ai_timeout" validate:"min=1"`
	AIMaxTokens  int    `json:"ai_max_tokens" validate:"min=1"`

	// Translator configuration
	TranslatorKey      string   `json:"translator_key"`
	TranslatorEndpoint string   `json:"translator_endpoint" validate:"required,url"`
	TranslatorRegion   string   `json:"translator_region"`
	SourceLanguage     string   `json:"source_language" validate:"required"`
	TargetLanguages    []string `json:"target_languages"`

	// Storage
	StorageBackend   string `json:"storage_backend" validate:"oneof=file postgres elasticsearch"`
	StoragePath      string `json:"storage_path" validate:"required"`
	OutputPath       string `json:"output_path" validate:"required"`
	RenderHTML       bool   `json:"render_html"`
	DatabaseURL      string `json:"database_url"`
	ElasticsearchURL string `json:"elasticsearch_url"`
	ElasticIndex     string `json:"elastic_index"`

	// CloudFlare R2 Configuration
	R2Endpoint  string `json:"r2_endpoint"`
	R2AccessKey string `json:"r2_access_key"`
	R2SecretKey string `json:"r2_secret_key"`
	R2Bucket    string `json:"r2_bucket"`
	R2AccountID string `json:"r2_account_id"`

	// Kafka events
	KafkaBrokers []string `json:"kafka_brokers"`
	KafkaTopic   string   `json:"kafka_topic"`

	// Timer trigger
	BackendAPIURL string `json:"backend_api_url"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// Security
	AdminAPIKey string `json:"admin_api_key"`
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FromEnv builds a Config from the environment without validating it.
func FromEnv() *Config {
	return &Config{
		// Server configuration
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
		CORSOrigins:     getEnv("CORS_ORIGINS", "*"),

		// Redis configuration
		RedisURL:       getEnv("REDIS_URL", ""),
		RedisPrefix:    getEnv("REDIS_PREFIX", "newsflow:"),
		CacheTTL:       getEnvAsDuration("CACHE_TTL", 720*time.Hour), // 30 days
		MaxConcurrency: getEnvAsInt("MAX_CONCURRENCY", 5),

		// Feed configuration
		FeedBaseURL:      getEnv("FEED_BASE_URL", "https://news.google.com/rss/search"),
		FeedLanguage:     getEnv("FEED_LANGUAGE", "ko"),
		FeedCountry:      getEnv("FEED_COUNTRY", "KR"),
		FeedRateInterval: getEnvAsDuration("FEED_RATE_INTERVAL", time.Second),
		MaxPerCategory:   getEnvAsInt("MAX_ARTICLES_PER_CATEGORY", 10),
		MaxArticleAge:    getEnvAsDuration("MAX_ARTICLE_AGE", 720*time.Hour),
		CatalogPath:      getEnv("CATALOG_PATH", ""),
		FollowCategories: getEnvAsList("FOLLOW_CATEGORIES", nil),
		SelectedSources:  getEnvAsList("SELECTED_SOURCES", nil),
		ScrapeTimeout:    getEnvAsDuration("SCRAPE_TIMEOUT", 15*time.Second),
		MaxBodyRunes:     getEnvAsInt("MAX_BODY_RUNES", 4000),
		ResolveUserAgent: getEnv("RESOLVE_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"),

		// AI Configuration
		AIProvider:   getEnv("AI_PROVIDER", "azure"),
		AIApiKey:     getEnv("AI_API_KEY", ""),
		AIEndpoint:   getEnv("AI_ENDPOINT", ""),
		AIModel:      getEnv("AI_MODEL", "gpt-5-nano"),
		AIAPIVersion: getEnv("AI_API_VERSION", "2025-01-01-preview"),
		AITimeout:    getEnvAsInt("AI_TIMEOUT", 60),
		AIMaxTokens:  getEnvAsInt("AI_MAX_TOKENS", 1500),

		// Translator configuration
		TranslatorKey:      getEnv("TRANSLATOR_KEY", ""),
		TranslatorEndpoint: getEnv("TRANSLATOR_ENDPOINT", "https://api.cognitive.microsofttranslator.com"),
		TranslatorRegion:   getEnv("TRANSLATOR_REGION", "koreacentral"),
		SourceLanguage:     getEnv("SOURCE_LANGUAGE", "ko"),
		TargetLanguages:    getEnvAsList("TARGET_LANGUAGES", []string{"en", "ja", "fr", "zh-Hans"}),

		// Storage
		StorageBackend:   getEnv("STORAGE_BACKEND", "file"),
		StoragePath:      getEnv("STORAGE_PATH", "./data"),
		OutputPath:       getEnv("OUTPUT_PATH", "./data/output"),
		RenderHTML:       getEnvAsBool("RENDER_HTML", true),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		ElasticsearchURL: getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
		ElasticIndex:     getEnv("ELASTICSEARCH_INDEX", "news"),

		// CloudFlare R2 Configuration
		R2Endpoint:  getEnv("R2_ENDPOINT", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET", ""),
		R2AccountID: getEnv("CLOUDFLARE_ACCOUNT_ID", ""),

		// Kafka events
		KafkaBrokers: getEnvAsList("KAFKA_BROKERS", nil),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "news_collected"),

		// Timer trigger
		BackendAPIURL: getEnv("BACKEND_API_URL", ""),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		// Security
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
		}
		return err
	}

	switch c.StorageBackend {
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	case "elasticsearch":
		if c.ElasticsearchURL == "" {
			return errors.New("ELASTICSEARCH_URL is required for the elasticsearch backend")
		}
	}

	if c.AIProvider == "azure" && c.AIApiKey != "" && c.AIEndpoint == "" {
		return errors.New("AI_ENDPOINT is required for the azure provider")
	}

	if c.R2Bucket != "" && (c.R2AccessKey == "" || c.R2SecretKey == "") {
		return errors.New("R2 credentials are required when R2_BUCKET is set")
	}

	return nil
}

// AIEnabled reports whether an LLM provider has credentials.
func (c *Config) AIEnabled() bool {
	return c.AIApiKey != "" && c.AIApiKey != "test-key"
}

// TranslatorEnabled reports whether the translator has credentials.
func (c *Config) TranslatorEnabled() bool {
	return c.TranslatorKey != ""
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %t", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}

// getEnvAsList splits a comma separated variable, dropping empty entries.
func getEnvAsList(name string, defaultVal []string) []string {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
