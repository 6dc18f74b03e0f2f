package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bilgisen/newsflow/internal/config"
	"github.com/bilgisen/newsflow/internal/logger"
)

// ErrMiss is returned by GetJSON when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// Cache tracks processed feed links and stores small JSON documents
type Cache interface {
	IsProcessed(ctx context.Context, hash string) (bool, error)
	MarkProcessed(ctx context.Context, hash string, ttl time.Duration) error
	ClearProcessed(ctx context.Context) error
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Close() error
}

// New returns a Redis cache when REDIS_URL is set and an in-memory one otherwise.
func New(cfg *config.Config) (Cache, error) {
	if cfg.RedisURL == "" {
		logger.Warn().Msg("REDIS_URL not set, using in-memory cache")
		return NewMemoryCache(cfg.RedisPrefix), nil
	}
	return NewRedisClient(cfg)
}
