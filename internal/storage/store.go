package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bilgisen/newsflow/internal/config"
	"github.com/bilgisen/newsflow/internal/models"
)

var (
	ErrNotFound  = errors.New("news item not found")
	ErrDuplicate = errors.New("news item with this link already exists")
)

// Filter narrows ListNews results. Empty fields match everything.
type Filter struct {
	Category    string
	SubCategory string
	Source      string
	Grade       models.TrustGrade
}

// Matches reports whether item passes the filter.
func (f Filter) Matches(item *models.NewsItem) bool {
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.SubCategory != "" && item.SubCategory != f.SubCategory {
		return false
	}
	if f.Source != "" && item.Source != f.Source {
		return false
	}
	if f.Grade != "" && item.TrustGrade != f.Grade {
		return false
	}
	return true
}

// Store persists collected news items
type Store interface {
	SaveNews(ctx context.Context, item *models.NewsItem) error
	GetNewsByID(ctx context.Context, id string) (*models.NewsItem, error)
	ListNews(ctx context.Context, filter Filter, page, pageSize int) ([]*models.NewsItem, int, error)
	SearchNews(ctx context.Context, query string, limit int) ([]*models.NewsItem, error)
	DeleteNews(ctx context.Context, id string) error
	Close() error
}

// New opens the backend selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case "", "file":
		return NewFileStore(cfg.StoragePath)
	case "postgres":
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case "elasticsearch":
		return NewElasticStore(ctx, cfg.ElasticsearchURL, cfg.ElasticIndex)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// MatchesQuery is a case-insensitive substring match over the title, summary,
// source and translated titles of an item.
func MatchesQuery(item *models.NewsItem, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	fields := []string{item.Title, item.Summary, item.Source}
	for _, tr := range item.Translations {
		fields = append(fields, tr.Title)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// SortNewest orders items by publication time, then creation time, newest first.
func SortNewest(items []*models.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// Normalize clamps page and pageSize to sane values.
func Normalize(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// Paginate returns the requested page of items.
func Paginate(items []*models.NewsItem, page, pageSize int) []*models.NewsItem {
	page, pageSize = Normalize(page, pageSize)
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []*models.NewsItem{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
