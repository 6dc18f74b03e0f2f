package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bilgisen/newsflow/internal/logger"
	"github.com/bilgisen/newsflow/internal/models"
)

// FileStore keeps one JSON document per item under processed/YYYY/MM/DD
type FileStore struct {
	basePath string
	mu       sync.RWMutex
	paths    map[string]string // id -> file path
	links    map[string]string // link -> id
}

func NewFileStore(basePath string) (*FileStore, error) {
	processedPath := filepath.Join(basePath, "processed")
	if err := os.MkdirAll(processedPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create processed directory: %w", err)
	}

	s := &FileStore{
		basePath: basePath,
		paths:    make(map[string]string),
		links:    make(map[string]string),
	}
	if err := s.reindex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) reindex() error {
	return filepath.WalkDir(filepath.Join(s.basePath, "processed"), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		item, err := readItem(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable news file")
			return nil
		}
		s.paths[item.ID] = path
		s.links[item.Link] = item.ID
		return nil
	})
}

func readItem(path string) (*models.NewsItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	var item models.NewsItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal news item: %w", err)
	}
	item.FilePath = path
	return &item, nil
}

// SaveNews saves a news item to disk
func (s *FileStore) SaveNews(ctx context.Context, item *models.NewsItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.links[item.Link]; exists {
		return ErrDuplicate
	}

	created := item.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	// Create dated directory (YYYY/MM/DD)
	datePath := filepath.Join(s.basePath, "processed", created.Format("2006/01/02"))
	if err := os.MkdirAll(datePath, 0755); err != nil {
		return fmt.Errorf("failed to create date directory: %w", err)
	}

	filePath := filepath.Join(datePath, fmt.Sprintf("%d_%s.json", created.Unix(), item.ID))
	item.FilePath = filePath

	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal news item: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write news file: %w", err)
	}

	s.paths[item.ID] = filePath
	s.links[item.Link] = item.ID
	return nil
}

// GetNewsByID retrieves a news item by its ID
func (s *FileStore) GetNewsByID(ctx context.Context, id string) (*models.NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	path, ok := s.paths[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return readItem(path)
}

func (s *FileStore) loadAll(ctx context.Context) ([]*models.NewsItem, error) {
	s.mu.RLock()
	paths := make([]string, 0, len(s.paths))
	for _, p := range s.paths {
		paths = append(paths, p)
	}
	s.mu.RUnlock()

	items := make([]*models.NewsItem, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, err := readItem(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// ListNews retrieves a filtered, paginated list of news items, newest first
func (s *FileStore) ListNews(ctx context.Context, filter Filter, page, pageSize int) ([]*models.NewsItem, int, error) {
	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	matched := all[:0]
	for _, item := range all {
		if filter.Matches(item) {
			matched = append(matched, item)
		}
	}
	SortNewest(matched)
	return Paginate(matched, page, pageSize), len(matched), nil
}

// SearchNews returns items whose text contains query
func (s *FileStore) SearchNews(ctx context.Context, query string, limit int) ([]*models.NewsItem, error) {
	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	hits := make([]*models.NewsItem, 0)
	for _, item := range all {
		if MatchesQuery(item, query) {
			hits = append(hits, item)
		}
	}
	SortNewest(hits)
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// DeleteNews deletes a news item by its ID
func (s *FileStore) DeleteNews(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.paths[id]
	if !ok {
		return ErrNotFound
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete news file: %w", err)
	}
	delete(s.paths, id)
	for link, linkID := range s.links {
		if linkID == id {
			delete(s.links, link)
		}
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
