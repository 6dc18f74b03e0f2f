package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bilgisen/newsflow/internal/models"
	"github.com/stretchr/testify/require"
)

func newItem(id, link string, published time.Time) *models.NewsItem {
	return &models.NewsItem{
		ID:          id,
		Title:       "title " + id,
		Link:        link,
		Source:      "YTN",
		Category:    "정치",
		SubCategory: "국회",
		Summary:     "summary " + id,
		TrustGrade:  models.TrustMedium,
		PublishedAt: published,
		CreatedAt:   time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC),
	}
}

func TestFileStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	item := newItem("a1", "https://example.com/1", time.Now())
	require.NoError(t, s.SaveNews(ctx, item))
	require.Equal(t, filepath.Join(dir, "processed", "2025", "03", "04", fmt.Sprintf("%d_a1.json", item.CreatedAt.Unix())), item.FilePath)

	got, err := s.GetNewsByID(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, item.Title, got.Title)
	require.Equal(t, item.FilePath, got.FilePath)

	_, err = s.GetNewsByID(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	dup := newItem("a2", "https://example.com/1", time.Now())
	require.ErrorIs(t, s.SaveNews(ctx, dup), ErrDuplicate)
}

func TestFileStoreReopenKeepsIndex(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveNews(ctx, newItem("a1", "https://example.com/1", time.Now())))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "processed", "broken.json"), []byte("{"), 0o644))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	_, err = reopened.GetNewsByID(ctx, "a1")
	require.NoError(t, err)
	require.ErrorIs(t, reopened.SaveNews(ctx, newItem("a9", "https://example.com/1", time.Now())), ErrDuplicate)
}

func TestFileStoreListFilterAndPaginate(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		item := newItem(fmt.Sprintf("n%d", i), fmt.Sprintf("https://example.com/%d", i), base.Add(time.Duration(i)*time.Hour))
		if i%2 == 0 {
			item.TrustGrade = models.TrustHigh
			item.Source = "한겨레"
		}
		require.NoError(t, s.SaveNews(ctx, item))
	}

	items, total, err := s.ListNews(ctx, Filter{}, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Len(t, items, 2)
	require.Equal(t, "n4", items[0].ID)
	require.Equal(t, "n3", items[1].ID)

	items, total, err = s.ListNews(ctx, Filter{Grade: models.TrustHigh, Source: "한겨레"}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, []string{"n4", "n2", "n0"}, ids(items))

	items, total, err = s.ListNews(ctx, Filter{Category: "경제"}, 1, 10)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, items)

	items, _, err = s.ListNews(ctx, Filter{}, 9, 10)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestFileStoreSearchAndDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	item := newItem("s1", "https://example.com/s1", time.Now())
	item.Title = "국회 예산안 통과"
	item.Translations = map[string]models.Translation{"en": {Title: "Budget Bill Passes"}}
	require.NoError(t, s.SaveNews(ctx, item))
	require.NoError(t, s.SaveNews(ctx, newItem("s2", "https://example.com/s2", time.Now())))

	hits, err := s.SearchNews(ctx, "예산안", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"s1"}, ids(hits))

	hits, err = s.SearchNews(ctx, "budget bill", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"s1"}, ids(hits))

	hits, err = s.SearchNews(ctx, "ytn", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hits, err = s.SearchNews(ctx, "없는 단어", 10)
	require.NoError(t, err)
	require.NotNil(t, hits)
	require.Empty(t, hits)

	require.NoError(t, s.DeleteNews(ctx, "s1"))
	require.ErrorIs(t, s.DeleteNews(ctx, "s1"), ErrNotFound)
	_, err = s.GetNewsByID(ctx, "s1")
	require.ErrorIs(t, err, ErrNotFound)

	// the link can be stored again once deleted
	require.NoError(t, s.SaveNews(ctx, newItem("s3", "https://example.com/s1", time.Now())))
}

func TestMatchesQueryAndPaginate(t *testing.T) {
	item := newItem("x", "https://example.com/x", time.Now())
	require.False(t, MatchesQuery(item, "  "))
	require.True(t, MatchesQuery(item, "SUMMARY X"))

	page, size := Normalize(0, 1000)
	require.Equal(t, 1, page)
	require.Equal(t, 100, size)

	items := []*models.NewsItem{item, item, item}
	require.Len(t, Paginate(items, 2, 2), 1)
}

func ids(items []*models.NewsItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
