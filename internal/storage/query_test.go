package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bilgisen/newsflow/internal/models"
	"github.com/stretchr/testify/require"
)

func TestBuildListQuery(t *testing.T) {
	sql, args := buildListQuery(Filter{}, 2, 10)
	require.Equal(t, "SELECT doc FROM news_items ORDER BY published_at DESC NULLS LAST, created_at DESC LIMIT $1 OFFSET $2", sql)
	require.Equal(t, []interface{}{10, 10}, args)

	sql, args = buildListQuery(Filter{Category: "정치", Grade: models.TrustLow}, 1, 20)
	require.Equal(t, "SELECT doc FROM news_items WHERE category = $1 AND trust_grade = $2 ORDER BY published_at DESC NULLS LAST, created_at DESC LIMIT $3 OFFSET $4", sql)
	require.Equal(t, []interface{}{"정치", "low", 20, 0}, args)
}

func TestBuildSearchQuery(t *testing.T) {
	sql, args := buildSearchQuery(" 50%_off ", 5)
	require.Contains(t, sql, "title ILIKE $1")
	require.Contains(t, sql, "LIMIT $2")
	require.Contains(t, sql, "tr.value->>'title' ILIKE $1")
	require.NotContains(t, sql, "::text")
	require.Equal(t, []interface{}{`%50\%\_off%`, 5}, args)
}

func TestBuildElasticBodies(t *testing.T) {
	body := buildListBody(Filter{Source: "YTN"}, 3, 10)
	require.Equal(t, 20, body["from"])
	require.Equal(t, 10, body["size"])
	data, err := json.Marshal(body)
	require.NoError(t, err)
	require.Contains(t, string(data), `{"term":{"source":"YTN"}}`)

	data, err = json.Marshal(buildListBody(Filter{}, 1, 10))
	require.NoError(t, err)
	require.Contains(t, string(data), `"match_all"`)

	data, err = json.Marshal(buildIDBody("e1"))
	require.NoError(t, err)
	require.JSONEq(t, `{"size":1,"query":{"term":{"id":"e1"}}}`, string(data))

	search := buildSearchBody("예산", 0)
	require.Equal(t, 50, search["size"])
	data, err = json.Marshal(search)
	require.NoError(t, err)
	require.Contains(t, string(data), `"title^2"`)
}

// fakeElastic answers the handful of endpoints ElasticStore uses.
func fakeElastic(t *testing.T) *httptest.Server {
	t.Helper()
	docs := map[string][]byte{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

		switch {
		case r.Method == http.MethodHead && len(parts) == 1:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && len(parts) == 1:
			_, _ = io.WriteString(w, `{"acknowledged":true}`)
		case len(parts) == 3 && (parts[1] == "_create" || parts[1] == "_doc") && r.Method != http.MethodGet && r.Method != http.MethodDelete:
			if _, ok := docs[parts[2]]; ok {
				w.WriteHeader(http.StatusConflict)
				_, _ = io.WriteString(w, `{"error":{"type":"version_conflict_engine_exception"}}`)
				return
			}
			data, _ := io.ReadAll(r.Body)
			docs[parts[2]] = data
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"result":"created"}`)
		case r.Method == http.MethodGet && len(parts) == 3 && parts[1] == "_doc":
			data, ok := docs[parts[2]]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"found":false}`)
				return
			}
			fmt.Fprintf(w, `{"found":true,"_source":%s}`, data)
		case r.Method == http.MethodDelete && len(parts) == 3:
			if _, ok := docs[parts[2]]; !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"result":"not_found"}`)
				return
			}
			delete(docs, parts[2])
			_, _ = io.WriteString(w, `{"result":"deleted"}`)
		case len(parts) == 2 && parts[1] == "_search":
			var body struct {
				Query struct {
					Term struct {
						ID string `json:"id"`
					} `json:"term"`
				} `json:"query"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			var hits []string
			for docID, d := range docs {
				var item models.NewsItem
				_ = json.Unmarshal(d, &item)
				if body.Query.Term.ID != "" && item.ID != body.Query.Term.ID {
					continue
				}
				hits = append(hits, fmt.Sprintf(`{"_id":%q,"_source":%s}`, docID, d))
			}
			fmt.Fprintf(w, `{"hits":{"total":{"value":%d},"hits":[%s]}}`, len(hits), strings.Join(hits, ","))
		default:
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"error":"unexpected %s %s"}`, r.Method, r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestElasticStore(t *testing.T) {
	ctx := context.Background()
	srv := fakeElastic(t)

	s, err := NewElasticStore(ctx, srv.URL, "news")
	require.NoError(t, err)

	item := &models.NewsItem{ID: "e1", Title: "t", Link: "https://example.com/e1", Source: "YTN", TrustGrade: models.TrustHigh}
	require.NoError(t, s.SaveNews(ctx, item))
	require.ErrorIs(t, s.SaveNews(ctx, item), ErrDuplicate)

	// a fresh id does not make the same link a new document
	again := *item
	again.ID = "e2"
	require.ErrorIs(t, s.SaveNews(ctx, &again), ErrDuplicate)

	got, err := s.GetNewsByID(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/e1", got.Link)

	_, err = s.GetNewsByID(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)

	items, total, err := s.ListNews(ctx, Filter{}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, items, 1)

	require.NoError(t, s.DeleteNews(ctx, "e1"))
	require.ErrorIs(t, s.DeleteNews(ctx, "e1"), ErrNotFound)
}
