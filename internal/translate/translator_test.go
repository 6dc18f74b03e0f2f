package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTranslatorServer(t *testing.T, captured *http.Request) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = *r.Clone(context.Background())
		var body []requestDoc
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		type tr struct {
			Text string `json:"text"`
			To   string `json:"to"`
		}
		out := make([]map[string][]tr, len(body))
		for i, doc := range body {
			var trs []tr
			for _, lang := range r.URL.Query()["to"] {
				trs = append(trs, tr{Text: lang + ":" + doc.Text, To: lang})
			}
			out[i] = map[string][]tr{"translations": trs}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(out))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTranslateItem(t *testing.T) {
	var req http.Request
	srv := newTranslatorServer(t, &req)
	c := NewClient(srv.URL+"/", "key-1", "koreacentral", "ko", 5*time.Second)

	got, err := c.TranslateItem(context.Background(), "제목", "요약", []string{"en", "ko", "zh-Hans"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "제목", got["ko"].Title)
	require.Equal(t, "en:제목", got["en"].Title)
	require.Equal(t, "en:요약", got["en"].Summary)
	require.Equal(t, "zh-Hans:요약", got["zh-Hans"].Summary)

	require.Equal(t, "/translate", req.URL.Path)
	require.Equal(t, "3.0", req.URL.Query().Get("api-version"))
	require.Equal(t, "ko", req.URL.Query().Get("from"))
	require.Equal(t, []string{"en", "zh-Hans"}, req.URL.Query()["to"])
	require.Equal(t, "key-1", req.Header.Get("Ocp-Apim-Subscription-Key"))
	require.Equal(t, "koreacentral", req.Header.Get("Ocp-Apim-Subscription-Region"))
	_, err = uuid.Parse(req.Header.Get("X-ClientTraceId"))
	require.NoError(t, err)
}

func TestTranslateItemSourceOnly(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "key", "", "ko", time.Second)
	got, err := c.TranslateItem(context.Background(), "제목", "요약", []string{"ko"})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestTranslateItemKeepsSourceOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401000,"message":"invalid subscription key"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad", "", "ko", 5*time.Second)
	got, err := c.TranslateItem(context.Background(), "제목", "요약", []string{"en"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 401000, apiErr.Code)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, map[string]string{"title": "제목", "summary": "요약"},
		map[string]string{"title": got["ko"].Title, "summary": got["ko"].Summary})
	require.NotContains(t, got, "en")
}

func TestTranslateNotConfigured(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", "", "ko", time.Second)
	got, err := c.TranslateItem(context.Background(), "t", "s", []string{"en"})
	require.ErrorIs(t, err, ErrNotConfigured)
	require.Contains(t, got, "ko")
}
