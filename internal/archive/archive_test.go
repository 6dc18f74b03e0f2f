package archive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bilgisen/newsflow/internal/config"
	"github.com/stretchr/testify/require"
)

type storedObject struct {
	contentType string
	body        string
}

func fakeBucket(t *testing.T) (*httptest.Server, map[string]storedObject) {
	t.Helper()
	var mu sync.Mutex
	objects := map[string]storedObject{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		objects[r.URL.Path] = storedObject{contentType: r.Header.Get("Content-Type"), body: string(data)}
		mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, objects
}

func TestNewWithoutBucketIsNoop(t *testing.T) {
	cfg := config.FromEnv()
	cfg.R2Bucket = ""
	p, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NoError(t, p.UploadJSON(context.Background(), "k", 1))
}

func TestS3PublisherUploads(t *testing.T) {
	srv, objects := fakeBucket(t)
	ctx := context.Background()

	p, err := NewS3Publisher(ctx, srv.URL, "access", "secret", "news", "site")
	require.NoError(t, err)
	require.True(t, p.Enabled())

	page := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(page, []byte("<html></html>"), 0o644))

	require.NoError(t, p.UploadFile(ctx, "pages/정치/국회_news.html", page, "text/html; charset=utf-8"))
	require.NoError(t, p.UploadJSON(ctx, "runs/1.json", map[string]int{"saved": 3}))

	html, ok := objects["/news/site/pages/정치/국회_news.html"]
	require.True(t, ok, "objects: %v", objects)
	require.Equal(t, "<html></html>", html.body)
	require.Equal(t, "text/html; charset=utf-8", html.contentType)

	snapshot := objects["/news/site/runs/1.json"]
	require.JSONEq(t, `{"saved": 3}`, snapshot.body)

	require.Error(t, p.UploadFile(ctx, "missing", filepath.Join(t.TempDir(), "nope"), "text/plain"))
}
