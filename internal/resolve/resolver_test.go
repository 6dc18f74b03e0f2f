package resolve

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bilgisen/newsflow/internal/cache"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<html><head>
<title>Fallback title</title>
<meta property="og:title" content="기사 제목">
<meta property="og:image" content="/images/main.jpg">
</head><body><article><p>본문</p></article></body></html>`

// useLoopbackAggregator treats 127.0.0.1 as the aggregator host so that
// "localhost" URLs of the same test server count as original articles.
func useLoopbackAggregator(t *testing.T) {
	t.Helper()
	prev := aggregatorHosts
	aggregatorHosts = []string{"127.0.0.1"}
	t.Cleanup(func() { aggregatorHosts = prev })
}

func localhost(srvURL string) string {
	return strings.Replace(srvURL, "127.0.0.1", "localhost", 1)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articleHTML)
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, localhost(srv.URL)+"/article", http.StatusFound)
	})
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><c-wiz><div data-n-au="%s/article"></div></c-wiz></body></html>`, localhost(srv.URL))
	})
	mux.HandleFunc("/dead-end", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>nothing here</body></html>`)
	})
	mux.HandleFunc("/pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF")
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveChain(t *testing.T) {
	useLoopbackAggregator(t)
	srv := newTestServer(t)
	r := NewResolver(5*time.Second, "test-agent", nil, time.Hour)
	ctx := context.Background()
	article := localhost(srv.URL) + "/article"

	t.Run("already original", func(t *testing.T) {
		meta, err := r.Resolve(ctx, article)
		require.NoError(t, err)
		require.True(t, meta.Resolved)
		require.Equal(t, article, meta.OriginalURL)
		require.Equal(t, localhost(srv.URL)+"/images/main.jpg", meta.ImageURL)
		require.Equal(t, "기사 제목", meta.Title)
		require.NotEmpty(t, meta.HTML)
	})

	t.Run("url parameter", func(t *testing.T) {
		meta, err := r.Resolve(ctx, srv.URL+"/dead-end?url="+url.QueryEscape(article))
		require.NoError(t, err)
		require.True(t, meta.Resolved)
		require.Equal(t, article, meta.OriginalURL)
	})

	t.Run("http redirect", func(t *testing.T) {
		meta, err := r.Resolve(ctx, srv.URL+"/redirect")
		require.NoError(t, err)
		require.True(t, meta.Resolved)
		require.Equal(t, article, meta.OriginalURL)
		require.NotEmpty(t, meta.ImageURL)
	})

	t.Run("landing page attribute", func(t *testing.T) {
		meta, err := r.Resolve(ctx, srv.URL+"/landing")
		require.NoError(t, err)
		require.True(t, meta.Resolved)
		require.Equal(t, article, meta.OriginalURL)
	})

	t.Run("unresolvable", func(t *testing.T) {
		link := srv.URL + "/dead-end"
		meta, err := r.Resolve(ctx, link)
		require.NoError(t, err)
		require.False(t, meta.Resolved)
		require.Equal(t, link, meta.OriginalURL)
	})

	t.Run("typed errors", func(t *testing.T) {
		_, err := r.Resolve(ctx, srv.URL+"/pdf")
		require.ErrorIs(t, err, ErrNotHTML)

		meta, err := r.Resolve(ctx, srv.URL+"/gone")
		require.True(t, IsStatus(err, http.StatusGone))
		require.Equal(t, srv.URL+"/gone", meta.OriginalURL)
	})
}

func TestResolveUsesCache(t *testing.T) {
	useLoopbackAggregator(t)
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articleHTML)
	}))
	defer srv.Close()

	mem := cache.NewMemoryCache("test:")
	r := NewResolver(5*time.Second, "", mem, time.Hour)
	link := localhost(srv.URL) + "/a"

	first, err := r.Resolve(context.Background(), link)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), link)
	require.NoError(t, err)

	require.Equal(t, 1, hits)
	require.Equal(t, first.ImageURL, second.ImageURL)
	require.Nil(t, second.HTML)
}

func TestExtractImageOrder(t *testing.T) {
	base, _ := url.Parse("https://www.example.com/news/1")
	cases := []struct {
		html string
		want string
	}{
		{`<meta property="og:image:url" content="https://cdn.example.com/a.jpg"><meta name="twitter:image" content="/b.jpg">`, "https://cdn.example.com/a.jpg"},
		{`<meta name="twitter:image:src" content="b.jpg">`, "https://www.example.com/news/b.jpg"},
		{`<link rel="image_src" href="//img.example.com/c.png">`, "https://img.example.com/c.png"},
		{`<body><img src="/logo.png"><article><img src="/d.png"></article></body>`, "https://www.example.com/d.png"},
		{`<body><img src="/logo.png"></body>`, ""},
	}
	for _, tc := range cases {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(tc.html))
		require.NoError(t, err)
		require.Equal(t, tc.want, ExtractImage(doc, base), tc.html)
	}
}

func TestLandingTargetSkipsAggregatorLinks(t *testing.T) {
	html := `<html><head>
<link rel="canonical" href="https://news.google.com/articles/abc">
<meta property="og:url" content="https://www.google.com/">
<meta http-equiv="refresh" content="0; url='https://www.yna.co.kr/view/AKR1'">
</head></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	require.Equal(t, "https://www.yna.co.kr/view/AKR1", LandingTarget(doc, "https://news.google.com/rss/articles/abc"))
}

func TestQueryTarget(t *testing.T) {
	require.Equal(t, "https://www.hani.co.kr/a", QueryTarget("https://news.google.com/url?url=https%3A%2F%2Fwww.hani.co.kr%2Fa"))
	require.Empty(t, QueryTarget("https://news.google.com/rss/articles/abc?oc=5"))
	require.Empty(t, QueryTarget("https://news.google.com/url?url=javascript:alert(1)"))
	require.True(t, IsGoogleNews("https://news.google.com/rss/articles/abc"))
	require.False(t, IsGoogleNews("https://www.ytn.co.kr/_ln/0101"))
}
