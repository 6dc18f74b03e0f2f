package resolve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bilgisen/newsflow/internal/cache"
	"github.com/bilgisen/newsflow/internal/logger"
	"github.com/bilgisen/newsflow/internal/utils"
	"github.com/go-resty/resty/v2"
)

var ErrNotHTML = errors.New("response is not HTML")

// aggregatorHosts are the hosts whose links point at a redirect page, not an article
var aggregatorHosts = []string{"news.google.com"}

// StatusError reports a non-2xx answer from a page fetch
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

// Metadata describes the original article behind a feed link
type Metadata struct {
	OriginalURL string `json:"original_url"`
	ImageURL    string `json:"image_url,omitempty"`
	Title       string `json:"title,omitempty"`
	Resolved    bool   `json:"resolved"`

	// HTML of the original article when it was fetched during this call
	HTML []byte `json:"-"`
}

type Resolver struct {
	client   *resty.Client
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewResolver(timeout time.Duration, userAgent string, c cache.Cache, cacheTTL time.Duration) *Resolver {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(1).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetHeader("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return &Resolver{client: client, cache: c, cacheTTL: cacheTTL}
}

func cacheKey(link string) string {
	return "resolve:" + utils.Hash(link)
}

// Resolve finds the original article URL and its representative image.
// On failure the returned Metadata still carries the input link.
func (r *Resolver) Resolve(ctx context.Context, link string) (Metadata, error) {
	log := logger.Get()

	if r.cache != nil {
		var cached Metadata
		if err := r.cache.GetJSON(ctx, cacheKey(link), &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			log.Warn().Err(err).Str("link", link).Msg("Resolve cache lookup failed")
		}
	}

	meta, err := r.resolve(ctx, link)
	if err != nil {
		return meta, err
	}

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, cacheKey(link), meta, r.cacheTTL); err != nil {
			log.Warn().Err(err).Str("link", link).Msg("Failed to cache resolved link")
		}
	}
	return meta, nil
}

func (r *Resolver) resolve(ctx context.Context, link string) (Metadata, error) {
	meta := Metadata{OriginalURL: link}

	target := ""
	switch {
	case !IsGoogleNews(link):
		target = link
	case QueryTarget(link) != "":
		target = QueryTarget(link)
	}

	if target == "" {
		finalURL, body, err := r.fetch(ctx, link)
		if err != nil {
			return meta, err
		}
		if !IsGoogleNews(finalURL) {
			return r.describe(meta, finalURL, body)
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return meta, fmt.Errorf("failed to parse %s: %w", finalURL, err)
		}
		target = LandingTarget(doc, finalURL)
		if target == "" {
			logger.Debug().Str("link", link).Msg("Could not resolve news link")
			return meta, nil
		}
	}

	meta.OriginalURL = target
	meta.Resolved = true

	finalURL, body, err := r.fetch(ctx, target)
	if err != nil {
		// the target is known even if the article page is unreachable
		logger.Debug().Err(err).Str("url", target).Msg("Article page fetch failed")
		return meta, nil
	}
	return r.describe(meta, finalURL, body)
}

func (r *Resolver) describe(meta Metadata, pageURL string, body []byte) (Metadata, error) {
	meta.OriginalURL = pageURL
	meta.Resolved = true
	meta.HTML = body

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return meta, nil
	}
	base, _ := url.Parse(pageURL)
	meta.ImageURL = ExtractImage(doc, base)
	meta.Title = ExtractTitle(doc)
	return meta, nil
}

func (r *Resolver) fetch(ctx context.Context, link string) (string, []byte, error) {
	resp, err := r.client.R().SetContext(ctx).Get(link)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch %s: %w", link, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return "", nil, &StatusError{URL: link, Code: resp.StatusCode()}
	}
	if ct := resp.Header().Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil && mt != "text/html" && mt != "application/xhtml+xml" {
			return "", nil, fmt.Errorf("%s: %w (%s)", link, ErrNotHTML, mt)
		}
	}

	finalURL := link
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		finalURL = raw.Request.URL.String()
	}
	return finalURL, resp.Body(), nil
}

// IsGoogleNews reports whether link points at the news aggregator.
func IsGoogleNews(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range aggregatorHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// QueryTarget returns the url= query parameter of link when it holds an absolute URL.
func QueryTarget(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	target := u.Query().Get("url")
	if isExternal(target) {
		return target
	}
	return ""
}

// LandingTarget looks for the original article URL inside an aggregator landing page.
func LandingTarget(doc *goquery.Document, pageURL string) string {
	base, _ := url.Parse(pageURL)
	candidates := []string{
		doc.Find("[data-n-au]").First().AttrOr("data-n-au", ""),
		doc.Find(`link[rel="canonical"]`).First().AttrOr("href", ""),
		doc.Find(`meta[property="og:url"]`).First().AttrOr("content", ""),
		refreshTarget(doc.Find(`meta[http-equiv="refresh"], meta[http-equiv="Refresh"]`).First().AttrOr("content", "")),
	}
	for _, c := range candidates {
		abs := absolute(base, strings.TrimSpace(c))
		if isExternal(abs) {
			return abs
		}
	}
	return ""
}

// refreshTarget extracts the URL of a "<n>; url=<target>" refresh directive.
func refreshTarget(content string) string {
	idx := strings.Index(strings.ToLower(content), "url=")
	if idx < 0 {
		return ""
	}
	return strings.Trim(strings.TrimSpace(content[idx+len("url="):]), `'"`)
}

func isExternal(link string) bool {
	if link == "" {
		return false
	}
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	return !IsGoogleNews(link) && !strings.HasSuffix(strings.ToLower(u.Hostname()), "google.com")
}

func absolute(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

var imageSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[property="og:image"]`, "content"},
	{`meta[property="og:image:url"]`, "content"},
	{`meta[name="twitter:image"]`, "content"},
	{`meta[name="twitter:image:src"]`, "content"},
	{`link[rel="image_src"]`, "href"},
	{`article img`, "src"},
}

// ExtractImage returns the representative image of a page as an absolute URL.
func ExtractImage(doc *goquery.Document, base *url.URL) string {
	for _, s := range imageSelectors {
		if v := strings.TrimSpace(doc.Find(s.selector).First().AttrOr(s.attr, "")); v != "" {
			if abs := absolute(base, v); abs != "" {
				return abs
			}
		}
	}
	return ""
}

// ExtractTitle returns og:title or the document title.
func ExtractTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find(`meta[property="og:title"]`).First().AttrOr("content", "")); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
