package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// SearchParams holds the locale parameters of the news search feed
type SearchParams struct {
	Language string // hl, e.g. "ko"
	Country  string // gl, e.g. "KR"
}

// CEID returns the "<country>:<language>" edition id.
func (s SearchParams) CEID() string {
	return s.Country + ":" + s.Language
}

// BuildSearchURL builds the RSS search URL for a keyword.
func BuildSearchURL(base, keyword string, params SearchParams) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid feed base URL %q: %w", base, err)
	}
	q := u.Query()
	q.Set("q", keyword)
	q.Set("hl", params.Language)
	q.Set("gl", params.Country)
	q.Set("ceid", params.CEID())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type Fetcher struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// NewFetcher creates a feed fetcher that issues at most one request per interval.
// A zero interval disables rate limiting.
func NewFetcher(timeout, interval time.Duration) *Fetcher {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Fetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(3).
			SetRetryWaitTime(2 * time.Second).
			SetRetryMaxWaitTime(10 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
			}),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// FetchFeed retrieves the raw feed document at url
func (f *Fetcher) FetchFeed(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.8").
		Get(url)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed from %s: %w", url, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode(), url)
	}

	return resp.Body(), nil
}
