package trigger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bilgisen/newsflow/internal/logger"
	"github.com/go-resty/resty/v2"
)

const UserAgent = "NewsFlow-Timer-Trigger"

var ErrNoURL = errors.New("BACKEND_API_URL is not set")

// Client starts collection runs on a remote backend
type Client struct {
	client *resty.Client
	url    string
}

// New returns a client posting to url. apiKey is sent as X-API-Key when set.
func New(url, apiKey string, timeout time.Duration) *Client {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		c.SetHeader("X-API-Key", apiKey)
	}
	return &Client{client: c, url: url}
}

// Fire sends one trigger request. Any non-2xx answer is an error.
func (c *Client) Fire(ctx context.Context) error {
	if c.url == "" {
		return ErrNoURL
	}
	resp, err := c.client.R().SetContext(ctx).Post(c.url)
	if err != nil {
		return fmt.Errorf("trigger request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("trigger returned status %d: %s", resp.StatusCode(), resp.String())
	}
	logger.Info().Int("status", resp.StatusCode()).Str("url", c.url).Msg("Triggered backend collection")
	return nil
}

// Every fires immediately and then on each tick until ctx ends. Failed
// triggers are logged and retried on the next tick.
func (c *Client) Every(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := c.Fire(ctx); err != nil {
			if errors.Is(err, ErrNoURL) {
				return err
			}
			logger.Error().Err(err).Msg("Failed to trigger backend collection")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
