package models

import "time"

// FeedItem represents a raw entry of the RSS search feed
type FeedItem struct {
	Guid        string    `json:"guid"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	SourceURL   string    `json:"source_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Snippet     string    `json:"snippet,omitempty"`
	Category    string    `json:"category"`
	SubCategory string    `json:"sub_category"`
}

// Content returns the best text the feed itself offers for an entry.
func (f FeedItem) Content() string {
	if f.Snippet != "" {
		return f.Snippet
	}
	return f.Title
}
