package feed

import (
	"time"

	"github.com/bilgisen/newsflow/internal/models"
)

// SourcePolicy decides which publishers are accepted
type SourcePolicy interface {
	IsAllowedSource(name string) bool
}

// Filter drops feed entries that should not be processed
type Filter struct {
	Sources        SourcePolicy
	MaxAge         time.Duration
	MaxPerCategory int
	Now            func() time.Time
}

// SkipReason explains why an entry was dropped
type SkipReason string

const (
	SkipSource SkipReason = "source_not_allowed"
	SkipNoDate SkipReason = "missing_pubdate"
	SkipTooOld SkipReason = "too_old"
	SkipCap    SkipReason = "category_cap"
)

// Apply keeps entries in feed order until MaxPerCategory is reached.
func (f Filter) Apply(items []models.FeedItem) ([]models.FeedItem, map[SkipReason]int) {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	cutoff := time.Time{}
	if f.MaxAge > 0 {
		cutoff = now().Add(-f.MaxAge)
	}

	skipped := make(map[SkipReason]int)
	kept := make([]models.FeedItem, 0, len(items))
	for _, item := range items {
		if f.Sources != nil && (item.Source == "" || !f.Sources.IsAllowedSource(item.Source)) {
			skipped[SkipSource]++
			continue
		}
		if item.PublishedAt.IsZero() {
			skipped[SkipNoDate]++
			continue
		}
		if !cutoff.IsZero() && item.PublishedAt.Before(cutoff) {
			skipped[SkipTooOld]++
			continue
		}
		if f.MaxPerCategory > 0 && len(kept) >= f.MaxPerCategory {
			skipped[SkipCap]++
			continue
		}
		kept = append(kept, item)
	}
	return kept, skipped
}
