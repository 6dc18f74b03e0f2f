package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/bilgisen/newsflow/internal/cache"
	"github.com/bilgisen/newsflow/internal/logger"
	"github.com/bilgisen/newsflow/internal/models"
	"github.com/bilgisen/newsflow/internal/utils"
)

// ProcessorConfig configures feed discovery
type ProcessorConfig struct {
	BaseURL        string
	Params         SearchParams
	Timeout        time.Duration
	RateInterval   time.Duration
	MaxAge         time.Duration
	MaxPerCategory int
}

// FetchOptions tune a single category fetch
type FetchOptions struct {
	// Sources overrides the accepted publishers for this fetch
	Sources SourcePolicy
	// Dedupe skips entries already marked as processed
	Dedupe bool
	// Limit overrides MaxPerCategory when positive
	Limit int
}

type Processor struct {
	cfg     ProcessorConfig
	fetcher *Fetcher
	parser  *Parser
	cache   cache.Cache
}

func NewProcessor(cfg ProcessorConfig, c cache.Cache) *Processor {
	return &Processor{
		cfg:     cfg,
		fetcher: NewFetcher(cfg.Timeout, cfg.RateInterval),
		parser:  NewParser(),
		cache:   c,
	}
}

// FetchCategory fetches the search feed for one keyword and returns the accepted entries
func (p *Processor) FetchCategory(ctx context.Context, category, subCategory string, opts FetchOptions) ([]models.FeedItem, error) {
	log := logger.Get()
	start := time.Now()

	feedURL, err := BuildSearchURL(p.cfg.BaseURL, subCategory, p.cfg.Params)
	if err != nil {
		return nil, err
	}

	data, err := p.fetcher.FetchFeed(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", subCategory, err)
	}

	items, err := p.parser.Parse(data, category, subCategory)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", subCategory, err)
	}

	if opts.Dedupe {
		items, err = p.filterDuplicates(ctx, items)
		if err != nil {
			return nil, fmt.Errorf("error filtering duplicates: %w", err)
		}
	}

	limit := p.cfg.MaxPerCategory
	if opts.Limit > 0 {
		limit = opts.Limit
	}
	filter := Filter{
		Sources:        opts.Sources,
		MaxAge:         p.cfg.MaxAge,
		MaxPerCategory: limit,
	}
	kept, skipped := filter.Apply(items)

	log.Info().
		Str("category", category).
		Str("sub_category", subCategory).
		Int("entries", len(items)).
		Int("kept", len(kept)).
		Interface("skipped", skipped).
		Dur("duration", time.Since(start)).
		Msg("Fetched category feed")

	return kept, nil
}

// filterDuplicates removes items that have already been processed
func (p *Processor) filterDuplicates(ctx context.Context, items []models.FeedItem) ([]models.FeedItem, error) {
	log := logger.Get()
	unique := make([]models.FeedItem, 0, len(items))
	duplicates := 0

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if item.Link == "" {
			log.Warn().
				Str("guid", item.Guid).
				Str("title", item.Title).
				Msg("Skipping item with empty link")
			continue
		}

		isProcessed, err := p.cache.IsProcessed(ctx, utils.Hash(item.Link))
		if err != nil {
			log.Error().
				Err(err).
				Str("link", item.Link).
				Msg("Error checking cache for item, keeping it")
		} else if isProcessed {
			duplicates++
			continue
		}
		unique = append(unique, item)
	}

	log.Debug().
		Int("unique_items", len(unique)).
		Int("duplicate_items", duplicates).
		Msg("Finished filtering duplicates")
	return unique, nil
}

// MarkAsProcessed marks the given feed links as processed in the cache
func (p *Processor) MarkAsProcessed(ctx context.Context, links []string, ttl time.Duration) error {
	for _, link := range links {
		if err := p.cache.MarkProcessed(ctx, utils.Hash(link), ttl); err != nil {
			return fmt.Errorf("error marking %s as processed: %w", link, err)
		}
	}
	return nil
}
