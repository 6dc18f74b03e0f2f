package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bilgisen/newsflow/internal/ai"
	"github.com/bilgisen/newsflow/internal/archive"
	"github.com/bilgisen/newsflow/internal/cache"
	"github.com/bilgisen/newsflow/internal/catalog"
	"github.com/bilgisen/newsflow/internal/config"
	"github.com/bilgisen/newsflow/internal/events"
	"github.com/bilgisen/newsflow/internal/feed"
	"github.com/bilgisen/newsflow/internal/logger"
	"github.com/bilgisen/newsflow/internal/render"
	"github.com/bilgisen/newsflow/internal/resolve"
	"github.com/bilgisen/newsflow/internal/scrape"
	"github.com/bilgisen/newsflow/internal/storage"
	"github.com/bilgisen/newsflow/internal/translate"
)

// LoadCatalog returns the catalog file named by cfg, or the embedded default.
func LoadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.CatalogPath)
}

// FromConfig assembles the production pipeline around an open cache and store.
func FromConfig(ctx context.Context, cfg *config.Config, c cache.Cache, store storage.Store) (*Collector, *resolve.Resolver, error) {
	cat, err := LoadCatalog(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	completer, err := ai.NewCompleter(cfg)
	if err != nil {
		if !errors.Is(err, ai.ErrNotConfigured) {
			return nil, nil, err
		}
		logger.Warn().Msg("AI provider not configured, articles will be stored with grade unknown")
	}

	if !cfg.TranslatorEnabled() {
		logger.Warn().Msg("Translator not configured, pages will only carry the source language")
	}

	arch, err := archive.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	resolver := resolve.NewResolver(cfg.ScrapeTimeout, cfg.ResolveUserAgent, c, cfg.CacheTTL)

	var renderer *render.Renderer
	if cfg.RenderHTML {
		renderer = render.NewRenderer(cfg.OutputPath, cfg.SourceLanguage, cfg.TargetLanguages)
	}

	deps := Deps{
		Catalog: cat,
		Feed: feed.NewProcessor(feed.ProcessorConfig{
			BaseURL:        cfg.FeedBaseURL,
			Params:         feed.SearchParams{Language: cfg.FeedLanguage, Country: cfg.FeedCountry},
			Timeout:        cfg.ScrapeTimeout,
			RateInterval:   cfg.FeedRateInterval,
			MaxAge:         cfg.MaxArticleAge,
			MaxPerCategory: cfg.MaxPerCategory,
		}, c),
		Resolver:   resolver,
		Scraper:    scrape.NewScraper(cfg.ScrapeTimeout, cfg.ResolveUserAgent, cfg.MaxBodyRunes),
		Evaluator:  ai.NewEvaluator(completer, cfg.SourceLanguage, cfg.MaxConcurrency),
		Translator: translate.NewClient(cfg.TranslatorEndpoint, cfg.TranslatorKey, cfg.TranslatorRegion, cfg.SourceLanguage, cfg.HTTPTimeout),
		Store:      store,
		Renderer:   renderer,
		Events:     events.New(cfg.KafkaBrokers, cfg.KafkaTopic),
		Archive:    arch,
	}

	return New(deps, Options{
		Concurrency:      cfg.MaxConcurrency,
		CacheTTL:         cfg.CacheTTL,
		TargetLanguages:  cfg.TargetLanguages,
		FollowCategories: cfg.FollowCategories,
		SelectedSources:  cfg.SelectedSources,
		RunTimeout:       2 * time.Hour,
	}), resolver, nil
}

// Catalog returns the catalog the collector works from.
func (c *Collector) Catalog() *catalog.Catalog {
	return c.deps.Catalog
}

// Close releases the event publisher.
func (c *Collector) Close() error {
	return c.deps.Events.Close()
}
