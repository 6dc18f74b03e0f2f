package collector

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/bilgisen/newsflow/internal/ai"
	"github.com/bilgisen/newsflow/internal/feed"
	"github.com/bilgisen/newsflow/internal/logger"
	"github.com/bilgisen/newsflow/internal/models"
	"github.com/bilgisen/newsflow/internal/render"
	"github.com/bilgisen/newsflow/internal/resolve"
	"github.com/bilgisen/newsflow/internal/storage"
	"github.com/bilgisen/newsflow/internal/translate"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RunOptions select what a run collects
type RunOptions struct {
	// Categories are main categories; empty means the followed categories
	Categories []string `json:"categories"`
	// Limit overrides the per keyword cap when positive
	Limit int `json:"limit"`
	// Sources narrows the accepted publishers for this run
	Sources []string `json:"sources"`
}

// SubReport counts the outcome of one keyword
type SubReport struct {
	Category    string `json:"category"`
	SubCategory string `json:"sub_category"`
	Fetched     int    `json:"fetched"`
	Saved       int    `json:"saved"`
	Duplicates  int    `json:"duplicates"`
	Failed      int    `json:"failed"`
	Page        string `json:"page,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Failure records one item or step that did not complete
type Failure struct {
	Category    string `json:"category"`
	SubCategory string `json:"sub_category"`
	Link        string `json:"link,omitempty"`
	Stage       string `json:"stage"`
	Error       string `json:"error"`
}

// Report summarises a collection run
type Report struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Subs      []SubReport   `json:"sub_categories"`
	Failures  []Failure     `json:"failures,omitempty"`
	Index     string        `json:"index,omitempty"`

	mu sync.Mutex
}

// Saved is the number of items stored during the run.
func (r *Report) Saved() int {
	n := 0
	for _, s := range r.Subs {
		n += s.Saved
	}
	return n
}

func (r *Report) fail(f Failure) {
	r.mu.Lock()
	r.Failures = append(r.Failures, f)
	r.mu.Unlock()
}

type outcome int

const (
	outcomeSaved outcome = iota
	outcomeDuplicate
	outcomeFailed
)

func (c *Collector) run(ctx context.Context, opts RunOptions) (*Report, error) {
	log := logger.With("collector")
	report := &Report{StartedAt: c.now()}

	cats, err := c.categories(opts.Categories)
	if err != nil {
		return nil, err
	}

	log.Info().Strs("categories", cats).Msg("Starting collection run")

	for _, cat := range cats {
		for _, sub := range c.deps.Catalog.SubCategories(cat) {
			if err := ctx.Err(); err != nil {
				report.Duration = time.Since(report.StartedAt)
				return report, err
			}
			report.Subs = append(report.Subs, c.collectSub(ctx, cat, sub, opts, report))
		}
	}

	if err := c.publishIndex(ctx, report); err != nil {
		log.Error().Err(err).Msg("Error rendering index")
		report.fail(Failure{Stage: "index", Error: err.Error()})
	}

	report.Duration = time.Since(report.StartedAt)
	if c.deps.Archive.Enabled() {
		key := fmt.Sprintf("runs/%s.json", report.StartedAt.UTC().Format("20060102T150405Z"))
		if err := c.deps.Archive.UploadJSON(ctx, key, report); err != nil {
			log.Error().Err(err).Msg("Error archiving run report")
		}
	}

	log.Info().
		Int("saved", report.Saved()).
		Int("failures", len(report.Failures)).
		Dur("duration", report.Duration).
		Msg("Collection run finished")
	return report, nil
}

func (c *Collector) collectSub(ctx context.Context, cat, sub string, opts RunOptions, report *Report) SubReport {
	log := logger.With("collector").With().Str("category", cat).Str("sub_category", sub).Logger()
	sr := SubReport{Category: cat, SubCategory: sub}

	entries, err := c.deps.Feed.FetchCategory(ctx, cat, sub, feed.FetchOptions{
		Sources: c.deps.Catalog.Restrict(opts.Sources),
		Dedupe:  true,
		Limit:   opts.Limit,
	})
	if err != nil {
		log.Error().Err(err).Msg("Error fetching feed")
		sr.Error = err.Error()
		report.fail(Failure{Category: cat, SubCategory: sub, Stage: "fetch", Error: err.Error()})
		return sr
	}
	sr.Fetched = len(entries)
	if len(entries) == 0 {
		return sr
	}

	items := make([]*models.NewsItem, len(entries))
	outcomes := make([]outcome, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i := range entries {
		i := i
		g.Go(func() error {
			item, out, err := c.processEntry(gctx, entries[i])
			if err != nil {
				var se *stageError
				stage := "process"
				if errors.As(err, &se) {
					stage = se.stage
				}
				log.Warn().Err(err).Str("link", entries[i].Link).Str("stage", stage).Msg("Error processing item")
				report.fail(Failure{Category: cat, SubCategory: sub, Link: entries[i].Link, Stage: stage, Error: err.Error()})
			}
			items[i], outcomes[i] = item, out
			return nil
		})
	}
	_ = g.Wait()

	var saved []*models.NewsItem
	var done []string
	for i, out := range outcomes {
		switch out {
		case outcomeSaved:
			sr.Saved++
			saved = append(saved, items[i])
			done = append(done, entries[i].Link)
		case outcomeDuplicate:
			sr.Duplicates++
			done = append(done, entries[i].Link)
		default:
			sr.Failed++
		}
	}

	if err := c.deps.Feed.MarkAsProcessed(ctx, done, c.opts.CacheTTL); err != nil {
		log.Error().Err(err).Msg("Error marking items as processed")
	}
	if err := c.deps.Events.PublishCollected(ctx, saved...); err != nil {
		log.Error().Err(err).Msg("Error publishing collected events")
		report.fail(Failure{Category: cat, SubCategory: sub, Stage: "events", Error: err.Error()})
	}

	if len(saved) > 0 && c.deps.Renderer != nil {
		page, err := c.renderPage(ctx, cat, sub)
		if err != nil {
			log.Error().Err(err).Msg("Error rendering page")
			report.fail(Failure{Category: cat, SubCategory: sub, Stage: "render", Error: err.Error()})
		} else {
			sr.Page = page.RelPath
		}
	}

	log.Info().
		Int("fetched", sr.Fetched).
		Int("saved", sr.Saved).
		Int("duplicates", sr.Duplicates).
		Int("failed", sr.Failed).
		Msg("Collected sub-category")
	return sr
}

type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

// processEntry runs one feed entry through resolve, scrape, evaluate,
// translate and save. Only save failures drop the item.
func (c *Collector) processEntry(ctx context.Context, entry models.FeedItem) (*models.NewsItem, outcome, error) {
	log := logger.With("collector")

	meta, err := c.deps.Resolver.Resolve(ctx, entry.Link)
	if err != nil {
		log.Debug().Err(err).Str("link", entry.Link).Msg("Could not resolve link")
		meta = resolve.Metadata{OriginalURL: entry.Link}
	}

	content := entry.Content()
	if meta.Resolved && c.deps.Scraper != nil {
		var body string
		if len(meta.HTML) > 0 {
			body, err = c.deps.Scraper.Extract(meta.HTML, meta.OriginalURL)
		} else {
			body, err = c.deps.Scraper.Scrape(ctx, meta.OriginalURL)
		}
		if err != nil {
			log.Debug().Err(err).Str("url", meta.OriginalURL).Msg("Using feed snippet, no article body")
		} else {
			content = body
		}
	}

	now := c.now()
	item := &models.NewsItem{
		ID:          uuid.NewString(),
		Guid:        entry.Guid,
		Title:       entry.Title,
		Link:        meta.OriginalURL,
		FeedLink:    entry.Link,
		Source:      entry.Source,
		Category:    entry.Category,
		SubCategory: entry.SubCategory,
		PublishedAt: entry.PublishedAt,
		Content:     content,
		TrustGrade:  models.TrustUnknown,
		ImageURL:    meta.ImageURL,
		Language:    c.deps.Translator.Source(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	eval, err := c.deps.Evaluator.Evaluate(ctx, ai.Article{Title: item.Title, Source: item.Source, Content: content}, c.opts.SelectedSources)
	if err != nil {
		if ctx.Err() != nil {
			return nil, outcomeFailed, &stageError{stage: "evaluate", err: err}
		}
		log.Warn().Err(err).Str("title", item.Title).Msg("Evaluation failed, grade unknown")
	} else {
		item.Summary = eval.Summary
		item.TrustGrade = eval.Grade
		item.TrustReason = eval.Reason
	}

	translations, err := c.deps.Translator.TranslateItem(ctx, item.Title, item.Summary, c.opts.TargetLanguages)
	if err != nil && !errors.Is(err, translate.ErrNotConfigured) {
		log.Warn().Err(err).Str("title", item.Title).Msg("Translation failed, keeping source language")
	}
	item.Translations = translations

	if err := item.Validate(); err != nil {
		return nil, outcomeFailed, &stageError{stage: "validate", err: err}
	}

	if err := c.deps.Store.SaveNews(ctx, item); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, outcomeDuplicate, nil
		}
		return nil, outcomeFailed, &stageError{stage: "save", err: err}
	}
	return item, outcomeSaved, nil
}

// renderPage rewrites a keyword page from every stored item of that keyword,
// newest first, so earlier runs stay on the page
func (c *Collector) renderPage(ctx context.Context, cat, sub string) (render.Page, error) {
	stored, err := c.storedItems(ctx, storage.Filter{Category: cat, SubCategory: sub})
	if err != nil {
		return render.Page{}, fmt.Errorf("list stored items: %w", err)
	}
	items := make([]models.NewsItem, len(stored))
	for i, it := range stored {
		items[i] = *it
	}
	page, err := c.deps.Renderer.RenderCategory(cat, sub, items)
	if err != nil {
		return page, err
	}
	if c.deps.Archive.Enabled() {
		key := path.Join("pages", filepath.ToSlash(page.RelPath))
		if err := c.deps.Archive.UploadFile(ctx, key, page.Path, "text/html; charset=utf-8"); err != nil {
			return page, fmt.Errorf("archive page: %w", err)
		}
	}
	return page, nil
}

func (c *Collector) storedItems(ctx context.Context, filter storage.Filter) ([]*models.NewsItem, error) {
	const pageSize = 100
	var all []*models.NewsItem
	for page := 1; ; page++ {
		items, total, err := c.deps.Store.ListNews(ctx, filter, page, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) < pageSize || len(all) >= total {
			return all, nil
		}
	}
}

// publishIndex rewrites index.html from every page on disk, so earlier runs stay listed
func (c *Collector) publishIndex(ctx context.Context, report *Report) error {
	if c.deps.Renderer == nil {
		return nil
	}
	pages, err := c.deps.Renderer.ScanPages()
	if err != nil {
		return err
	}
	index, err := c.deps.Renderer.RenderIndex(c.opts.IndexTitle, c.deps.Catalog.Categories(), pages)
	if err != nil {
		return err
	}
	report.Index = index
	if c.deps.Archive.Enabled() {
		if err := c.deps.Archive.UploadFile(ctx, "pages/index.html", index, "text/html; charset=utf-8"); err != nil {
			return fmt.Errorf("archive index: %w", err)
		}
	}
	return nil
}
