package collector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bilgisen/newsflow/internal/ai"
	"github.com/bilgisen/newsflow/internal/archive"
	"github.com/bilgisen/newsflow/internal/catalog"
	"github.com/bilgisen/newsflow/internal/events"
	"github.com/bilgisen/newsflow/internal/feed"
	"github.com/bilgisen/newsflow/internal/logger"
	"github.com/bilgisen/newsflow/internal/models"
	"github.com/bilgisen/newsflow/internal/render"
	"github.com/bilgisen/newsflow/internal/resolve"
	"github.com/bilgisen/newsflow/internal/storage"
)

var (
	ErrRunInProgress   = errors.New("a collection run is already in progress")
	ErrUnknownCategory = errors.New("unknown category")
	ErrNoArticles      = errors.New("no articles found for the selected categories")
	ErrShutdown        = errors.New("collector is shutting down")
)

// FeedSource discovers candidate articles for a keyword
type FeedSource interface {
	FetchCategory(ctx context.Context, category, subCategory string, opts feed.FetchOptions) ([]models.FeedItem, error)
	MarkAsProcessed(ctx context.Context, links []string, ttl time.Duration) error
}

type LinkResolver interface {
	Resolve(ctx context.Context, link string) (resolve.Metadata, error)
}

type BodyScraper interface {
	Scrape(ctx context.Context, pageURL string) (string, error)
	Extract(page []byte, pageURL string) (string, error)
}

type ArticleEvaluator interface {
	Evaluate(ctx context.Context, a ai.Article, sources []string) (ai.Evaluation, error)
	EvaluateAll(ctx context.Context, articles []ai.Article, sources []string) ([]ai.Result, error)
}

type Translator interface {
	TranslateItem(ctx context.Context, title, summary string, targets []string) (map[string]models.Translation, error)
	Source() string
}

// Deps are the pipeline stages a Collector drives
type Deps struct {
	Catalog    *catalog.Catalog
	Feed       FeedSource
	Resolver   LinkResolver
	Scraper    BodyScraper
	Evaluator  ArticleEvaluator
	Translator Translator
	Store      storage.Store
	Renderer   *render.Renderer
	Events     events.Publisher
	Archive    archive.Publisher
}

// Options tune a Collector
type Options struct {
	Concurrency      int
	CacheTTL         time.Duration
	TargetLanguages  []string
	FollowCategories []string
	SelectedSources  []string
	IndexTitle       string
	// RunTimeout bounds background runs started with Start
	RunTimeout time.Duration
}

type Collector struct {
	deps    Deps
	opts    Options
	running atomic.Bool
	now     func() time.Time

	// background runs derive from base and are tracked by wg until Shutdown
	mu     sync.Mutex
	closed bool
	base   context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
}

func New(deps Deps, opts Options) *Collector {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.IndexTitle == "" {
		opts.IndexTitle = "NewsFlow"
	}
	if deps.Events == nil {
		deps.Events = events.Noop{}
	}
	if deps.Archive == nil {
		deps.Archive = archive.Noop{}
	}
	c := &Collector{deps: deps, opts: opts, now: time.Now}
	c.base, c.stop = context.WithCancel(context.Background())
	return c
}

// Running reports whether a collection run is active.
func (c *Collector) Running() bool {
	return c.running.Load()
}

// Start launches a run in the background. It fails with ErrRunInProgress
// instead of queueing a second run. The run is cancelled by ctx or by Shutdown.
func (c *Collector) Start(ctx context.Context, opts RunOptions) error {
	if _, err := c.categories(opts.Categories); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrShutdown
	}
	if !c.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		defer c.running.Store(false)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(c.base, cancel)
		defer stop()

		if c.opts.RunTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.opts.RunTimeout)
			defer cancel()
		}
		report, err := c.run(ctx, opts)
		if err != nil {
			logger.Error().Err(err).Msg("Background collection failed")
			return
		}
		logger.Info().
			Int("saved", report.Saved()).
			Int("failures", len(report.Failures)).
			Dur("duration", report.Duration).
			Msg("Background collection finished")
	}()
	return nil
}

// Shutdown cancels any background run and waits for it to return,
// or for ctx to expire. Start fails with ErrShutdown afterwards.
func (c *Collector) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.stop()
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run collects synchronously.
func (c *Collector) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer c.running.Store(false)
	return c.run(ctx, opts)
}

// categories returns the main categories to work on, validated against the catalog
func (c *Collector) categories(requested []string) ([]string, error) {
	if len(requested) == 0 {
		requested = c.opts.FollowCategories
	}
	if len(requested) == 0 {
		return c.deps.Catalog.Categories(), nil
	}
	for _, name := range requested {
		if !c.deps.Catalog.HasCategory(name) {
			return nil, &CategoryError{Name: name}
		}
	}
	return requested, nil
}

// CategoryError names a category missing from the catalog
type CategoryError struct {
	Name string
}

func (e *CategoryError) Error() string {
	return "unknown category: " + e.Name
}

func (e *CategoryError) Unwrap() error { return ErrUnknownCategory }
