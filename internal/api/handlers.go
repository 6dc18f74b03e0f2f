package api

import (
	"context"
	"strings"
	"time"

	"github.com/bilgisen/newsflow/internal/catalog"
	"github.com/bilgisen/newsflow/internal/collector"
	"github.com/bilgisen/newsflow/internal/logger"
	"github.com/bilgisen/newsflow/internal/models"
	"github.com/bilgisen/newsflow/internal/resolve"
	"github.com/bilgisen/newsflow/internal/storage"
	"github.com/gofiber/fiber/v2"
)

const Version = "1.0.0"

// Pipeline is the part of the collector the API drives
type Pipeline interface {
	Start(ctx context.Context, opts collector.RunOptions) error
	Analyze(ctx context.Context, req collector.AnalyzeRequest) (map[string][]models.EvaluatedArticle, error)
	Running() bool
}

type LinkResolver interface {
	Resolve(ctx context.Context, link string) (resolve.Metadata, error)
}

type Handlers struct {
	store    storage.Store
	pipeline Pipeline
	resolver LinkResolver
	catalog  *catalog.Catalog
}

func NewHandlers(store storage.Store, pipeline Pipeline, resolver LinkResolver, cat *catalog.Catalog) *Handlers {
	return &Handlers{
		store:    store,
		pipeline: pipeline,
		resolver: resolver,
		catalog:  cat,
	}
}

// ResolveRequest is the body of POST /resolve
type ResolveRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// ListQuery is the query string of GET /news
type ListQuery struct {
	Page        int    `query:"page" validate:"omitempty,min=1"`
	PageSize    int    `query:"page_size" validate:"omitempty,min=1,max=100"`
	Category    string `query:"category"`
	SubCategory string `query:"sub_category"`
	Source      string `query:"source"`
	Grade       string `query:"grade"`
}

// SearchQuery is the query string of GET /news/search
type SearchQuery struct {
	Q     string `query:"q" validate:"required"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "ok",
		"version":    Version,
		"time":       time.Now().Format(time.RFC3339),
		"collecting": h.pipeline.Running(),
	})
}

// Options handles GET /options
func (h *Handlers) Options(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"sources":    h.catalog.Sources(),
		"categories": h.catalog.CategoryList,
	})
}

// GetNews handles GET /news
func (h *Handlers) GetNews(c *fiber.Ctx) error {
	q := c.Locals("queryParams").(*ListQuery)
	page, pageSize := storage.Normalize(q.Page, q.PageSize)

	filter := storage.Filter{
		Category:    q.Category,
		SubCategory: q.SubCategory,
		Source:      q.Source,
	}
	if g := q.Grade; g != "" {
		grade := models.ParseTrustGrade(g)
		if grade == models.TrustUnknown && !strings.EqualFold(g, string(models.TrustUnknown)) {
			return fiber.NewError(fiber.StatusBadRequest, "grade must be one of high, medium, low, unknown")
		}
		filter.Grade = grade
	}

	news, total, err := h.store.ListNews(c.UserContext(), filter, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"page":      page,
		"page_size": pageSize,
		"total":     total,
		"items":     news,
	})
}

// SearchNews handles GET /news/search
func (h *Handlers) SearchNews(c *fiber.Ctx) error {
	params := c.Locals("queryParams").(*SearchQuery)
	q := strings.TrimSpace(params.Q)
	if q == "" {
		return fiber.NewError(fiber.StatusBadRequest, "query parameter q is required")
	}
	_, limit := storage.Normalize(1, params.Limit)

	items, err := h.store.SearchNews(c.UserContext(), q, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"query": q,
		"count": len(items),
		"items": items,
	})
}

// GetNewsByID handles GET /news/:id
func (h *Handlers) GetNewsByID(c *fiber.Ctx) error {
	news, err := h.store.GetNewsByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(news)
}

// Analyze handles POST /analyze
func (h *Handlers) Analyze(c *fiber.Ctx) error {
	req := c.Locals("validated").(*collector.AnalyzeRequest)
	start := time.Now()

	results, err := h.pipeline.Analyze(c.UserContext(), *req)
	if err != nil {
		return err
	}

	logger.Info().
		Strs("categories", req.SelectedCategories).
		Int("keywords", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Analysis finished")
	return c.JSON(results)
}

// Resolve handles POST /resolve
func (h *Handlers) Resolve(c *fiber.Ctx) error {
	req := c.Locals("validated").(*ResolveRequest)
	meta, err := h.resolver.Resolve(c.UserContext(), req.URL)
	if err != nil {
		return err
	}
	return c.JSON(meta)
}

// Collect handles POST /admin/collect
func (h *Handlers) Collect(c *fiber.Ctx) error {
	var opts collector.RunOptions
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&opts); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
		}
	}

	logger.Info().
		Str("ip", c.IP()).
		Strs("categories", opts.Categories).
		Msg("Received collect request")

	// The run outlives the request, so it must not inherit its context
	if err := h.pipeline.Start(context.Background(), opts); err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":  "started",
		"message": "Collection started in the background",
	})
}

// DeleteNews handles DELETE /admin/news/:id
func (h *Handlers) DeleteNews(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.store.DeleteNews(c.UserContext(), id); err != nil {
		return err
	}

	logger.Info().Str("id", id).Msg("Deleted news item")
	return c.JSON(fiber.Map{
		"status":  "deleted",
		"message": "News item deleted successfully",
	})
}
