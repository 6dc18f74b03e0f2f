package api

import (
	"github.com/bilgisen/newsflow/internal/collector"
	"github.com/bilgisen/newsflow/internal/config"
	"github.com/bilgisen/newsflow/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, handlers *Handlers, cfg *config.Config) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-API-Key",
	}))

	// API group with versioning
	api := app.Group("/api/v1")

	api.Get("/health", handlers.HealthCheck)
	api.Get("/options", handlers.Options)

	news := api.Group("/news")
	{
		news.Get("",
			middleware.ValidateQueryParams(func() interface{} { return new(ListQuery) }),
			handlers.GetNews)
		news.Get("/search",
			middleware.ValidateQueryParams(func() interface{} { return new(SearchQuery) }),
			handlers.SearchNews)
		news.Get("/:id", handlers.GetNewsByID)
	}

	api.Post("/analyze",
		middleware.ValidateRequest(func() interface{} { return new(collector.AnalyzeRequest) }),
		handlers.Analyze)
	api.Post("/resolve",
		middleware.ValidateRequest(func() interface{} { return new(ResolveRequest) }),
		handlers.Resolve)

	admin := api.Group("/admin", middleware.AdminOnly(cfg.AdminAPIKey))
	{
		admin.Post("/collect", handlers.Collect)
		admin.Delete("/news/:id", handlers.DeleteNews)
	}

	// 404 Handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
