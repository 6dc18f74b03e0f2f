package main

import (
	"os"

	"github.com/bilgisen/newsflow/internal/logger"
	"github.com/gofiber/fiber/v2"
)

// Serves the rendered pages on their own, without the API
func main() {
	logger.Init(logger.Config{Level: "info", Pretty: true})

	dir := os.Getenv("OUTPUT_PATH")
	if dir == "" {
		dir = "./data/output"
	}
	port := os.Getenv("WEB_PORT")
	if port == "" {
		port = "3000"
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Static("/", dir, fiber.Static{Index: "index.html", Browse: true})

	logger.Info().Str("dir", dir).Msgf("Web server starting on http://localhost:%s", port)
	if err := app.Listen(":" + port); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}
