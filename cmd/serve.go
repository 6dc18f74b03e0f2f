package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bilgisen/newsflow/internal/api"
	"github.com/bilgisen/newsflow/internal/logger"
	"github.com/bilgisen/newsflow/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var portFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if portFlag != "" {
				cfg.Port = portFlag
			}

			log := logger.Get()
			log.Info().Str("env", cfg.Env).Str("storage", cfg.StorageBackend).Msg("Starting application...")

			rt, err := openRuntime(context.Background(), cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			app := fiber.New(fiber.Config{
				ReadTimeout:  cfg.HTTPTimeout,
				WriteTimeout: cfg.HTTPTimeout,
				IdleTimeout:  120 * time.Second,
				ErrorHandler: middleware.ErrorHandler,
			})

			app.Use(recover.New())
			app.Use(middleware.RequestLogger())

			// Rendered pages are browsable next to the API
			if cfg.RenderHTML {
				app.Static("/pages", cfg.OutputPath, fiber.Static{Index: "index.html"})
			}

			handlers := api.NewHandlers(rt.store, rt.collector, rt.resolver, rt.collector.Catalog())
			api.SetupRoutes(app, handlers, cfg)

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("port", cfg.Port).Msg("Starting server")
				errCh <- app.Listen(":" + cfg.Port)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			log.Info().Msg("Shutting down server...")
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := app.ShutdownWithContext(ctx); err != nil {
				log.Error().Err(err).Msg("Server forced to shutdown")
			}
			// storage and cache are closed by rt.Close, so the background run must be gone first
			if err := rt.collector.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("Background collection did not stop in time")
			}

			log.Info().Msg("Server exited properly")
			return nil
		},
	}
	cmd.Flags().StringVar(&portFlag, "port", "", "Listen port (overrides PORT)")
	return cmd
}
