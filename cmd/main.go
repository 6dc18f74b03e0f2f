package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bilgisen/newsflow/internal/cache"
	"github.com/bilgisen/newsflow/internal/collector"
	"github.com/bilgisen/newsflow/internal/config"
	"github.com/bilgisen/newsflow/internal/logger"
	"github.com/bilgisen/newsflow/internal/resolve"
	"github.com/bilgisen/newsflow/internal/storage"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "newsflow",
		Short:         "newsflow collects, grades and translates Korean news headlines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd(),
		collectCmd(),
		triggerCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and initializes the logger from it
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	output := "stdout"
	if cfg.LogFile != "" {
		output = cfg.LogFile
	}
	logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: output,
		Pretty: !cfg.IsProduction() && cfg.LogFile == "",
	})
	return cfg, nil
}

// runtime holds the long-lived dependencies shared by serve and collect
type runtime struct {
	cfg       *config.Config
	cache     cache.Cache
	store     storage.Store
	collector *collector.Collector
	resolver  *resolve.Resolver
}

func openRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	c, err := cache.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	coll, resolver, err := collector.FromConfig(ctx, cfg, c, store)
	if err != nil {
		store.Close()
		c.Close()
		return nil, err
	}

	return &runtime{cfg: cfg, cache: c, store: store, collector: coll, resolver: resolver}, nil
}

func (r *runtime) Close() {
	if err := r.collector.Close(); err != nil {
		logger.WithError(err).Msg("Error closing event publisher")
	}
	if err := r.store.Close(); err != nil {
		logger.WithError(err).Msg("Error closing storage")
	}
	if err := r.cache.Close(); err != nil {
		logger.WithError(err).Msg("Error closing cache")
	}
}
