package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bilgisen/newsflow/internal/collector"
	"github.com/bilgisen/newsflow/internal/logger"
	"github.com/spf13/cobra"
)

func collectCmd() *cobra.Command {
	var (
		categories []string
		sources    []string
		limit      int
		reset      bool
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one collection pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := openRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			if reset {
				if err := rt.cache.ClearProcessed(ctx); err != nil {
					return err
				}
				logger.Info().Msg("Cleared processed links")
			}

			report, err := rt.collector.Run(ctx, collector.RunOptions{Categories: categories, Sources: sources, Limit: limit})
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			for _, sub := range report.Subs {
				cmd.Printf("%-10s %-16s fetched=%d saved=%d duplicates=%d failed=%d\n",
					sub.Category, sub.SubCategory, sub.Fetched, sub.Saved, sub.Duplicates, sub.Failed)
			}
			cmd.Printf("saved %d items in %s\n", report.Saved(), report.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Main categories to collect (default: FOLLOW_CATEGORIES or all)")
	cmd.Flags().StringSliceVar(&sources, "source", nil, "Only accept these publishers (default: every catalog publisher)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Per keyword cap (default: MAX_ARTICLES_PER_CATEGORY)")
	cmd.Flags().BoolVar(&reset, "reset", false, "Forget processed links before collecting")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run report as JSON")
	return cmd
}
