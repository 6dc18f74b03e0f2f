package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bilgisen/newsflow/internal/trigger"
	"github.com/spf13/cobra"
)

func triggerCmd() *cobra.Command {
	var (
		urlFlag string
		every   time.Duration
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Ask a running backend to start a collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			url := cfg.BackendAPIURL
			if urlFlag != "" {
				url = urlFlag
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := trigger.New(url, cfg.AdminAPIKey, timeout)
			if every > 0 {
				return client.Every(ctx, every)
			}
			return client.Fire(ctx)
		},
	}
	cmd.Flags().StringVar(&urlFlag, "url", "", "Collect endpoint (overrides BACKEND_API_URL)")
	cmd.Flags().DurationVar(&every, "every", 0, "Repeat at this interval instead of firing once")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	return cmd
}
