package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
	"github.com/eliteGoblin/focusd/app_block/internal/infra"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print host intents published on NATS",
	Long: `Subscribe to the intent subject and print every intent the daemon
publishes. Useful for wiring a host application or for debugging.`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.NATS.URL == "" {
		return fmt.Errorf("nats.url is not configured")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Listening on %s (%s)\n", cfg.NATS.Subject, cfg.NATS.URL)
	return infra.SubscribeIntents(ctx, cfg.NATS.URL, cfg.NATS.Subject, func(intent domain.Intent) {
		fmt.Printf("%s  %-8s %s\n", intent.SentAt.In(time.Local).Format(time.RFC3339), intent.Kind, intent.Payload())
	})
}
