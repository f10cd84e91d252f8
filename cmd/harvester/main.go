// Command harvester polls the configured Imgur albums and images and
// publishes every image it has not seen before.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/imgur-harvester/internal/app"
	"github.com/samvad-hq/imgur-harvester/internal/config"
	"github.com/samvad-hq/imgur-harvester/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "harvester: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Close() }()

	log.InfoObj("harvester starting", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h, err := app.NewHarvester(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("harvester init failed", "error", err.Error())
		return err
	}
	return h.Run(ctx)
}
