package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/dbl-go/internal/app"
	"github.com/samvad-hq/dbl-go/internal/config"
	"github.com/samvad-hq/dbl-go/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "poster start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()
	log := logger.Default()

	log.InfoObj("poster starting", "config", map[string]any{
		"app_env":       cfg.Env,
		"bot_id":        cfg.BotID.String(),
		"post_interval": cfg.PostInterval.String(),
		"stats_file":    cfg.StatsFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poster, err := app.NewPoster(cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize poster", "error", err.Error())
		return err
	}

	if err := poster.Run(ctx); err != nil {
		return fmt.Errorf("poster run: %w", err)
	}
	return nil
}
