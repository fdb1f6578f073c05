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
		fmt.Fprintf(os.Stderr, "receiver start failed: %v\n", err)
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

	log.InfoObj("receiver starting", "config", map[string]any{
		"app_env":         cfg.Env,
		"webhook_addr":    cfg.WebhookAddr,
		"webhook_path":    cfg.WebhookPath,
		"publishers_file": cfg.PublishersFile,
		"storage_type":    cfg.StorageType,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	receiver, err := app.NewReceiver(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize receiver", "error", err.Error())
		return err
	}

	if err := receiver.Run(ctx); err != nil {
		return fmt.Errorf("receiver run: %w", err)
	}
	return nil
}
