package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vmunix/romshelf/internal/config"
	"github.com/vmunix/romshelf/internal/server"
)

func runServer(configPath string) error {
	if configPath == "" {
		found, err := config.Discover()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		configPath = found
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := server.NewLogger(os.Stdout, cfg.Server.LogLevel)
	if !cfg.Inbox.Enabled {
		logger.Warn("inbox disabled; nothing to watch", "config", configPath)
	}

	// Inbox files are consumed: imported sources are moved, not copied.
	app, err := server.Open(cfg, true, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("romshelfd starting",
		"version", version,
		"config", configPath,
		"library", cfg.Library.Root,
		"inbox", cfg.Inbox.Path)

	if err := server.NewRunner(app, logger).Run(ctx); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
