//go:build !android

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"snakecraft/internal/desktop"
	"snakecraft/internal/game"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := game.LoadConfig(os.Getenv("SNAKECRAFT_CONFIG"))
	if err != nil {
		return err
	}
	log, err := game.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := desktop.Run(ctx, cfg, log); err != nil {
		log.Error("arena stopped", zap.Error(err))
		return err
	}
	return nil
}
